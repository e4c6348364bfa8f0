package pass

import "sysycc/internal/ir"

// UndefProp propagates Undef through pure instructions: any pure
// instruction with at least one Undef operand produces a result that
// is itself never read meaningfully, so it can be replaced outright by
// an Undef of its own type (spec.md §3's "reader may choose any
// value" semantics, extended transitively).
type UndefProp struct{}

func (UndefProp) Info() Info {
	return Info{
		Name:        "undef_prop",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Invalidates: []string{"*"},
	}
}

func (UndefProp) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if !isPureNonPhi(inst) {
				continue
			}
			if !anyOperandUndef(inst) {
				continue
			}
			inst.Val().ReplaceBy(b.Undef(inst.Val().Type))
			changed = true
		}
	}
	return changed
}

func isPureNonPhi(inst ir.Instruction) bool {
	if inst.IsTerminator() {
		return false
	}
	if _, ok := inst.(*ir.Phi); ok {
		return false // a phi with one undef incoming still has real definitions on other edges
	}
	for _, e := range inst.GetEffects() {
		if e != ir.EffectPure {
			return false
		}
	}
	return true
}

func anyOperandUndef(inst ir.Instruction) bool {
	for _, u := range inst.Operands() {
		if v := u.Value(); v != nil {
			if _, ok := v.Node().(*ir.Undef); ok {
				return true
			}
		}
	}
	return false
}
