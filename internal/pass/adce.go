package pass

import "sysycc/internal/ir"

// ADCE is aggressive dead code elimination: starting from every
// instruction with an observable Effect (stores, calls, terminators —
// spec.md §4.5.3's "critical" set), it marks everything transitively
// feeding a critical instruction as live and erases the rest.
type ADCE struct{}

func (ADCE) Info() Info {
	return Info{
		Name:        "adce",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Invalidates: []string{"*"},
	}
}

func (ADCE) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	live := make(map[ir.Instruction]bool)
	var worklist []ir.Instruction

	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if isCritical(inst) {
				live[inst] = true
				worklist = append(worklist, inst)
			}
		}
	}
	for len(worklist) > 0 {
		inst := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, u := range inst.Operands() {
			v := u.Value()
			if v == nil {
				continue
			}
			owner, ok := v.Node().(ir.Instruction)
			if !ok || live[owner] {
				continue
			}
			live[owner] = true
			worklist = append(worklist, owner)
		}
	}

	changed := false
	for _, bb := range fn.Blocks {
		kept := bb.Instrs[:0:0]
		for _, inst := range bb.Instrs {
			if live[inst] {
				kept = append(kept, inst)
				continue
			}
			detachOperands(inst)
			changed = true
		}
		if changed {
			bb.Instrs = kept
		}
	}
	return changed
}

func isCritical(inst ir.Instruction) bool {
	if inst.IsTerminator() {
		return true
	}
	for _, e := range inst.GetEffects() {
		if e == ir.EffectWriteMemory || e == ir.EffectCall {
			return true
		}
	}
	return false
}

func detachOperands(inst ir.Instruction) {
	for _, u := range inst.Operands() {
		u.Set(nil)
	}
}
