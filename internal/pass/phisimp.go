package pass

import "sysycc/internal/ir"

// PhiSimp re-applies the builder's trivial-phi check after other
// passes (branch_simp, blk_merge) may have collapsed a phi down to a
// single distinct incoming value without the builder noticing
// (spec.md §4.5.5).
type PhiSimp struct{}

func (PhiSimp) Info() Info {
	return Info{
		Name:        "phi_simp",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Invalidates: []string{"*"},
	}
}

func (PhiSimp) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	changed := false
	for _, bb := range fn.Blocks {
		for _, inst := range append([]ir.Instruction(nil), bb.Instrs...) {
			phi, ok := inst.(*ir.Phi)
			if !ok {
				continue
			}
			if same, ok := trivialValue(phi); ok {
				phi.Val().ReplaceBy(same)
				for _, u := range phi.Incomings {
					u.Set(nil)
				}
				bb.Erase(phi)
				changed = true
			}
		}
	}
	return changed
}

// trivialValue reports the single distinct non-self operand of phi, if
// every incoming is either that value or the phi's own result.
func trivialValue(phi *ir.Phi) (*ir.Value, bool) {
	var same *ir.Value
	for _, u := range phi.Incomings {
		po := u.Value().Node().(*ir.PhiOperand)
		operand := po.Value.Value()
		if operand == phi.Val() || operand == same {
			continue
		}
		if same != nil {
			return nil, false
		}
		same = operand
	}
	if same == nil {
		return nil, false
	}
	return same, true
}
