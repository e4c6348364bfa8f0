package pass

import "sysycc/internal/ir"

// BlockMerge folds a block into its sole predecessor when that
// predecessor ends in an unconditional Jump to it and has no other
// successor — the classic "straight-line merge" (spec.md §4.5.5).
type BlockMerge struct{}

func (BlockMerge) Info() Info {
	return Info{
		Name:        "blk_merge",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Invalidates: []string{"*"},
	}
}

func (BlockMerge) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	changed := false
	for {
		mergedThisPass := false
		for i := 0; i < len(fn.Blocks); i++ {
			bb := fn.Blocks[i]
			if bb == fn.Entry() {
				continue
			}
			if len(bb.Predecessors) != 1 {
				continue
			}
			pred := bb.Predecessors[0]
			jmp, ok := pred.Terminator().(*ir.Jump)
			if !ok || valAsBlockPublic(jmp.Target.Value()) != bb {
				continue
			}
			if hasPhis(bb) {
				continue // a phi here means bb logically has >1 incoming edge elsewhere
			}
			mergeInto(pred, bb, fn)
			mergedThisPass = true
			changed = true
			break
		}
		if !mergedThisPass {
			break
		}
	}
	return changed
}

func hasPhis(bb *ir.BasicBlock) bool {
	for _, inst := range bb.Instrs {
		if _, ok := inst.(*ir.Phi); ok {
			return true
		}
	}
	return false
}

func mergeInto(pred, bb *ir.BasicBlock, fn *ir.Function) {
	jmp := pred.Terminator()
	pred.Erase(jmp)
	movedInstrs := append([]ir.Instruction(nil), bb.Instrs...)
	pred.Instrs = append(pred.Instrs, movedInstrs...)
	for _, inst := range movedInstrs {
		ir.Retarget(inst, pred)
	}
	retargetSuccessorPreds(bb, pred)
	removeBlock(fn, bb)
}

func retargetSuccessorPreds(from, to *ir.BasicBlock) {
	term := to.Terminator()
	if term == nil {
		return
	}
	for _, succ := range term.Successors() {
		for i, p := range succ.Predecessors {
			if p == from {
				succ.Predecessors[i] = to
			}
		}
	}
}

func removeBlock(fn *ir.Function, bb *ir.BasicBlock) {
	for i, b := range fn.Blocks {
		if b == bb {
			fn.Blocks = append(fn.Blocks[:i], fn.Blocks[i+1:]...)
			return
		}
	}
}
