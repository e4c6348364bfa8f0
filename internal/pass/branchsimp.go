package pass

import "sysycc/internal/ir"

// BranchSimp rewrites a Branch whose condition is a compile-time
// constant into an unconditional Jump, and a Branch whose two targets
// are identical into a Jump regardless of the condition (spec.md
// §4.5.5). It also removes bb from the predecessor list of the arm
// that is no longer taken; a block left with zero predecessors stays
// in the function.
type BranchSimp struct{}

func (BranchSimp) Info() Info {
	return Info{
		Name:        "branch_simp",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Invalidates: []string{"*"},
	}
}

func (BranchSimp) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, bb := range fn.Blocks {
		br, ok := bb.Terminator().(*ir.Branch)
		if !ok {
			continue
		}
		trueTo := valAsBlockPublic(br.TrueTo.Value())
		falseTo := valAsBlockPublic(br.FalseTo.Value())

		var target *ir.BasicBlock
		if trueTo == falseTo {
			target = trueTo
		} else if c, ok := asConstInt(br.Cond.Value()); ok {
			if c != 0 {
				target = trueTo
			} else {
				target = falseTo
			}
		}
		if target == nil {
			continue
		}
		removeStalePredecessor(target, bb, trueTo, falseTo)
		removeAllOccurrences(target, bb)
		replaceTerminator(bb, br, target, b)
		changed = true
	}
	return changed
}

func replaceTerminator(bb *ir.BasicBlock, old *ir.Branch, target *ir.BasicBlock, b *ir.Builder) {
	bb.Erase(old)
	old.Cond.Set(nil)
	old.TrueTo.Set(nil)
	old.FalseTo.Set(nil)
	b.SetInsertPoint(bb.Func, bb, nil)
	b.CreateJump(target, old.Val().Pos)
}

// removeStalePredecessor drops bb from the predecessor list of
// whichever arm did not survive as the jump target.
func removeStalePredecessor(kept, bb, trueTo, falseTo *ir.BasicBlock) {
	dropped := trueTo
	if kept == trueTo {
		dropped = falseTo
	}
	if dropped == kept {
		return
	}
	filtered := dropped.Predecessors[:0:0]
	for _, p := range dropped.Predecessors {
		if p != bb {
			filtered = append(filtered, p)
		}
	}
	dropped.Predecessors = filtered
}

// removeAllOccurrences strips every existing bb entry from target's
// predecessor list; CreateJump re-adds the single surviving edge.
func removeAllOccurrences(target, bb *ir.BasicBlock) {
	filtered := target.Predecessors[:0:0]
	for _, p := range target.Predecessors {
		if p != bb {
			filtered = append(filtered, p)
		}
	}
	target.Predecessors = filtered
}

func valAsBlockPublic(v *ir.Value) *ir.BasicBlock {
	bb, _ := v.Node().(*ir.BasicBlock)
	return bb
}
