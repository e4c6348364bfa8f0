package pass

import "sysycc/internal/ir"

// latticeKind is SCCP's per-value lattice element: Top (not yet
// visited/undef), Constant, or Bottom (proven non-constant).
type latticeKind int

const (
	latTop latticeKind = iota
	latConst
	latBottom
)

type lattice struct {
	kind latticeKind
	val  uint32
}

func meet(a, b lattice) lattice {
	if a.kind == latTop {
		return b
	}
	if b.kind == latTop {
		return a
	}
	if a.kind == latBottom || b.kind == latBottom {
		return lattice{kind: latBottom}
	}
	if a.val != b.val {
		return lattice{kind: latBottom}
	}
	return a
}

// SCCP is sparse conditional constant propagation: it propagates both
// the value lattice (per-Value Top/Constant/Bottom) and the
// executability lattice (per-block reachable/unreachable) together,
// resolving undef operands optimistically so a phi fed partly by
// undef still folds to its other operand (spec.md §4.5.2).
type SCCP struct{}

func (SCCP) Info() Info {
	return Info{
		Name:        "sccp",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Requires:    []string{},
		Invalidates: []string{"*"},
	}
}

func (SCCP) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	entry := fn.Entry()
	if entry == nil {
		return false
	}
	values := make(map[*ir.Value]lattice)
	executable := map[*ir.BasicBlock]bool{entry: true}

	blockWork := []*ir.BasicBlock{entry}
	changed := true
	for changed {
		changed = false
		for len(blockWork) > 0 {
			bb := blockWork[len(blockWork)-1]
			blockWork = blockWork[:len(blockWork)-1]
			if evalBlock(bb, values, executable, &blockWork) {
				changed = true
			}
		}
		// Re-seed: a later iteration may have marked new blocks executable
		// via a branch condition that just became constant.
		for bb := range executable {
			blockWork = append(blockWork, bb)
		}
	}

	return rewriteConstants(fn, pm, values, executable)
}

func evalBlock(bb *ir.BasicBlock, values map[*ir.Value]lattice, executable map[*ir.BasicBlock]bool, work *[]*ir.BasicBlock) bool {
	changed := false
	for _, inst := range bb.Instrs {
		if evalInstr(inst, values) {
			changed = true
		}
	}
	term := bb.Terminator()
	switch t := term.(type) {
	case *ir.Branch:
		cond := latticeOf(t.Cond.Value(), values)
		mark := func(target *ir.BasicBlock) {
			if !executable[target] {
				executable[target] = true
				*work = append(*work, target)
				changed = true
			}
		}
		switch cond.kind {
		case latConst:
			if cond.val != 0 {
				mark(t.Successors()[0])
			} else {
				mark(t.Successors()[1])
			}
		default:
			mark(t.Successors()[0])
			mark(t.Successors()[1])
		}
	case *ir.Jump:
		if !executable[t.Successors()[0]] {
			executable[t.Successors()[0]] = true
			*work = append(*work, t.Successors()[0])
			changed = true
		}
	}
	return changed
}

func latticeOf(v *ir.Value, values map[*ir.Value]lattice) lattice {
	if c, ok := asConstInt(v); ok {
		return lattice{kind: latConst, val: c}
	}
	if _, ok := v.Node().(*ir.Undef); ok {
		return lattice{kind: latTop}
	}
	if l, ok := values[v]; ok {
		return l
	}
	return lattice{kind: latBottom}
}

func evalInstr(inst ir.Instruction, values map[*ir.Value]lattice) bool {
	var result lattice
	switch n := inst.(type) {
	case *ir.Binary:
		l, r := latticeOf(n.Left.Value(), values), latticeOf(n.Right.Value(), values)
		switch {
		case l.kind == latConst && r.kind == latConst:
			if folded, ok := FoldBinary(n.Op, l.val, r.val, true); ok {
				result = lattice{kind: latConst, val: folded}
			} else {
				result = lattice{kind: latBottom}
			}
		case l.kind == latBottom || r.kind == latBottom:
			result = lattice{kind: latBottom}
		default:
			result = lattice{kind: latTop}
		}
	case *ir.Unary:
		x := latticeOf(n.X.Value(), values)
		if x.kind == latConst {
			result = lattice{kind: latConst, val: FoldUnary(n.Op, x.val)}
		} else {
			result = x
		}
	case *ir.Phi:
		result = lattice{kind: latTop}
		for _, u := range n.Incomings {
			po := u.Value().Node().(*ir.PhiOperand)
			result = meet(result, latticeOf(po.Value.Value(), values))
		}
	case *ir.Load:
		if g, ok := n.Addr.Value().Node().(*ir.GlobalVar); ok && !g.IsMutable {
			if c, ok := asConstInt(g.Init.Value()); ok {
				result = lattice{kind: latConst, val: c}
				break
			}
		}
		return false
	default:
		return false
	}
	old, existed := values[inst.Val()]
	if existed && old == result {
		return false
	}
	values[inst.Val()] = result
	return true
}

// rewriteConstants materializes a ConstInt for every value SCCP proved
// constant and replaces its uses. Branches on now-constant conditions
// are left for branch_simp, which owns CFG simplification.
func rewriteConstants(fn *ir.Function, pm *Manager, values map[*ir.Value]lattice, executable map[*ir.BasicBlock]bool) bool {
	changed := false
	b := ir.NewBuilder(pm.Module)
	for _, bb := range fn.Blocks {
		for _, inst := range append([]ir.Instruction(nil), bb.Instrs...) {
			if _, isConst := inst.(*ir.ConstInt); isConst {
				continue
			}
			lat, ok := values[inst.Val()]
			if !ok || lat.kind != latConst {
				continue
			}
			replacement := b.ConstInt(lat.val, inst.Val().Type)
			inst.Val().ReplaceBy(replacement)
			changed = true
		}
	}
	return changed
}
