package pass

import "sysycc/internal/ir"

// InstCombine is the worklist-driven peephole rewriter: identities
// (x+0, x*1, x^x, x&x, x|x), strength reductions (mul by a power of
// two to shl, unsigned div by a power of two to lshr), double-negation,
// and redundant-cast collapsing
// (spec.md §4.5.1).
type InstCombine struct{}

func (InstCombine) Info() Info {
	return Info{
		Name:        "inst_comb",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Invalidates: []string{"*"},
	}
}

func (InstCombine) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	b := ir.NewBuilder(pm.Module)
	var worklist []ir.Instruction
	for _, bb := range fn.Blocks {
		worklist = append(worklist, bb.Instrs...)
	}
	changed := false
	for len(worklist) > 0 {
		inst := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if combineOne(inst, b) {
			changed = true
			for _, u := range inst.Operands() {
				if v := u.Value(); v != nil {
					if owner, ok := v.Node().(ir.Instruction); ok {
						worklist = append(worklist, owner)
					}
				}
			}
		}
	}
	return changed
}

func combineOne(inst ir.Instruction, b *ir.Builder) bool {
	switch n := inst.(type) {
	case *ir.Binary:
		return combineBinary(n, b)
	case *ir.Cast:
		return combineCast(n)
	case *ir.Unary:
		return combineUnary(n)
	}
	return false
}

func combineBinary(n *ir.Binary, b *ir.Builder) bool {
	l, lok := asConstInt(n.Left.Value())
	r, rok := asConstInt(n.Right.Value())

	switch n.Op {
	case ir.OpAdd:
		if rok && r == 0 {
			n.Val().ReplaceBy(n.Left.Value())
			return true
		}
		if lok && l == 0 {
			n.Val().ReplaceBy(n.Right.Value())
			return true
		}
	case ir.OpSub:
		if rok && r == 0 {
			n.Val().ReplaceBy(n.Left.Value())
			return true
		}
		if n.Left.Value() == n.Right.Value() {
			n.Val().ReplaceBy(zeroLike(n, b))
			return true
		}
	case ir.OpMul:
		if rok && r == 1 {
			n.Val().ReplaceBy(n.Left.Value())
			return true
		}
		if lok && l == 1 {
			n.Val().ReplaceBy(n.Right.Value())
			return true
		}
		if (rok && r == 0) || (lok && l == 0) {
			n.Val().ReplaceBy(zeroLike(n, b))
			return true
		}
		if rok && isPowerOfTwo(r) {
			n.Op = ir.OpShl
			n.Right.Set(constShiftAmount(n, r, b))
			return true
		}
	case ir.OpSDiv, ir.OpUDiv:
		if rok && r == 1 {
			n.Val().ReplaceBy(n.Left.Value())
			return true
		}
		if rok && isPowerOfTwo(r) && n.Op == ir.OpUDiv {
			n.Op = ir.OpLShr
			n.Right.Set(constShiftAmount(n, r, b))
			return true
		}
	case ir.OpAnd:
		if n.Left.Value() == n.Right.Value() {
			n.Val().ReplaceBy(n.Left.Value())
			return true
		}
		if (rok && r == 0) || (lok && l == 0) {
			n.Val().ReplaceBy(zeroLike(n, b))
			return true
		}
	case ir.OpOr, ir.OpXor:
		if n.Op == ir.OpOr && n.Left.Value() == n.Right.Value() {
			n.Val().ReplaceBy(n.Left.Value())
			return true
		}
		if n.Op == ir.OpXor && n.Left.Value() == n.Right.Value() {
			n.Val().ReplaceBy(zeroLike(n, b))
			return true
		}
	}
	return false
}

func combineUnary(n *ir.Unary) bool {
	if n.Op != ir.OpNeg {
		return false
	}
	if inner, ok := n.X.Value().Node().(*ir.Unary); ok && inner.Op == ir.OpNeg {
		n.Val().ReplaceBy(inner.X.Value())
		return true
	}
	return false
}

// combineCast collapses a cast of a cast when the outer type equals
// the original operand's type and the intermediate type is at least as
// wide, so the round trip loses no bits (widen-then-narrow, or a
// same-width reinterpretation); narrow-then-widen is left alone.
func combineCast(n *ir.Cast) bool {
	inner, ok := n.X.Value().Node().(*ir.Cast)
	if !ok {
		return false
	}
	if n.Val().Type.Unwrap() == inner.X.Value().Type.Unwrap() &&
		inner.Val().Type.Size() >= inner.X.Value().Type.Size() {
		n.Val().ReplaceBy(inner.X.Value())
		return true
	}
	return false
}

func isPowerOfTwo(v uint32) bool { return v != 0 && v&(v-1) == 0 }

func constShiftAmount(n *ir.Binary, v uint32, b *ir.Builder) *ir.Value {
	shift := uint32(0)
	for v > 1 {
		v >>= 1
		shift++
	}
	return b.ConstInt(shift, n.Right.Value().Type)
}

func zeroLike(n *ir.Binary, b *ir.Builder) *ir.Value {
	return b.ConstInt(0, n.Val().Type)
}
