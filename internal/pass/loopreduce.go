package pass

import "sysycc/internal/ir"

// LoopReduce performs induction-variable strength reduction: an
// ElemAccess/PtrAccess whose index is a loop's induction variable and
// whose base is loop-invariant is replaced by a pointer that is itself
// carried around the loop in a phi, advanced by one pointer-sized
// PtrAccess per iteration instead of being recomputed from the index
// from scratch (spec.md's loop_reduce contract).
type LoopReduce struct{}

func (LoopReduce) Info() Info {
	return Info{
		Name:        "loop_reduce",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Requires:    []string{"dominance", "loopinfo", "licm", "loop_conv"},
		Invalidates: []string{"*"},
	}
}

var loopReduceCounter int

func (LoopReduce) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	li := Loops(fn, pm)
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, loop := range li.Loops {
		iv := findInductionVar(loop)
		if iv == nil {
			continue
		}
		for bb := range loop.Blocks {
			for _, inst := range append([]ir.Instruction(nil), bb.Instrs...) {
				if reduceAccess(fn, loop, iv, inst, bb, b) {
					changed = true
				}
			}
		}
	}
	return changed
}

// inductionVar describes a header phi recognized as `ind = phi [init,
// preheader], [ind + step, tail]` — a basic counted induction variable
// with a single update site.
type inductionVar struct {
	phi       *ir.Phi
	preheader *ir.BasicBlock
	tail      *ir.BasicBlock
	init      *ir.Value
	step      *ir.Value
}

func findInductionVar(loop *Loop) *inductionVar {
	header := loop.Header
	if len(header.Predecessors) != 2 {
		return nil
	}
	var preheader, tail *ir.BasicBlock
	for _, p := range header.Predecessors {
		if loop.Contains(p) {
			tail = p
		} else {
			preheader = p
		}
	}
	if preheader == nil || tail == nil {
		return nil
	}
	for _, inst := range header.Instrs {
		phi, ok := inst.(*ir.Phi)
		if !ok {
			continue
		}
		initOp := phi.Operand(preheader)
		tailOp := phi.Operand(tail)
		if initOp == nil || tailOp == nil {
			continue
		}
		step, ok := tailOp.Value.Value().Node().(*ir.Binary)
		if !ok || step.Op != ir.OpAdd || step.Left.Value() != phi.Val() {
			continue
		}
		if _, isConst := step.Right.Value().Node().(*ir.ConstInt); !isConst {
			continue
		}
		return &inductionVar{phi: phi, preheader: preheader, tail: tail, init: initOp.Value.Value(), step: step.Right.Value()}
	}
	return nil
}

func reduceAccess(fn *ir.Function, loop *Loop, iv *inductionVar, inst ir.Instruction, bb *ir.BasicBlock, b *ir.Builder) bool {
	var base *ir.Value
	switch n := inst.(type) {
	case *ir.ElemAccess:
		if n.Index.Value() != iv.phi.Val() || isDefinedInLoop(n.Ptr.Value(), loop) {
			return false
		}
		base = n.Ptr.Value()
	case *ir.PtrAccess:
		if n.Index.Value() != iv.phi.Val() || isDefinedInLoop(n.Ptr.Value(), loop) {
			return false
		}
		base = n.Ptr.Value()
	default:
		return false
	}

	loopReduceCounter++
	varName := "loop_reduce$" + itoaLoopReduce(loopReduceCounter)
	ptrType := inst.Val().Type

	b.SetInsertPoint(fn, iv.preheader, iv.preheader.Terminator())
	initPtr := b.CreatePtrAccess(base, iv.init, inst.Val().Pos)
	b.WriteVariable(varName, iv.preheader, initPtr.Val())

	placeholder := b.Undef(ptrType)
	b.SetInsertPoint(fn, iv.tail, iv.tail.Terminator())
	tailPtr := b.CreatePtrAccess(placeholder, iv.step, inst.Val().Pos)
	b.WriteVariable(varName, iv.tail, tailPtr.Val())

	merged := b.ReadVariable(varName, loop.Header, ptrType)
	placeholder.ReplaceBy(merged)

	inst.Val().ReplaceBy(merged)
	bb.Erase(inst)
	return true
}

func itoaLoopReduce(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
