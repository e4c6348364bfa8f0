package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestLoopReduceStrengthReducesArrayIndex(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	ptrI32 := m.Types.Pointer(i32)
	fn := b.CreateFunction("f", []*types.Type{ptrI32, i32}, i32, false, false)
	basePtr, n := fn.Args[0].Val(), fn.Args[1].Val()

	preheader := b.CreateBlock(fn, "preheader")
	header := b.CreateBlock(fn, "header")
	body := b.CreateBlock(fn, "body")
	exit := b.CreateBlock(fn, "exit")

	b.Seal(preheader)
	b.SetInsertPoint(fn, preheader, nil)
	zero := b.ConstInt(0, i32)
	b.WriteVariable("i", preheader, zero)
	b.CreateJump(header, noPos)

	b.SetInsertPoint(fn, header, nil)
	iv := b.ReadVariable("i", header, i32)
	cond := b.CreateBinary(ir.OpSLess, iv, n, i32, noPos)
	b.CreateBranch(cond.Val(), body, exit, noPos)
	b.Seal(body)

	b.SetInsertPoint(fn, body, nil)
	ivBody := b.ReadVariable("i", body, i32)
	access := b.CreateElemAccess(basePtr, ivBody, i32, noPos)
	load := b.CreateLoad(access.Val(), i32, noPos)
	one := b.ConstInt(1, i32)
	step := b.CreateBinary(ir.OpAdd, ivBody, one, i32, noPos)
	b.WriteVariable("i", body, step.Val())
	b.CreateJump(header, noPos)
	b.Seal(header)

	b.Seal(exit)
	b.SetInsertPoint(fn, exit, nil)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	if changed := (LoopReduce{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected loop_reduce to strength-reduce the array access")
	}

	for _, inst := range body.Instrs {
		if inst == access {
			t.Error("the original element access should have been erased")
		}
	}
	ptr, ok := load.Addr.Value().Node().(*ir.Phi)
	if !ok {
		t.Fatalf("expected the load's address to resolve to a merged induction pointer, got %T", load.Addr.Value().Node())
	}
	_ = ptr

	foundInitPtr, foundTailPtr := false, false
	for _, inst := range preheader.Instrs {
		if _, ok := inst.(*ir.PtrAccess); ok {
			foundInitPtr = true
		}
	}
	for _, inst := range body.Instrs {
		if _, ok := inst.(*ir.PtrAccess); ok {
			foundTailPtr = true
		}
	}
	if !foundInitPtr {
		t.Error("expected an initial pointer computed in the preheader")
	}
	if !foundTailPtr {
		t.Error("expected the pointer to be advanced by one in the loop body")
	}
}
