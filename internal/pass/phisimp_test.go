package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestPhiSimpElidesPhiMadeTrivialAfterConstruction(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", []*types.Type{i32}, i32, false, false)
	x := fn.Args[0].Val()

	entry := b.CreateBlock(fn, "entry")
	left := b.CreateBlock(fn, "left")
	right := b.CreateBlock(fn, "right")
	join := b.CreateBlock(fn, "join")

	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	cond := b.ConstInt(1, i32)
	b.CreateBranch(cond, left, right, noPos)
	b.Seal(left)
	b.Seal(right)

	b.SetInsertPoint(fn, left, nil)
	leftVal := b.ConstInt(10, i32)
	b.WriteVariable("v", left, leftVal)
	b.CreateJump(join, noPos)
	b.SetInsertPoint(fn, right, nil)
	b.WriteVariable("v", right, x)
	b.CreateJump(join, noPos)
	b.Seal(join)

	got := b.ReadVariable("v", join, i32)
	phi, ok := got.Node().(*ir.Phi)
	if !ok {
		t.Fatalf("expected a genuine phi at the join, got %T", got.Node())
	}
	b.SetInsertPoint(fn, join, nil)
	b.CreateReturn(got, noPos)

	// Simulate an upstream pass (branch_simp/const folding) turning the
	// left arm's contribution into x too, making the phi trivial without
	// the builder's own construction-time check ever seeing it.
	for _, u := range phi.Incomings {
		po := u.Value().Node().(*ir.PhiOperand)
		if po.Incoming == left {
			po.Value.Set(x)
		}
	}

	pm := NewManager(m, 1)
	if changed := (PhiSimp{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected phi_simp to elide the now-trivial phi")
	}
	if join.Terminator() == nil {
		t.Fatal("join should still have its terminator")
	}
	for _, inst := range join.Instrs {
		if inst == phi {
			t.Error("the trivial phi should have been erased")
		}
	}
}
