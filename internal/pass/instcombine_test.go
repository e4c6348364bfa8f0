package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestInstCombineAddZeroIdentity(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{i32})
	x := fn.Args[0].Val()

	zero := b.ConstInt(0, i32)
	sum := b.CreateBinary(ir.OpAdd, x, zero, i32, noPos)
	b.CreateReturn(sum.Val(), noPos)

	pm := NewManager(m, 1)
	if changed := (InstCombine{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected inst_comb to simplify x+0")
	}
	ret := entry.Terminator().(*ir.Return)
	if ret.Value.Value() != x {
		t.Errorf("expected x+0 to fold directly to x, got %v", ret.Value.Value())
	}
}

func TestInstCombineMulPowerOfTwoToShift(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{i32})
	x := fn.Args[0].Val()

	eight := b.ConstInt(8, i32)
	mul := b.CreateBinary(ir.OpMul, x, eight, i32, noPos)
	b.CreateReturn(mul.Val(), noPos)

	pm := NewManager(m, 1)
	if changed := (InstCombine{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected inst_comb to strength-reduce x*8")
	}
	ret := entry.Terminator().(*ir.Return)
	binary, ok := ret.Value.Value().Node().(*ir.Binary)
	if !ok {
		t.Fatalf("expected the multiply to survive as a rewritten Binary, got %T", ret.Value.Value().Node())
	}
	if binary.Op != ir.OpShl {
		t.Errorf("expected the op to become a shift-left, got %v", binary.Op)
	}
	shiftAmount, ok := binary.Right.Value().Node().(*ir.ConstInt)
	if !ok || shiftAmount.IntVal != 3 {
		t.Errorf("expected a shift amount of 3 (log2 8), got %#v", binary.Right.Value().Node())
	}
}
