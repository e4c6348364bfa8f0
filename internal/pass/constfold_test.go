package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestFoldBinaryArithmetic(t *testing.T) {
	cases := []struct {
		op     ir.BinOp
		l, r   uint32
		want   uint32
		wantOk bool
	}{
		{ir.OpAdd, 2, 3, 5, true},
		{ir.OpSub, 5, 3, 2, true},
		{ir.OpMul, 4, 3, 12, true},
		{ir.OpSDiv, ^uint32(8), 2, ^uint32(3), true}, // -9 / 2 = -4
		{ir.OpUDiv, 9, 2, 4, true},
		{ir.OpSRem, ^uint32(6), 2, ^uint32(0), true}, // -7 % 2 = -1
		{ir.OpURem, 7, 2, 1, true},
		{ir.OpAnd, 0b1100, 0b1010, 0b1000, true},
		{ir.OpOr, 0b1100, 0b1010, 0b1110, true},
		{ir.OpXor, 0b1100, 0b1010, 0b0110, true},
		{ir.OpShl, 1, 4, 16, true},
		{ir.OpLShr, 16, 4, 1, true},
		{ir.OpSLess, 1, 2, 1, true},
		{ir.OpSGreaterEq, 2, 2, 1, true},
		{ir.OpEq, 5, 5, 1, true},
		{ir.OpNeq, 5, 6, 1, true},
	}
	for _, c := range cases {
		got, ok := FoldBinary(c.op, c.l, c.r, true)
		if ok != c.wantOk || got != c.want {
			t.Errorf("FoldBinary(%v, %d, %d) = (%d, %v), want (%d, %v)", c.op, c.l, c.r, got, ok, c.want, c.wantOk)
		}
	}
}

func TestFoldBinaryDivisionByZero(t *testing.T) {
	if _, ok := FoldBinary(ir.OpSDiv, 10, 0, true); ok {
		t.Error("expected sdiv by zero to report ok=false")
	}
	if _, ok := FoldBinary(ir.OpUDiv, 10, 0, false); ok {
		t.Error("expected udiv by zero to report ok=false")
	}
	if _, ok := FoldBinary(ir.OpSRem, 10, 0, true); ok {
		t.Error("expected srem by zero to report ok=false")
	}
	if _, ok := FoldBinary(ir.OpURem, 10, 0, false); ok {
		t.Error("expected urem by zero to report ok=false")
	}
}

func TestFoldUnary(t *testing.T) {
	if got := FoldUnary(ir.OpNeg, 5); got != ^uint32(4) { // -5
		t.Errorf("FoldUnary(OpNeg, 5) = %d, want %d", got, ^uint32(4))
	}
	if got := FoldUnary(ir.OpNot, 0); got != ^uint32(0) {
		t.Errorf("FoldUnary(OpNot, 0) = %d, want %d", got, ^uint32(0))
	}
	if got := FoldUnary(ir.OpLogicNot, 0); got != 1 {
		t.Errorf("FoldUnary(OpLogicNot, 0) = %d, want 1", got)
	}
	if got := FoldUnary(ir.OpLogicNot, 7); got != 0 {
		t.Errorf("FoldUnary(OpLogicNot, 7) = %d, want 0", got)
	}
}
