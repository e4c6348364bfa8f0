package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestSCCPFoldsConstantBinary(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", nil)

	two := b.ConstInt(2, i32)
	three := b.ConstInt(3, i32)
	sum := b.CreateBinary(ir.OpAdd, two, three, i32, noPos)
	b.CreateReturn(sum.Val(), noPos)

	pm := NewManager(m, 1)
	if changed := (SCCP{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected SCCP to fold the constant addition")
	}
	ret := entry.Terminator().(*ir.Return)
	c, ok := ret.Value.Value().Node().(*ir.ConstInt)
	if !ok {
		t.Fatalf("expected the return value to be a folded ConstInt, got %T", ret.Value.Value().Node())
	}
	if c.IntVal != 5 {
		t.Errorf("expected 2+3 to fold to 5, got %d", c.IntVal)
	}
}

func TestSCCPFoldsLoadOfNonMutableGlobal(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	init := b.ConstInt(42, i32)
	g := b.CreateGlobal("g", i32, init, false)
	g.IsMutable = false

	fn, entry := newSingleBlockFunction(m, b, "f", nil)
	load := b.CreateLoad(g.Val(), i32, noPos)
	b.CreateReturn(load.Val(), noPos)

	pm := NewManager(m, 1)
	if changed := (SCCP{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected SCCP to fold the load of a non-mutable global")
	}
	ret := entry.Terminator().(*ir.Return)
	c, ok := ret.Value.Value().Node().(*ir.ConstInt)
	if !ok || c.IntVal != 42 {
		t.Fatalf("expected the return value to fold to ConstInt(42), got %#v", ret.Value.Value().Node())
	}
}
