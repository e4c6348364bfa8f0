package ir

import "testing"

func TestUseSetRegistersAndDeregisters(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()

	one := b.ConstInt(1, i32)
	two := b.ConstInt(2, i32)

	fn := b.CreateFunction("f", nil, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)

	add := b.CreateBinary(OpAdd, one, two, i32, one.Pos)

	if !one.HasUses() {
		t.Fatal("one should have a use from the add")
	}
	if len(one.Users()) != 1 {
		t.Fatalf("expected 1 use, got %d", len(one.Users()))
	}

	add.Left.Set(two)
	if one.HasUses() {
		t.Fatal("one should have lost its use once rebound")
	}
	if len(two.Users()) != 2 {
		t.Fatalf("expected two to have 2 uses (left and right), got %d", len(two.Users()))
	}
}

func TestReplaceByRewritesAllUses(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()

	fn := b.CreateFunction("f", nil, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)

	x := b.ConstInt(10, i32)
	y := b.ConstInt(20, i32)
	add1 := b.CreateBinary(OpAdd, x, y, i32, x.Pos)
	add2 := b.CreateBinary(OpMul, x, y, i32, x.Pos)

	replacement := b.ConstInt(99, i32)
	x.ReplaceBy(replacement)

	if add1.Left.Value() != replacement {
		t.Error("add1's left operand should now point at the replacement")
	}
	if add2.Left.Value() != replacement {
		t.Error("add2's left operand should now point at the replacement")
	}
	if x.HasUses() {
		t.Error("x should have no uses left after ReplaceBy")
	}
}

func TestReplaceBySelfIsNoop(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	v := b.ConstInt(1, m.Types.I32())
	v.ReplaceBy(v)
	if v.HasUses() {
		t.Error("self-replace should not create a use")
	}
}
