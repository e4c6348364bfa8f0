package ir

import (
	"testing"

	"sysycc/internal/ast"
	"sysycc/internal/types"
)

func TestCreateFunctionAllocatesArgRefs(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()

	fn := b.CreateFunction("add_one", []*types.Type{i32}, i32, false, false)
	if len(fn.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(fn.Args))
	}
	if fn.Args[0].Val().Type != i32 {
		t.Error("arg type should be i32")
	}
	if m.FindFunction("add_one") != fn {
		t.Error("FindFunction should locate the function by name")
	}
}

func TestPhiResolvesAcrossSealedDiamond(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()

	fn := b.CreateFunction("f", nil, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	left := b.CreateBlock(fn, "left")
	right := b.CreateBlock(fn, "right")
	join := b.CreateBlock(fn, "join")

	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	cond := b.ConstInt(1, m.Types.I32())
	b.CreateBranch(cond, left, right, ast.Position{})
	b.Seal(left)
	b.Seal(right)

	b.SetInsertPoint(fn, left, nil)
	lv := b.ConstInt(10, i32)
	b.WriteVariable("x", left, lv)
	b.CreateJump(join, ast.Position{})

	b.SetInsertPoint(fn, right, nil)
	rv := b.ConstInt(20, i32)
	b.WriteVariable("x", right, rv)
	b.CreateJump(join, ast.Position{})

	b.Seal(join)
	got := b.ReadVariable("x", join, i32)
	if got == nil {
		t.Fatal("expected a resolved value for x at join")
	}
	phi, ok := got.Node().(*Phi)
	if !ok {
		t.Fatalf("expected a phi at the join point, got %T", got.Node())
	}
	if len(phi.Incomings) != 2 {
		t.Fatalf("expected 2 incoming operands, got %d", len(phi.Incomings))
	}
}

func TestTrivialPhiIsElided(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()

	fn := b.CreateFunction("f", nil, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	mid := b.CreateBlock(fn, "mid")
	join := b.CreateBlock(fn, "join")

	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	v := b.ConstInt(7, i32)
	b.WriteVariable("x", entry, v)
	b.CreateJump(mid, ast.Position{})
	b.Seal(mid)

	b.SetInsertPoint(fn, mid, nil)
	b.CreateJump(join, ast.Position{})
	b.Seal(join)

	got := b.ReadVariable("x", join, i32)
	if got != v {
		t.Errorf("expected the single reaching definition to be returned directly, got %v", got)
	}
}

func TestCreateStoreAndLoadRoundTrip(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()

	fn := b.CreateFunction("f", nil, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)

	addr := b.CreateAlloca(i32, ast.Position{})
	val := b.ConstInt(42, i32)
	b.CreateStore(val, addr.Val(), ast.Position{})
	load := b.CreateLoad(addr.Val(), i32, ast.Position{})

	if load.Addr.Value() != addr.Val() {
		t.Error("load should address the alloca")
	}
	if len(addr.Val().Users()) != 2 {
		t.Fatalf("alloca should have 2 uses (store + load), got %d", len(addr.Val().Users()))
	}
}
