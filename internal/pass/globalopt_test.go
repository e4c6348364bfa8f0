package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestGlobalOptMarksUntouchedGlobalNonMutable(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	zero := b.ConstInt(0, i32)
	g := b.CreateGlobal("g", i32, zero, false)

	main, mEntry := newSingleBlockFunction(m, b, "main", nil)
	b.SetInsertPoint(main, mEntry, nil)
	loaded := b.CreateLoad(g.Val(), i32, noPos)
	b.CreateReturn(loaded.Val(), noPos)

	pm := NewManager(m, 2)
	if changed := (GlobalOpt{}).RunOnModule(m, pm); !changed {
		t.Fatal("expected global_opt to mark the untouched global non-mutable")
	}
	if g.IsMutable {
		t.Error("expected the global to become non-mutable")
	}
}

func TestGlobalOptKeepsGlobalMutableWhenStoredThrough(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	zero := b.ConstInt(0, i32)
	g := b.CreateGlobal("g", i32, zero, false)

	main, mEntry := newSingleBlockFunction(m, b, "main", nil)
	b.SetInsertPoint(main, mEntry, nil)
	one := b.ConstInt(1, i32)
	b.CreateStore(one, g.Val(), noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	(GlobalOpt{}).RunOnModule(m, pm)
	if !g.IsMutable {
		t.Error("expected a directly stored-through global to remain mutable")
	}
}

func TestGlobalOptKeepsGlobalMutableWhenPassedToInternalFunction(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	ptrI32 := m.Types.Pointer(i32)
	zero := b.ConstInt(0, i32)
	g := b.CreateGlobal("g", i32, zero, false)

	other, oEntry := newSingleBlockFunction(m, b, "other", []*types.Type{ptrI32})
	b.SetInsertPoint(other, oEntry, nil)
	b.CreateReturn(nil, noPos)

	main, mEntry := newSingleBlockFunction(m, b, "main", nil)
	b.SetInsertPoint(main, mEntry, nil)
	b.CreateCall(other, []*ir.Value{g.Val()}, noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	(GlobalOpt{}).RunOnModule(m, pm)
	if !g.IsMutable {
		t.Error("expected a global passed to a non-extern function to remain mutable")
	}
}
