package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestLocalPromPromotesSingleConstantStore(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", nil)
	b.SetInsertPoint(fn, entry, nil)
	alloca := b.CreateAlloca(i32, noPos)
	seven := b.ConstInt(7, i32)
	b.CreateStore(seven, alloca.Val(), noPos)
	loaded := b.CreateLoad(alloca.Val(), i32, noPos)
	b.CreateReturn(loaded.Val(), noPos)

	pm := NewManager(m, 2)
	if changed := (LocalProm{}).RunOnModule(m, pm); !changed {
		t.Fatal("expected local_prom to promote the single-store alloca")
	}

	for _, inst := range entry.Instrs {
		if inst == alloca {
			t.Error("expected the alloca to be erased")
		}
	}
	if loaded.Addr.Value() == alloca.Val() {
		t.Error("expected the load to be retargeted to the new global")
	}
	g, ok := loaded.Addr.Value().Node().(*ir.GlobalVar)
	if !ok {
		t.Fatalf("expected the load's address to resolve to a promoted global, got %T", loaded.Addr.Value().Node())
	}
	if g.IsMutable {
		t.Error("expected the promoted global to be non-mutable")
	}
}

func TestLocalPromSkipsAllocaWithTwoStores(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", nil)
	b.SetInsertPoint(fn, entry, nil)
	alloca := b.CreateAlloca(i32, noPos)
	seven := b.ConstInt(7, i32)
	eight := b.ConstInt(8, i32)
	b.CreateStore(seven, alloca.Val(), noPos)
	b.CreateStore(eight, alloca.Val(), noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	if changed := (LocalProm{}).RunOnModule(m, pm); changed {
		t.Error("expected local_prom to decline an alloca with two stores")
	}
}
