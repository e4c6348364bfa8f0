package pass

import (
	"testing"

	"sysycc/internal/types"
)

func TestDSERemovesOverwrittenStore(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{i32})

	alloca := b.CreateAlloca(i32, noPos)
	firstStore := b.CreateStore(b.ConstInt(1, i32), alloca.Val(), noPos)
	b.CreateStore(b.ConstInt(2, i32), alloca.Val(), noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 1)
	if changed := (DSE{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected dse to remove the overwritten store")
	}
	for _, inst := range entry.Instrs {
		if inst == firstStore {
			t.Error("the dead first store should have been erased")
		}
	}
}

func TestDSEKeepsStoreWithInterveningLoad(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{i32})

	alloca := b.CreateAlloca(i32, noPos)
	firstStore := b.CreateStore(b.ConstInt(1, i32), alloca.Val(), noPos)
	b.CreateLoad(alloca.Val(), i32, noPos)
	b.CreateStore(b.ConstInt(2, i32), alloca.Val(), noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 1)
	if changed := (DSE{}).RunOnFunction(fn, pm); changed {
		t.Error("a load between two stores must block dse")
	}
	found := false
	for _, inst := range entry.Instrs {
		if inst == firstStore {
			found = true
		}
	}
	if !found {
		t.Error("the first store must survive when a load reads it first")
	}
}
