package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestMem2RegPromotesSimpleAlloca(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", nil)

	alloca := b.CreateAlloca(i32, noPos)
	seven := b.ConstInt(7, i32)
	b.CreateStore(seven, alloca.Val(), noPos)
	load := b.CreateLoad(alloca.Val(), i32, noPos)
	b.CreateReturn(load.Val(), noPos)

	pm := NewManager(m, 0)
	if changed := (Mem2Reg{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected mem2reg to promote the alloca")
	}
	ret := entry.Terminator().(*ir.Return)
	if ret.Value.Value() != seven {
		t.Errorf("expected the load to resolve directly to the stored constant, got %v", ret.Value.Value())
	}
	for _, inst := range entry.Instrs {
		switch inst.(type) {
		case *ir.Alloca, *ir.Load, *ir.Store:
			t.Errorf("expected the alloca/store/load triple to be gone, found %T", inst)
		}
	}
}

func TestMem2RegSkipsEscapedAlloca(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	ptrType := m.Types.Pointer(i32)
	fn, entry := newSingleBlockFunction(m, b, "f", nil)

	alloca := b.CreateAlloca(i32, noPos)
	slot := b.CreateAlloca(ptrType, noPos)
	b.CreateStore(alloca.Val(), slot.Val(), noPos) // address escapes into another slot
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 0)
	changed := (Mem2Reg{}).RunOnFunction(fn, pm)
	found := false
	for _, inst := range entry.Instrs {
		if inst == alloca {
			found = true
		}
	}
	if !found {
		t.Error("an escaped alloca must not be promoted")
	}
	_ = changed
}
