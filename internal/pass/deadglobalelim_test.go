package pass

import (
	"testing"
)

func TestDeadGlobalElimKeepsMainAndCalledFunctions(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()

	helper, hEntry := newSingleBlockFunction(m, b, "helper", nil)
	b.SetInsertPoint(helper, hEntry, nil)
	b.CreateReturn(b.ConstInt(1, i32), noPos)

	unused, uEntry := newSingleBlockFunction(m, b, "unused", nil)
	b.SetInsertPoint(unused, uEntry, nil)
	b.CreateReturn(b.ConstInt(2, i32), noPos)

	main, mEntry := newSingleBlockFunction(m, b, "main", nil)
	b.SetInsertPoint(main, mEntry, nil)
	b.CreateCall(helper, nil, noPos)
	b.CreateReturn(b.ConstInt(0, i32), noPos)

	pm := NewManager(m, 0)
	if changed := (DeadGlobalElim{}).RunOnModule(m, pm); !changed {
		t.Fatal("expected dead_global_elim to remove the unused function")
	}

	if m.FindFunction("unused") != nil {
		t.Error("expected the uncalled function to be removed")
	}
	if m.FindFunction("helper") == nil {
		t.Error("expected the called function to survive")
	}
	if m.FindFunction("main") == nil {
		t.Error("expected main to always survive")
	}
}

func TestDeadGlobalElimRemovesUnusedGlobal(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	zero := b.ConstInt(0, i32)
	g := b.CreateGlobal("g", i32, zero, false)

	main, mEntry := newSingleBlockFunction(m, b, "main", nil)
	b.SetInsertPoint(main, mEntry, nil)
	b.CreateReturn(b.ConstInt(0, i32), noPos)

	pm := NewManager(m, 0)
	if changed := (DeadGlobalElim{}).RunOnModule(m, pm); !changed {
		t.Fatal("expected dead_global_elim to remove the unreferenced global")
	}
	for _, global := range m.Globals {
		if global == g {
			t.Error("expected the unreferenced global to be removed")
		}
	}
}

func TestDeadGlobalElimKeepsGlobalStillLoaded(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	zero := b.ConstInt(0, i32)
	g := b.CreateGlobal("g", i32, zero, false)

	main, mEntry := newSingleBlockFunction(m, b, "main", nil)
	b.SetInsertPoint(main, mEntry, nil)
	loaded := b.CreateLoad(g.Val(), i32, noPos)
	b.CreateReturn(loaded.Val(), noPos)

	pm := NewManager(m, 0)
	(DeadGlobalElim{}).RunOnModule(m, pm)

	found := false
	for _, global := range m.Globals {
		if global == g {
			found = true
		}
	}
	if !found {
		t.Error("expected a still-loaded global to survive")
	}
}
