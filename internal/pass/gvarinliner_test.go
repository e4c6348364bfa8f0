package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestGvarInlinerInlinesSingleFunctionGlobal(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	five := b.ConstInt(5, i32)
	g := b.CreateGlobal("g", i32, five, false)

	fn, entry := newSingleBlockFunction(m, b, "f", nil)
	b.SetInsertPoint(fn, entry, nil)
	loaded := b.CreateLoad(g.Val(), i32, noPos)
	b.CreateReturn(loaded.Val(), noPos)

	pm := NewManager(m, 1)
	if changed := (GvarInliner{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected gvar_inliner to inline the single-function global")
	}

	hasAlloca := false
	for _, inst := range entry.Instrs {
		if _, ok := inst.(*ir.Alloca); ok {
			hasAlloca = true
		}
	}
	if !hasAlloca {
		t.Error("expected an alloca to replace the global in the function's entry")
	}
	if loaded.Addr.Value() == g.Val() {
		t.Error("expected the load to be retargeted away from the global")
	}
}

func TestGvarInlinerSkipsGlobalUsedFromTwoFunctions(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	five := b.ConstInt(5, i32)
	g := b.CreateGlobal("g", i32, five, false)

	fn, entry := newSingleBlockFunction(m, b, "f", nil)
	b.SetInsertPoint(fn, entry, nil)
	b.CreateLoad(g.Val(), i32, noPos)
	b.CreateReturn(nil, noPos)

	other, oEntry := newSingleBlockFunction(m, b, "other", nil)
	b.SetInsertPoint(other, oEntry, nil)
	b.CreateLoad(g.Val(), i32, noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 1)
	if changed := (GvarInliner{}).RunOnFunction(fn, pm); changed {
		t.Error("expected gvar_inliner to decline a global shared across functions")
	}
}
