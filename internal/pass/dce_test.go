package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestDCERemovesUnusedPureInstruction(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{i32})
	x := fn.Args[0].Val()

	one := b.ConstInt(1, i32)
	b.CreateBinary(ir.OpAdd, x, one, i32, noPos) // unused result
	b.CreateReturn(x, noPos)

	pm := NewManager(m, 0)
	if changed := (DCE{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected dce to remove the unused addition")
	}
	for _, inst := range entry.Instrs {
		if _, ok := inst.(*ir.Binary); ok {
			t.Error("the unused binary should have been erased")
		}
	}
}

func TestDCEKeepsUsedInstruction(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{i32})
	x := fn.Args[0].Val()

	one := b.ConstInt(1, i32)
	sum := b.CreateBinary(ir.OpAdd, x, one, i32, noPos)
	b.CreateReturn(sum.Val(), noPos)

	pm := NewManager(m, 0)
	if changed := (DCE{}).RunOnFunction(fn, pm); changed {
		t.Error("dce should not touch an instruction whose result is still used")
	}
	found := false
	for _, inst := range entry.Instrs {
		if inst == sum {
			found = true
		}
	}
	if !found {
		t.Error("the still-used binary should survive")
	}
}
