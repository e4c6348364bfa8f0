package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestADCERemovesDeadPureChainButKeepsStore(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{i32})
	x := fn.Args[0].Val()

	one := b.ConstInt(1, i32)
	dead := b.CreateBinary(ir.OpAdd, x, one, i32, noPos) // never used

	alloca := b.CreateAlloca(i32, noPos)
	b.CreateStore(x, alloca.Val(), noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 1)
	if changed := (ADCE{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected adce to remove the dead binary")
	}
	for _, inst := range entry.Instrs {
		if inst == dead {
			t.Fatal("dead binary should have been erased")
		}
	}
	found := false
	for _, inst := range entry.Instrs {
		if _, ok := inst.(*ir.Store); ok {
			found = true
		}
	}
	if !found {
		t.Error("the store (a critical effect) must survive")
	}
}
