package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestStoreCombCombinesFullConstantRun(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	arrType := m.Types.Array(i32, 3)
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{})

	alloca := b.CreateAlloca(arrType, noPos)
	for i := 0; i < 3; i++ {
		idx := b.ConstInt(uint32(i), i32)
		access := b.CreateElemAccess(alloca.Val(), idx, i32, noPos)
		val := b.ConstInt(uint32(10+i), i32)
		b.CreateStore(val, access.Val(), noPos)
	}
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	if changed := (StoreComb{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected store_comb to combine a complete constant run")
	}

	var stores []*ir.Store
	for _, inst := range entry.Instrs {
		if st, ok := inst.(*ir.Store); ok {
			stores = append(stores, st)
		}
	}
	if len(stores) != 1 {
		t.Fatalf("expected exactly one combined store, got %d", len(stores))
	}
	arr, ok := stores[0].Value.Value().Node().(*ir.ConstArray)
	if !ok {
		t.Fatalf("expected the combined store's value to be a ConstArray, got %T", stores[0].Value.Value().Node())
	}
	if stores[0].Addr.Value() != alloca.Val() {
		t.Error("the combined store should target the array alloca directly")
	}
	_ = arr
}

func TestStoreCombClearsOnIntermediateLoad(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	arrType := m.Types.Array(i32, 2)
	fn, entry := newSingleBlockFunction(m, b, "f", []*types.Type{})

	alloca := b.CreateAlloca(arrType, noPos)
	idx0 := b.ConstInt(0, i32)
	access0 := b.CreateElemAccess(alloca.Val(), idx0, i32, noPos)
	b.CreateStore(b.ConstInt(10, i32), access0.Val(), noPos)

	b.CreateLoad(alloca.Val(), arrType, noPos)

	idx1 := b.ConstInt(1, i32)
	access1 := b.CreateElemAccess(alloca.Val(), idx1, i32, noPos)
	b.CreateStore(b.ConstInt(11, i32), access1.Val(), noPos)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	if changed := (StoreComb{}).RunOnFunction(fn, pm); changed {
		t.Error("an intervening load should clear the pending combine")
	}
	count := 0
	for _, inst := range entry.Instrs {
		if _, ok := inst.(*ir.Store); ok {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected both stores to survive uncombined, got %d", count)
	}
}
