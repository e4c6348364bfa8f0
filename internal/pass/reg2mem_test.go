package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestReg2MemDemotesPhiToAllocaStoreLoad(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", nil, i32, false, false)
	entry, left, right, join := buildDiamond(m, b, fn)

	b.SetInsertPoint(fn, left, left.Terminator())
	leftVal := b.ConstInt(1, i32)
	b.WriteVariable("v", left, leftVal)
	b.SetInsertPoint(fn, right, right.Terminator())
	rightVal := b.ConstInt(2, i32)
	b.WriteVariable("v", right, rightVal)

	phiVal := b.ReadVariable("v", join, i32)
	if _, ok := phiVal.Node().(*ir.Phi); !ok {
		t.Fatalf("expected a genuine phi at join, got %T", phiVal.Node())
	}
	b.SetInsertPoint(fn, join, nil)
	b.CreateReturn(phiVal, noPos)

	pm := NewManager(m, 0)
	if changed := (Reg2Mem{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected reg2mem to demote the phi")
	}
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if _, ok := inst.(*ir.Phi); ok {
				t.Error("no phi should remain after reg2mem")
			}
		}
	}
	hasAlloca := false
	for _, inst := range entry.Instrs {
		if _, ok := inst.(*ir.Alloca); ok {
			hasAlloca = true
		}
	}
	if !hasAlloca {
		t.Error("expected a demotion alloca to be inserted in the entry block")
	}
}
