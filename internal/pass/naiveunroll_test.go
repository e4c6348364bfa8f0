package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestNaiveUnrollDuplicatesSelfLoopBody(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", nil, i32, false, false)

	preheader := b.CreateBlock(fn, "preheader")
	header := b.CreateBlock(fn, "header")

	b.Seal(preheader)
	b.SetInsertPoint(fn, preheader, nil)
	zero := b.ConstInt(0, i32)
	b.WriteVariable("i", preheader, zero)
	b.CreateJump(header, noPos)

	header.Predecessors = []*ir.BasicBlock{preheader, header}
	b.SetInsertPoint(fn, header, nil)
	iv := b.ReadVariable("i", header, i32)
	one := b.ConstInt(1, i32)
	next := b.CreateBinary(ir.OpAdd, iv, one, i32, noPos)
	b.WriteVariable("i", header, next.Val())
	b.CreateJump(header, noPos)
	b.Seal(header)

	phi, ok := iv.Node().(*ir.Phi)
	if !ok {
		t.Fatalf("expected a genuine induction phi, got %T", iv.Node())
	}

	pm := NewManager(m, 3)
	if changed := (NaiveUnroll{Factor: 3}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected naive_unroll to duplicate the self-loop body")
	}

	binaryCount := 0
	for _, inst := range header.Instrs {
		if _, ok := inst.(*ir.Binary); ok {
			binaryCount++
		}
	}
	if binaryCount != 3 {
		t.Errorf("expected the body (one Add) to be present 3 times (factor 3), got %d", binaryCount)
	}

	po := phi.Operand(header)
	if po == nil {
		t.Fatal("expected the phi to still have a latch operand from header")
	}
	if po.Value.Value() == next.Val() {
		t.Error("expected the latch operand to be retargeted to the final unrolled copy, not the original add")
	}
}
