package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// buildSimpleLoop builds preheader -> header -> (body -> header | exit),
// with an induction variable, returning every block and the loop body's
// insert point left open for a test to append invariant/variant code.
func buildSimpleLoop(m *ir.Module, b *ir.Builder, fn *ir.Function) (preheader, header, body, exit *ir.BasicBlock) {
	i32 := m.Types.I32()
	preheader = b.CreateBlock(fn, "preheader")
	header = b.CreateBlock(fn, "header")
	body = b.CreateBlock(fn, "body")
	exit = b.CreateBlock(fn, "exit")

	b.Seal(preheader)
	b.SetInsertPoint(fn, preheader, nil)
	zero := b.ConstInt(0, i32)
	b.WriteVariable("i", preheader, zero)
	b.CreateJump(header, noPos)

	b.SetInsertPoint(fn, header, nil)
	header.Predecessors = []*ir.BasicBlock{preheader, body}
	iv := b.ReadVariable("i", header, i32)
	ten := b.ConstInt(10, i32)
	cond := b.CreateBinary(ir.OpSLess, iv, ten, i32, noPos)
	b.CreateBranch(cond.Val(), body, exit, noPos)
	b.Seal(body)

	b.SetInsertPoint(fn, body, nil)
	ivBody := b.ReadVariable("i", body, i32)
	one := b.ConstInt(1, i32)
	next := b.CreateBinary(ir.OpAdd, ivBody, one, i32, noPos)
	b.WriteVariable("i", body, next.Val())
	b.CreateJump(header, noPos)
	b.Seal(header)
	b.Seal(exit)

	return
}

func TestLICMHoistsLoopInvariantComputation(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", []*types.Type{i32, i32}, i32, false, false)
	a, c := fn.Args[0].Val(), fn.Args[1].Val()

	preheader, header, body, exit := buildSimpleLoop(m, b, fn)

	// Insert a loop-invariant computation (a*c) right before body's jump
	// back to header, using the two parameters only.
	term := body.Terminator()
	b.SetInsertPoint(fn, body, term)
	invariant := b.CreateBinary(ir.OpMul, a, c, i32, noPos)
	_ = invariant

	b.SetInsertPoint(fn, exit, nil)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	if changed := (LICM{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected licm to hoist the invariant multiply")
	}
	foundInPreheader := false
	for _, inst := range preheader.Instrs {
		if inst == invariant {
			foundInPreheader = true
		}
	}
	if !foundInPreheader {
		t.Error("the invariant multiply should have moved into the preheader")
	}
	for _, inst := range body.Instrs {
		if inst == invariant {
			t.Error("the invariant multiply should no longer be in the loop body")
		}
	}
	_ = header
}
