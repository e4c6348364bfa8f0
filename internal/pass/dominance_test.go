package pass

import (
	"testing"

	"sysycc/internal/ast"
	"sysycc/internal/ir"
)

// buildDiamond builds entry -> (left, right) -> join, each arm a plain
// unconditional jump in from entry, and returns the blocks in order.
func buildDiamond(m *ir.Module, b *ir.Builder, fn *ir.Function) (entry, left, right, join *ir.BasicBlock) {
	entry = b.CreateBlock(fn, "entry")
	left = b.CreateBlock(fn, "left")
	right = b.CreateBlock(fn, "right")
	join = b.CreateBlock(fn, "join")

	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	cond := b.ConstInt(1, m.Types.I32())
	b.CreateBranch(cond, left, right, ast.Position{})
	b.Seal(left)
	b.Seal(right)

	b.SetInsertPoint(fn, left, nil)
	b.CreateJump(join, ast.Position{})
	b.SetInsertPoint(fn, right, nil)
	b.CreateJump(join, ast.Position{})
	b.Seal(join)
	return
}

func TestDominanceDiamond(t *testing.T) {
	m := ir.NewModule("t")
	b := ir.NewBuilder(m)
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", nil, i32, false, false)
	entry, left, right, join := buildDiamond(m, b, fn)

	pm := NewManager(m, 3)
	dom := Dominance(fn, pm)

	if !dom.Dominates(entry, left) || !dom.Dominates(entry, right) || !dom.Dominates(entry, join) {
		t.Error("entry should dominate every other block in a diamond")
	}
	if dom.Dominates(left, join) || dom.Dominates(right, join) {
		t.Error("neither arm alone should dominate the join block")
	}
	if dom.IDom(join) != entry {
		t.Errorf("join's immediate dominator should be entry, got %v", dom.IDom(join))
	}
}

func TestLoopInfoDetectsBackEdge(t *testing.T) {
	m := ir.NewModule("t")
	b := ir.NewBuilder(m)
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", nil, i32, false, false)

	entry := b.CreateBlock(fn, "entry")
	header := b.CreateBlock(fn, "header")
	body := b.CreateBlock(fn, "body")
	exit := b.CreateBlock(fn, "exit")

	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	b.CreateJump(header, ast.Position{})

	b.SetInsertPoint(fn, header, nil)
	cond := b.ConstInt(1, i32)
	b.CreateBranch(cond, body, exit, ast.Position{})

	b.SetInsertPoint(fn, body, nil)
	b.CreateJump(header, ast.Position{})

	header.Predecessors = []*ir.BasicBlock{entry, body}
	b.Seal(header)
	b.Seal(body)
	b.Seal(exit)

	pm := NewManager(m, 3)
	li := Loops(fn, pm)
	if len(li.Loops) != 1 {
		t.Fatalf("expected exactly one natural loop, got %d", len(li.Loops))
	}
	loop := li.Loops[0]
	if loop.Header != header {
		t.Errorf("loop header should be the branch target reached via a back edge, got %v", loop.Header)
	}
	if !loop.Contains(body) {
		t.Error("loop should contain its body block")
	}
	if loop.Contains(exit) {
		t.Error("loop should not contain the exit block")
	}
	if li.InnermostLoop(body) != loop {
		t.Error("InnermostLoop should resolve body back to the loop")
	}
}
