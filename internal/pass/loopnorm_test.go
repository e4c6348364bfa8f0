package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestLoopNormInsertsPreheaderForMultipleOutsideEdges(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", nil, i32, false, false)

	entryA := b.CreateBlock(fn, "entryA")
	entryB := b.CreateBlock(fn, "entryB")
	header := b.CreateBlock(fn, "header")
	body := b.CreateBlock(fn, "body")
	exit := b.CreateBlock(fn, "exit")

	b.Seal(entryA)
	b.SetInsertPoint(fn, entryA, nil)
	condA := b.ConstInt(1, i32)
	b.CreateBranch(condA, header, entryB, noPos)
	b.Seal(entryB)
	b.SetInsertPoint(fn, entryB, nil)
	b.CreateJump(header, noPos)

	header.Predecessors = []*ir.BasicBlock{entryA, entryB, body}
	b.SetInsertPoint(fn, header, nil)
	condH := b.ConstInt(1, i32)
	b.CreateBranch(condH, body, exit, noPos)
	b.Seal(body)
	b.SetInsertPoint(fn, body, nil)
	b.CreateJump(header, noPos)
	b.Seal(header)
	b.Seal(exit)

	pm := NewManager(m, 2)
	if changed := (LoopNorm{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected loop_norm to insert a dedicated preheader")
	}
	outside := 0
	for _, p := range header.Predecessors {
		if p != body {
			outside++
		}
	}
	if outside != 1 {
		t.Fatalf("expected exactly one outside predecessor for the header after normalization, got %d", outside)
	}
}
