package pass

import (
	"testing"

	"sysycc/internal/ir"
)

func TestBlockMergeFoldsStraightLineJump(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", nil, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	mid := b.CreateBlock(fn, "mid")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	b.CreateJump(mid, noPos)
	b.Seal(mid)
	b.SetInsertPoint(fn, mid, nil)
	one := b.ConstInt(1, i32)
	b.CreateReturn(one, noPos)

	pm := NewManager(m, 1)
	if changed := (BlockMerge{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected blk_merge to fold mid into entry")
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected exactly one surviving block, got %d", len(fn.Blocks))
	}
	if _, ok := fn.Blocks[0].Terminator().(*ir.Return); !ok {
		t.Fatalf("expected the merged block's terminator to be the Return, got %T", fn.Blocks[0].Terminator())
	}
}

func TestBlockMergeDeclinesWhenTargetHasAnotherPredecessor(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	fn := b.CreateFunction("f", nil, i32, false, false)
	entry, left, right, join := buildDiamond(m, b, fn)
	_ = left
	_ = right

	pm := NewManager(m, 1)
	if changed := (BlockMerge{}).RunOnFunction(fn, pm); changed {
		t.Error("blk_merge should not touch a join block with more than one predecessor")
	}
	if len(fn.Blocks) != 4 {
		t.Errorf("expected all four diamond blocks to survive, got %d", len(fn.Blocks))
	}
	_ = entry
	_ = join
}
