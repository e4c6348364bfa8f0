package pass

import "sysycc/internal/ir"

// LoopNorm inserts a dedicated preheader for any loop header that has
// more than one predecessor outside the loop, so later passes (LICM,
// naive_unroll) can rely on a single hoist/peel target (spec.md
// §4.5.6's normalization step).
type LoopNorm struct{}

func (LoopNorm) Info() Info {
	return Info{
		Name:        "loop_norm",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Requires:    []string{"dominance", "loopinfo"},
		Invalidates: []string{"*"},
	}
}

func (LoopNorm) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	li := Loops(fn, pm)
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, loop := range li.Loops {
		var outside []*ir.BasicBlock
		for _, p := range loop.Header.Predecessors {
			if !loop.Contains(p) {
				outside = append(outside, p)
			}
		}
		if len(outside) <= 1 {
			continue
		}
		insertPreheader(fn, loop, outside, b)
		changed = true
	}
	return changed
}

// insertPreheader creates a fresh block jumping unconditionally to the
// header, retargets every outside predecessor's branch/jump to the new
// block instead, and rewrites the header's predecessor list.
func insertPreheader(fn *ir.Function, loop *Loop, outside []*ir.BasicBlock, b *ir.Builder) {
	ph := b.CreateBlock(fn, loop.Header.Label+".preheader")
	for _, out := range outside {
		redirectTerminator(out, loop.Header, ph)
	}
	ph.Predecessors = outside
	b.Seal(ph)
	b.SetInsertPoint(fn, ph, nil)
	b.CreateJump(loop.Header, loop.Header.Val().Pos)

	kept := loop.Header.Predecessors[:0:0]
	for _, p := range loop.Header.Predecessors {
		if loop.Contains(p) {
			kept = append(kept, p)
		}
	}
	loop.Header.Predecessors = append(kept, ph)
}

func redirectTerminator(bb, from, to *ir.BasicBlock) {
	switch t := bb.Terminator().(type) {
	case *ir.Jump:
		if valAsBlockPublic(t.Target.Value()) == from {
			t.Target.Set(to.Val())
		}
	case *ir.Branch:
		if valAsBlockPublic(t.TrueTo.Value()) == from {
			t.TrueTo.Set(to.Val())
		}
		if valAsBlockPublic(t.FalseTo.Value()) == from {
			t.FalseTo.Set(to.Val())
		}
	}
}
