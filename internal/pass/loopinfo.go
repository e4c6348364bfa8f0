package pass

import "sysycc/internal/ir"

// Loop is one natural loop: a header plus every block that can reach
// the header without leaving the loop (spec.md §4.3).
type Loop struct {
	Header *ir.BasicBlock
	Blocks map[*ir.BasicBlock]bool
	Latch  *ir.BasicBlock // the back-edge source discovered for Header
	Parent *Loop
}

func (l *Loop) Contains(bb *ir.BasicBlock) bool { return l.Blocks[bb] }

// Exits returns every block inside the loop with a successor outside it.
func (l *Loop) Exits() []*ir.BasicBlock {
	var out []*ir.BasicBlock
	for bb := range l.Blocks {
		term := bb.Terminator()
		if term == nil {
			continue
		}
		for _, succ := range term.Successors() {
			if !l.Blocks[succ] {
				out = append(out, bb)
				break
			}
		}
	}
	return out
}

type LoopInfo struct {
	Loops   []*Loop
	byBlock map[*ir.BasicBlock]*Loop
}

// InnermostLoop returns the tightest loop containing bb, or nil.
func (li *LoopInfo) InnermostLoop(bb *ir.BasicBlock) *Loop { return li.byBlock[bb] }

const loopAnalysisName = "loopinfo"

// Loops computes (or returns the cached) LoopInfo for fn. Requires
// DominanceInfo: a back edge is any edge bb -> header where header
// dominates bb.
func Loops(fn *ir.Function, pm *Manager) *LoopInfo {
	key := loopAnalysisName + ":" + fn.Name
	if cached := pm.Cached(key); cached != nil {
		return cached.(*LoopInfo)
	}
	dom := Dominance(fn, pm)
	info := computeLoops(fn, dom)
	pm.Cache(key, info)
	return info
}

func computeLoops(fn *ir.Function, dom *DominanceInfo) *LoopInfo {
	li := &LoopInfo{byBlock: make(map[*ir.BasicBlock]*Loop)}
	for _, bb := range fn.Blocks {
		term := bb.Terminator()
		if term == nil {
			continue
		}
		for _, succ := range term.Successors() {
			if dom.Dominates(succ, bb) {
				loop := findOrCreateLoop(li, succ)
				loop.Latch = bb
				collectLoopBlocks(loop, bb)
			}
		}
	}
	for _, loop := range li.Loops {
		for bb := range loop.Blocks {
			if cur, ok := li.byBlock[bb]; !ok || len(cur.Blocks) > len(loop.Blocks) {
				li.byBlock[bb] = loop
			}
		}
	}
	return li
}

func findOrCreateLoop(li *LoopInfo, header *ir.BasicBlock) *Loop {
	for _, l := range li.Loops {
		if l.Header == header {
			return l
		}
	}
	l := &Loop{Header: header, Blocks: map[*ir.BasicBlock]bool{header: true}}
	li.Loops = append(li.Loops, l)
	return l
}

// collectLoopBlocks walks predecessors backward from the latch until
// it reaches the header, adding every block found to the loop body.
func collectLoopBlocks(loop *Loop, latch *ir.BasicBlock) {
	if loop.Blocks[latch] {
		return
	}
	worklist := []*ir.BasicBlock{latch}
	for len(worklist) > 0 {
		bb := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if loop.Blocks[bb] {
			continue
		}
		loop.Blocks[bb] = true
		worklist = append(worklist, bb.Predecessors...)
	}
}
