package pass

import "sysycc/internal/ir"

// DominanceInfo is the per-function result of the bitvector fixed-point
// dominance computation over reverse postorder (spec.md §4.3).
type DominanceInfo struct {
	fn       *ir.Function
	rpo      []*ir.BasicBlock
	index    map[*ir.BasicBlock]int
	dom      []uint64 // dom[i] is a bitset over rpo indices: blocks dominating rpo[i]
	idom     []*ir.BasicBlock
}

const domAnalysisName = "dominance"

// Dominance computes (or returns the cached) DominanceInfo for fn.
func Dominance(fn *ir.Function, pm *Manager) *DominanceInfo {
	key := domAnalysisName + ":" + fn.Name
	if cached := pm.Cached(key); cached != nil {
		return cached.(*DominanceInfo)
	}
	info := computeDominance(fn)
	pm.Cache(key, info)
	return info
}

func computeDominance(fn *ir.Function) *DominanceInfo {
	rpo := reversePostorder(fn)
	index := make(map[*ir.BasicBlock]int, len(rpo))
	for i, bb := range rpo {
		index[bb] = i
	}
	n := len(rpo)
	if n == 0 {
		return &DominanceInfo{fn: fn}
	}
	words := (n + 63) / 64
	dom := make([]uint64, n*words)
	full := make([]uint64, words)
	for i := range full {
		full[i] = ^uint64(0)
	}
	setBit := func(bitset []uint64, i int) { bitset[i/64] |= 1 << uint(i%64) }
	rowAt := func(i int) []uint64 { return dom[i*words : (i+1)*words] }

	entryRow := rowAt(0)
	setBit(entryRow, 0)

	for i := 1; i < n; i++ {
		copy(rowAt(i), full)
	}

	changed := true
	for changed {
		changed = false
		for i := 1; i < n; i++ {
			bb := rpo[i]
			var inter []uint64
			for _, pred := range bb.Predecessors {
				pIdx, ok := index[pred]
				if !ok {
					continue
				}
				pr := rowAt(pIdx)
				if inter == nil {
					inter = append([]uint64(nil), pr...)
				} else {
					for w := range inter {
						inter[w] &= pr[w]
					}
				}
			}
			if inter == nil {
				inter = make([]uint64, words)
			}
			setBit(inter, i)
			row := rowAt(i)
			same := true
			for w := range row {
				if row[w] != inter[w] {
					same = false
					break
				}
			}
			if !same {
				copy(row, inter)
				changed = true
			}
		}
	}

	idom := make([]*ir.BasicBlock, n)
	for i := 1; i < n; i++ {
		row := rowAt(i)
		for j := i - 1; j >= 0; j-- {
			if bitSet(row, j) && j != i {
				idom[i] = rpo[j]
				break
			}
		}
	}
	return &DominanceInfo{fn: fn, rpo: rpo, index: index, dom: dom, idom: idom}
}

func bitSet(bitset []uint64, i int) bool {
	return bitset[i/64]&(1<<uint(i%64)) != 0
}

// Dominates reports whether a dominates b (every path from the entry
// to b passes through a), inclusive of a == b.
func (d *DominanceInfo) Dominates(a, b *ir.BasicBlock) bool {
	ai, aok := d.index[a]
	bi, bok := d.index[b]
	if !aok || !bok {
		return false
	}
	words := (len(d.rpo) + 63) / 64
	row := d.dom[bi*words : (bi+1)*words]
	return bitSet(row, ai)
}

// IDom returns bb's immediate dominator, or nil for the entry block.
func (d *DominanceInfo) IDom(bb *ir.BasicBlock) *ir.BasicBlock {
	i, ok := d.index[bb]
	if !ok {
		return nil
	}
	return d.idom[i]
}

func reversePostorder(fn *ir.Function) []*ir.BasicBlock {
	entry := fn.Entry()
	if entry == nil {
		return nil
	}
	visited := make(map[*ir.BasicBlock]bool)
	var post []*ir.BasicBlock
	var visit func(*ir.BasicBlock)
	visit = func(bb *ir.BasicBlock) {
		if visited[bb] {
			return
		}
		visited[bb] = true
		if term := bb.Terminator(); term != nil {
			for _, succ := range term.Successors() {
				visit(succ)
			}
		}
		post = append(post, bb)
	}
	visit(entry)
	rpo := make([]*ir.BasicBlock, len(post))
	for i, bb := range post {
		rpo[len(post)-1-i] = bb
	}
	return rpo
}
