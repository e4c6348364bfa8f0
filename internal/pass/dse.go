package pass

import "sysycc/internal/ir"

// DSE is dead store elimination: within a single block, a Store to an
// address value that is overwritten by a later Store to the same
// address value, with no Load or Call in between, can be deleted
// (spec.md §4.5.4). Any Load or Call forgets every store tracked so
// far, so a load through another pointer to the same storage also
// keeps the earlier store alive. This is the block-local, alias-free
// slice of the problem; crossing blocks would need the alias/effect
// model the spec's Non-goals explicitly exclude.
type DSE struct{}

func (DSE) Info() Info {
	return Info{
		Name:        "dse",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 1,
		Requires:    []string{"store_comb"},
		Invalidates: []string{"*"},
	}
}

func (DSE) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	changed := false
	for _, bb := range fn.Blocks {
		lastStoreTo := make(map[*ir.Value]*ir.Store)
		var dead []*ir.Store
		for _, inst := range bb.Instrs {
			switch n := inst.(type) {
			case *ir.Store:
				addr := n.Addr.Value()
				if prev, ok := lastStoreTo[addr]; ok {
					dead = append(dead, prev)
				}
				lastStoreTo[addr] = n
			case *ir.Load, *ir.Call:
				lastStoreTo = make(map[*ir.Value]*ir.Store)
			}
		}
		for _, st := range dead {
			detachOperands(st)
			bb.Erase(st)
			changed = true
		}
	}
	return changed
}
