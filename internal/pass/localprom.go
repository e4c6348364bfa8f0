package pass

import "sysycc/internal/ir"

// LocalProm is the mirror image of gvar_inliner: an alloca written
// exactly once, with a constant value, and never written again becomes
// a new internal non-mutable global seeded with that constant; the
// store is dropped and every use of the alloca is retargeted to the
// global (spec.md's local_prom contract).
type LocalProm struct{}

func (LocalProm) Info() Info {
	return Info{
		Name:        "local_prom",
		Granularity: ModuleGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Invalidates: []string{"*"},
	}
}

func (LocalProm) RunOnFunction(fn *ir.Function, pm *Manager) bool { return false }

var localPromCounter int

func (LocalProm) RunOnModule(m *ir.Module, pm *Manager) bool {
	b := ir.NewBuilder(m)
	changed := false
	for _, fn := range m.Functions {
		for _, bb := range fn.Blocks {
			for _, inst := range append([]ir.Instruction(nil), bb.Instrs...) {
				alloca, ok := inst.(*ir.Alloca)
				if !ok {
					continue
				}
				store, constVal, ok := solePromotableStore(alloca)
				if !ok {
					continue
				}
				promoteAllocaToGlobal(fn, bb, alloca, store, constVal, b)
				changed = true
			}
		}
	}
	return changed
}

// solePromotableStore reports the single Store writing a constant
// directly to alloca's address, provided that is the alloca's only
// store and only non-address use otherwise consists of Loads (any
// Access/Cast derivation, or a second store, disqualifies it).
func solePromotableStore(alloca *ir.Alloca) (*ir.Store, *ir.Value, bool) {
	var store *ir.Store
	for _, u := range alloca.Val().Users() {
		switch owner := u.User().(type) {
		case *ir.Load:
			continue
		case *ir.Store:
			if owner.Addr.Value() != alloca.Val() {
				return nil, nil, false
			}
			if store != nil {
				return nil, nil, false
			}
			store = owner
		default:
			return nil, nil, false
		}
	}
	if store == nil {
		return nil, nil, false
	}
	val := store.Value.Value()
	if !isConstantValue(val) {
		return nil, nil, false
	}
	return store, val, true
}

func isConstantValue(v *ir.Value) bool {
	switch v.Node().(type) {
	case *ir.ConstInt, *ir.ConstZero, *ir.ConstStr, *ir.ConstStruct, *ir.ConstArray:
		return true
	}
	return false
}

func promoteAllocaToGlobal(fn *ir.Function, bb *ir.BasicBlock, alloca *ir.Alloca, store *ir.Store, constVal *ir.Value, b *ir.Builder) {
	localPromCounter++
	name := fn.Name + "$local_prom$" + itoaLoopReduce(localPromCounter)
	g := b.CreateGlobal(name, alloca.ElemType, constVal, true)
	g.IsMutable = false

	detachOperands(store)
	store.Block().Erase(store)

	alloca.Val().ReplaceBy(g.Val())
	bb.Erase(alloca)
}
