package pass

import "sysycc/internal/ir"

// Mem2Reg promotes allocas with no address-taken use beyond direct
// load/store into SSA values, using the builder's incomplete-phi/
// sealed-block machinery (WriteVariable/ReadVariable) (spec.md §4.4).
// It runs at every optimization level, including -O0, since
// internal/irgen emits an alloca per local and leaves promotion to
// this pass.
type Mem2Reg struct{}

func (Mem2Reg) Info() Info {
	return Info{
		Name:        "mem2reg",
		Granularity: FunctionGranularity,
		Stages:      []Stage{PromoteStage()},
		MinOptLevel: 0,
		Invalidates: []string{"*"},
	}
}

// PromoteStage names the pipeline stage mem2reg and reg2mem occupy.
func PromoteStage() Stage { return Promote }

func (Mem2Reg) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	candidates := promotable(fn)
	if len(candidates) == 0 {
		return false
	}
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, bb := range fn.Blocks {
		b.Seal(bb) // every block here already has its final predecessor set
	}
	for _, alloca := range candidates {
		if promoteOne(fn, alloca, b) {
			changed = true
		}
	}
	return changed
}

// promotable returns every Alloca in fn whose only uses are Load/Store
// through the alloca itself (never passed to a call, stored into
// memory, or otherwise escaped).
func promotable(fn *ir.Function) []*ir.Alloca {
	var out []*ir.Alloca
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			alloca, ok := inst.(*ir.Alloca)
			if !ok {
				continue
			}
			if isPromotable(alloca) {
				out = append(out, alloca)
			}
		}
	}
	return out
}

func isPromotable(alloca *ir.Alloca) bool {
	for _, u := range alloca.Val().Users() {
		switch owner := u.User().(type) {
		case *ir.Load:
		case *ir.Store:
			if owner.Value.Value() == alloca.Val() {
				return false // the address itself is being stored as data: escaped
			}
		default:
			return false
		}
	}
	return true
}

// promoteOne rewrites every load of alloca to the variable's reaching
// SSA definition and deletes the loads and stores once done.
func promoteOne(fn *ir.Function, alloca *ir.Alloca, b *ir.Builder) bool {
	name := promotedName(alloca)
	changed := false

	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if st, ok := inst.(*ir.Store); ok && st.Addr.Value() == alloca.Val() {
				b.WriteVariable(name, bb, st.Value.Value())
			}
		}
	}
	for _, bb := range fn.Blocks {
		for _, inst := range append([]ir.Instruction(nil), bb.Instrs...) {
			ld, ok := inst.(*ir.Load)
			if !ok || ld.Addr.Value() != alloca.Val() {
				continue
			}
			def := b.ReadVariable(name, bb, ld.Val().Type)
			ld.Val().ReplaceBy(def)
			changed = true
		}
	}
	if changed {
		eraseUsersOf(alloca.Val())
	}
	return changed
}

func promotedName(alloca *ir.Alloca) string {
	return alloca.String()
}

// eraseUsersOf removes every now-dead Load/Store instruction and the
// Alloca itself once no loads remain (adce will also catch these, this
// just avoids leaving an obviously-dead alloca for the next pass).
func eraseUsersOf(v *ir.Value) {
	for _, u := range v.Users() {
		if ld, ok := u.User().(*ir.Load); ok && !ld.Val().HasUses() {
			if bb := ld.Block(); bb != nil {
				bb.Erase(ld)
			}
			ld.Addr.Set(nil)
		}
	}
	for _, u := range v.Users() {
		if st, ok := u.User().(*ir.Store); ok {
			if bb := st.Block(); bb != nil {
				bb.Erase(st)
			}
			st.Addr.Set(nil)
			st.Value.Set(nil)
		}
	}
	if a, ok := v.Node().(*ir.Alloca); ok && !v.HasUses() {
		if bb := a.Block(); bb != nil {
			bb.Erase(a)
		}
	}
}
