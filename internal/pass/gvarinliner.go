package pass

import "sysycc/internal/ir"

const maxInlineGlobalBytes = 4 * 1024 * 1024

// GvarInliner materializes a single-function global (scalar or small
// array, ≤4 MiB) as a local alloca in that function's entry instead,
// seeding it with the global's initializer — the mirror image of
// local_prom, and the combined gvar_inliner/arr_inliner contract from
// spec.md: both are the same transform, just over different
// ElemType shapes.
type GvarInliner struct{}

func (GvarInliner) Info() Info {
	return Info{
		Name:        "gvar_inliner",
		Granularity: FunctionGranularity,
		Stages:      []Stage{PreOpt, Opt},
		MinOptLevel: 1,
		Invalidates: []string{"*"},
	}
}

func (GvarInliner) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, g := range append([]*ir.GlobalVar(nil), pm.Module.Globals...) {
		if g.ElemType.Size() > maxInlineGlobalBytes {
			continue
		}
		owner := soleUsingFunction(g)
		if owner != fn {
			continue
		}
		inlineGlobalIntoFunction(fn, g, b)
		changed = true
	}
	return changed
}

// soleUsingFunction returns the single function every use of g's
// address resolves into, or nil if g has no uses, is used from more
// than one function, or has a use outside any function body.
func soleUsingFunction(g *ir.GlobalVar) *ir.Function {
	var owner *ir.Function
	for _, u := range g.Val().Users() {
		inst, ok := u.User().(ir.Instruction)
		if !ok || inst.Block() == nil {
			return nil
		}
		fn := inst.Block().Func
		if owner == nil {
			owner = fn
		} else if owner != fn {
			return nil
		}
	}
	return owner
}

func inlineGlobalIntoFunction(fn *ir.Function, g *ir.GlobalVar, b *ir.Builder) {
	entry := fn.Entry()
	if entry == nil {
		return
	}
	b.SetInsertPoint(fn, entry, firstNonAlloca(entry))
	alloca := b.CreateAlloca(g.ElemType, entry.Val().Pos)
	init := g.Init.Value()
	if init == nil {
		init = b.ConstZero(g.ElemType)
	}
	b.SetInsertPoint(fn, entry, firstNonAlloca(entry))
	b.CreateStore(init, alloca.Val(), entry.Val().Pos)
	g.Val().ReplaceBy(alloca.Val())
}
