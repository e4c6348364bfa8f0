package pass

import "sysycc/internal/ir"

// GlobalOpt marks a global variable non-mutable once it proves the
// global is never stored through, directly or via an Access/Cast
// chain rooted at it, and is never handed to a non-extern function as
// an argument (where an internal store could hide) — letting SCCP
// later fold loads of the initializer (spec.md's global_opt contract).
type GlobalOpt struct{}

func (GlobalOpt) Info() Info {
	return Info{
		Name:        "global_opt",
		Granularity: ModuleGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Invalidates: []string{"*"},
	}
}

func (GlobalOpt) RunOnFunction(fn *ir.Function, pm *Manager) bool { return false }

func (GlobalOpt) RunOnModule(m *ir.Module, pm *Manager) bool {
	mutated := make(map[*ir.GlobalVar]bool)
	for _, fn := range m.Functions {
		for _, bb := range fn.Blocks {
			for _, inst := range bb.Instrs {
				switch n := inst.(type) {
				case *ir.Store:
					if g := traceToGlobal(n.Addr.Value()); g != nil {
						mutated[g] = true
					}
				case *ir.Call:
					if n.Callee == nil || n.Callee.IsExtern {
						continue
					}
					for _, a := range n.Args {
						if g := traceToGlobal(a.Value()); g != nil {
							mutated[g] = true
						}
					}
				}
			}
		}
	}
	changed := false
	for _, g := range m.Globals {
		if !mutated[g] && g.IsMutable {
			g.IsMutable = false
			changed = true
		}
	}
	return changed
}

// traceToGlobal walks back through Cast/PtrAccess/ElemAccess to find
// the GlobalVar a pointer value ultimately derives from, or nil if its
// root is something else (an alloca, a parameter, ...).
func traceToGlobal(v *ir.Value) *ir.GlobalVar {
	for v != nil {
		switch n := v.Node().(type) {
		case *ir.GlobalVar:
			return n
		case *ir.Cast:
			v = n.X.Value()
		case *ir.PtrAccess:
			v = n.Ptr.Value()
		case *ir.ElemAccess:
			v = n.Ptr.Value()
		default:
			return nil
		}
	}
	return nil
}
