package pass

import "sysycc/internal/ir"

// DeadGlobalElim drops function declarations, internal functions, and
// globals that nothing in the module references any more (spec.md's
// dead_global_elim contract). `main` is always kept regardless of
// reference count since it is the program's entry point, not a value
// any instruction points at.
type DeadGlobalElim struct{}

func (DeadGlobalElim) Info() Info {
	return Info{
		Name:        "dead_global_elim",
		Granularity: ModuleGranularity,
		Stages:      []Stage{PreOpt, Opt},
		MinOptLevel: 0,
		Invalidates: []string{"*"},
	}
}

func (DeadGlobalElim) RunOnFunction(fn *ir.Function, pm *Manager) bool { return false }

func (DeadGlobalElim) RunOnModule(m *ir.Module, pm *Manager) bool {
	changed := false
	for {
		called := calledFunctions(m)
		removedThisPass := false
		kept := m.Functions[:0:0]
		for _, fn := range m.Functions {
			if fn.Name == "main" || called[fn] {
				kept = append(kept, fn)
				continue
			}
			// Neither main nor called by anything still in the module:
			// a declaration, a static function, or an internal
			// definition nothing reaches any more. All are eligible.
			clearFunctionBlocks(fn)
			removedThisPass = true
			changed = true
		}
		m.Functions = kept

		keptGlobals := m.Globals[:0:0]
		for _, g := range m.Globals {
			if g.Val().HasUses() {
				keptGlobals = append(keptGlobals, g)
			} else {
				removedThisPass = true
				changed = true
			}
		}
		m.Globals = keptGlobals

		if !removedThisPass {
			break
		}
	}
	return changed
}

func calledFunctions(m *ir.Module) map[*ir.Function]bool {
	called := make(map[*ir.Function]bool)
	for _, fn := range m.Functions {
		for _, bb := range fn.Blocks {
			for _, inst := range bb.Instrs {
				if call, ok := inst.(*ir.Call); ok && call.Callee != nil {
					called[call.Callee] = true
				}
			}
		}
	}
	return called
}

// clearFunctionBlocks drops a to-be-removed function's block list so
// its instructions' mutual Value/Use references are released together
// rather than kept alive by any stray cross-function pointer.
func clearFunctionBlocks(fn *ir.Function) {
	fn.Blocks = nil
}
