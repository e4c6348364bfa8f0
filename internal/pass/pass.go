// Package pass implements the pass manager and the concrete analyses
// and optimization passes that run over internal/ir (spec.md §4.2-4.5).
package pass

import "sysycc/internal/ir"

// Stage is one of the five ordered pipeline stages a pass can run in.
// Passes registered in an earlier stage never observe a later stage's
// output within the same run; PassManager iterates stages in order.
type Stage int

const (
	PreOpt Stage = iota
	Promote
	Opt
	Demote
	PostOpt
)

func (s Stage) String() string {
	switch s {
	case PreOpt:
		return "pre-opt"
	case Promote:
		return "promote"
	case Opt:
		return "opt"
	case Demote:
		return "demote"
	default:
		return "post-opt"
	}
}

// Granularity is the unit of IR a Pass's Run is invoked on.
type Granularity int

const (
	BlockGranularity Granularity = iota
	FunctionGranularity
	ModuleGranularity
)

// Info is a pass's static metadata: where it runs, what optimization
// level enables it, and its dependency edges on other passes' results.
type Info struct {
	Name         string
	Granularity  Granularity
	Stages       []Stage // a pass may be eligible to run in more than one stage
	IsAnalysis   bool
	MinOptLevel  int // 0 = runs even at -O0 (mem2reg, for example)
	Requires     []string
	Invalidates  []string // "*" invalidates every analysis
}

// Pass is the common contract every analysis and transform satisfies.
// Run reports whether it changed the IR (transforms) or simply
// recomputed and cached a result (analyses, which return false).
type Pass interface {
	Info() Info
	RunOnFunction(fn *ir.Function, pm *Manager) bool
}

// ModulePass is implemented by passes whose natural granularity is the
// whole module (dead_global_elim, gvar_inliner, the inliner's call
// graph scan).
type ModulePass interface {
	Pass
	RunOnModule(m *ir.Module, pm *Manager) bool
}

// Manager schedules passes stage by stage. Within a stage it iterates
// to a fixed point: passes keep re-running (in registration order)
// until a full sweep makes no further change, which is what lets
// inst-comb/sccp/adce feed each other without a fixed pipeline order.
type Manager struct {
	Module   *ir.Module
	OptLevel int

	passesByStage map[Stage][]Pass
	analyses      map[string]interface{}
	dirty         map[string]bool
}

func NewManager(m *ir.Module, optLevel int) *Manager {
	return &Manager{
		Module:        m,
		OptLevel:      optLevel,
		passesByStage: make(map[Stage][]Pass),
		analyses:      make(map[string]interface{}),
		dirty:         make(map[string]bool),
	}
}

func (pm *Manager) Register(p Pass) {
	info := p.Info()
	if info.MinOptLevel > pm.OptLevel {
		return
	}
	for _, st := range info.Stages {
		pm.passesByStage[st] = append(pm.passesByStage[st], p)
	}
}

// RunAll drives every registered pass through all five stages in
// order, each stage to a local fixed point.
func (pm *Manager) RunAll() {
	for st := PreOpt; st <= PostOpt; st++ {
		pm.runStage(st)
	}
}

func (pm *Manager) runStage(st Stage) {
	passes := pm.passesByStage[st]
	if len(passes) == 0 {
		return
	}
	for {
		changedAny := false
		for _, p := range passes {
			if pm.runOne(p) {
				changedAny = true
			}
		}
		if !changedAny {
			return
		}
	}
}

func (pm *Manager) runOne(p Pass) bool {
	info := p.Info()
	changed := false
	if mp, ok := p.(ModulePass); ok && info.Granularity == ModuleGranularity {
		changed = mp.RunOnModule(pm.Module, pm)
	} else {
		for _, fn := range pm.Module.Functions {
			if fn.IsExtern {
				continue
			}
			if p.RunOnFunction(fn, pm) {
				changed = true
			}
		}
	}
	if changed {
		pm.invalidate(info.Invalidates)
	}
	return changed
}

// Cache stores an analysis result keyed by the analysis pass name and
// clears any stale mark an earlier invalidation left on that name.
func (pm *Manager) Cache(name string, result interface{}) {
	pm.analyses[name] = result
	delete(pm.dirty, name)
}

// Cached retrieves a previously computed analysis result, or nil if it
// is stale or was never computed.
func (pm *Manager) Cached(name string) interface{} {
	if pm.dirty[name] {
		return nil
	}
	return pm.analyses[name]
}

func (pm *Manager) invalidate(names []string) {
	for _, n := range names {
		if n == "*" {
			for k := range pm.analyses {
				pm.dirty[k] = true
			}
			return
		}
		pm.dirty[n] = true
	}
}
