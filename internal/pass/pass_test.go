package pass

import (
	"testing"

	"sysycc/internal/ir"
)

// recordingPass appends its name to a shared log every time it runs,
// and reports changed exactly times times before going quiet.
type recordingPass struct {
	info    Info
	log     *[]string
	times   int
	ran     int
}

func (p *recordingPass) Info() Info { return p.info }

func (p *recordingPass) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	*p.log = append(*p.log, p.info.Name)
	if p.ran < p.times {
		p.ran++
		return true
	}
	return false
}

type recordingModulePass struct {
	recordingPass
}

func (p *recordingModulePass) RunOnModule(m *ir.Module, pm *Manager) bool {
	*p.log = append(*p.log, p.info.Name)
	if p.ran < p.times {
		p.ran++
		return true
	}
	return false
}

func TestManagerRunsStagesInOrder(t *testing.T) {
	m := ir.NewModule("t")
	b := ir.NewBuilder(m)
	fn := b.CreateFunction("f", nil, m.Types.I32(), false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	b.CreateReturn(nil, noPos)

	var log []string
	pm := NewManager(m, 3)
	pm.Register(&recordingPass{info: Info{Name: "post", Stages: []Stage{PostOpt}}, log: &log})
	pm.Register(&recordingPass{info: Info{Name: "pre", Stages: []Stage{PreOpt}}, log: &log})
	pm.Register(&recordingPass{info: Info{Name: "opt", Stages: []Stage{Opt}}, log: &log})

	pm.RunAll()

	if len(log) != 3 {
		t.Fatalf("expected exactly 3 pass invocations, got %d: %v", len(log), log)
	}
	if log[0] != "pre" || log[1] != "opt" || log[2] != "post" {
		t.Errorf("expected stage order pre, opt, post, got %v", log)
	}
}

func TestManagerIteratesStageToFixedPoint(t *testing.T) {
	m := ir.NewModule("t")
	b := ir.NewBuilder(m)
	fn := b.CreateFunction("f", nil, m.Types.I32(), false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	b.CreateReturn(nil, noPos)

	var log []string
	pm := NewManager(m, 3)
	pm.Register(&recordingPass{info: Info{Name: "churn", Stages: []Stage{Opt}}, log: &log, times: 2})

	pm.RunAll()

	if len(log) != 3 {
		t.Fatalf("expected the stage to iterate 3 times (2 changes + 1 confirming sweep), got %d: %v", len(log), log)
	}
}

func TestManagerGatesOnMinOptLevel(t *testing.T) {
	m := ir.NewModule("t")
	var log []string
	pm := NewManager(m, 0)
	pm.Register(&recordingPass{info: Info{Name: "o2only", Stages: []Stage{Opt}, MinOptLevel: 2}, log: &log})

	pm.RunAll()

	if len(log) != 0 {
		t.Errorf("expected an O2-gated pass to be skipped at -O0, got %v", log)
	}
}

func TestManagerRunsModulePassAtModuleGranularity(t *testing.T) {
	m := ir.NewModule("t")
	var log []string
	pm := NewManager(m, 3)
	mp := &recordingModulePass{recordingPass{info: Info{Name: "mod", Granularity: ModuleGranularity, Stages: []Stage{Opt}}, log: &log}}
	pm.Register(mp)

	pm.RunAll()

	if len(log) != 1 {
		t.Fatalf("expected the module pass to run exactly once (no per-function dispatch), got %d: %v", len(log), log)
	}
}

func TestManagerCacheAndInvalidate(t *testing.T) {
	m := ir.NewModule("t")
	pm := NewManager(m, 3)

	pm.Cache("dominance", 42)
	if got := pm.Cached("dominance"); got != 42 {
		t.Fatalf("expected cached value 42, got %v", got)
	}

	pm.invalidate([]string{"dominance"})
	if got := pm.Cached("dominance"); got != nil {
		t.Errorf("expected invalidated analysis to read back nil, got %v", got)
	}

	pm.Cache("dominance", 7)
	pm.Cache("loopinfo", 8)
	pm.invalidate([]string{"*"})
	if pm.Cached("dominance") != nil || pm.Cached("loopinfo") != nil {
		t.Error("expected the \"*\" wildcard to invalidate every cached analysis")
	}
}

func TestManagerInvalidatesCacheAfterChangingPass(t *testing.T) {
	m := ir.NewModule("t")
	b := ir.NewBuilder(m)
	fn := b.CreateFunction("f", nil, m.Types.I32(), false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 3)
	pm.Cache("dominance", 1)

	var log []string
	pm.Register(&recordingPass{info: Info{Name: "invalidator", Stages: []Stage{Opt}, Invalidates: []string{"dominance"}}, log: &log, times: 1})

	pm.RunAll()

	if pm.Cached("dominance") != nil {
		t.Error("expected a changing pass to invalidate the analysis it declares in Invalidates")
	}
}
