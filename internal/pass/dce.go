package pass

import "sysycc/internal/ir"

// DCE is plain dead code elimination: erase any pure instruction
// (EffectPure) whose result has no remaining uses. Unlike ADCE it does
// not need a liveness fixed point — one pass to a local fixed point per
// function is enough, since removing a dead instruction can only ever
// reduce another's use count. Runs before ADCE is enabled (MinOptLevel
// 0) so -O0 output still drops trivially unused locals.
type DCE struct{}

func (DCE) Info() Info {
	return Info{
		Name:        "dce",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt, PostOpt},
		MinOptLevel: 0,
		Invalidates: []string{"*"},
	}
}

func (DCE) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	changed := false
	for {
		removedThisPass := false
		for _, bb := range fn.Blocks {
			kept := bb.Instrs[:0:0]
			for _, inst := range bb.Instrs {
				if isPureDead(inst) {
					detachOperands(inst)
					removedThisPass = true
					continue
				}
				kept = append(kept, inst)
			}
			bb.Instrs = kept
		}
		if !removedThisPass {
			break
		}
		changed = true
	}
	return changed
}

func isPureDead(inst ir.Instruction) bool {
	if inst.IsTerminator() || inst.Val().HasUses() {
		return false
	}
	for _, e := range inst.GetEffects() {
		if e != ir.EffectPure {
			return false
		}
	}
	return true
}
