package pass

import "sysycc/internal/ir"

// LICM hoists a pure instruction whose every operand is defined outside
// the loop (or is itself already hoisted) into the loop's unique
// preheader, so it executes once per loop entry instead of once per
// iteration (spec.md §4.5.6). It does not create a preheader: a loop
// whose header has more than one predecessor outside the loop (the
// shape loop_norm rewrites) is left unhoisted.
type LICM struct{}

func (LICM) Info() Info {
	return Info{
		Name:        "licm",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Requires:    []string{"dominance", "loopinfo"},
		Invalidates: []string{"*"},
	}
}

func (LICM) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	li := Loops(fn, pm)
	changed := false
	for _, loop := range li.Loops {
		preheader := findPreheader(loop, fn)
		if preheader == nil {
			continue
		}
		changed = hoistLoop(loop, preheader) || changed
	}
	return changed
}

// findPreheader returns loop.Header's sole predecessor outside the
// loop body, or nil if the header has more than one outside edge
// (loop_norm's job is to guarantee exactly one; absent that, LICM
// conservatively declines to hoist).
func findPreheader(loop *Loop, fn *ir.Function) *ir.BasicBlock {
	var outside *ir.BasicBlock
	for _, p := range loop.Header.Predecessors {
		if loop.Contains(p) {
			continue
		}
		if outside != nil {
			return nil
		}
		outside = p
	}
	return outside
}

func hoistLoop(loop *Loop, preheader *ir.BasicBlock) bool {
	changed := false
	for {
		hoistedThisPass := false
		for bb := range loop.Blocks {
			for _, inst := range append([]ir.Instruction(nil), bb.Instrs...) {
				if !isLoopInvariant(inst, loop) {
					continue
				}
				hoistInstr(bb, inst, preheader)
				hoistedThisPass = true
				changed = true
			}
		}
		if !hoistedThisPass {
			break
		}
	}
	return changed
}

func isLoopInvariant(inst ir.Instruction, loop *Loop) bool {
	if inst.IsTerminator() {
		return false
	}
	if _, ok := inst.(*ir.Phi); ok {
		return false
	}
	for _, e := range inst.GetEffects() {
		if e != ir.EffectPure {
			return false
		}
	}
	for _, u := range inst.Operands() {
		v := u.Value()
		if v == nil {
			continue
		}
		if owner, ok := v.Node().(ir.Instruction); ok {
			if owner.Block() != nil && loop.Contains(owner.Block()) {
				return false
			}
		}
	}
	return true
}

func hoistInstr(from *ir.BasicBlock, inst ir.Instruction, preheader *ir.BasicBlock) {
	from.Erase(inst)
	term := preheader.Terminator()
	idx := len(preheader.Instrs)
	if term != nil {
		idx = len(preheader.Instrs) - 1
	}
	preheader.Instrs = append(preheader.Instrs, nil)
	copy(preheader.Instrs[idx+1:], preheader.Instrs[idx:])
	preheader.Instrs[idx] = inst
	ir.Retarget(inst, preheader)
}
