package pass

import "sysycc/internal/ir"

// NaiveUnroll duplicates a loop body a small fixed number of times
// when the loop has a single latch back to its header and a single
// exit, trading code size for fewer branches (spec.md §4.5.6). It is
// deliberately conservative — no trip-count analysis, just a bounded
// unroll factor — leaving anything more elaborate to loop_reduce.
type NaiveUnroll struct {
	Factor int
}

func (u NaiveUnroll) Info() Info {
	return Info{
		Name:        "naive_unroll",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 3,
		Requires:    []string{"dominance", "loopinfo"},
		Invalidates: []string{"*"},
	}
}

func (u NaiveUnroll) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	factor := u.Factor
	if factor < 2 {
		factor = 2
	}
	li := Loops(fn, pm)
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, loop := range li.Loops {
		if !eligibleForUnroll(loop) {
			continue
		}
		if unrollLoopBody(loop, factor, b) {
			changed = true
		}
	}
	return changed
}

// eligibleForUnroll admits only the simplest shape: a single-block
// loop body whose latch is the header itself (a counted for-loop with
// no internal control flow), which is the common case loop_reduce's
// induction-variable rewrite also targets.
func eligibleForUnroll(loop *Loop) bool {
	return len(loop.Blocks) == 1 && loop.Latch == loop.Header
}

// unrollLoopBody re-emits the header's pure arithmetic body factor-1
// additional times in place ahead of the terminator, threading each
// copy's induction value from the previous copy's result instead of
// the phi, so the header still executes factor iterations' worth of
// work per loop-back edge. Only pure Binary/Unary instructions are
// supported; any other instruction kind aborts the unroll for that
// loop to stay conservative (no calls or memory ops get duplicated
// blindly under this pass).
func unrollLoopBody(loop *Loop, factor int, b *ir.Builder) bool {
	header := loop.Header
	phis, body, term := splitHeaderInstrs(header)
	if term == nil || len(body) == 0 || !supportsCloning(body) {
		restoreHeader(header, phis, body, term)
		return false
	}

	mapping := make(map[*ir.Value]*ir.Value)
	for _, phi := range phis {
		mapping[phi.Val()] = latchOperand(phi, header)
	}
	b.SetInsertPoint(header.Func, header, term)
	var lastCopyMapping map[*ir.Value]*ir.Value
	for i := 1; i < factor; i++ {
		copyMapping := make(map[*ir.Value]*ir.Value)
		for k, v := range mapping {
			copyMapping[k] = v
		}
		for _, inst := range body {
			clone := cloneWithBuilder(inst, copyMapping, b)
			copyMapping[inst.Val()] = clone
		}
		for _, phi := range phis {
			if next, ok := copyMapping[latchOperand(phi, header)]; ok {
				mapping[phi.Val()] = next
			}
		}
		lastCopyMapping = copyMapping
	}
	if lastCopyMapping != nil {
		retargetLatchOperands(phis, header, lastCopyMapping)
	}
	return true
}

func restoreHeader(header *ir.BasicBlock, phis []*ir.Phi, body []ir.Instruction, term ir.Instruction) {
	header.Instrs = header.Instrs[:0]
	for _, p := range phis {
		header.Instrs = append(header.Instrs, p)
	}
	header.Instrs = append(header.Instrs, body...)
	if term != nil {
		header.Instrs = append(header.Instrs, term)
	}
}

func supportsCloning(body []ir.Instruction) bool {
	for _, inst := range body {
		switch inst.(type) {
		case *ir.Binary, *ir.Unary:
		default:
			return false
		}
	}
	return true
}

func splitHeaderInstrs(bb *ir.BasicBlock) (phis []*ir.Phi, body []ir.Instruction, term ir.Instruction) {
	all := append([]ir.Instruction(nil), bb.Instrs...)
	if len(all) == 0 {
		return nil, nil, nil
	}
	term = all[len(all)-1]
	for _, inst := range all[:len(all)-1] {
		if p, ok := inst.(*ir.Phi); ok {
			phis = append(phis, p)
		} else {
			body = append(body, inst)
		}
	}
	return phis, body, term
}

func latchOperand(phi *ir.Phi, latch *ir.BasicBlock) *ir.Value {
	if po := phi.Operand(latch); po != nil {
		return po.Value.Value()
	}
	return phi.Val()
}

func retargetLatchOperands(phis []*ir.Phi, latch *ir.BasicBlock, mapping map[*ir.Value]*ir.Value) {
	for _, phi := range phis {
		if po := phi.Operand(latch); po == nil {
			continue
		} else if repl, ok := mapping[po.Value.Value()]; ok {
			po.Value.Set(repl)
		}
	}
}

func cloneWithBuilder(inst ir.Instruction, mapping map[*ir.Value]*ir.Value, b *ir.Builder) *ir.Value {
	remap := func(v *ir.Value) *ir.Value {
		if r, ok := mapping[v]; ok {
			return r
		}
		return v
	}
	switch n := inst.(type) {
	case *ir.Binary:
		return b.CreateBinary(n.Op, remap(n.Left.Value()), remap(n.Right.Value()), n.Val().Type, n.Val().Pos).Val()
	case *ir.Unary:
		return b.CreateUnary(n.Op, remap(n.X.Value()), n.Val().Type, n.Val().Pos).Val()
	}
	return inst.Val()
}
