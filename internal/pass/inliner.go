package pass

import "sysycc/internal/ir"

// Inliner copies a callee's body into the caller at a call site,
// subject to size and recursion bounds (spec.md's inliner contract).
// Rather than cloning the callee's explicit Phi/PhiOperand nodes, it
// re-derives the callee body through the same WriteVariable/
// ReadVariable surface mem2reg uses: every callee-local value becomes a
// synthetic variable name keyed by its ID, and the builder's own
// incomplete-phi/seal machinery reconstructs whatever merges the
// callee's control flow needs — including loops, without special-casing
// them here.
type Inliner struct{}

func (Inliner) Info() Info {
	return Info{
		Name:        "inliner",
		Granularity: ModuleGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Requires:    []string{"loopinfo", "naive_unroll", "loop_conv"},
		Invalidates: []string{"*"},
	}
}

// RunOnFunction exists only because Pass requires it even of
// ModulePass implementers; runOne's Granularity check always takes the
// RunOnModule branch for Inliner, so this is never actually called.
func (Inliner) RunOnFunction(fn *ir.Function, pm *Manager) bool { return false }

const (
	maxCalleeInstrs    = 128
	maxCallerInstrs    = 512
	maxRecursiveInline = 3
	maxInLoopBlocks    = 3
)

var inlineIDCounter int
var inlineCountByPair map[[2]*ir.Function]int

func (Inliner) RunOnModule(m *ir.Module, pm *Manager) bool {
	if inlineCountByPair == nil {
		inlineCountByPair = make(map[[2]*ir.Function]int)
	}
	b := ir.NewBuilder(m)
	changed := false
	for _, fn := range m.Functions {
		if fn.IsExtern {
			continue
		}
		for {
			site := findInlineSite(fn, pm)
			if site == nil {
				break
			}
			inlineCallSite(fn, site, b, pm)
			changed = true
		}
	}
	return changed
}

type callSite struct {
	block *ir.BasicBlock
	call  *ir.Call
	loop  *Loop
}

func findInlineSite(fn *ir.Function, pm *Manager) *callSite {
	if countInstrs(fn) > maxCallerInstrs {
		return nil
	}
	li := Loops(fn, pm)
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			call, ok := inst.(*ir.Call)
			if !ok {
				continue
			}
			callee := call.Callee
			if callee == nil || callee.IsExtern || callee == fn {
				continue
			}
			if isCrossRecursive(fn, callee) {
				continue
			}
			calleeInstrs := countInstrs(callee)
			if calleeInstrs > maxCalleeInstrs {
				continue
			}
			loop := li.InnermostLoop(bb)
			if loop != nil && (len(callee.Blocks) > maxInLoopBlocks || calleeInstrs > maxCalleeInstrs) {
				continue
			}
			if isRecursive(callee) {
				key := [2]*ir.Function{fn, callee}
				if inlineCountByPair[key] >= maxRecursiveInline {
					continue
				}
			}
			return &callSite{block: bb, call: call, loop: loop}
		}
	}
	return nil
}

func countInstrs(fn *ir.Function) int {
	n := 0
	for _, bb := range fn.Blocks {
		n += len(bb.Instrs)
	}
	return n
}

// isRecursive reports whether fn can reach itself through calls.
func isRecursive(fn *ir.Function) bool {
	return callGraphReaches(fn, fn, map[*ir.Function]bool{})
}

// isCrossRecursive reports whether callee can (transitively) call back
// into caller, which would make inlining caller's call to callee
// introduce an infinite expansion.
func isCrossRecursive(caller, callee *ir.Function) bool {
	return callGraphReaches(callee, caller, map[*ir.Function]bool{})
}

func callGraphReaches(from, target *ir.Function, visited map[*ir.Function]bool) bool {
	if visited[from] {
		return false
	}
	visited[from] = true
	for _, bb := range from.Blocks {
		for _, inst := range bb.Instrs {
			call, ok := inst.(*ir.Call)
			if !ok || call.Callee == nil {
				continue
			}
			if call.Callee == target {
				return true
			}
			if callGraphReaches(call.Callee, target, visited) {
				return true
			}
		}
	}
	return false
}

func inlineCallSite(fn *ir.Function, site *callSite, b *ir.Builder, pm *Manager) {
	callee := site.call.Callee
	if isRecursive(callee) {
		key := [2]*ir.Function{fn, callee}
		inlineCountByPair[key]++
	}

	inlineIDCounter++
	inlineID := inlineIDCounter

	bb := site.block
	idx := indexOf(bb.Instrs, site.call)
	tailInstrs := append([]ir.Instruction(nil), bb.Instrs[idx+1:]...)
	bb.Instrs = bb.Instrs[:idx]

	tail := b.CreateBlock(fn, bb.Label+".inline_tail")
	tail.Instrs = tailInstrs
	for _, inst := range tailInstrs {
		ir.Retarget(inst, tail)
	}
	term := tail.Terminator()
	if term != nil {
		for _, succ := range term.Successors() {
			for i, p := range succ.Predecessors {
				if p == bb {
					succ.Predecessors[i] = tail
				}
			}
		}
	}

	argMap := make(map[*ir.Value]*ir.Value, len(callee.Args))
	for i, arg := range callee.Args {
		if i < len(site.call.Args) {
			argMap[arg.Val()] = site.call.Args[i].Value()
		}
	}

	blockMap := make(map[*ir.BasicBlock]*ir.BasicBlock, len(callee.Blocks))
	for _, old := range callee.Blocks {
		blockMap[old] = b.CreateBlock(fn, old.Label+".inl"+itoaLoopReduce(inlineID))
	}

	b.SetInsertPoint(fn, bb, nil)
	b.CreateJump(blockMap[callee.Entry()], site.call.Val().Pos)

	var returns []struct {
		block *ir.BasicBlock
		value *ir.Value
	}

	done := make(map[*ir.BasicBlock]bool)
	trySeal := func() {
		for _, old := range callee.Blocks {
			newBB := blockMap[old]
			if newBB.Sealed() {
				continue
			}
			ready := true
			for _, p := range old.Predecessors {
				if !done[p] {
					ready = false
					break
				}
			}
			if ready {
				b.Seal(newBB)
			}
		}
	}
	trySeal()

	remap := func(old *ir.Value, atBlock *ir.BasicBlock) *ir.Value {
		return remapInlinedValue(old, argMap, inlineID, atBlock, b)
	}

	allocaEntry := fn.Entry()
	for _, old := range callee.Blocks {
		newBB := blockMap[old]
		for _, inst := range old.Instrs {
			cloneCalleeInstr(inst, newBB, allocaEntry, tail, remap, blockMap, inlineID, b, &returns)
		}
		done[old] = true
		trySeal()
	}

	for _, r := range returns {
		tail.Predecessors = append(tail.Predecessors, r.block)
	}
	b.Seal(tail)
	if len(returns) == 1 {
		if returns[0].value != nil {
			site.call.Val().ReplaceBy(returns[0].value)
		}
	} else if len(returns) > 1 {
		for _, r := range returns {
			if r.value != nil {
				b.WriteVariable(retName(inlineID), r.block, r.value)
			}
		}
		if site.call.Val().Type != nil {
			merged := b.ReadVariable(retName(inlineID), tail, site.call.Val().Type)
			site.call.Val().ReplaceBy(merged)
		}
	}
}

func retName(inlineID int) string { return "inline$ret$" + itoaLoopReduce(inlineID) }

func indexOf(instrs []ir.Instruction, target ir.Instruction) int {
	for i, inst := range instrs {
		if inst == target {
			return i
		}
	}
	return -1
}

func remapInlinedValue(old *ir.Value, argMap map[*ir.Value]*ir.Value, inlineID int, atBlock *ir.BasicBlock, b *ir.Builder) *ir.Value {
	if mapped, ok := argMap[old]; ok {
		return mapped
	}
	switch old.Node().(type) {
	case *ir.ConstInt, *ir.ConstZero, *ir.ConstStr, *ir.ConstStruct, *ir.ConstArray, *ir.Undef, *ir.GlobalVar, *ir.Function:
		return old
	}
	return b.ReadVariable("inline$"+itoaLoopReduce(inlineID)+"$"+itoaLoopReduce(old.ID), atBlock, old.Type)
}

// cloneCalleeInstr re-emits one callee instruction into newBB (or, for
// Alloca, hoists it into allocaEntry), skipping Phis entirely since the
// builder's variable-read machinery reconstructs whatever merge they
// represented. Terminators besides Return are redirected through
// blockMap; Return instructions are recorded for the caller to join at
// the split-off tail block instead of being cloned directly.
func cloneCalleeInstr(inst ir.Instruction, newBB, allocaEntry, tail *ir.BasicBlock, remap func(*ir.Value, *ir.BasicBlock) *ir.Value, blockMap map[*ir.BasicBlock]*ir.BasicBlock, inlineID int, b *ir.Builder, returns *[]struct {
	block *ir.BasicBlock
	value *ir.Value
}) {
	write := func(clone *ir.Value) {
		b.WriteVariable("inline$"+itoaLoopReduce(inlineID)+"$"+itoaLoopReduce(inst.Val().ID), newBB, clone)
	}
	switch n := inst.(type) {
	case *ir.Phi:
		return
	case *ir.Alloca:
		b.SetInsertPoint(allocaEntry.Func, allocaEntry, firstNonAlloca(allocaEntry))
		clone := b.CreateAlloca(n.ElemType, n.Val().Pos)
		write(clone.Val())
	case *ir.Load:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		clone := b.CreateLoad(remap(n.Addr.Value(), newBB), n.Val().Type, n.Val().Pos)
		write(clone.Val())
	case *ir.Store:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		b.CreateStore(remap(n.Value.Value(), newBB), remap(n.Addr.Value(), newBB), n.Val().Pos)
	case *ir.PtrAccess:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		clone := b.CreatePtrAccess(remap(n.Ptr.Value(), newBB), remap(n.Index.Value(), newBB), n.Val().Pos)
		write(clone.Val())
	case *ir.ElemAccess:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		clone := b.CreateElemAccess(remap(n.Ptr.Value(), newBB), remap(n.Index.Value(), newBB), n.ElemType, n.Val().Pos)
		write(clone.Val())
	case *ir.Binary:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		clone := b.CreateBinary(n.Op, remap(n.Left.Value(), newBB), remap(n.Right.Value(), newBB), n.Val().Type, n.Val().Pos)
		write(clone.Val())
	case *ir.Unary:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		clone := b.CreateUnary(n.Op, remap(n.X.Value(), newBB), n.Val().Type, n.Val().Pos)
		write(clone.Val())
	case *ir.Cast:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		clone := b.CreateCast(remap(n.X.Value(), newBB), n.Val().Type, n.Val().Pos)
		write(clone.Val())
	case *ir.Call:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		args := make([]*ir.Value, len(n.Args))
		for i := range n.Args {
			args[i] = remap(n.Args[i].Value(), newBB)
		}
		clone := b.CreateCall(n.Callee, args, n.Val().Pos)
		write(clone.Val())
	case *ir.Select:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		clone := b.CreateSelect(remap(n.Cond.Value(), newBB), remap(n.True.Value(), newBB), remap(n.False.Value(), newBB), n.Val().Type, n.Val().Pos)
		write(clone.Val())
	case *ir.Branch:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		b.CreateBranch(remap(n.Cond.Value(), newBB), blockMap[valAsBlockPublic(n.TrueTo.Value())], blockMap[valAsBlockPublic(n.FalseTo.Value())], n.Val().Pos)
	case *ir.Jump:
		b.SetInsertPoint(newBB.Func, newBB, nil)
		b.CreateJump(blockMap[valAsBlockPublic(n.Target.Value())], n.Val().Pos)
	case *ir.Return:
		var val *ir.Value
		if n.Value.Value() != nil {
			val = remap(n.Value.Value(), newBB)
		}
		b.SetInsertPoint(newBB.Func, newBB, nil)
		b.CreateJump(tail, n.Val().Pos)
		*returns = append(*returns, struct {
			block *ir.BasicBlock
			value *ir.Value
		}{block: newBB, value: val})
	}
}

// firstNonAlloca returns the first instruction in bb that is not an
// Alloca, so newly hoisted allocas land after existing ones and before
// everything else — nil if bb is (so far) only allocas.
func firstNonAlloca(bb *ir.BasicBlock) ir.Instruction {
	for _, inst := range bb.Instrs {
		if _, ok := inst.(*ir.Alloca); !ok {
			return inst
		}
	}
	return nil
}

