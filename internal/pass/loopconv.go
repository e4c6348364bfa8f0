package pass

import (
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// LoopConv recognizes the zeroing idiom — a two-block counted loop
// whose body stores a constant zero through an array-element pointer
// and increments the index by one — and replaces the whole loop with a
// single call to an externally declared memset, materializing the
// extern declaration the first time it is needed (spec.md's loop_conv
// contract).
type LoopConv struct{}

func (LoopConv) Info() Info {
	return Info{
		Name:        "loop_conv",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Requires:    []string{"dominance", "loopinfo", "licm"},
		Invalidates: []string{"*"},
	}
}

func (LoopConv) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	li := Loops(fn, pm)
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, loop := range li.Loops {
		idiom := matchZeroingIdiom(loop)
		if idiom == nil {
			continue
		}
		rewriteZeroingLoop(fn, loop, idiom, b)
		changed = true
	}
	return changed
}

// zeroingIdiom captures the values recognized out of the candidate
// loop: the base pointer being zeroed, the trip-count operand of the
// induction comparison, and the single predecessor/successor blocks
// the loop is spliced between once it is excised.
type zeroingIdiom struct {
	preheader *ir.BasicBlock
	exit      *ir.BasicBlock
	base      *ir.Value
	tripCount *ir.Value
}

func matchZeroingIdiom(loop *Loop) *zeroingIdiom {
	if len(loop.Blocks) != 2 || loop.Latch == loop.Header {
		return nil
	}
	header := loop.Header
	body := loop.Latch
	if !loop.Contains(body) {
		return nil
	}

	var preheader *ir.BasicBlock
	for _, p := range header.Predecessors {
		if !loop.Contains(p) {
			if preheader != nil {
				return nil
			}
			preheader = p
		}
	}
	if preheader == nil {
		return nil
	}

	br, ok := header.Terminator().(*ir.Branch)
	if !ok {
		return nil
	}
	cond, ok := br.Cond.Value().Node().(*ir.Binary)
	if !ok || cond.Op != ir.OpSLess && cond.Op != ir.OpULess {
		return nil
	}
	indPhi, ok := cond.Left.Value().Node().(*ir.Phi)
	if !ok || indPhi.Block() != header {
		return nil
	}
	tripCount := cond.Right.Value()
	if isDefinedInLoop(tripCount, loop) {
		return nil
	}

	exit := valAsBlockPublic(br.FalseTo.Value())
	if loop.Contains(exit) {
		exit = valAsBlockPublic(br.TrueTo.Value())
	}
	if loop.Contains(exit) {
		return nil
	}

	init := indPhi.Operand(preheader)
	if init == nil {
		return nil
	}
	if c, ok := init.Value.Value().Node().(*ir.ConstInt); !ok || c.IntVal != 0 {
		return nil
	}

	if len(body.Instrs) != 4 {
		return nil
	}
	access, ok := body.Instrs[0].(*ir.ElemAccess)
	if !ok || access.Ptr.Value() != nil && isDefinedInLoop(access.Ptr.Value(), loop) {
		return nil
	}
	if access.Index.Value() != indPhi.Val() {
		return nil
	}
	store, ok := body.Instrs[1].(*ir.Store)
	if !ok || store.Addr.Value() != access.Val() {
		return nil
	}
	if !isConstZero(store.Value.Value()) {
		return nil
	}
	step, ok := body.Instrs[2].(*ir.Binary)
	if !ok || step.Op != ir.OpAdd || step.Left.Value() != indPhi.Val() {
		return nil
	}
	if c, ok := step.Right.Value().Node().(*ir.ConstInt); !ok || c.IntVal != 1 {
		return nil
	}
	if _, ok := body.Instrs[3].(*ir.Jump); !ok {
		return nil
	}
	latchOp := indPhi.Operand(body)
	if latchOp == nil || latchOp.Value.Value() != step.Val() {
		return nil
	}

	return &zeroingIdiom{preheader: preheader, exit: exit, base: access.Ptr.Value(), tripCount: tripCount}
}

func isDefinedInLoop(v *ir.Value, loop *Loop) bool {
	inst, ok := v.Node().(ir.Instruction)
	if !ok {
		return false
	}
	return inst.Block() != nil && loop.Contains(inst.Block())
}

func isConstZero(v *ir.Value) bool {
	switch c := v.Node().(type) {
	case *ir.ConstZero:
		return true
	case *ir.ConstInt:
		return c.IntVal == 0
	}
	return false
}

func rewriteZeroingLoop(fn *ir.Function, loop *Loop, idiom *zeroingIdiom, b *ir.Builder) {
	memset := ensureMemsetExtern(b.Module())
	b.SetInsertPoint(fn, idiom.preheader, idiom.preheader.Terminator())
	zero := b.ConstInt(0, b.Module().Types.I32())
	b.CreateCall(memset, []*ir.Value{idiom.base, zero, idiom.tripCount}, idiom.preheader.Val().Pos)

	idiom.preheader.Erase(idiom.preheader.Terminator())
	b.SetInsertPoint(fn, idiom.preheader, nil)
	b.CreateJump(idiom.exit, idiom.preheader.Val().Pos)

	kept := idiom.exit.Predecessors[:0:0]
	for _, p := range idiom.exit.Predecessors {
		if !loop.Contains(p) {
			kept = append(kept, p)
		}
	}
	idiom.exit.Predecessors = append(kept, idiom.preheader)

	removeBlock(fn, loop.Header)
	removeBlock(fn, loop.Latch)
}

// ensureMemsetExtern returns the module's memset declaration, creating
// it as `declare memset(i8*, i32, i32) -> void` if this is the first
// loop_conv rewrite to need it.
func ensureMemsetExtern(m *ir.Module) *ir.Function {
	if f := m.FindFunction("memset"); f != nil {
		return f
	}
	b := ir.NewBuilder(m)
	ptr := m.Types.Pointer(m.Types.I8())
	return b.CreateFunction("memset", []*types.Type{ptr, m.Types.I32(), m.Types.I32()}, m.Types.Void(), true, false)
}
