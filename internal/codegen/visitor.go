// Package codegen implements the back-end visitor contract of spec.md
// §6.1: a Visitor interface with one method per SSA variant, and
// Generate, the Module::generate_code equivalent that drives a Visitor
// over a whole Module — globals first, then each function's blocks in
// breadth-first order from the entry. Both back ends keep their
// per-value state in their own tables (ARMEmitter's slot maps, CEmitter's
// ID-based variable names); neither Generate nor either back end reads
// or writes Value.Metadata.
package codegen

import (
	"fmt"

	"sysycc/internal/ir"
)

// Visitor is implemented once per back end (CEmitter, ARMEmitter).
// Generate dispatches every block-resident instruction to the matching
// method; a back end that has nothing to do for a given kind still
// must implement it, since spec.md §6.1 gives every SSA variant a
// visit method rather than a default no-op.
type Visitor interface {
	VisitGlobal(g *ir.GlobalVar)
	EnterFunction(fn *ir.Function)
	ExitFunction(fn *ir.Function)
	EnterBlock(bb *ir.BasicBlock)

	VisitAlloca(i *ir.Alloca)
	VisitLoad(i *ir.Load)
	VisitStore(i *ir.Store)
	VisitPtrAccess(i *ir.PtrAccess)
	VisitElemAccess(i *ir.ElemAccess)
	VisitBinary(i *ir.Binary)
	VisitUnary(i *ir.Unary)
	VisitCast(i *ir.Cast)
	VisitCall(i *ir.Call)
	VisitPhi(i *ir.Phi)
	VisitSelect(i *ir.Select)
	VisitBranch(i *ir.Branch)
	VisitJump(i *ir.Jump)
	VisitReturn(i *ir.Return)
}

// Generate is Module::generate_code(&mut codegen): it iterates globals
// then functions, and each function's blocks in breadth-first order
// from the entry, dispatching every instruction to v. The back end
// accumulates its own output (a string builder, an instruction list);
// Generate itself returns nothing, matching the "codegen is mutated in
// place" framing spec.md §6.1 describes.
func Generate(m *ir.Module, v Visitor) {
	for _, g := range m.Globals {
		v.VisitGlobal(g)
	}
	for _, fn := range m.Functions {
		if fn.IsExtern {
			continue
		}
		v.EnterFunction(fn)
		for _, bb := range breadthFirstBlocks(fn) {
			v.EnterBlock(bb)
			for _, inst := range bb.Instrs {
				dispatch(v, inst)
			}
		}
		v.ExitFunction(fn)
	}
}

// breadthFirstBlocks walks a function's CFG from its entry block via
// each terminator's Successors, rather than relying on Blocks' layout
// order, since a pass may have appended blocks (e.g. an inlined tail)
// out of control-flow order.
func breadthFirstBlocks(fn *ir.Function) []*ir.BasicBlock {
	entry := fn.Entry()
	if entry == nil {
		return nil
	}
	seen := map[*ir.BasicBlock]bool{entry: true}
	order := []*ir.BasicBlock{entry}
	queue := []*ir.BasicBlock{entry}
	for len(queue) > 0 {
		bb := queue[0]
		queue = queue[1:]
		term := bb.Terminator()
		if term == nil {
			continue
		}
		for _, succ := range term.Successors() {
			if succ != nil && !seen[succ] {
				seen[succ] = true
				order = append(order, succ)
				queue = append(queue, succ)
			}
		}
	}
	return order
}

func dispatch(v Visitor, inst ir.Instruction) {
	switch n := inst.(type) {
	case *ir.Alloca:
		v.VisitAlloca(n)
	case *ir.Load:
		v.VisitLoad(n)
	case *ir.Store:
		v.VisitStore(n)
	case *ir.PtrAccess:
		v.VisitPtrAccess(n)
	case *ir.ElemAccess:
		v.VisitElemAccess(n)
	case *ir.Binary:
		v.VisitBinary(n)
	case *ir.Unary:
		v.VisitUnary(n)
	case *ir.Cast:
		v.VisitCast(n)
	case *ir.Call:
		v.VisitCall(n)
	case *ir.Phi:
		v.VisitPhi(n)
	case *ir.Select:
		v.VisitSelect(n)
	case *ir.Branch:
		v.VisitBranch(n)
	case *ir.Jump:
		v.VisitJump(n)
	case *ir.Return:
		v.VisitReturn(n)
	default:
		panic(fmt.Sprintf("codegen: unhandled instruction %T", inst))
	}
}
