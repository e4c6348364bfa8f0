package pass

import (
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// Reg2Mem is mem2reg's inverse: it demotes every Phi back into an
// alloca plus loads/stores, one store per incoming predecessor. It
// runs in the Demote stage, after Opt and before PostOpt, at every
// optimization level, so the back ends in internal/codegen normally
// receive no phis; both can still lower one by having each predecessor
// write the phi's slot (spec.md §4.4, §4.5.6's "Demote" stage).
type Reg2Mem struct{}

func (Reg2Mem) Info() Info {
	return Info{
		Name:        "reg2mem",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Demote},
		MinOptLevel: 0,
		Invalidates: []string{"*"},
	}
}

func (Reg2Mem) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	var phis []*ir.Phi
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if p, ok := inst.(*ir.Phi); ok {
				phis = append(phis, p)
			}
		}
	}
	if len(phis) == 0 {
		return false
	}
	entry := fn.Entry()
	b := ir.NewBuilder(pm.Module)
	var entryFirst ir.Instruction
	if len(entry.Instrs) > 0 {
		entryFirst = entry.Instrs[0]
	}
	for _, phi := range phis {
		b.SetInsertPoint(fn, entry, entryFirst)
		slot := b.CreateAlloca(phi.Val().Type, phi.Val().Pos)
		entryFirst = slot
		for _, u := range phi.Incomings {
			po := u.Value().Node().(*ir.PhiOperand)
			insertStoreAtEnd(po.Incoming, po.Value.Value(), slot.Val(), b)
		}
		load := insertLoadBefore(phi.Block(), phi, slot.Val(), phi.Val().Type, b)
		phi.Val().ReplaceBy(load.Val())
		phi.Block().Erase(phi)
	}
	return true
}

func insertStoreAtEnd(bb *ir.BasicBlock, val, addr *ir.Value, b *ir.Builder) {
	term := bb.Terminator()
	b.SetInsertPoint(bb.Func, bb, term)
	b.CreateStore(val, addr, val.Pos)
}

func insertLoadBefore(bb *ir.BasicBlock, before ir.Instruction, addr *ir.Value, elemType *types.Type, b *ir.Builder) *ir.Load {
	b.SetInsertPoint(bb.Func, bb, before)
	return b.CreateLoad(addr, elemType, addr.Pos)
}
