package pass

import (
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// StoreComb watches, block by block, for a complete run of constant
// stores into every element of a local array — the pattern a struct/
// array literal initializer lowers to — and collapses it into one
// store of a ConstArray once every index has been seen, matching
// spec.md's store_comb contract. A Load or Call seen before the run
// completes conservatively clears all pending state, since either
// could read the array mid-initialization.
type StoreComb struct{}

func (StoreComb) Info() Info {
	return Info{
		Name:        "store_comb",
		Granularity: FunctionGranularity,
		Stages:      []Stage{Opt},
		MinOptLevel: 2,
		Requires:    []string{"gvn"},
		Invalidates: []string{"*"},
	}
}

type pendingCombine struct {
	alloca   *ir.Alloca
	entries  map[int]*ir.Value
	instrs   map[int]ir.Instruction // the Store for that index, to erase on completion
	accesses map[int]*ir.ElemAccess
}

func (StoreComb) RunOnFunction(fn *ir.Function, pm *Manager) bool {
	b := ir.NewBuilder(pm.Module)
	changed := false
	for _, bb := range fn.Blocks {
		if combineRun(bb, b) {
			changed = true
		}
	}
	return changed
}

func combineRun(bb *ir.BasicBlock, b *ir.Builder) bool {
	changed := false
	pending := make(map[*ir.Alloca]*pendingCombine)
	for _, inst := range append([]ir.Instruction(nil), bb.Instrs...) {
		switch n := inst.(type) {
		case *ir.Load, *ir.Call:
			pending = make(map[*ir.Alloca]*pendingCombine)
		case *ir.Store:
			access, ok := n.Addr.Value().Node().(*ir.ElemAccess)
			if !ok {
				continue
			}
			alloca, ok := access.Ptr.Value().Node().(*ir.Alloca)
			if !ok || !alloca.ElemType.IsArray() {
				continue
			}
			idxConst, ok := access.Index.Value().Node().(*ir.ConstInt)
			if !ok {
				delete(pending, alloca)
				continue
			}
			val := n.Value.Value()
			if !isConstantValue(val) {
				delete(pending, alloca)
				continue
			}
			pc := pending[alloca]
			if pc == nil {
				pc = &pendingCombine{alloca: alloca, entries: map[int]*ir.Value{}, instrs: map[int]ir.Instruction{}, accesses: map[int]*ir.ElemAccess{}}
				pending[alloca] = pc
			}
			idx := int(idxConst.IntVal)
			pc.entries[idx] = val
			pc.instrs[idx] = n
			pc.accesses[idx] = access

			length := alloca.ElemType.Len()
			if length > 0 && len(pc.entries) == length {
				if combinePending(bb, pc, alloca.ElemType, b) {
					changed = true
				}
				delete(pending, alloca)
			}
		}
	}
	return changed
}

func combinePending(bb *ir.BasicBlock, pc *pendingCombine, arrType *types.Type, b *ir.Builder) bool {
	elems := make([]*ir.Value, len(pc.entries))
	for i := 0; i < len(elems); i++ {
		v, ok := pc.entries[i]
		if !ok {
			return false
		}
		elems[i] = v
	}
	lastStore := pc.instrs[len(elems)-1]
	b.SetInsertPoint(bb.Func, bb, lastStore)
	arrConst := b.ConstArray(elems, arrType)
	b.CreateStore(arrConst, pc.alloca.Val(), pc.alloca.Val().Pos)

	for _, inst := range pc.instrs {
		detachOperands(inst)
		bb.Erase(inst)
	}
	for _, access := range pc.accesses {
		if !access.Val().HasUses() {
			detachOperands(access)
			bb.Erase(access)
		}
	}
	return true
}
