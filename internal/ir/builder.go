package ir

import (
	"sysycc/internal/ast"
	"sysycc/internal/types"
)

// Builder is the sole factory for IR nodes: every node in a Module is
// constructed through one of its create_* methods, which is what keeps
// IDs dense and Use bookkeeping consistent (spec.md §4.1).
//
// Builder also carries the Braun/Buchwald-style SSA construction state
// (currentDef/incompletePhis, plus each BasicBlock's own sealed flag)
// that builds SSA values straight from per-block variable definitions.
// internal/pass's mem2reg, loopreduce and inliner drive this surface;
// irgen does not (it emits an alloca per local and leaves promotion to
// mem2reg).
type Builder struct {
	module       *Module
	currentFunc  *Function
	currentBlock *BasicBlock
	insertBefore Instruction // nil = append at block end

	// currentDef[block][name] is the reaching definition of name at the
	// end of block — the per-block table of Braun/Buchwald's algorithm,
	// not a single function-wide stack (a local can have a different
	// live definition in each of several open blocks at once).
	currentDef     map[*BasicBlock]map[string]*Value
	incompletePhis map[*BasicBlock]map[string]*Phi

	inGlobalCtor bool
}

func NewBuilder(m *Module) *Builder {
	return &Builder{
		module:         m,
		currentDef:     make(map[*BasicBlock]map[string]*Value),
		incompletePhis: make(map[*BasicBlock]map[string]*Phi),
	}
}

func (b *Builder) Module() *Module { return b.module }

// --- functions & blocks ---

func (b *Builder) CreateFunction(name string, params []*types.Type, ret *types.Type, isExtern, isStatic bool) *Function {
	f := &Function{Name: name, ParamTypes: params, ReturnType: ret, IsExtern: isExtern, IsStatic: isStatic}
	f.base.val = b.module.newValue(b.module.Types.Func(params, ret), ast.Position{}, f)
	for i, pt := range params {
		arg := &ArgRef{Func: f, Index: i}
		arg.base.val = b.module.newValue(pt, ast.Position{}, arg)
		f.Args = append(f.Args, arg)
	}
	b.module.Functions = append(b.module.Functions, f)
	return f
}

// CreateBlock appends a new, unsealed block to fn and returns it. The
// caller must eventually Seal it once every predecessor is known.
func (b *Builder) CreateBlock(fn *Function, label string) *BasicBlock {
	bb := &BasicBlock{Label: label, Func: fn}
	bb.base.val = b.module.newValue(nil, ast.Position{}, bb)
	fn.Blocks = append(fn.Blocks, bb)
	return bb
}

// SetInsertPoint directs subsequent create_* calls to append to the end
// of block (or, if before is non-nil, to splice immediately ahead of it).
func (b *Builder) SetInsertPoint(fn *Function, block *BasicBlock, before Instruction) {
	b.currentFunc = fn
	b.currentBlock = block
	b.insertBefore = before
}

func (b *Builder) insert(inst Instruction) {
	inst.setBlock(b.currentBlock)
	if b.insertBefore != nil {
		b.currentBlock.InsertBefore(inst, b.insertBefore)
		return
	}
	b.currentBlock.Instrs = append(b.currentBlock.Instrs, inst)
}

// addEdge records a CFG edge from->to. Builders call this whenever a
// Branch/Jump is created; predecessors are plain slices, not Uses
// (spec.md §3 note on block operands).
func (b *Builder) addEdge(from, to *BasicBlock) {
	to.Predecessors = append(to.Predecessors, from)
}

// Seal marks every predecessor of block as known, triggering resolution
// of any phis left incomplete while the block's preds were still open.
func (b *Builder) Seal(block *BasicBlock) {
	block.sealed = true
	for name, phi := range b.incompletePhis[block] {
		b.addPhiOperands(block, name, phi)
	}
	delete(b.incompletePhis, block)
}

// --- variable read/write (spec.md §4.4) ---

// WriteVariable records v as the reaching definition of name at the
// end of block.
func (b *Builder) WriteVariable(name string, block *BasicBlock, v *Value) {
	b.writeLocal(name, block, v)
}

// ReadVariable resolves the reaching definition of name at the end of
// block, inserting an incomplete or immediate phi if block has (or may
// come to have) more than one predecessor.
func (b *Builder) ReadVariable(name string, block *BasicBlock, t *types.Type) *Value {
	if v, ok := b.currentDef[block][name]; ok {
		return v
	}
	return b.readVariableRecursive(name, block, t)
}

func (b *Builder) readVariableRecursive(name string, block *BasicBlock, t *types.Type) *Value {
	var val *Value
	if !block.sealed {
		phi := b.newEmptyPhi(block, t)
		if b.incompletePhis[block] == nil {
			b.incompletePhis[block] = make(map[string]*Phi)
		}
		b.incompletePhis[block][name] = phi
		val = phi.Val()
	} else if len(block.Predecessors) == 1 {
		val = b.ReadVariable(name, block.Predecessors[0], t)
	} else {
		phi := b.newEmptyPhi(block, t)
		b.writeLocal(name, block, phi.Val())
		b.addPhiOperands(block, name, phi)
		val = tryRemoveTrivialPhi(phi)
	}
	b.writeLocal(name, block, val)
	return val
}

func (b *Builder) writeLocal(name string, block *BasicBlock, v *Value) {
	if b.currentDef[block] == nil {
		b.currentDef[block] = make(map[string]*Value)
	}
	b.currentDef[block][name] = v
}

func (b *Builder) addPhiOperands(block *BasicBlock, name string, phi *Phi) {
	for _, pred := range block.Predecessors {
		v := b.ReadVariable(name, pred, phi.Val().Type)
		po := &PhiOperand{Incoming: pred}
		po.base.val = b.module.newValue(v.Type, ast.Position{}, po)
		po.Value.Init(po, v)
		u := Use{}
		u.Init(phi, po.Val())
		phi.Incomings = append(phi.Incomings, u)
	}
}

// tryRemoveTrivialPhi collapses a phi whose operands are all identical
// (or all itself) to that single operand, per Braun/Buchwald minimality.
func tryRemoveTrivialPhi(phi *Phi) *Value {
	var same *Value
	for _, u := range phi.Incomings {
		po := u.Value().Node().(*PhiOperand)
		operand := po.Value.Value()
		if operand == same || operand == phi.Val() {
			continue
		}
		if same != nil {
			return phi.Val() // more than one distinct operand, keep the phi
		}
		same = operand
	}
	if same == nil {
		same = &Value{} // unreachable block: no operands at all, leave as-is
		return phi.Val()
	}
	phi.Val().ReplaceBy(same)
	return same
}

func (b *Builder) newEmptyPhi(block *BasicBlock, t *types.Type) *Phi {
	phi := &Phi{}
	phi.base.val = b.module.newValue(t, ast.Position{}, phi)
	block.Instrs = append([]Instruction{phi}, block.Instrs...)
	phi.setBlock(block)
	return phi
}

// --- memory & arithmetic instructions ---

func (b *Builder) CreateAlloca(elemType *types.Type, pos ast.Position) *Alloca {
	a := &Alloca{ElemType: elemType}
	a.base.val = b.module.newValue(b.module.Types.Pointer(elemType), pos, a)
	b.insert(a)
	return a
}

func (b *Builder) CreateLoad(addr *Value, resultType *types.Type, pos ast.Position) *Load {
	l := &Load{}
	l.base.val = b.module.newValue(resultType, pos, l)
	l.Addr.Init(l, addr)
	b.insert(l)
	return l
}

// CreateStore stores val through addr exactly as given. It inserts no
// cast when val's type differs from addr's pointee type, and it does
// not climb to an address when addr is not pointer-typed.
func (b *Builder) CreateStore(val, addr *Value, pos ast.Position) *Store {
	s := &Store{}
	s.base.val = b.module.newValue(nil, pos, s)
	s.Value.Init(s, val)
	s.Addr.Init(s, addr)
	b.insert(s)
	return s
}

func (b *Builder) CreatePtrAccess(ptr, index *Value, pos ast.Position) *PtrAccess {
	p := &PtrAccess{}
	p.base.val = b.module.newValue(ptr.Type, pos, p)
	p.Ptr.Init(p, ptr)
	p.Index.Init(p, index)
	b.insert(p)
	return p
}

func (b *Builder) CreateElemAccess(ptr, index *Value, elemType *types.Type, pos ast.Position) *ElemAccess {
	e := &ElemAccess{ElemType: elemType}
	e.base.val = b.module.newValue(b.module.Types.Pointer(elemType), pos, e)
	e.Ptr.Init(e, ptr)
	e.Index.Init(e, index)
	b.insert(e)
	return e
}

func (b *Builder) CreateBinary(op BinOp, l, r *Value, resultType *types.Type, pos ast.Position) *Binary {
	bin := &Binary{Op: op}
	bin.base.val = b.module.newValue(resultType, pos, bin)
	bin.Left.Init(bin, l)
	bin.Right.Init(bin, r)
	b.insert(bin)
	return bin
}

func (b *Builder) CreateUnary(op UnOp, x *Value, resultType *types.Type, pos ast.Position) *Unary {
	u := &Unary{Op: op}
	u.base.val = b.module.newValue(resultType, pos, u)
	u.X.Init(u, x)
	b.insert(u)
	return u
}

func (b *Builder) CreateCast(x *Value, to *types.Type, pos ast.Position) *Cast {
	c := &Cast{}
	c.base.val = b.module.newValue(to, pos, c)
	c.X.Init(c, x)
	b.insert(c)
	return c
}

func (b *Builder) CreateCall(callee *Function, args []*Value, pos ast.Position) *Call {
	c := &Call{Callee: callee}
	c.base.val = b.module.newValue(callee.ReturnType, pos, c)
	c.Args = make([]Use, len(args))
	for i, a := range args {
		c.Args[i].Init(c, a)
	}
	b.insert(c)
	return c
}

func (b *Builder) CreateSelect(cond, t, f *Value, resultType *types.Type, pos ast.Position) *Select {
	s := &Select{}
	s.base.val = b.module.newValue(resultType, pos, s)
	s.Cond.Init(s, cond)
	s.True.Init(s, t)
	s.False.Init(s, f)
	b.insert(s)
	return s
}

// --- terminators ---

func (b *Builder) CreateBranch(cond *Value, trueTo, falseTo *BasicBlock, pos ast.Position) *Branch {
	br := &Branch{}
	br.base.val = b.module.newValue(nil, pos, br)
	br.Cond.Init(br, cond)
	br.TrueTo.Init(br, trueTo.Val())
	br.FalseTo.Init(br, falseTo.Val())
	b.insert(br)
	b.addEdge(b.currentBlock, trueTo)
	b.addEdge(b.currentBlock, falseTo)
	return br
}

func (b *Builder) CreateJump(target *BasicBlock, pos ast.Position) *Jump {
	j := &Jump{}
	j.base.val = b.module.newValue(nil, pos, j)
	j.Target.Init(j, target.Val())
	b.insert(j)
	b.addEdge(b.currentBlock, target)
	return j
}

func (b *Builder) CreateReturn(val *Value, pos ast.Position) *Return {
	r := &Return{}
	r.base.val = b.module.newValue(nil, pos, r)
	if val != nil {
		r.Value.Init(r, val)
	}
	b.insert(r)
	return r
}

// --- constants ---

func (b *Builder) ConstInt(bits uint32, t *types.Type) *Value {
	c := &ConstInt{IntVal: bits}
	c.base.val = b.module.newValue(t, ast.Position{}, c)
	return c.Val()
}

func (b *Builder) ConstZero(t *types.Type) *Value {
	c := &ConstZero{}
	c.base.val = b.module.newValue(t, ast.Position{}, c)
	return c.Val()
}

func (b *Builder) ConstStr(s string, t *types.Type) *Value {
	c := &ConstStr{Str: s}
	c.base.val = b.module.newValue(t, ast.Position{}, c)
	return c.Val()
}

func (b *Builder) ConstStruct(elems []*Value, t *types.Type) *Value {
	c := &ConstStruct{}
	c.base.val = b.module.newValue(t, ast.Position{}, c)
	c.Elems = make([]Use, len(elems))
	for i, e := range elems {
		c.Elems[i].Init(c, e)
	}
	return c.Val()
}

func (b *Builder) ConstArray(elems []*Value, t *types.Type) *Value {
	c := &ConstArray{}
	c.base.val = b.module.newValue(t, ast.Position{}, c)
	c.Elems = make([]Use, len(elems))
	for i, e := range elems {
		c.Elems[i].Init(c, e)
	}
	return c.Val()
}

func (b *Builder) Undef(t *types.Type) *Value {
	u := &Undef{}
	u.base.val = b.module.newValue(t, ast.Position{}, u)
	return u.Val()
}

// --- globals ---

// EnterGlobalCtor and ExitGlobalCtor set and clear a flag that
// InGlobalCtor reports. No create_* method consults it: CreateCall and
// every other builder method behave the same inside and outside the
// scope.
func (b *Builder) EnterGlobalCtor()  { b.inGlobalCtor = true }
func (b *Builder) ExitGlobalCtor()   { b.inGlobalCtor = false }
func (b *Builder) InGlobalCtor() bool { return b.inGlobalCtor }

func (b *Builder) CreateGlobal(name string, elemType *types.Type, init *Value, isStatic bool) *GlobalVar {
	g := &GlobalVar{Name: name, ElemType: elemType, IsStatic: isStatic, IsMutable: true}
	g.base.val = b.module.newValue(b.module.Types.Pointer(elemType), ast.Position{}, g)
	if init != nil {
		g.Init.Init(g, init)
	}
	b.module.Globals = append(b.module.Globals, g)
	return g
}
