package ir

import (
	"fmt"

	"sysycc/internal/types"
)

// base is embedded by every instruction kind; it supplies the Value
// half of Value/User/Use and the block-membership slot.
type base struct {
	val   Value
	block *BasicBlock
}

func (b *base) Val() *Value            { return &b.val }
func (b *base) Block() *BasicBlock     { return b.block }
func (b *base) setBlock(bb *BasicBlock) { b.block = bb }
func (b *base) IsTerminator() bool     { return false }

// BinOp enumerates the split signed/unsigned operator set of spec.md §3.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr
	OpSLess
	OpULess
	OpSLessEq
	OpULessEq
	OpSGreater
	OpUGreater
	OpSGreaterEq
	OpUGreaterEq
	OpEq
	OpNeq
)

func (op BinOp) IsComparison() bool {
	return op >= OpSLess && op <= OpNeq
}

func (op BinOp) String() string {
	names := map[BinOp]string{
		OpAdd: "add", OpSub: "sub", OpMul: "mul", OpSDiv: "sdiv", OpUDiv: "udiv",
		OpSRem: "srem", OpURem: "urem", OpAnd: "and", OpOr: "or", OpXor: "xor",
		OpShl: "shl", OpLShr: "lshr", OpAShr: "ashr",
		OpSLess: "slt", OpULess: "ult", OpSLessEq: "sle", OpULessEq: "ule",
		OpSGreater: "sgt", OpUGreater: "ugt", OpSGreaterEq: "sge", OpUGreaterEq: "uge",
		OpEq: "eq", OpNeq: "ne",
	}
	return names[op]
}

type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
	OpLogicNot
)

func (op UnOp) String() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpNot:
		return "not"
	default:
		return "lnot"
	}
}

// --- memory ---

type Alloca struct {
	base
	ElemType *types.Type
}

func (i *Alloca) Operands() []*Use   { return nil }
func (i *Alloca) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *Alloca) String() string {
	return fmt.Sprintf("%%%d = alloca %s", i.val.ID, i.ElemType.String())
}

type Load struct {
	base
	Addr Use
}

func (i *Load) Operands() []*Use     { return []*Use{&i.Addr} }
func (i *Load) GetEffects() []Effect { return []Effect{EffectReadMemory} }
func (i *Load) String() string {
	return fmt.Sprintf("%%%d = load %s, %s", i.val.ID, i.val.Type, operandName(i.Addr.Value()))
}

type Store struct {
	base
	Value Use
	Addr  Use
}

func (i *Store) Operands() []*Use     { return []*Use{&i.Value, &i.Addr} }
func (i *Store) GetEffects() []Effect { return []Effect{EffectWriteMemory} }
func (i *Store) String() string {
	return fmt.Sprintf("store %s, %s", operandName(i.Value.Value()), operandName(i.Addr.Value()))
}

// PtrAccess is pointer arithmetic: base + index*sizeof(pointee).
type PtrAccess struct {
	base
	Ptr   Use
	Index Use
}

func (i *PtrAccess) Operands() []*Use     { return []*Use{&i.Ptr, &i.Index} }
func (i *PtrAccess) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *PtrAccess) String() string {
	return fmt.Sprintf("%%%d = ptraccess %s, %s", i.val.ID, operandName(i.Ptr.Value()), operandName(i.Index.Value()))
}

// ElemAccess indexes into an array (element pointer) or struct (field
// pointer; Index must be a constant literal matching the field index).
type ElemAccess struct {
	base
	Ptr      Use
	Index    Use
	ElemType *types.Type
}

func (i *ElemAccess) Operands() []*Use     { return []*Use{&i.Ptr, &i.Index} }
func (i *ElemAccess) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *ElemAccess) String() string {
	return fmt.Sprintf("%%%d = elemaccess %s, %s", i.val.ID, operandName(i.Ptr.Value()), operandName(i.Index.Value()))
}

// --- arithmetic ---

type Binary struct {
	base
	Op    BinOp
	Left  Use
	Right Use
}

func (i *Binary) Operands() []*Use     { return []*Use{&i.Left, &i.Right} }
func (i *Binary) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *Binary) String() string {
	return fmt.Sprintf("%%%d = %s %s, %s", i.val.ID, i.Op, operandName(i.Left.Value()), operandName(i.Right.Value()))
}

type Unary struct {
	base
	Op UnOp
	X  Use
}

func (i *Unary) Operands() []*Use     { return []*Use{&i.X} }
func (i *Unary) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *Unary) String() string {
	return fmt.Sprintf("%%%d = %s %s", i.val.ID, i.Op, operandName(i.X.Value()))
}

type Cast struct {
	base
	X Use
}

func (i *Cast) Operands() []*Use     { return []*Use{&i.X} }
func (i *Cast) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *Cast) String() string {
	return fmt.Sprintf("%%%d = cast %s to %s", i.val.ID, operandName(i.X.Value()), i.val.Type)
}

// --- calls ---

type Call struct {
	base
	Callee *Function
	Args   []Use
}

func (i *Call) Operands() []*Use {
	ops := make([]*Use, len(i.Args))
	for idx := range i.Args {
		ops[idx] = &i.Args[idx]
	}
	return ops
}
func (i *Call) GetEffects() []Effect { return []Effect{EffectCall} }
func (i *Call) String() string {
	s := "call "
	if i.val.Type != nil {
		s = fmt.Sprintf("%%%d = call ", i.val.ID)
	}
	s += i.Callee.Name + "("
	for idx, a := range i.Args {
		if idx > 0 {
			s += ", "
		}
		s += operandName(a.Value())
	}
	return s + ")"
}

// --- phi / select ---

// PhiOperand pairs an incoming value with its predecessor block; it is
// itself a Value so a Phi's operand list is a list of Uses pointing at
// PhiOperand nodes, matching spec.md §3's "operands are PhiOperand
// wrapper values".
type PhiOperand struct {
	base
	Value    Use
	Incoming *BasicBlock
}

func (i *PhiOperand) Operands() []*Use     { return []*Use{&i.Value} }
func (i *PhiOperand) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *PhiOperand) String() string {
	return fmt.Sprintf("[%s, %%%s]", operandName(i.Value.Value()), i.Incoming.Label)
}

type Phi struct {
	base
	Incomings []Use // each points at a *PhiOperand's Val()
}

func (i *Phi) Operands() []*Use {
	ops := make([]*Use, len(i.Incomings))
	for idx := range i.Incomings {
		ops[idx] = &i.Incomings[idx]
	}
	return ops
}
func (i *Phi) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *Phi) String() string {
	s := fmt.Sprintf("%%%d = phi %s ", i.val.ID, i.val.Type)
	for idx, op := range i.Incomings {
		if idx > 0 {
			s += ", "
		}
		s += operandName(op.Value())
	}
	return s
}

// Operand returns the PhiOperand node feeding predecessor pred, or nil.
func (i *Phi) Operand(pred *BasicBlock) *PhiOperand {
	for _, u := range i.Incomings {
		if po, ok := u.Value().Node().(*PhiOperand); ok && po.Incoming == pred {
			return po
		}
	}
	return nil
}

type Select struct {
	base
	Cond  Use
	True  Use
	False Use
}

func (i *Select) Operands() []*Use     { return []*Use{&i.Cond, &i.True, &i.False} }
func (i *Select) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *Select) String() string {
	return fmt.Sprintf("%%%d = select %s, %s, %s", i.val.ID, operandName(i.Cond.Value()), operandName(i.True.Value()), operandName(i.False.Value()))
}

// --- terminators ---

type Branch struct {
	base
	Cond      Use
	TrueTo    Use // *BasicBlock
	FalseTo   Use // *BasicBlock
}

func (i *Branch) Operands() []*Use     { return []*Use{&i.Cond, &i.TrueTo, &i.FalseTo} }
func (i *Branch) GetEffects() []Effect { return []Effect{EffectFlow} }
func (i *Branch) IsTerminator() bool   { return true }
func (i *Branch) Successors() []*BasicBlock {
	return []*BasicBlock{valAsBlock(i.TrueTo.Value()), valAsBlock(i.FalseTo.Value())}
}
func (i *Branch) String() string {
	return fmt.Sprintf("br %s, %%%s, %%%s", operandName(i.Cond.Value()), i.trueLabel(), i.falseLabel())
}
func (i *Branch) trueLabel() string  { return valAsBlock(i.TrueTo.Value()).Label }
func (i *Branch) falseLabel() string { return valAsBlock(i.FalseTo.Value()).Label }

type Jump struct {
	base
	Target Use // *BasicBlock
}

func (i *Jump) Operands() []*Use     { return []*Use{&i.Target} }
func (i *Jump) GetEffects() []Effect { return []Effect{EffectFlow} }
func (i *Jump) IsTerminator() bool   { return true }
func (i *Jump) Successors() []*BasicBlock {
	return []*BasicBlock{valAsBlock(i.Target.Value())}
}
func (i *Jump) String() string {
	return fmt.Sprintf("jmp %%%s", valAsBlock(i.Target.Value()).Label)
}

type Return struct {
	base
	Value Use // optional
}

func (i *Return) Operands() []*Use {
	if i.Value.Value() == nil {
		return nil
	}
	return []*Use{&i.Value}
}
func (i *Return) GetEffects() []Effect      { return []Effect{EffectFlow} }
func (i *Return) IsTerminator() bool        { return true }
func (i *Return) Successors() []*BasicBlock { return nil }
func (i *Return) String() string {
	if i.Value.Value() == nil {
		return "ret"
	}
	return "ret " + operandName(i.Value.Value())
}

// --- constants & misc values ---

// ConstInt is a literal integer (or bool result) value. Not a block
// resident instruction — never inserted, so its Block() is nil.
type ConstInt struct {
	base
	IntVal uint32
}

func (i *ConstInt) Operands() []*Use     { return nil }
func (i *ConstInt) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *ConstInt) String() string       { return fmt.Sprintf("%d", i.IntVal) }

// ConstZero is the type-polymorphic zero value for any type.
type ConstZero struct{ base }

func (i *ConstZero) Operands() []*Use     { return nil }
func (i *ConstZero) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *ConstZero) String() string       { return "zeroinit" }

type ConstStr struct {
	base
	Str string
}

func (i *ConstStr) Operands() []*Use     { return nil }
func (i *ConstStr) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *ConstStr) String() string       { return fmt.Sprintf("%q", i.Str) }

type ConstStruct struct {
	base
	Elems []Use
}

func (i *ConstStruct) Operands() []*Use {
	ops := make([]*Use, len(i.Elems))
	for idx := range i.Elems {
		ops[idx] = &i.Elems[idx]
	}
	return ops
}
func (i *ConstStruct) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *ConstStruct) String() string       { return "struct{...}" }

type ConstArray struct {
	base
	Elems []Use
}

func (i *ConstArray) Operands() []*Use {
	ops := make([]*Use, len(i.Elems))
	for idx := range i.Elems {
		ops[idx] = &i.Elems[idx]
	}
	return ops
}
func (i *ConstArray) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *ConstArray) String() string       { return "array[...]" }

// Undef means "any value, reader may choose" (spec.md §3).
type Undef struct{ base }

func (i *Undef) Operands() []*Use     { return nil }
func (i *Undef) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *Undef) String() string       { return "undef" }

// ArgRef is the i-th parameter of its containing function.
type ArgRef struct {
	base
	Func  *Function
	Index int
}

func (i *ArgRef) Operands() []*Use     { return nil }
func (i *ArgRef) GetEffects() []Effect { return []Effect{EffectPure} }
func (i *ArgRef) String() string       { return fmt.Sprintf("%%arg%d", i.Index) }

func operandName(v *Value) string {
	if v == nil {
		return "<nil>"
	}
	switch o := v.Node().(type) {
	case *ConstInt:
		return o.String()
	case *ConstZero:
		return "zeroinit"
	case *Undef:
		return "undef"
	case *ConstStr:
		return o.String()
	case *ArgRef:
		return fmt.Sprintf("%%arg%d", o.Index)
	case *Function:
		return "@" + o.Name
	case *GlobalVar:
		return "@" + o.Name
	case *BasicBlock:
		return "%" + o.Label
	default:
		return fmt.Sprintf("%%%d", v.ID)
	}
}

func valAsBlock(v *Value) *BasicBlock {
	if v == nil {
		return nil
	}
	bb, _ := v.Node().(*BasicBlock)
	return bb
}
