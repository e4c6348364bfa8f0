// Package ir implements the SSA-form intermediate representation: the
// Value/User/Use graph, the concrete instruction kinds, the Module
// that owns the whole graph, and the Builder that is the sole factory
// for new nodes (spec.md §3, §4.1).
package ir

import (
	"sysycc/internal/ast"
	"sysycc/internal/types"
)

// Value is any IR node that can be referenced as an operand: an
// instruction's result, a constant, a function, a global, a block
// (branch targets are operands too), or an argument reference.
//
// Every Value carries a reverse list of the Uses pointing at it — its
// users — so that enumerating and rewriting every reference to a
// value is an O(uses) walk (ReplaceBy), never a graph-wide scan.
type Value struct {
	ID       int
	Type     *types.Type // nil for terminators and stores
	Pos      ast.Position
	Metadata interface{} // opaque back-end attachment point, §6.1

	node  interface{} // the concrete node (e.g. *Binary, *ConstInt) this Value belongs to
	users []*Use
}

// Node returns the concrete instruction/constant/container this Value
// is the identity of. Set once by the builder at construction time;
// used by printing and by operand-kind switches that need the real type.
func (v *Value) Node() interface{} { return v.node }

func (v *Value) setNode(n interface{}) { v.node = n }

// Use is one operand slot: it names its owner (the User) and the
// Value it currently points at. A Use is registered in its pointee's
// user list when set and deregistered when cleared or reassigned —
// the single mechanism every mutation in this package goes through.
// Owner is anything a Use can belong to: every Instruction, plus the
// aggregate constants (ConstStruct/ConstArray) which own operand Uses
// to their element values without being block-resident instructions.
type Owner interface {
	Val() *Value
}

type Use struct {
	owner Owner
	value *Value
}

func (u *Use) Value() *Value { return u.value }
func (u *Use) User() Owner   { return u.owner }

// Set rebinds the slot to a new value (or nil), updating both sides'
// bookkeeping. This is the only place a Use's value field changes.
func (u *Use) Set(v *Value) {
	if u.value == v {
		return
	}
	if u.value != nil {
		u.value.removeUse(u)
	}
	u.value = v
	if v != nil {
		v.addUse(u)
	}
}

// Init binds a freshly constructed Use for the first time; owner must
// already be set. Builders call this once per operand at construction.
func (u *Use) Init(owner Owner, v *Value) {
	u.owner = owner
	u.value = nil
	u.Set(v)
}

func (v *Value) addUse(u *Use) {
	v.users = append(v.users, u)
}

// removeUse deregisters u from v.users. Swap-remove is safe: use
// order is never semantically meaningful (only operand-slot order on
// the User side is).
func (v *Value) removeUse(u *Use) {
	for i, e := range v.users {
		if e == u {
			v.users[i] = v.users[len(v.users)-1]
			v.users = v.users[:len(v.users)-1]
			return
		}
	}
}

// Users returns every Use currently pointing at v. Callers that will
// mutate those Uses (ReplaceBy, erasure) must snapshot this slice
// first, since mutation reenters removeUse/addUse on v.users.
func (v *Value) Users() []*Use {
	out := make([]*Use, len(v.users))
	copy(out, v.users)
	return out
}

// HasUses reports whether any instruction still references v — the
// precondition dce/adce check before erasing a pure instruction.
func (v *Value) HasUses() bool { return len(v.users) > 0 }

// ReplaceBy rewrites every current use of v to point at other instead,
// via each Use's own Set so def-use/use-def stay consistent. Passes
// must ensure other does not (transitively) use v, or this introduces
// a cycle through the Use back-edges that erasure cannot then break;
// the lone sanctioned exception is a phi's self-reference, which is
// never itself the target of a ReplaceBy.
func (v *Value) ReplaceBy(other *Value) {
	if v == other {
		return
	}
	for _, u := range v.Users() {
		u.Set(other)
	}
}

// Instruction is a Value that is also a User: it owns an ordered list
// of operand slots and, when inserted, lives in exactly one BasicBlock.
type Instruction interface {
	Owner
	Block() *BasicBlock
	setBlock(*BasicBlock)
	Operands() []*Use
	IsTerminator() bool
	GetEffects() []Effect
	String() string
}

// Terminator is the subset of Instruction that ends a BasicBlock.
type Terminator interface {
	Instruction
	Successors() []*BasicBlock
}

// Effect documents an instruction's side effect, consumed by adce, dce
// and licm to distinguish "critical" instructions from pure ones (spec.md §4.5.3/.4).
type Effect int

const (
	EffectPure Effect = iota
	EffectReadMemory
	EffectWriteMemory
	EffectCall  // opaque: may read/write anything
	EffectFlow  // branch/jump/return: never dead regardless of result use
)
