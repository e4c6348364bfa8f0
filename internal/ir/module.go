package ir

import (
	"sysycc/internal/ast"
	"sysycc/internal/types"
)

// BasicBlock is a maximal straight-line sequence of instructions ending
// in exactly one Terminator. It embeds Value so it can itself be used
// as an operand (a branch target, a phi incoming-block reference).
type BasicBlock struct {
	base
	Label        string
	Func         *Function
	Instrs       []Instruction
	Predecessors []*BasicBlock // plain slice, not formal Uses — see spec.md §3 note
	sealed       bool
}

func (b *BasicBlock) Operands() []*Use     { return nil }
func (b *BasicBlock) GetEffects() []Effect { return []Effect{EffectPure} }
func (b *BasicBlock) String() string       { return "%" + b.Label }

// Terminator returns the block's terminating instruction, or nil if
// the block is still open (builder has not yet closed it).
func (b *BasicBlock) Terminator() Terminator {
	if len(b.Instrs) == 0 {
		return nil
	}
	if t, ok := b.Instrs[len(b.Instrs)-1].(Terminator); ok {
		return t
	}
	return nil
}

// Sealed reports whether every predecessor of this block is known —
// the precondition for resolving its incomplete phis (spec.md §4.4).
func (b *BasicBlock) Sealed() bool { return b.sealed }

// InsertBefore splices inst into the block immediately before mark.
// Used by inst-comb/sccp-style passes that must insert a replacement
// ahead of the instruction it replaces.
func (b *BasicBlock) InsertBefore(inst Instruction, mark Instruction) {
	for i, cur := range b.Instrs {
		if cur == mark {
			b.Instrs = append(b.Instrs, nil)
			copy(b.Instrs[i+1:], b.Instrs[i:])
			b.Instrs[i] = inst
			inst.setBlock(b)
			return
		}
	}
}

// Erase removes inst from the block's instruction list. Callers must
// ensure inst.Val().HasUses() is false first (dce/adce's contract).
func (b *BasicBlock) Erase(inst Instruction) {
	for i, cur := range b.Instrs {
		if cur == inst {
			b.Instrs = append(b.Instrs[:i], b.Instrs[i+1:]...)
			return
		}
	}
}

// Function is one compiled subprogram: its signature, its parameter
// ArgRef values, and (if it has a body) its block list in layout order
// with Blocks[0] as the entry.
type Function struct {
	base
	Name       string
	ParamTypes []*types.Type
	ReturnType *types.Type
	Args       []*ArgRef
	Blocks     []*BasicBlock
	IsExtern   bool // declared, no body — runtime/stdlib externs (spec.md SUPPLEMENTED FEATURES)
	IsStatic   bool
}

func (f *Function) Operands() []*Use     { return nil }
func (f *Function) GetEffects() []Effect { return []Effect{EffectPure} }
func (f *Function) String() string       { return "@" + f.Name }

// Entry returns the function's first block, or nil if it has no body.
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// GlobalVar is a module-scope variable: either a zero-initialized
// allocation or one carrying a constant initializer folded at compile
// time (spec.md §4.1's enter_global_ctor restriction: initializers
// must be constant-evaluable, no function calls).
type GlobalVar struct {
	base
	Name      string
	ElemType  *types.Type
	Init      Use // optional; points at a Const* value
	IsStatic  bool
	IsMutable bool // cleared by global_opt once proven never stored through
}

func (g *GlobalVar) Operands() []*Use {
	if g.Init.Value() == nil {
		return nil
	}
	return []*Use{&g.Init}
}
func (g *GlobalVar) GetEffects() []Effect { return []Effect{EffectPure} }
func (g *GlobalVar) String() string       { return "@" + g.Name }

// Module is the top-level container: every function and global, plus
// the struct/type registry shared across them. It is the unit a Pass
// at ModuleGranularity runs over and the unit (de)serialized to the
// persisted text IR format (spec.md §6.3).
type Module struct {
	Name      string
	Types     *types.Registry
	Functions []*Function
	Globals   []*GlobalVar

	nextID int
}

func NewModule(name string) *Module {
	return &Module{Name: name, Types: types.NewRegistry()}
}

func (m *Module) allocID() int {
	m.nextID++
	return m.nextID
}

// FindFunction looks up a function (declared or defined) by name.
func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindGlobal looks up a global variable by name.
func (m *Module) FindGlobal(name string) *GlobalVar {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Retarget reassigns inst's owning block, used by block-merging passes
// that splice one block's instructions into another. It is the sole
// exported way to touch the unexported setBlock contract from outside
// the package.
func Retarget(inst Instruction, bb *BasicBlock) { inst.setBlock(bb) }

// newValue stamps out a fresh Value with the module's next ID and
// wires its Node() back-pointer to node — every construction helper in
// builder.go funnels through this so IDs never collide within a Module.
func (m *Module) newValue(t *types.Type, pos ast.Position, node interface{}) Value {
	v := Value{ID: m.allocID(), Type: t, Pos: pos}
	v.setNode(node)
	return v
}
