package pass

import (
	"sysycc/internal/ast"
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// newTestModule returns a fresh module and its builder, the shared
// starting point for every pass test in this package.
func newTestModule() (*ir.Module, *ir.Builder) {
	m := ir.NewModule("t")
	return m, ir.NewBuilder(m)
}

// newSingleBlockFunction creates a sealed entry block with the insert
// point parked at its end, ready for a test to append instructions.
func newSingleBlockFunction(m *ir.Module, b *ir.Builder, name string, params []*types.Type) (*ir.Function, *ir.BasicBlock) {
	fn := b.CreateFunction(name, params, m.Types.I32(), false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	return fn, entry
}

var noPos = ast.Position{}
