package ir

import (
	"strings"
	"testing"

	"sysycc/internal/ast"
)

func TestPrintRendersFunctionSignatureAndBody(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()

	fn := b.CreateFunction("main", nil, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	v := b.ConstInt(0, i32)
	b.CreateReturn(v, ast.Position{})

	out := Print(m)
	if !strings.Contains(out, "define @main() -> i32 {") {
		t.Errorf("missing function signature, got:\n%s", out)
	}
	if !strings.Contains(out, "entry:") {
		t.Errorf("missing entry label, got:\n%s", out)
	}
	if !strings.Contains(out, "ret 0") {
		t.Errorf("missing return instruction, got:\n%s", out)
	}
}

func TestPrintRendersExternDeclaration(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()
	b.CreateFunction("getint", nil, i32, true, false)

	out := Print(m)
	if !strings.Contains(out, "declare @getint() -> i32") {
		t.Errorf("expected an extern declaration, got:\n%s", out)
	}
}

func TestPrintRendersGlobalWithInitializer(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i32 := m.Types.I32()
	init := b.ConstInt(5, i32)
	b.CreateGlobal("counter", i32, init, false)

	out := Print(m)
	if !strings.Contains(out, "global @counter : i32 = 5") {
		t.Errorf("expected global rendering, got:\n%s", out)
	}
}
