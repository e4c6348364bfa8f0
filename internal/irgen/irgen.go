// Package irgen lowers an internal/ast.Program straight into an
// internal/ir.Module using only internal/ir.Builder's public surface
// (spec.md §4.1: "the builder is the sole factory for new nodes").
//
// Every local and parameter gets its own Alloca, written through with
// Store and read back with Load — the front end does not attempt the
// Braun/Buchwald direct-to-SSA path the builder also exposes, so the
// mem2reg pass (internal/pass) is what turns the common case back
// into real SSA form.
//
// Lower assumes its input already passed internal/semantic.Checker:
// it performs its own lightweight struct/enum/typedef/function
// resolution pass (mirroring internal/semantic's, but unchecked) and
// otherwise never reports a diagnostic — a malformed node here is a
// bug upstream, not a user error, so irgen panics rather than limping
// on with a best-guess fallback.
package irgen

import (
	"fmt"

	"sysycc/internal/ast"
	"sysycc/internal/ir"
	"sysycc/internal/stdlib"
	"sysycc/internal/types"
)

// Generator owns the single Builder/Module pair a translation unit is
// lowered into.
type Generator struct {
	b   *ir.Builder
	mod *ir.Module
	reg *types.Registry

	structs    map[string]*types.Type
	typedefs   map[string]*types.Type
	enumConsts map[string]int64
	funcs      map[string]*ir.Function
	globals    map[string]*ir.GlobalVar
	globalType map[string]*types.Type

	fn            *ir.Function
	block         *ir.BasicBlock
	scope         *lexScope
	breakStack    []*ir.BasicBlock
	continueStack []*ir.BasicBlock
}

// Lower is the package's entry point: one call per translation unit.
func Lower(prog *ast.Program) *ir.Module {
	mod := ir.NewModule("main")
	g := &Generator{
		b:          ir.NewBuilder(mod),
		mod:        mod,
		reg:        mod.Types,
		structs:    make(map[string]*types.Type),
		typedefs:   make(map[string]*types.Type),
		enumConsts: make(map[string]int64),
		funcs:      make(map[string]*ir.Function),
		globals:    make(map[string]*ir.GlobalVar),
		globalType: make(map[string]*types.Type),
	}
	g.resolveTypeDecls(prog)
	g.declareFuncsAndGlobals(prog)
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Body != nil {
			g.lowerFuncBody(fn)
		}
	}
	return mod
}

// resolveTypeDecls registers every struct/enum/typedef before any
// function or global is resolved against them, the same forward-
// declare-then-fill two-pass internal/semantic uses for self-
// referential struct pointer fields.
func (g *Generator) resolveTypeDecls(prog *ast.Program) {
	for _, d := range prog.Decls {
		if s, ok := d.(*ast.StructDecl); ok {
			g.structs[s.Name] = g.reg.Struct(s.Name, nil)
		}
	}
	for _, d := range prog.Decls {
		if s, ok := d.(*ast.StructDecl); ok {
			fields := make([]types.Field, 0, len(s.Fields))
			for _, f := range s.Fields {
				fields = append(fields, types.Field{Name: f.Name, Type: g.resolveType(f.Type)})
			}
			g.structs[s.Name] = g.reg.Struct(s.Name, fields)
		}
	}
	for _, d := range prog.Decls {
		if e, ok := d.(*ast.EnumDecl); ok {
			next := int64(0)
			for _, m := range e.Members {
				if m.Value != nil {
					next = g.evalConstInt(m.Value)
				}
				g.enumConsts[m.Name] = next
				next++
			}
		}
	}
	for _, d := range prog.Decls {
		if t, ok := d.(*ast.TypedefDecl); ok {
			g.typedefs[t.Name] = g.resolveType(t.Type)
		}
	}
}

func (g *Generator) declareFuncsAndGlobals(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			if _, exists := g.funcs[n.Name]; exists {
				continue
			}
			params := make([]*types.Type, 0, len(n.Params))
			for _, p := range n.Params {
				params = append(params, decay(g.resolveType(p.Type), g.reg))
			}
			ret := g.resolveType(n.ReturnType)
			g.funcs[n.Name] = g.b.CreateFunction(n.Name, params, ret, n.Body == nil, false)
		case *ast.VarDecl:
			t := g.resolveType(n.Type)
			if n.Init != nil {
				t = g.inferArrayLen(t, n.Init)
			}
			var init *ir.Value
			g.b.EnterGlobalCtor()
			if n.Init != nil {
				init = g.constValue(t, n.Init)
			} else {
				init = g.b.ConstZero(t)
			}
			g.b.ExitGlobalCtor()
			gv := g.b.CreateGlobal(n.Name, t, init, false)
			g.globals[n.Name] = gv
			g.globalType[n.Name] = t
		}
	}
}

// ensureCallee resolves a call's target function, materializing a
// runtime extern declaration on first use (internal/stdlib.Ensure).
func (g *Generator) ensureCallee(name string) *ir.Function {
	if f, ok := g.funcs[name]; ok {
		return f
	}
	if stdlib.IsRuntimeExtern(name) {
		f := stdlib.Ensure(g.b, g.mod, name)
		g.funcs[name] = f
		return f
	}
	panic(fmt.Sprintf("irgen: call to unresolved function %q", name))
}
