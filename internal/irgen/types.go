package irgen

import (
	"fmt"
	"strings"

	"sysycc/internal/ast"
	"sysycc/internal/builtins"
	"sysycc/internal/stdlib"
	"sysycc/internal/types"
)

// resolveType mirrors internal/semantic's resolveType: turn a
// TypeExpr's surface syntax into a Registry type. Lengths and tags are
// assumed valid since internal/semantic.Checker already rejected
// anything that would not resolve.
func (g *Generator) resolveType(t *ast.TypeExpr) *types.Type {
	if t == nil {
		return g.reg.Void()
	}
	switch {
	case t.Pointer != nil:
		return g.reg.Pointer(g.resolveType(t.Pointer))
	case t.ArrayOf != nil:
		length := -1
		if t.ArrayLen != nil {
			length = int(g.evalConstInt(t.ArrayLen))
		}
		return g.reg.Array(g.resolveType(t.ArrayOf), length)
	default:
		return g.resolveBaseType(t.Base)
	}
}

func (g *Generator) resolveBaseType(name string) *types.Type {
	if builtins.IsPrimitiveType(name) {
		return builtins.Resolve(g.reg, name)
	}
	if tag, ok := strings.CutPrefix(name, "struct "); ok {
		if st, ok := g.structs[tag]; ok {
			return st
		}
		panic(fmt.Sprintf("irgen: unresolved struct tag %q", tag))
	}
	if td, ok := g.typedefs[name]; ok {
		return td
	}
	panic(fmt.Sprintf("irgen: unresolved type name %q", name))
}

// decay turns an array type into a pointer to its element, C's
// implicit array-to-pointer conversion.
func decay(t *types.Type, reg *types.Registry) *types.Type {
	if t.IsArray() {
		return reg.Pointer(t.Elem())
	}
	return t
}

// inferArrayLen fills in an incomplete array type's length (the grammar
// allows a bare "[]" dimension) from a brace initializer's element
// count, since internal/semantic's own resolveType leaves such arrays
// at length -1 without ever revisiting them.
func (g *Generator) inferArrayLen(t *types.Type, init ast.Expr) *types.Type {
	if t.IsArray() && t.Len() < 0 {
		if list, ok := init.(*ast.InitListExpr); ok {
			return g.reg.Array(t.Elem(), len(list.Elems))
		}
	}
	return t
}

func (g *Generator) commonIntType(a, b *types.Type) *types.Type {
	if (!a.Signed() && a.Size() >= 4) || (!b.Signed() && b.Size() >= 4) {
		return g.reg.U32()
	}
	return g.reg.I32()
}

// typeOf recomputes an expression's static type by walking the same
// rules internal/semantic.Checker.checkExpr applies, without the
// diagnostics: irgen needs the undecayed type of an lvalue subexpression
// (e.g. to tell an array-typed index target from a pointer-typed one)
// that internal/semantic's Checker does not expose per-node.
func (g *Generator) typeOf(e ast.Expr) *types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		return g.reg.I32()
	case *ast.StringLit:
		return g.reg.Pointer(g.reg.I8())
	case *ast.Ident:
		if b, ok := g.scope.lookup(n.Name); ok {
			return b.typ
		}
		if t, ok := g.globalType[n.Name]; ok {
			return t
		}
		if _, ok := g.enumConsts[n.Name]; ok {
			return g.reg.I32()
		}
		if f, ok := g.funcs[n.Name]; ok {
			return g.reg.Func(f.ParamTypes, f.ReturnType)
		}
		panic(fmt.Sprintf("irgen: unresolved identifier %q", n.Name))
	case *ast.AssignExpr:
		return g.typeOf(n.Target)
	case *ast.BinaryExpr:
		return g.binaryResultType(n)
	case *ast.UnaryExpr:
		xt := g.typeOf(n.X)
		switch n.Op {
		case "*":
			return decay(xt, g.reg).Elem()
		case "&":
			return g.reg.Pointer(xt)
		default:
			return decay(xt, g.reg)
		}
	case *ast.CallExpr:
		if stdlib.IsRuntimeExtern(n.Callee) {
			return stdlib.Signatures[n.Callee].Ret(g.reg)
		}
		if f, ok := g.funcs[n.Callee]; ok {
			return f.ReturnType
		}
		panic(fmt.Sprintf("irgen: unresolved call target %q", n.Callee))
	case *ast.IndexExpr:
		xt := g.typeOf(n.X)
		return xt.Elem()
	case *ast.FieldExpr:
		xt := g.typeOf(n.X)
		idx := xt.FieldIndex(n.Name)
		return xt.Fields()[idx].Type
	case *ast.CastExpr:
		return g.resolveType(n.Type)
	case *ast.InitListExpr:
		return g.reg.Void()
	}
	panic(fmt.Sprintf("irgen: typeOf: unhandled expression %T", e))
}

func (g *Generator) binaryResultType(n *ast.BinaryExpr) *types.Type {
	lt, rt := decay(g.typeOf(n.Left), g.reg), decay(g.typeOf(n.Right), g.reg)
	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return g.reg.I32()
	case "+", "-":
		if lt.IsPointer() && rt.IsInt() {
			return lt
		}
		if lt.IsInt() && rt.IsPointer() && n.Op == "+" {
			return rt
		}
		if lt.IsPointer() && rt.IsPointer() && n.Op == "-" {
			return g.reg.I32()
		}
		return g.commonIntType(lt, rt)
	default:
		return g.commonIntType(lt, rt)
	}
}
