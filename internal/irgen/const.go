package irgen

import (
	"fmt"

	"sysycc/internal/ast"
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// evalConstInt mirrors internal/semantic's own constant evaluator
// (array lengths and global initializers are already proven constant
// by the time irgen runs, so there is no ok-bool here: a non-constant
// expression reaching this point is an upstream bug).
func (g *Generator) evalConstInt(e ast.Expr) int64 {
	switch n := e.(type) {
	case *ast.IntLit:
		return int64(n.Value)
	case *ast.Ident:
		if v, ok := g.enumConsts[n.Name]; ok {
			return v
		}
		panic(fmt.Sprintf("irgen: %q is not a compile-time constant", n.Name))
	case *ast.UnaryExpr:
		v := g.evalConstInt(n.X)
		switch n.Op {
		case "-":
			return -v
		case "~":
			return ^v
		case "!":
			if v == 0 {
				return 1
			}
			return 0
		}
	case *ast.BinaryExpr:
		l, r := g.evalConstInt(n.Left), g.evalConstInt(n.Right)
		switch n.Op {
		case "+":
			return l + r
		case "-":
			return l - r
		case "*":
			return l * r
		case "/":
			return l / r
		case "%":
			return l % r
		case "<<":
			return l << uint(r)
		case ">>":
			return l >> uint(r)
		case "&":
			return l & r
		case "|":
			return l | r
		case "^":
			return l ^ r
		case "==":
			return boolInt(l == r)
		case "!=":
			return boolInt(l != r)
		case "<":
			return boolInt(l < r)
		case "<=":
			return boolInt(l <= r)
		case ">":
			return boolInt(l > r)
		case ">=":
			return boolInt(l >= r)
		case "&&":
			return boolInt(l != 0 && r != 0)
		case "||":
			return boolInt(l != 0 || r != 0)
		}
	case *ast.CastExpr:
		return g.evalConstInt(n.X)
	}
	panic(fmt.Sprintf("irgen: %T is not a compile-time constant", e))
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// constValue builds a folded constant *ir.Value for a global's
// initializer: a brace list recurses elementwise into a ConstArray or
// ConstStruct, a bare expression must reduce to an integer constant
// (string literals are the one non-integer constant global
// initializers accept, handled directly since they never appear as a
// brace element in this C subset).
func (g *Generator) constValue(target *types.Type, e ast.Expr) *ir.Value {
	if s, ok := e.(*ast.StringLit); ok {
		return g.b.ConstStr(s.Value, target)
	}
	list, isList := e.(*ast.InitListExpr)
	if !isList {
		return g.b.ConstInt(uint32(g.evalConstInt(e)), target)
	}
	switch {
	case target.IsArray():
		elem := target.Elem()
		elems := make([]*ir.Value, target.Len())
		for i := range elems {
			if i < len(list.Elems) {
				elems[i] = g.constValue(elem, list.Elems[i])
			} else {
				elems[i] = g.b.ConstZero(elem)
			}
		}
		return g.b.ConstArray(elems, target)
	case target.IsStruct():
		fields := target.Fields()
		elems := make([]*ir.Value, len(fields))
		for i, f := range fields {
			if i < len(list.Elems) {
				elems[i] = g.constValue(f.Type, list.Elems[i])
			} else {
				elems[i] = g.b.ConstZero(f.Type)
			}
		}
		return g.b.ConstStruct(elems, target)
	}
	panic(fmt.Sprintf("irgen: brace initializer for non-aggregate type %q", target.String()))
}
