package irgen

import (
	"fmt"

	"sysycc/internal/ast"
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// coerce inserts a Cast only when val does not already carry target's
// exact (interned) type, matching the front end's "everything
// int-to-int and pointer-to-pointer is implicit" contract
// (internal/types.Type.CanAccept).
func (g *Generator) coerce(val *ir.Value, target *types.Type, pos ast.Position) *ir.Value {
	if val.Type == target {
		return val
	}
	return g.b.CreateCast(val, target, pos).Val()
}

// toBool reduces any scalar value to an i32 0/1 truth value, the form
// CreateBranch's Cond operand expects.
func (g *Generator) toBool(val *ir.Value, pos ast.Position) *ir.Value {
	zero := g.b.ConstZero(val.Type)
	return g.b.CreateBinary(ir.OpNeq, val, zero, g.reg.I32(), pos).Val()
}

func (g *Generator) lowerExprRValue(e ast.Expr) *ir.Value {
	switch n := e.(type) {
	case *ast.IntLit:
		return g.b.ConstInt(n.Value, g.reg.I32())
	case *ast.StringLit:
		return g.b.ConstStr(n.Value, g.reg.Pointer(g.reg.I8()))
	case *ast.Ident:
		return g.lowerIdentLoad(n)
	case *ast.BinaryExpr:
		return g.lowerBinary(n)
	case *ast.UnaryExpr:
		return g.lowerUnary(n)
	case *ast.AssignExpr:
		return g.lowerAssign(n)
	case *ast.CallExpr:
		return g.lowerCall(n)
	case *ast.IndexExpr:
		addr, elem := g.lowerLValueAddr(n)
		return g.b.CreateLoad(addr, elem, n.Position).Val()
	case *ast.FieldExpr:
		addr, elem := g.lowerLValueAddr(n)
		return g.b.CreateLoad(addr, elem, n.Position).Val()
	case *ast.CastExpr:
		x := g.lowerExprRValue(n.X)
		return g.b.CreateCast(x, g.resolveType(n.Type), n.Position).Val()
	}
	panic(fmt.Sprintf("irgen: unhandled rvalue expression %T", e))
}

func (g *Generator) lowerIdentLoad(n *ast.Ident) *ir.Value {
	if b, ok := g.scope.lookup(n.Name); ok {
		return g.b.CreateLoad(b.addr, b.typ, n.Position).Val()
	}
	if gv, ok := g.globals[n.Name]; ok {
		return g.b.CreateLoad(gv.Val(), g.globalType[n.Name], n.Position).Val()
	}
	if v, ok := g.enumConsts[n.Name]; ok {
		return g.b.ConstInt(uint32(v), g.reg.I32())
	}
	panic(fmt.Sprintf("irgen: unresolved identifier %q", n.Name))
}

// lowerLValueAddr resolves an assignable expression to the address it
// names, plus the element type stored there. Every memory-accessing
// rvalue/assignment path in the generator runs through this so an
// address computation is written exactly once.
func (g *Generator) lowerLValueAddr(e ast.Expr) (*ir.Value, *types.Type) {
	switch n := e.(type) {
	case *ast.Ident:
		if b, ok := g.scope.lookup(n.Name); ok {
			return b.addr, b.typ
		}
		if gv, ok := g.globals[n.Name]; ok {
			return gv.Val(), g.globalType[n.Name]
		}
		panic(fmt.Sprintf("irgen: %q is not an lvalue", n.Name))
	case *ast.IndexExpr:
		xt := g.typeOf(n.X)
		idx := g.lowerExprRValue(n.Index)
		if xt.IsArray() {
			baseAddr, _ := g.lowerLValueAddr(n.X)
			elem := xt.Elem()
			return g.b.CreateElemAccess(baseAddr, idx, elem, n.Position).Val(), elem
		}
		ptrVal := g.lowerExprRValue(n.X)
		elem := xt.Elem()
		return g.b.CreatePtrAccess(ptrVal, idx, n.Position).Val(), elem
	case *ast.FieldExpr:
		xt := g.typeOf(n.X)
		baseAddr, _ := g.lowerLValueAddr(n.X)
		idx := xt.FieldIndex(n.Name)
		field := xt.Fields()[idx].Type
		return g.b.CreateElemAccess(baseAddr, g.b.ConstInt(uint32(idx), g.reg.I32()), field, n.Position).Val(), field
	case *ast.UnaryExpr:
		if n.Op != "*" {
			panic(fmt.Sprintf("irgen: unary %q is not an lvalue", n.Op))
		}
		ptrVal := g.lowerExprRValue(n.X)
		elem := decay(g.typeOf(n.X), g.reg).Elem()
		return ptrVal, elem
	}
	panic(fmt.Sprintf("irgen: %T is not an lvalue", e))
}

func (g *Generator) lowerAssign(n *ast.AssignExpr) *ir.Value {
	addr, elem := g.lowerLValueAddr(n.Target)
	rv := g.lowerExprRValue(n.Value)
	coerced := g.coerce(rv, elem, n.Position)
	g.b.CreateStore(coerced, addr, n.Position)
	return coerced
}

func (g *Generator) lowerCall(n *ast.CallExpr) *ir.Value {
	callee := g.ensureCallee(n.Callee)
	args := make([]*ir.Value, len(n.Args))
	for i, a := range n.Args {
		av := g.lowerExprRValue(a)
		if i < len(callee.ParamTypes) {
			av = g.coerce(av, callee.ParamTypes[i], a.Pos())
		}
		args[i] = av
	}
	return g.b.CreateCall(callee, args, n.Position).Val()
}

func (g *Generator) lowerUnary(n *ast.UnaryExpr) *ir.Value {
	switch n.Op {
	case "-":
		x := g.lowerExprRValue(n.X)
		rt := decay(x.Type, g.reg)
		return g.b.CreateUnary(ir.OpNeg, x, rt, n.Position).Val()
	case "~":
		x := g.lowerExprRValue(n.X)
		rt := decay(x.Type, g.reg)
		return g.b.CreateUnary(ir.OpNot, x, rt, n.Position).Val()
	case "!":
		x := g.lowerExprRValue(n.X)
		zero := g.b.ConstZero(x.Type)
		return g.b.CreateBinary(ir.OpEq, x, zero, g.reg.I32(), n.Position).Val()
	case "*":
		ptrVal := g.lowerExprRValue(n.X)
		elem := decay(g.typeOf(n.X), g.reg).Elem()
		return g.b.CreateLoad(ptrVal, elem, n.Position).Val()
	case "&":
		addr, elem := g.lowerLValueAddr(n.X)
		_ = elem
		return addr
	}
	panic(fmt.Sprintf("irgen: unhandled unary operator %q", n.Op))
}

func (g *Generator) lowerBinary(n *ast.BinaryExpr) *ir.Value {
	switch n.Op {
	case "&&":
		return g.lowerShortCircuit(n, true)
	case "||":
		return g.lowerShortCircuit(n, false)
	}

	lv := g.lowerExprRValue(n.Left)
	rv := g.lowerExprRValue(n.Right)

	if res := g.lowerPointerArith(n, lv, rv); res != nil {
		return res
	}

	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		cmpType := g.reg.I32()
		signed := false
		if lv.Type.IsInt() && rv.Type.IsInt() {
			cmpType = g.commonIntType(lv.Type, rv.Type)
			lv = g.coerce(lv, cmpType, n.Position)
			rv = g.coerce(rv, cmpType, n.Position)
			signed = cmpType.Signed()
		}
		return g.b.CreateBinary(cmpOpFor(n.Op, signed), lv, rv, g.reg.I32(), n.Position).Val()
	default:
		resultType := g.commonIntType(decay(lv.Type, g.reg), decay(rv.Type, g.reg))
		lv = g.coerce(lv, resultType, n.Position)
		rv = g.coerce(rv, resultType, n.Position)
		return g.b.CreateBinary(arithOpFor(n.Op, resultType.Signed()), lv, rv, resultType, n.Position).Val()
	}
}

// lowerPointerArith handles the two C pointer-arithmetic shapes
// (pointer +/- integer, pointer - pointer) that internal/ir has no
// dedicated BinOp for: both go through PtrAccess/Cast instead of
// Binary. Returns nil when n is not one of these shapes.
func (g *Generator) lowerPointerArith(n *ast.BinaryExpr, lv, rv *ir.Value) *ir.Value {
	switch n.Op {
	case "+":
		if lv.Type.IsPointer() && rv.Type.IsInt() {
			return g.b.CreatePtrAccess(lv, rv, n.Position).Val()
		}
		if lv.Type.IsInt() && rv.Type.IsPointer() {
			return g.b.CreatePtrAccess(rv, lv, n.Position).Val()
		}
	case "-":
		if lv.Type.IsPointer() && rv.Type.IsInt() {
			neg := g.b.CreateUnary(ir.OpNeg, rv, rv.Type, n.Position).Val()
			return g.b.CreatePtrAccess(lv, neg, n.Position).Val()
		}
		if lv.Type.IsPointer() && rv.Type.IsPointer() {
			elemSize := lv.Type.Elem().Size()
			li := g.b.CreateCast(lv, g.reg.I32(), n.Position).Val()
			ri := g.b.CreateCast(rv, g.reg.I32(), n.Position).Val()
			diff := g.b.CreateBinary(ir.OpSub, li, ri, g.reg.I32(), n.Position).Val()
			if elemSize > 1 {
				diff = g.b.CreateBinary(ir.OpSDiv, diff, g.b.ConstInt(uint32(elemSize), g.reg.I32()), g.reg.I32(), n.Position).Val()
			}
			return diff
		}
	}
	return nil
}

// lowerShortCircuit lowers && / || to a branch on the left operand so
// the right operand is only evaluated when it can affect the result,
// matching C's sequencing guarantee — internal/ir has no logical
// and/or BinOp precisely because this cannot be a single instruction.
func (g *Generator) lowerShortCircuit(n *ast.BinaryExpr, isAnd bool) *ir.Value {
	tmp := g.b.CreateAlloca(g.reg.I32(), n.Position).Val()
	lhs := g.toBool(g.lowerExprRValue(n.Left), n.Position)

	rhsBB := g.b.CreateBlock(g.fn, "sc.rhs")
	shortBB := g.b.CreateBlock(g.fn, "sc.short")
	mergeBB := g.b.CreateBlock(g.fn, "sc.end")

	if isAnd {
		g.b.CreateBranch(lhs, rhsBB, shortBB, n.Position)
	} else {
		g.b.CreateBranch(lhs, shortBB, rhsBB, n.Position)
	}

	g.setBlock(shortBB)
	shortVal := uint32(0)
	if !isAnd {
		shortVal = 1
	}
	g.b.CreateStore(g.b.ConstInt(shortVal, g.reg.I32()), tmp, n.Position)
	g.b.CreateJump(mergeBB, n.Position)

	g.setBlock(rhsBB)
	rhs := g.toBool(g.lowerExprRValue(n.Right), n.Position)
	g.b.CreateStore(rhs, tmp, n.Position)
	g.b.CreateJump(mergeBB, n.Position)

	g.setBlock(mergeBB)
	return g.b.CreateLoad(tmp, g.reg.I32(), n.Position).Val()
}

func cmpOpFor(op string, signed bool) ir.BinOp {
	switch op {
	case "==":
		return ir.OpEq
	case "!=":
		return ir.OpNeq
	case "<":
		if signed {
			return ir.OpSLess
		}
		return ir.OpULess
	case "<=":
		if signed {
			return ir.OpSLessEq
		}
		return ir.OpULessEq
	case ">":
		if signed {
			return ir.OpSGreater
		}
		return ir.OpUGreater
	case ">=":
		if signed {
			return ir.OpSGreaterEq
		}
		return ir.OpUGreaterEq
	}
	panic(fmt.Sprintf("irgen: unhandled comparison operator %q", op))
}

func arithOpFor(op string, signed bool) ir.BinOp {
	switch op {
	case "+":
		return ir.OpAdd
	case "-":
		return ir.OpSub
	case "*":
		return ir.OpMul
	case "/":
		if signed {
			return ir.OpSDiv
		}
		return ir.OpUDiv
	case "%":
		if signed {
			return ir.OpSRem
		}
		return ir.OpURem
	case "&":
		return ir.OpAnd
	case "|":
		return ir.OpOr
	case "^":
		return ir.OpXor
	case "<<":
		return ir.OpShl
	case ">>":
		if signed {
			return ir.OpAShr
		}
		return ir.OpLShr
	}
	panic(fmt.Sprintf("irgen: unhandled arithmetic operator %q", op))
}

// lowerInit stores an initializer into addr: a brace list recurses
// elementwise into an array's elements or a struct's fields through
// ElemAccess — exactly the store run internal/pass's store_comb is
// built to recognize and fold back into one ConstArray store — and a
// bare expression is coerced and stored directly. Elements the
// initializer list omits are zero-filled.
func (g *Generator) lowerInit(addr *ir.Value, target *types.Type, e ast.Expr) {
	list, isList := e.(*ast.InitListExpr)
	if !isList {
		rv := g.lowerExprRValue(e)
		g.b.CreateStore(g.coerce(rv, target, e.Pos()), addr, e.Pos())
		return
	}
	switch {
	case target.IsArray():
		elem := target.Elem()
		for i, el := range list.Elems {
			idx := g.b.ConstInt(uint32(i), g.reg.I32())
			elemAddr := g.b.CreateElemAccess(addr, idx, elem, el.Pos()).Val()
			g.lowerInit(elemAddr, elem, el)
		}
		for i := len(list.Elems); i < target.Len(); i++ {
			idx := g.b.ConstInt(uint32(i), g.reg.I32())
			elemAddr := g.b.CreateElemAccess(addr, idx, elem, list.Position).Val()
			g.b.CreateStore(g.b.ConstZero(elem), elemAddr, list.Position)
		}
	case target.IsStruct():
		fields := target.Fields()
		for i, el := range list.Elems {
			if i >= len(fields) {
				break
			}
			idx := g.b.ConstInt(uint32(i), g.reg.I32())
			fieldAddr := g.b.CreateElemAccess(addr, idx, fields[i].Type, el.Pos()).Val()
			g.lowerInit(fieldAddr, fields[i].Type, el)
		}
		for i := len(list.Elems); i < len(fields); i++ {
			idx := g.b.ConstInt(uint32(i), g.reg.I32())
			fieldAddr := g.b.CreateElemAccess(addr, idx, fields[i].Type, list.Position).Val()
			g.b.CreateStore(g.b.ConstZero(fields[i].Type), fieldAddr, list.Position)
		}
	default:
		panic(fmt.Sprintf("irgen: brace initializer for non-aggregate type %q", target.String()))
	}
}
