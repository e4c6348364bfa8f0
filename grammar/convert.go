package grammar

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"sysycc/internal/ast"
)

// ToAST lowers a parsed concrete-syntax tree into internal/ast's clean
// node set. It performs no symbol resolution or type checking; that is
// internal/semantic's job once every node carries a source position.
func ToAST(prog *Program) *ast.Program {
	out := &ast.Program{}
	for _, d := range prog.Decls {
		out.Decls = append(out.Decls, convertTopDecl(d)...)
	}
	return out
}

func pos(p lexer.Position) ast.Position {
	return ast.Position{File: p.Filename, Line: p.Line, Column: p.Column}
}

func convertTopDecl(d *TopDecl) []ast.TopLevelDecl {
	switch {
	case d.Struct != nil:
		return []ast.TopLevelDecl{convertStructDecl(d.Struct)}
	case d.Enum != nil:
		return []ast.TopLevelDecl{convertEnumDecl(d.Enum)}
	case d.Typedef != nil:
		return []ast.TopLevelDecl{convertTypedefDecl(d.Typedef)}
	case d.Func != nil:
		return []ast.TopLevelDecl{convertFuncDecl(d.Func)}
	case d.Var != nil:
		return convertGlobalVarDecl(d.Var)
	}
	return nil
}

// baseTypeName merges a TypeSpec's branch-split captures back into one
// spelling ("unsigned int", "char", "struct Point", a typedef name, ...).
func baseTypeName(t *TypeSpec) string {
	switch {
	case t.Void != "":
		return "void"
	case t.StructRef != "":
		return "struct " + t.StructRef
	case t.Unsigned:
		prim := t.Prim
		if prim == "" {
			prim = "int"
		}
		return "unsigned " + prim
	case t.Prim2 != "":
		return t.Prim2
	default:
		return t.Named
	}
}

func primTypeName(t *PrimTypeSpec) string {
	switch {
	case t.Void != "":
		return "void"
	case t.Unsigned:
		prim := t.Prim
		if prim == "" {
			prim = "int"
		}
		return "unsigned " + prim
	default:
		return t.Prim2
	}
}

// buildType wraps a base type name in pointer/array TypeExprs following
// C declarator reading rules: the name's leading "*" stars bind to the
// base type first (closest to the name), then the trailing "[..]"
// dimensions wrap the result from the innermost (rightmost) dimension
// outward, so `int *a[10]` reads as "array[10] of pointer to int".
func buildType(p ast.Position, base string, stars []string, dims []*ArrayDim) *ast.TypeExpr {
	te := &ast.TypeExpr{Position: p, Base: base}
	for range stars {
		te = &ast.TypeExpr{Position: p, Pointer: te}
	}
	for i := len(dims) - 1; i >= 0; i-- {
		var length ast.Expr
		if dims[i].Len != nil {
			length = convertExpr(dims[i].Len)
		}
		te = &ast.TypeExpr{Position: p, ArrayOf: te, ArrayLen: length}
	}
	return te
}

func convertStructDecl(s *StructDecl) *ast.StructDecl {
	out := &ast.StructDecl{Position: pos(s.Pos), Name: s.Name}
	for _, f := range s.Fields {
		base := baseTypeName(f.Type)
		out.Fields = append(out.Fields, &ast.FieldDecl{
			Position: pos(f.Pos),
			Name:     f.Decl.Name,
			Type:     buildType(pos(f.Pos), base, f.Decl.Stars, f.Decl.Dims),
		})
	}
	return out
}

func convertEnumDecl(e *EnumDecl) *ast.EnumDecl {
	out := &ast.EnumDecl{Position: pos(e.Pos), Name: e.Name}
	for _, m := range e.Members {
		member := ast.EnumMember{Name: m.Name}
		if m.Value != nil {
			member.Value = convertExpr(m.Value)
		}
		out.Members = append(out.Members, member)
	}
	return out
}

func convertTypedefDecl(t *TypedefDecl) *ast.TypedefDecl {
	base := baseTypeName(t.Type)
	return &ast.TypedefDecl{
		Position: pos(t.Pos),
		Name:     t.Decl.Name,
		Type:     buildType(pos(t.Pos), base, t.Decl.Stars, t.Decl.Dims),
	}
}

func convertGlobalVarDecl(g *GlobalVarDecl) []ast.TopLevelDecl {
	base := baseTypeName(g.Type)
	decls := make([]ast.TopLevelDecl, 0, len(g.Decls))
	for _, d := range g.Decls {
		v := &ast.VarDecl{
			Position: pos(d.Pos),
			Name:     d.Decl.Name,
			Type:     buildType(pos(d.Pos), base, d.Decl.Stars, d.Decl.Dims),
		}
		if d.Init != nil {
			v.Init = convertExpr(d.Init)
		}
		decls = append(decls, v)
	}
	return decls
}

func convertFuncDecl(f *FuncDecl) *ast.FuncDecl {
	base := baseTypeName(f.Type)
	out := &ast.FuncDecl{
		Position:   pos(f.Pos),
		Name:       f.Name,
		ReturnType: buildType(pos(f.Pos), base, f.Stars, nil),
	}
	for _, p := range f.Params {
		pbase := baseTypeName(p.Type)
		out.Params = append(out.Params, &ast.ParamDecl{
			Position: pos(p.Pos),
			Name:     p.Decl.Name,
			Type:     buildType(pos(p.Pos), pbase, p.Decl.Stars, p.Decl.Dims),
		})
	}
	if f.Body != nil {
		out.Body = convertBlock(f.Body)
	}
	return out
}

func convertBlock(b *Block) *ast.BlockStmt {
	out := &ast.BlockStmt{Position: pos(b.Pos)}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, convertStmt(s)...)
	}
	return out
}

// convertStmt may expand to more than one ast.Stmt: a local declaration
// with comma-separated declarators ("int a = 1, b = 2;") becomes one
// ast.VarDecl per declarator, in order.
func convertStmt(s *Stmt) []ast.Stmt {
	p := pos(s.Pos)
	switch {
	case s.Block != nil:
		return []ast.Stmt{convertBlock(s.Block)}
	case s.If != nil:
		out := &ast.IfStmt{Position: p, Cond: convertExpr(s.If.Cond), Then: convertStmtSingle(s.If.Then)}
		if s.If.Else != nil {
			out.Else = convertStmtSingle(s.If.Else)
		}
		return []ast.Stmt{out}
	case s.While != nil:
		return []ast.Stmt{&ast.WhileStmt{
			Position: p,
			Cond:     convertExpr(s.While.Cond),
			Body:     convertStmtSingle(s.While.Body),
		}}
	case s.For != nil:
		return []ast.Stmt{convertForStmt(s.For, p)}
	case s.Return != nil:
		out := &ast.ReturnStmt{Position: p}
		if s.Return.Value != nil {
			out.Value = convertExpr(s.Return.Value)
		}
		return []ast.Stmt{out}
	case s.Break != nil:
		return []ast.Stmt{&ast.BreakStmt{Position: p}}
	case s.Continue != nil:
		return []ast.Stmt{&ast.ContinueStmt{Position: p}}
	case s.VarDecl != nil:
		return convertLocalVarDecl(s.VarDecl)
	case s.Empty:
		return nil
	case s.ExprStmt != nil:
		return []ast.Stmt{&ast.ExprStmt{Position: p, X: convertExpr(s.ExprStmt.X)}}
	}
	return nil
}

// convertStmtSingle is used where the grammar demands exactly one
// sub-statement (if/while/for bodies, if's else branch). An empty
// statement becomes an empty block, and a local declaration with
// several declarators becomes one block holding each of them in order.
func convertStmtSingle(s *Stmt) ast.Stmt {
	stmts := convertStmt(s)
	if len(stmts) == 0 {
		return &ast.BlockStmt{Position: pos(s.Pos)}
	}
	if len(stmts) == 1 {
		return stmts[0]
	}
	return &ast.BlockStmt{Position: pos(s.Pos), Stmts: stmts}
}

func convertLocalVarDecl(v *LocalVarDeclStmt) []ast.Stmt {
	base := baseTypeName(v.Type)
	out := make([]ast.Stmt, 0, len(v.Decls))
	for _, d := range v.Decls {
		vd := &ast.VarDecl{
			Position: pos(d.Pos),
			Name:     d.Decl.Name,
			Type:     buildType(pos(d.Pos), base, d.Decl.Stars, d.Decl.Dims),
		}
		if d.Init != nil {
			vd.Init = convertExpr(d.Init)
		}
		out = append(out, vd)
	}
	return out
}

// convertForStmt packs a for-loop's init clause into a single ast.Stmt:
// one ast.VarDecl for the common single-declarator case, or a
// ast.BlockStmt wrapping several when the source comma-declares more
// than one ("for (int i = 0, j = n; ...)"). internal/irgen special-cases
// a BlockStmt found in ForStmt.Init: its declarations join the loop's
// own scope instead of opening a nested one, since they must stay
// visible to Cond/Post/Body exactly like a single declarator would.
func convertForStmt(f *ForStmt, p ast.Position) *ast.ForStmt {
	out := &ast.ForStmt{Position: p}
	switch {
	case f.InitDecl != nil:
		base := baseTypeName(f.InitDecl.Type)
		var decls []ast.Stmt
		for _, d := range f.InitDecl.Decls {
			vd := &ast.VarDecl{
				Position: pos(d.Pos),
				Name:     d.Decl.Name,
				Type:     buildType(pos(d.Pos), base, d.Decl.Stars, d.Decl.Dims),
			}
			if d.Init != nil {
				vd.Init = convertExpr(d.Init)
			}
			decls = append(decls, vd)
		}
		if len(decls) == 1 {
			out.Init = decls[0]
		} else {
			out.Init = &ast.BlockStmt{Position: p, Stmts: decls}
		}
	case f.InitExpr != nil:
		out.Init = &ast.ExprStmt{Position: p, X: convertExpr(f.InitExpr)}
	}
	if f.Cond != nil {
		out.Cond = convertExpr(f.Cond)
	}
	if f.Post != nil {
		out.Post = convertExpr(f.Post)
	}
	out.Body = convertStmtSingle(f.Body)
	return out
}

// --- expressions ---

func convertExpr(e *AssignExpr) ast.Expr {
	left := convertLogicOr(e.Left)
	if e.Value == nil {
		return left
	}
	return &ast.AssignExpr{Position: pos(e.Pos), Target: left, Value: convertExpr(e.Value)}
}

func convertLogicOr(e *LogicOrExpr) ast.Expr {
	left := convertLogicAnd(e.Left)
	for _, r := range e.Rest {
		right := convertLogicAnd(r)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: "||", Left: left, Right: right}
	}
	return left
}

func convertLogicAnd(e *LogicAndExpr) ast.Expr {
	left := convertBitOr(e.Left)
	for _, r := range e.Rest {
		right := convertBitOr(r)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: "&&", Left: left, Right: right}
	}
	return left
}

func convertBitOr(e *BitOrExpr) ast.Expr {
	left := convertBitXor(e.Left)
	for _, r := range e.Rest {
		right := convertBitXor(r)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: "|", Left: left, Right: right}
	}
	return left
}

func convertBitXor(e *BitXorExpr) ast.Expr {
	left := convertBitAnd(e.Left)
	for _, r := range e.Rest {
		right := convertBitAnd(r)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: "^", Left: left, Right: right}
	}
	return left
}

func convertBitAnd(e *BitAndExpr) ast.Expr {
	left := convertEq(e.Left)
	for _, r := range e.Rest {
		right := convertEq(r)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: "&", Left: left, Right: right}
	}
	return left
}

func convertEq(e *EqExpr) ast.Expr {
	left := convertRel(e.Left)
	for _, op := range e.Ops {
		right := convertRel(op.Right)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: op.Operator, Left: left, Right: right}
	}
	return left
}

func convertRel(e *RelExpr) ast.Expr {
	left := convertShift(e.Left)
	for _, op := range e.Ops {
		right := convertShift(op.Right)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: op.Operator, Left: left, Right: right}
	}
	return left
}

func convertShift(e *ShiftExpr) ast.Expr {
	left := convertAdd(e.Left)
	for _, op := range e.Ops {
		right := convertAdd(op.Right)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: op.Operator, Left: left, Right: right}
	}
	return left
}

func convertAdd(e *AddExpr) ast.Expr {
	left := convertMul(e.Left)
	for _, op := range e.Ops {
		right := convertMul(op.Right)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: op.Operator, Left: left, Right: right}
	}
	return left
}

func convertMul(e *MulExpr) ast.Expr {
	left := convertUnary(e.Left)
	for _, op := range e.Ops {
		right := convertUnary(op.Right)
		left = &ast.BinaryExpr{Position: left.Pos(), Op: op.Operator, Left: left, Right: right}
	}
	return left
}

func convertUnary(e *UnaryExpr) ast.Expr {
	switch {
	case e.Operator != "":
		return &ast.UnaryExpr{Position: pos(e.Pos), Op: e.Operator, X: convertUnary(e.Operand)}
	case e.Cast != nil:
		base := primTypeName(e.Cast.Type)
		t := buildType(pos(e.Cast.Pos), base, e.Cast.Stars, nil)
		return &ast.CastExpr{Position: pos(e.Cast.Pos), Type: t, X: convertUnary(e.Cast.X)}
	default:
		return convertPostfix(e.Postfix)
	}
}

func convertPostfix(e *PostfixExpr) ast.Expr {
	x := convertPrimary(e.Primary)
	for _, op := range e.Ops {
		p := pos(op.Pos)
		switch {
		case op.Index != nil:
			x = &ast.IndexExpr{Position: p, X: x, Index: convertExpr(op.Index)}
		case op.Field != "":
			x = &ast.FieldExpr{Position: p, X: x, Name: op.Field}
		case op.Arrow != "":
			// `X->Name` desugars to `(*X).Name`.
			deref := &ast.UnaryExpr{Position: p, Op: "*", X: x}
			x = &ast.FieldExpr{Position: p, X: deref, Name: op.Arrow}
		}
	}
	return x
}

func convertPrimary(e *PrimaryExpr) ast.Expr {
	p := pos(e.Pos)
	switch {
	case e.Call != nil:
		call := &ast.CallExpr{Position: pos(e.Call.Pos), Callee: e.Call.Callee}
		for _, a := range e.Call.Args {
			call.Args = append(call.Args, convertExpr(a))
		}
		return call
	case e.Paren != nil:
		return convertExpr(e.Paren)
	case e.Init != nil:
		out := &ast.InitListExpr{Position: pos(e.Init.Pos)}
		for _, el := range e.Init.Elems {
			out.Elems = append(out.Elems, convertExpr(el))
		}
		return out
	case e.Number != nil:
		return convertIntLit(p, *e.Number)
	case e.Str != nil:
		return &ast.StringLit{Position: p, Value: unquote(*e.Str)}
	case e.Ident != nil:
		return &ast.Ident{Position: p, Name: *e.Ident}
	}
	return nil
}

// convertIntLit parses C integer-literal syntax: a leading "0x"/"0X" is
// hex, a leading "0" followed by more digits is octal, anything else is
// decimal — the same rule the SysY/C lexer family uses to pick a radix
// before the value is known.
func convertIntLit(p ast.Position, text string) *ast.IntLit {
	var v uint64
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		v, _ = strconv.ParseUint(text[2:], 16, 64)
	case len(text) > 1 && text[0] == '0':
		v, _ = strconv.ParseUint(text[1:], 8, 64)
	default:
		v, _ = strconv.ParseUint(text, 10, 64)
	}
	return &ast.IntLit{Position: p, Value: uint32(v), IsSigned: true}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
		return s[1 : len(s)-1]
	}
	return s
}
