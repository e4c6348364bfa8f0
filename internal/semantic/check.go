// Package semantic resolves names and types over an ast.Program before
// internal/irgen ever runs: a minimal symbol table (scopes, function
// signatures, struct/enum/typedef registries) plus a compile-time
// constant evaluator for global initializers and array dimensions,
// reporting internal/errors diagnostics for everything it rejects.
// What survives checking is exactly the "well-typed IR" input
// internal/irgen's builder-only lowering is allowed to assume.
package semantic

import (
	"sysycc/internal/ast"
	"sysycc/internal/errors"
	"sysycc/internal/stdlib"
	"sysycc/internal/types"
)

type funcSig struct {
	name   string
	params []*types.Type
	ret    *types.Type
	declPos ast.Position
	hasBody bool
}

// Checker walks a translation unit once, registering every top-level
// declaration before checking any function body, so forward references
// and mutual recursion between functions resolve without a separate
// prototype pass.
type Checker struct {
	reg *types.Registry

	structs  map[string]*types.Type
	typedefs map[string]*types.Type

	enumConsts map[string]int64
	functions  map[string]*funcSig
	globals    *scope

	curScope  *scope
	curFunc   *funcSig
	loopDepth int

	errs []errors.CompilerError
}

func NewChecker(reg *types.Registry) *Checker {
	return &Checker{
		reg:        reg,
		structs:    make(map[string]*types.Type),
		typedefs:   make(map[string]*types.Type),
		enumConsts: make(map[string]int64),
		functions:  make(map[string]*funcSig),
		globals:    newScope(nil),
	}
}

// Diagnostics returns every error/warning collected by Check.
func (c *Checker) Diagnostics() []errors.CompilerError { return c.errs }

// FunctionSignature exposes a checked function's resolved type, for
// internal/irgen to build the corresponding ir.Function against.
func (c *Checker) FunctionSignature(name string) (params []*types.Type, ret *types.Type, ok bool) {
	f, ok := c.functions[name]
	if !ok {
		return nil, nil, false
	}
	return f.params, f.ret, true
}

// StructType exposes a checked struct's resolved type by tag name.
func (c *Checker) StructType(name string) (*types.Type, bool) {
	t, ok := c.structs[name]
	return t, ok
}

func (c *Checker) addErr(e errors.CompilerError) { c.errs = append(c.errs, e) }

// Check resolves and type-checks an entire translation unit.
func (c *Checker) Check(prog *ast.Program) []errors.CompilerError {
	// Pass 1: register every top-level name so bodies can reference
	// declarations that appear later in the file.
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.StructDecl:
			c.registerStruct(n)
		case *ast.EnumDecl:
			c.registerEnum(n)
		case *ast.TypedefDecl:
			c.registerTypedef(n)
		}
	}
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			c.registerFunc(n)
		case *ast.VarDecl:
			c.registerGlobal(n)
		}
	}

	// Pass 2: check function bodies against the now-complete symbol table.
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Body != nil {
			c.checkFuncBody(fn)
		}
	}
	return c.errs
}

func (c *Checker) registerStruct(s *ast.StructDecl) {
	if _, exists := c.structs[s.Name]; exists {
		c.addErr(errors.NewSemanticError(errors.ErrorDuplicateDeclaration,
			"struct '"+s.Name+"' is already declared", s.Position).Build())
		return
	}
	// Pre-register an empty struct so self-referential pointer fields
	// (a linked-list node's "struct Node *next") resolve.
	placeholder := c.reg.Struct(s.Name, nil)
	c.structs[s.Name] = placeholder

	fields := make([]types.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, types.Field{Name: f.Name, Type: c.resolveType(f.Type)})
	}
	c.structs[s.Name] = c.reg.Struct(s.Name, fields)
}

func (c *Checker) registerEnum(e *ast.EnumDecl) {
	next := int64(0)
	for _, m := range e.Members {
		if m.Value != nil {
			if v, ok := c.evalConstInt(m.Value); ok {
				next = v
			} else {
				c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
					"enum initializer must be a compile-time constant", e.Position).Build())
			}
		}
		if _, exists := c.enumConsts[m.Name]; exists {
			c.addErr(errors.NewSemanticError(errors.ErrorDuplicateDeclaration,
				"'"+m.Name+"' is already declared", e.Position).Build())
		} else {
			c.enumConsts[m.Name] = next
		}
		next++
	}
}

func (c *Checker) registerTypedef(t *ast.TypedefDecl) {
	if _, exists := c.typedefs[t.Name]; exists {
		c.addErr(errors.NewSemanticError(errors.ErrorDuplicateDeclaration,
			"'"+t.Name+"' is already declared", t.Position).Build())
		return
	}
	c.typedefs[t.Name] = c.resolveType(t.Type)
}

func (c *Checker) registerFunc(f *ast.FuncDecl) {
	params := make([]*types.Type, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, decay(c.resolveType(p.Type), c.reg))
	}
	ret := c.resolveType(f.ReturnType)

	if existing, exists := c.functions[f.Name]; exists {
		if existing.hasBody && f.Body != nil {
			c.addErr(errors.NewSemanticError(errors.ErrorDuplicateDeclaration,
				"function '"+f.Name+"' is already defined", f.Position).Build())
			return
		}
		if f.Body != nil {
			existing.hasBody = true
		}
		return
	}
	c.functions[f.Name] = &funcSig{name: f.Name, params: params, ret: ret, declPos: f.Position, hasBody: f.Body != nil}
}

func (c *Checker) registerGlobal(v *ast.VarDecl) {
	t := c.resolveType(v.Type)
	if !c.globals.declare(v.Name, t) {
		c.addErr(errors.NewSemanticError(errors.ErrorDuplicateDeclaration,
			"'"+v.Name+"' is already declared", v.Position).Build())
		return
	}
	if v.Init != nil {
		c.checkInitializer(t, v.Init)
	}
}

func (c *Checker) checkFuncBody(f *ast.FuncDecl) {
	sig := c.functions[f.Name]
	c.curFunc = sig
	c.curScope = newScope(c.globals)
	for i, p := range f.Params {
		c.curScope.declare(p.Name, sig.params[i])
	}
	c.checkBlock(f.Body)

	if !sig.ret.IsVoid() && !blockAlwaysReturns(f.Body) {
		c.addErr(errors.MissingReturn(f.Name, sig.ret.String(), f.Position))
	}
	c.curFunc = nil
	c.curScope = nil
}

// blockAlwaysReturns is a syntactic, control-flow-free approximation
// of "falls off the end": true when every path through stmts ends in a
// return, an if/else whose both arms return, or an infinite loop with
// no reachable break (the common `while (1) { ... }` / `for (;;)` idiom).
func blockAlwaysReturns(b *ast.BlockStmt) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}
	return stmtAlwaysReturns(b.Stmts[len(b.Stmts)-1])
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		return blockAlwaysReturns(n)
	case *ast.IfStmt:
		if n.Else == nil {
			return false
		}
		return stmtAlwaysReturns(n.Then) && stmtAlwaysReturns(n.Else)
	case *ast.WhileStmt:
		return isConstTrue(n.Cond) && !containsBreak(n.Body)
	case *ast.ForStmt:
		return n.Cond == nil && !containsBreak(n.Body)
	default:
		return false
	}
}

func isConstTrue(e ast.Expr) bool {
	lit, ok := e.(*ast.IntLit)
	return ok && lit.Value != 0
}

func containsBreak(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.BreakStmt:
		return true
	case *ast.BlockStmt:
		for _, st := range n.Stmts {
			if containsBreak(st) {
				return true
			}
		}
		return false
	case *ast.IfStmt:
		if containsBreak(n.Then) {
			return true
		}
		return n.Else != nil && containsBreak(n.Else)
	default:
		// A break inside a nested while/for belongs to that loop, not
		// the one being analyzed, so loops do not recurse further.
		return false
	}
}

func (c *Checker) checkBlock(b *ast.BlockStmt) {
	parent := c.curScope
	c.curScope = newScope(parent)
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	c.curScope = parent
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		c.checkBlock(n)
	case *ast.VarDecl:
		t := c.resolveType(n.Type)
		if !c.curScope.declare(n.Name, t) {
			c.addErr(errors.NewSemanticError(errors.ErrorDuplicateDeclaration,
				"'"+n.Name+"' is already declared in this scope", n.Position).Build())
			return
		}
		if n.Init != nil {
			c.checkInitializer(t, n.Init)
		}
	case *ast.ExprStmt:
		c.checkExpr(n.X)
	case *ast.IfStmt:
		c.checkExpr(n.Cond)
		c.checkStmt(n.Then)
		if n.Else != nil {
			c.checkStmt(n.Else)
		}
	case *ast.WhileStmt:
		c.checkExpr(n.Cond)
		c.loopDepth++
		c.checkStmt(n.Body)
		c.loopDepth--
	case *ast.ForStmt:
		parent := c.curScope
		c.curScope = newScope(parent)
		if n.Init != nil {
			c.checkStmt(n.Init)
		}
		if n.Cond != nil {
			c.checkExpr(n.Cond)
		}
		if n.Post != nil {
			c.checkExpr(n.Post)
		}
		c.loopDepth++
		c.checkStmt(n.Body)
		c.loopDepth--
		c.curScope = parent
	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			c.addErr(errors.InvalidBreakContinue("break", n.Position))
		}
	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.addErr(errors.InvalidBreakContinue("continue", n.Position))
		}
	case *ast.ReturnStmt:
		if n.Value != nil {
			vt := c.checkExpr(n.Value)
			if c.curFunc != nil && !c.curFunc.ret.IsVoid() && vt != nil && !c.curFunc.ret.CanAccept(decay(vt, c.reg)) {
				c.addErr(errors.TypeMismatch(c.curFunc.ret.String(), vt.String(), n.Position))
			}
		}
	}
}

// checkInitializer validates a declaration's initializer against its
// declared type: a brace list recurses elementwise over an array's
// elements or a struct's fields, a bare expression is checked as an
// ordinary assignment-compatible value.
func (c *Checker) checkInitializer(target *types.Type, e ast.Expr) {
	list, isList := e.(*ast.InitListExpr)
	if !isList {
		vt := c.checkExpr(e)
		if vt != nil && !target.CanAccept(decay(vt, c.reg)) {
			c.addErr(errors.TypeMismatch(target.String(), vt.String(), e.Pos()))
		}
		return
	}
	switch {
	case target.IsArray():
		elem := target.Elem()
		for _, el := range list.Elems {
			c.checkInitializer(elem, el)
		}
	case target.IsStruct():
		fields := target.Fields()
		for i, el := range list.Elems {
			if i >= len(fields) {
				c.addErr(errors.NewSemanticError(errors.ErrorInvalidArguments,
					"too many initializers for struct '"+target.StructID()+"'", el.Pos()).Build())
				break
			}
			c.checkInitializer(fields[i].Type, el)
		}
	default:
		c.addErr(errors.NewSemanticError(errors.ErrorTypeMismatch,
			"brace initializer used for non-aggregate type '"+target.String()+"'", list.Position).Build())
	}
}

// checkExpr type-checks e and returns its (possibly error-fallback)
// type; it never returns nil for a node that resolved to some type,
// so callers can always call .String() on a non-nil result.
func (c *Checker) checkExpr(e ast.Expr) *types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		return c.reg.I32()
	case *ast.StringLit:
		return c.reg.Pointer(c.reg.I8())
	case *ast.Ident:
		return c.checkIdent(n)
	case *ast.BinaryExpr:
		return c.checkBinary(n)
	case *ast.UnaryExpr:
		return c.checkUnary(n)
	case *ast.AssignExpr:
		return c.checkAssign(n)
	case *ast.CallExpr:
		return c.checkCall(n)
	case *ast.IndexExpr:
		return c.checkIndex(n)
	case *ast.FieldExpr:
		return c.checkField(n)
	case *ast.CastExpr:
		c.checkExpr(n.X)
		return c.resolveType(n.Type)
	case *ast.InitListExpr:
		// Reached only when a brace list appears outside an
		// initializer context, which checkInitializer already flags
		// when it is the one driving the walk; here there is no
		// target type to check elements against.
		for _, el := range n.Elems {
			c.checkExpr(el)
		}
		return c.reg.Void()
	}
	return c.reg.Void()
}

func (c *Checker) checkIdent(n *ast.Ident) *types.Type {
	if sym, ok := c.curScopeLookup(n.Name); ok {
		return sym.typ
	}
	if f, ok := c.functions[n.Name]; ok {
		return c.reg.Func(f.params, f.ret)
	}
	if v, ok := c.enumConsts[n.Name]; ok {
		_ = v
		return c.reg.I32()
	}
	c.addErr(errors.UndefinedVariable(n.Name, n.Position, c.similarVars(n.Name)))
	return c.reg.I32()
}

func (c *Checker) curScopeLookup(name string) (symbol, bool) {
	if c.curScope == nil {
		return c.globals.lookup(name)
	}
	return c.curScope.lookup(name)
}

func (c *Checker) similarVars(name string) []string {
	var candidates []string
	if c.curScope != nil {
		candidates = c.curScope.names()
	} else {
		candidates = c.globals.names()
	}
	return findSimilar(name, candidates)
}

func (c *Checker) checkBinary(n *ast.BinaryExpr) *types.Type {
	lt := c.checkExpr(n.Left)
	rt := c.checkExpr(n.Right)
	lt, rt = decay(lt, c.reg), decay(rt, c.reg)

	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return c.reg.I32()
	case "+", "-":
		if lt.IsPointer() && rt.IsInt() {
			return lt
		}
		if lt.IsInt() && rt.IsPointer() && n.Op == "+" {
			return rt
		}
		if lt.IsPointer() && rt.IsPointer() && n.Op == "-" {
			return c.reg.I32()
		}
		return c.arithResult(lt, rt, n.Position)
	default:
		return c.arithResult(lt, rt, n.Position)
	}
}

func (c *Checker) arithResult(lt, rt *types.Type, p ast.Position) *types.Type {
	if !lt.IsInt() || !rt.IsInt() {
		c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
			"operator is not defined for operand types '"+lt.String()+"' and '"+rt.String()+"'", p).Build())
		return c.reg.I32()
	}
	return c.commonIntType(lt, rt)
}

func (c *Checker) checkUnary(n *ast.UnaryExpr) *types.Type {
	xt := c.checkExpr(n.X)
	switch n.Op {
	case "*":
		xt = decay(xt, c.reg)
		if !xt.IsPointer() {
			c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
				"cannot dereference non-pointer type '"+xt.String()+"'", n.Position).Build())
			return c.reg.I32()
		}
		return xt.Elem()
	case "&":
		if !isLvalue(n.X) {
			c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
				"cannot take the address of a non-lvalue expression", n.Position).Build())
		}
		return c.reg.Pointer(xt)
	default:
		return decay(xt, c.reg)
	}
}

func (c *Checker) checkAssign(n *ast.AssignExpr) *types.Type {
	tt := c.checkExpr(n.Target)
	vt := c.checkExpr(n.Value)
	if !isLvalue(n.Target) {
		c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
			"left-hand side of assignment is not assignable", n.Position).Build())
		return tt
	}
	if tt != nil && vt != nil && !tt.CanAccept(decay(vt, c.reg)) {
		c.addErr(errors.TypeMismatch(tt.String(), vt.String(), n.Position))
	}
	return tt
}

func isLvalue(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Ident:
		return true
	case *ast.IndexExpr:
		return true
	case *ast.FieldExpr:
		return true
	case *ast.UnaryExpr:
		return n.Op == "*"
	default:
		return false
	}
}

func (c *Checker) checkCall(n *ast.CallExpr) *types.Type {
	if stdlib.IsRuntimeExtern(n.Callee) {
		sig := stdlib.Signatures[n.Callee]
		params := sig.Params(c.reg)
		c.checkArgs(n, params)
		return sig.Ret(c.reg)
	}
	f, ok := c.functions[n.Callee]
	if !ok {
		c.addErr(errors.UndefinedFunction(n.Callee, n.Position, c.similarFuncs(n.Callee)))
		for _, a := range n.Args {
			c.checkExpr(a)
		}
		return c.reg.I32()
	}
	c.checkArgs(n, f.params)
	return f.ret
}

func (c *Checker) checkArgs(n *ast.CallExpr, params []*types.Type) {
	if len(n.Args) != len(params) {
		c.addErr(errors.InvalidArguments(n.Callee, len(params), len(n.Args), n.Position))
	}
	for i, a := range n.Args {
		at := decay(c.checkExpr(a), c.reg)
		if i < len(params) && at != nil && !params[i].CanAccept(at) {
			c.addErr(errors.TypeMismatch(params[i].String(), at.String(), a.Pos()))
		}
	}
}

func (c *Checker) similarFuncs(name string) []string {
	names := make([]string, 0, len(c.functions))
	for n := range c.functions {
		names = append(names, n)
	}
	return findSimilar(name, names)
}

func (c *Checker) checkIndex(n *ast.IndexExpr) *types.Type {
	xt := decay(c.checkExpr(n.X), c.reg)
	c.checkExpr(n.Index)
	if !xt.IsPointer() {
		c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
			"subscript applied to non-array/pointer type '"+xt.String()+"'", n.Position).Build())
		return c.reg.I32()
	}
	return xt.Elem()
}

func (c *Checker) checkField(n *ast.FieldExpr) *types.Type {
	xt := c.checkExpr(n.X)
	if !xt.IsStruct() {
		c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
			"field access on non-struct type '"+xt.String()+"'", n.Position).Build())
		return c.reg.I32()
	}
	idx := xt.FieldIndex(n.Name)
	if idx < 0 {
		available := make([]string, 0, len(xt.Fields()))
		for _, f := range xt.Fields() {
			available = append(available, f.Name)
		}
		c.addErr(errors.FieldNotFound(xt.StructID(), n.Name, n.Position, available))
		return c.reg.I32()
	}
	return xt.Fields()[idx].Type
}

// findSimilar wraps the package-private Levenshtein matcher
// internal/errors uses for its own "did you mean" suggestions,
// filtering and capping the candidate list the same way.
func findSimilar(target string, candidates []string) []string {
	var similar []string
	for _, cand := range candidates {
		if cand == target {
			continue
		}
		if editDistance(target, cand) <= 2 && len(cand) > 2 {
			similar = append(similar, cand)
		}
		if len(similar) >= 3 {
			break
		}
	}
	return similar
}

func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
