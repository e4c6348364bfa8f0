// Package ast defines the tree the grammar package parses source text
// into. It carries no semantics of its own — internal/semantic and
// internal/irgen are the collaborators that interpret it.
package ast

// Position attributes a node to (file, line, column); every IR value
// built from a node carries this triple forward (spec.md §1's "no
// debug-info model beyond a (file,line,column) attribution").
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return "?"
	}
	return p.File
}

// Node is the common interface for every AST element.
type Node interface {
	Pos() Position
}

// Program is the root of a parsed translation unit.
type Program struct {
	Decls []TopLevelDecl
}

// TopLevelDecl is one of FuncDecl, VarDecl, StructDecl, EnumDecl, TypedefDecl.
type TopLevelDecl interface {
	Node
	topLevel()
}

// TypeExpr is the AST's (unresolved) spelling of a type: a base name
// plus pointer/array declarator wrapping, resolved against the
// Registry by internal/semantic.
type TypeExpr struct {
	Position Position
	Base     string // "void", "char", "int", "unsigned char", "unsigned int", or a struct/typedef name
	Pointer  *TypeExpr
	ArrayOf  *TypeExpr
	ArrayLen Expr // nil for an incomplete array (function parameter decay)
}

func (t *TypeExpr) Pos() Position { return t.Position }

// StructDecl declares a struct type.
type StructDecl struct {
	Position Position
	Name     string
	Fields   []*FieldDecl
}

func (s *StructDecl) Pos() Position { return s.Position }
func (*StructDecl) topLevel()       {}

type FieldDecl struct {
	Position Position
	Name     string
	Type     *TypeExpr
}

func (f *FieldDecl) Pos() Position { return f.Position }

// EnumDecl declares a C-style enum; constants are always i32.
type EnumDecl struct {
	Position Position
	Name     string
	Members  []EnumMember
}

func (e *EnumDecl) Pos() Position { return e.Position }
func (*EnumDecl) topLevel()       {}

type EnumMember struct {
	Name  string
	Value Expr // nil means "previous + 1"
}

// TypedefDecl introduces a name alias for a type.
type TypedefDecl struct {
	Position Position
	Name     string
	Type     *TypeExpr
}

func (t *TypedefDecl) Pos() Position { return t.Position }
func (*TypedefDecl) topLevel()       {}

// VarDecl is a top-level (global) or local variable declaration.
type VarDecl struct {
	Position Position
	Name     string
	Type     *TypeExpr
	Init     Expr // nil if uninitialized
}

func (v *VarDecl) Pos() Position { return v.Position }
func (*VarDecl) topLevel()       {}
func (*VarDecl) stmt()           {}

// FuncDecl is a function definition or declaration (Body == nil).
type FuncDecl struct {
	Position   Position
	Name       string
	Params     []*ParamDecl
	ReturnType *TypeExpr
	Body       *BlockStmt
}

func (f *FuncDecl) Pos() Position { return f.Position }
func (*FuncDecl) topLevel()       {}

type ParamDecl struct {
	Position Position
	Name     string
	Type     *TypeExpr
}

// Stmt is one statement in a function body.
type Stmt interface {
	Node
	stmt()
}

type BlockStmt struct {
	Position Position
	Stmts    []Stmt
}

func (b *BlockStmt) Pos() Position { return b.Position }
func (*BlockStmt) stmt()           {}

type ExprStmt struct {
	Position Position
	X        Expr
}

func (e *ExprStmt) Pos() Position { return e.Position }
func (*ExprStmt) stmt()           {}

type IfStmt struct {
	Position Position
	Cond     Expr
	Then     Stmt
	Else     Stmt // nil if no else branch
}

func (i *IfStmt) Pos() Position { return i.Position }
func (*IfStmt) stmt()           {}

type WhileStmt struct {
	Position Position
	Cond     Expr
	Body     Stmt
}

func (w *WhileStmt) Pos() Position { return w.Position }
func (*WhileStmt) stmt()           {}

type ForStmt struct {
	Position Position
	Init     Stmt // VarDecl, ExprStmt, BlockStmt of VarDecls (several declarators), or nil
	Cond     Expr // nil means "true"
	Post     Expr // nil if absent
	Body     Stmt
}

func (f *ForStmt) Pos() Position { return f.Position }
func (*ForStmt) stmt()           {}

type BreakStmt struct{ Position Position }

func (b *BreakStmt) Pos() Position { return b.Position }
func (*BreakStmt) stmt()           {}

type ContinueStmt struct{ Position Position }

func (c *ContinueStmt) Pos() Position { return c.Position }
func (*ContinueStmt) stmt()           {}

type ReturnStmt struct {
	Position Position
	Value    Expr // nil for a void return
}

func (r *ReturnStmt) Pos() Position { return r.Position }
func (*ReturnStmt) stmt()           {}

// Expr is one expression node.
type Expr interface {
	Node
	expr()
}

type IntLit struct {
	Position Position
	Value    uint32
	IsSigned bool
}

func (i *IntLit) Pos() Position { return i.Position }
func (*IntLit) expr()           {}

type StringLit struct {
	Position Position
	Value    string
}

func (s *StringLit) Pos() Position { return s.Position }
func (*StringLit) expr()           {}

type Ident struct {
	Position Position
	Name     string
}

func (i *Ident) Pos() Position { return i.Position }
func (*Ident) expr()           {}

// BinaryExpr covers arithmetic, bitwise, relational, equality, and
// the logical && / || operators (Op holds the source spelling).
type BinaryExpr struct {
	Position Position
	Op       string
	Left     Expr
	Right    Expr
}

func (b *BinaryExpr) Pos() Position { return b.Position }
func (*BinaryExpr) expr()           {}

// UnaryExpr covers "-", "!", "~", "*", "&".
type UnaryExpr struct {
	Position Position
	Op       string
	X        Expr
}

func (u *UnaryExpr) Pos() Position { return u.Position }
func (*UnaryExpr) expr()           {}

type AssignExpr struct {
	Position Position
	Target   Expr
	Value    Expr
}

func (a *AssignExpr) Pos() Position { return a.Position }
func (*AssignExpr) expr()           {}

type CallExpr struct {
	Position Position
	Callee   string
	Args     []Expr
}

func (c *CallExpr) Pos() Position { return c.Position }
func (*CallExpr) expr()           {}

// IndexExpr is `X[Index]`.
type IndexExpr struct {
	Position Position
	X        Expr
	Index    Expr
}

func (i *IndexExpr) Pos() Position { return i.Position }
func (*IndexExpr) expr()           {}

// FieldExpr is `X.Name`; `X->Name` is sugar for `(*X).Name` handled by
// the parser before a FieldExpr is produced.
type FieldExpr struct {
	Position Position
	X        Expr
	Name     string
}

func (f *FieldExpr) Pos() Position { return f.Position }
func (*FieldExpr) expr()           {}

// CastExpr is an explicit C-style cast `(Type)X`.
type CastExpr struct {
	Position Position
	Type     *TypeExpr
	X        Expr
}

func (c *CastExpr) Pos() Position { return c.Position }
func (*CastExpr) expr()           {}

// InitListExpr is a brace initializer `{ e0, e1, ... }` for an array or
// struct declaration; nested braces lower one array/struct dimension
// at a time, left to right.
type InitListExpr struct {
	Position Position
	Elems    []Expr
}

func (i *InitListExpr) Pos() Position { return i.Position }
func (*InitListExpr) expr()           {}
