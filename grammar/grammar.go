// Package grammar holds the participle struct-tag grammar for the
// SysY-extended C subset: a concrete-syntax tree close to the source
// text, converted to internal/ast's clean node set by convert.go.
package grammar

import "github.com/alecthomas/participle/v2/lexer"

// Program is the root of a parsed translation unit.
type Program struct {
	Decls []*TopDecl `@@*`
}

type TopDecl struct {
	Struct  *StructDecl    `  @@`
	Enum    *EnumDecl      `| @@`
	Typedef *TypedefDecl   `| @@`
	Func    *FuncDecl      `| @@`
	Var     *GlobalVarDecl `| @@`
}

// TypeSpec is a declaration's base type: a primitive keyword (with an
// optional leading "unsigned"), a struct tag, or a typedef name. Prim
// and Prim2 are the same capture reached via two different branches
// (with vs. without a leading "unsigned") and are merged back into one
// base-type spelling by convert.go.
type TypeSpec struct {
	Unsigned  bool   `(   @"unsigned"`
	Prim      string `    @("char" | "int")?`
	Prim2     string `  | @("char" | "int") )`
	Void      string `| @"void"`
	StructRef string `| "struct" @Ident`
	Named     string `| @Ident`
}

// PrimTypeSpec is the narrower type grammar an explicit cast accepts:
// only primitive base types, never a struct tag or typedef name, since
// telling a typedef-name cast apart from a parenthesized identifier
// expression needs a symbol table a context-free grammar doesn't have
// (see DESIGN.md's cast-grammar Open Question).
type PrimTypeSpec struct {
	Unsigned bool   `(   @"unsigned"`
	Prim     string `    @("char" | "int")?`
	Prim2    string `  | @("char" | "int") )`
	Void     string `| @"void"`
}

// Declarator names one declared entity, with its pointer depth and
// any array dimensions, shared by variables, fields, and parameters.
type Declarator struct {
	Pos   lexer.Position
	Stars []string    `{ @"*" }`
	Name  string      `@Ident`
	Dims  []*ArrayDim `{ @@ }`
}

type ArrayDim struct {
	Len *Expr `"[" @@? "]"`
}

type StructDecl struct {
	Pos    lexer.Position
	Name   string       `"struct" @Ident "{"`
	Fields []*FieldDecl `@@* "}" ";"`
}

type FieldDecl struct {
	Pos  lexer.Position
	Type *TypeSpec   `@@`
	Decl *Declarator `@@ ";"`
}

type EnumDecl struct {
	Pos     lexer.Position
	Name    string        `"enum" @Ident? "{"`
	Members []*EnumMember `@@ { "," @@ } [ "," ] "}" ";"`
}

type EnumMember struct {
	Pos   lexer.Position
	Name  string `@Ident`
	Value *Expr  `( "=" @@ )?`
}

type TypedefDecl struct {
	Pos  lexer.Position
	Type *TypeSpec   `"typedef" @@`
	Decl *Declarator `@@ ";"`
}

// GlobalVarDecl covers one or more comma-separated declarators sharing
// a base type, each with an optional initializer.
type GlobalVarDecl struct {
	Pos   lexer.Position
	Type  *TypeSpec         `@@`
	Decls []*InitDeclarator `@@ { "," @@ } ";"`
}

type InitDeclarator struct {
	Pos  lexer.Position
	Decl *Declarator `@@`
	Init *Expr       `( "=" @@ )?`
}

type FuncDecl struct {
	Pos    lexer.Position
	Type   *TypeSpec    `@@`
	Stars  []string     `{ @"*" }`
	Name   string       `@Ident "("`
	Params []*ParamDecl `[ ( @@ { "," @@ } | "void" ) ] ")"`
	Body   *Block       `( @@ | ";" )`
}

type ParamDecl struct {
	Pos  lexer.Position
	Type *TypeSpec   `@@`
	Decl *Declarator `@@`
}

// --- statements ---

type Block struct {
	Pos   lexer.Position
	Stmts []*Stmt `"{" @@* "}"`
}

type Stmt struct {
	Pos      lexer.Position
	Block    *Block            `  @@`
	If       *IfStmt           `| @@`
	While    *WhileStmt        `| @@`
	For      *ForStmt          `| @@`
	Return   *ReturnStmt       `| @@`
	Break    *BreakStmt        `| @@`
	Continue *ContinueStmt     `| @@`
	VarDecl  *LocalVarDeclStmt `| @@`
	Empty    bool              `| @";"`
	ExprStmt *ExprStmt         `| @@`
}

type LocalVarDeclStmt struct {
	Pos   lexer.Position
	Type  *TypeSpec         `@@`
	Decls []*InitDeclarator `@@ { "," @@ } ";"`
}

type IfStmt struct {
	Pos  lexer.Position
	Cond *Expr `"if" "(" @@ ")"`
	Then *Stmt `@@`
	Else *Stmt `( "else" @@ )?`
}

type WhileStmt struct {
	Pos  lexer.Position
	Cond *Expr `"while" "(" @@ ")"`
	Body *Stmt `@@`
}

type ForStmt struct {
	Pos      lexer.Position
	InitDecl *ForVarDecl `"for" "(" (   @@`
	InitExpr *Expr       `                | @@? ) ";"`
	Cond     *Expr       `@@? ";"`
	Post     *Expr       `@@? ")"`
	Body     *Stmt       `@@`
}

// ForVarDecl is a for-loop's own init-clause variable declaration,
// identical to LocalVarDeclStmt but without the trailing ";" (the for
// rule's own ";" closes the clause instead).
type ForVarDecl struct {
	Pos   lexer.Position
	Type  *TypeSpec         `@@`
	Decls []*InitDeclarator `@@ { "," @@ }`
}

type BreakStmt struct {
	Pos lexer.Position
	Kw  string `@"break" ";"`
}

type ContinueStmt struct {
	Pos lexer.Position
	Kw  string `@"continue" ";"`
}

type ReturnStmt struct {
	Pos   lexer.Position
	Value *Expr `"return" @@? ";"`
}

type ExprStmt struct {
	Pos lexer.Position
	X   *Expr `@@ ";"`
}

// --- expressions, lowest to highest precedence ---

type Expr = AssignExpr

type AssignExpr struct {
	Pos   lexer.Position
	Left  *LogicOrExpr `@@`
	Value *AssignExpr  `( "=" @@ )?`
}

type LogicOrExpr struct {
	Left *LogicAndExpr   `@@`
	Rest []*LogicAndExpr `{ "||" @@ }`
}

type LogicAndExpr struct {
	Left *BitOrExpr   `@@`
	Rest []*BitOrExpr `{ "&&" @@ }`
}

type BitOrExpr struct {
	Left *BitXorExpr   `@@`
	Rest []*BitXorExpr `{ "|" @@ }`
}

type BitXorExpr struct {
	Left *BitAndExpr   `@@`
	Rest []*BitAndExpr `{ "^" @@ }`
}

type BitAndExpr struct {
	Left *EqExpr   `@@`
	Rest []*EqExpr `{ "&" @@ }`
}

type EqExpr struct {
	Left *RelExpr `@@`
	Ops  []*EqOp  `{ @@ }`
}

type EqOp struct {
	Operator string   `@("==" | "!=")`
	Right    *RelExpr `@@`
}

type RelExpr struct {
	Left *ShiftExpr `@@`
	Ops  []*RelOp   `{ @@ }`
}

type RelOp struct {
	Operator string     `@("<=" | ">=" | "<" | ">")`
	Right    *ShiftExpr `@@`
}

type ShiftExpr struct {
	Left *AddExpr   `@@`
	Ops  []*ShiftOp `{ @@ }`
}

type ShiftOp struct {
	Operator string   `@("<<" | ">>")`
	Right    *AddExpr `@@`
}

type AddExpr struct {
	Left *MulExpr `@@`
	Ops  []*AddOp `{ @@ }`
}

type AddOp struct {
	Operator string   `@("+" | "-")`
	Right    *MulExpr `@@`
}

type MulExpr struct {
	Left *UnaryExpr `@@`
	Ops  []*MulOp   `{ @@ }`
}

type MulOp struct {
	Operator string     `@("*" | "/" | "%")`
	Right    *UnaryExpr `@@`
}

// UnaryExpr handles prefix unary operators and the one C ambiguity a
// context-free grammar can still resolve with lookahead: a leading
// "(" is a cast when followed by a primitive type keyword, otherwise
// it falls through to PostfixExpr's own parenthesized-primary rule.
type UnaryExpr struct {
	Pos      lexer.Position
	Operator string       `(   @("-" | "!" | "~" | "*" | "&")`
	Operand  *UnaryExpr   `    @@`
	Cast     *CastExpr    `  | @@`
	Postfix  *PostfixExpr `  | @@ )`
}

type CastExpr struct {
	Pos   lexer.Position
	Type  *PrimTypeSpec `"(" @@`
	Stars []string      `{ @"*" } ")"`
	X     *UnaryExpr    `@@`
}

type PostfixExpr struct {
	Primary *PrimaryExpr `@@`
	Ops     []*PostfixOp `{ @@ }`
}

type PostfixOp struct {
	Pos   lexer.Position
	Index *Expr  `(   "[" @@ "]"`
	Field string `  | "." @Ident`
	Arrow string `  | "->" @Ident )`
}

type PrimaryExpr struct {
	Pos    lexer.Position
	Call   *CallExpr `  @@`
	Paren  *Expr     `| "(" @@ ")"`
	Init   *InitList `| @@`
	Number *string   `| @Integer`
	Str    *string   `| @String`
	Ident  *string   `| @Ident`
}

type CallExpr struct {
	Pos    lexer.Position
	Callee string  `@Ident "("`
	Args   []*Expr `[ @@ { "," @@ } ] ")"`
}

// InitList is a brace initializer, usable anywhere an Expr is (array
// and struct global/local initializers); nesting handles multi-
// dimensional arrays and nested structs one brace level at a time.
type InitList struct {
	Pos   lexer.Position
	Elems []*Expr `"{" [ @@ { "," @@ } [ "," ] ] "}"`
}
