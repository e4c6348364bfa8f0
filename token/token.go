// Package token holds the lexical vocabulary shared by grammar's
// stateful lexer and the keyword/punctuation literals its grammar
// rules match against (spec.md's C-subset front end).
package token

type TokenType string

type Token struct {
	Type    TokenType
	Literal string
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	IDENT   = "IDENT"
	INTEGER = "INTEGER"
	STRING  = "STRING"

	COMMENT = "COMMENT"

	OPERATOR    = "OPERATOR"
	PUNCT       = "PUNCT"
	WHITESPACE  = "WHITESPACE"
)

// Keywords are matched as literal strings against IDENT tokens by the
// grammar package's struct-tag rules, the same way the teacher's own
// grammar matches "module"/"fun"/"let" directly against @Ident rather
// than carving out dedicated lexer token types per keyword.
var Keywords = map[string]bool{
	"void": true, "char": true, "int": true, "unsigned": true,
	"struct": true, "enum": true, "typedef": true,
	"if": true, "else": true, "while": true, "for": true,
	"break": true, "continue": true, "return": true,
}

func IsKeyword(ident string) bool { return Keywords[ident] }
