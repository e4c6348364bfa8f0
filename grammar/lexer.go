package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SysYLexer tokenizes the C-subset source text; its rule ordering
// mirrors the teacher's KansoLexer (comments and identifiers first,
// then numeric/string literals, then the longest-match-first operator
// and punctuation classes, whitespace last and elided by the parser).
var SysYLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"BlockComment", `/\*([^*]|\*[^/])*\*/`, nil},

		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},

		{"Integer", `0[xX][0-9a-fA-F]+|0[0-7]*|[1-9][0-9]*`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},

		{"Operator", `(->|<<|>>|<=|>=|==|!=|&&|\|\||[-+*/%&|^~!<>=])`, nil},
		{"Punctuation", `[{}()\[\],;.:]`, nil},

		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
