package grammar

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"sysycc/internal/ast"
)

// ParseString parses one translation unit's source text, tagging every
// token with filename for the diagnostics reporter.
func ParseString(filename, source string) (*Program, error) {
	parser, err := participle.Build[Program](
		participle.Lexer(SysYLexer),
		participle.Elide("Whitespace", "Comment", "BlockComment"),
		participle.UseLookahead(1024),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	prog, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, explainParseError(source, err)
	}
	return prog, nil
}

// Parse parses and lowers one translation unit straight to internal/ast,
// the entry point internal/semantic and internal/irgen call.
func Parse(filename, source string) (*ast.Program, error) {
	cst, err := ParseString(filename, source)
	if err != nil {
		return nil, err
	}
	return ToAST(cst), nil
}

// explainParseError re-wraps a participle error with a caret-style
// single-line excerpt, matching the teacher's own reportParseError.
func explainParseError(src string, err error) error {
	pe, ok := err.(participle.Error)
	if !ok {
		return err
	}
	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		return err
	}
	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max0(pos.Column-1)) + "^"
	return fmt.Errorf("%s:%d:%d: %s\n%s\n%s", pos.Filename, pos.Line, pos.Column, pe.Message(), line, caret)
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
