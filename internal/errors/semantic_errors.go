package errors

import (
	"fmt"
	"strings"

	"sysycc/internal/ast"
)

// SemanticErrorBuilder provides a fluent interface for building a
// CompilerError with suggestions, notes, and help text attached.
type SemanticErrorBuilder struct {
	err CompilerError
}

func NewSemanticError(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1}}
}

func NewSemanticWarning(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1}}
}

func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

func (b *SemanticErrorBuilder) WithSuggestion(message string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *SemanticErrorBuilder) WithNote(note string) *SemanticErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *SemanticErrorBuilder) WithHelp(help string) *SemanticErrorBuilder {
	b.err.HelpText = help
	return b
}

func (b *SemanticErrorBuilder) Build() CompilerError { return b.err }

// UndefinedVariable reports a reference to an undeclared identifier.
func UndefinedVariable(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedVariable, fmt.Sprintf("undefined variable '%s'", name), pos).
		WithLength(len(name))
	if len(similarNames) > 0 {
		builder = builder.WithSuggestion(suggestNames(similarNames))
	} else {
		builder = builder.WithSuggestion("make sure the variable is declared before use")
	}
	return builder.Build()
}

// UndefinedFunction reports a call to an undeclared function.
func UndefinedFunction(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedFunction, fmt.Sprintf("function '%s' is not declared", name), pos).
		WithLength(len(name))
	if len(similarNames) > 0 {
		builder = builder.WithSuggestion(suggestNames(similarNames))
	}
	return builder.WithHelp("functions must be declared before first use, or declared as an extern").Build()
}

// TypeMismatch reports an expression whose type does not match what
// the surrounding context required.
func TypeMismatch(expected, actual string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorTypeMismatch, fmt.Sprintf("type mismatch: expected %s, found %s", expected, actual), pos).
		WithSuggestion("add an explicit cast if the conversion is intended").
		Build()
}

// InvalidArguments reports a call with the wrong arity.
func InvalidArguments(name string, want, got int, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidArguments, fmt.Sprintf("'%s' expects %d argument(s), got %d", name, want, got), pos).Build()
}

// FieldNotFound reports access to a nonexistent struct field.
func FieldNotFound(structName, fieldName string, pos ast.Position, availableFields []string) CompilerError {
	builder := NewSemanticError(ErrorFieldNotFound, fmt.Sprintf("struct '%s' has no field '%s'", structName, fieldName), pos).
		WithLength(len(fieldName))
	if similar := findSimilarNames(fieldName, availableFields); len(similar) > 0 {
		builder = builder.WithSuggestion(suggestNames(similar))
	}
	if len(availableFields) > 0 {
		builder = builder.WithNote(fmt.Sprintf("available fields: %s", strings.Join(availableFields, ", ")))
	}
	return builder.Build()
}

// UnusedVariable reports a local that is declared but never read (dce's "unused variable").
func UnusedVariable(name string, pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningUnusedVariable, fmt.Sprintf("variable '%s' is declared but never used", name), pos).
		WithLength(len(name)).
		Build()
}

// UninitializedVariable reports a mem2reg read that reached the entry
// with no reaching definition (spec.md §4.4's "using uninitialized variable").
func UninitializedVariable(name string, pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningUninitializedVariable, fmt.Sprintf("'%s' may be used uninitialized", name), pos).Build()
}

// MissingReturn reports a non-void function that may fall off its end.
func MissingReturn(functionName, returnType string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorMissingReturn, fmt.Sprintf("function '%s' declares return type '%s' but may not return a value on all paths", functionName, returnType), pos).
		WithSuggestion(fmt.Sprintf("add a return statement of type '%s' at the end of the function", returnType)).
		Build()
}

// InvalidBreakContinue reports break/continue outside any enclosing loop.
func InvalidBreakContinue(keyword string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidBreakContinue, fmt.Sprintf("'%s' outside of a loop", keyword), pos).Build()
}

func suggestNames(names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("did you mean '%s'?", names[0])
	}
	return fmt.Sprintf("did you mean one of: '%s'?", strings.Join(names, "', '"))
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(a)][len(b)]
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
