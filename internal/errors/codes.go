package errors

// Error codes for sysycc.
//
// Error code ranges:
// E0001-E0099: Semantic analysis errors
// E0100-E0199: Parser errors
// E0200-E0299: Type system errors
// E0600-E0699: Flow control errors
// W0001-W0099: Warning codes (diagnostics per spec.md §7)

const (
	// E0001: Variable resolution errors
	ErrorUndefinedVariable = "E0001"

	// E0002: Function resolution errors
	ErrorUndefinedFunction = "E0002"

	// E0003: Type compatibility errors
	ErrorTypeMismatch = "E0003"

	// E0004: Function return type errors
	ErrorInvalidReturnType = "E0004"

	// E0005: Struct field access errors
	ErrorFieldNotFound = "E0005"

	// E0006: Duplicate declaration errors
	ErrorDuplicateDeclaration = "E0006"

	// E0007: Function call argument errors
	ErrorInvalidArguments = "E0007"

	// E0008: Binary/unary operation type errors
	ErrorInvalidOperation = "E0008"

	// E0100: Parse error (caret-style, raised directly by the grammar)
	ErrorSyntax = "E0100"

	// E0200: Unknown type name
	ErrorUnknownType = "E0200"

	// E0600: break/continue outside a loop
	ErrorInvalidBreakContinue = "E0600"

	// E0601: Missing return in a non-void function
	ErrorMissingReturn = "E0601"

	// E0602: Array subscript out of bounds (constant index, diagnostic only)
	ErrorSubscriptOutOfBounds = "E0602"

	// W0001: Unused variable / unused definition
	WarningUnusedVariable = "W0001"

	// W0002: Use of an uninitialized variable (mem2reg §4.4)
	WarningUninitializedVariable = "W0002"

	// W0003: Array-typed comparison (pointer-decay comparison, diagnostic only)
	WarningArrayComparison = "W0003"
)

// GetErrorDescription returns a human-readable description of the error code.
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUndefinedVariable:
		return "variable is used but not declared in the current scope"
	case ErrorUndefinedFunction:
		return "function is called but never declared"
	case ErrorTypeMismatch:
		return "expression type does not match the expected type"
	case ErrorInvalidReturnType:
		return "returned value's type does not match the function's declared return type"
	case ErrorFieldNotFound:
		return "struct has no field with this name"
	case ErrorDuplicateDeclaration:
		return "name already declared in this scope"
	case ErrorInvalidArguments:
		return "call has the wrong number or types of arguments"
	case ErrorInvalidOperation:
		return "operator is not defined for these operand types"
	case ErrorSyntax:
		return "syntax error"
	case ErrorUnknownType:
		return "no such type"
	case ErrorInvalidBreakContinue:
		return "break/continue outside of a loop"
	case ErrorMissingReturn:
		return "function declares a non-void return type but may fall off its end"
	case ErrorSubscriptOutOfBounds:
		return "constant array subscript is out of bounds"
	case WarningUnusedVariable:
		return "variable is declared but never used"
	case WarningUninitializedVariable:
		return "value may be used before it is assigned"
	case WarningArrayComparison:
		return "comparing array-typed operands compares their decayed pointers, not their contents"
	default:
		return "unknown diagnostic"
	}
}

// IsWarning reports whether code denotes a warning rather than a hard error.
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}
