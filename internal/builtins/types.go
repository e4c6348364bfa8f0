// Package builtins names the C-subset's fixed primitive-type vocabulary
// and maps each spelling onto the Registry's hash-consed *types.Type,
// the same lookup-table idiom the teacher's builtins package uses for
// its own fixed type vocabulary (U8/U16/.../Address).
package builtins

import "sysycc/internal/types"

// PrimitiveTypes lists every base-type spelling internal/ast's
// TypeExpr.Base can carry for a non-struct, non-typedef declaration.
var PrimitiveTypes = map[string]bool{
	"void":          true,
	"char":          true,
	"int":           true,
	"unsigned char": true,
	"unsigned int":  true,
}

// IsPrimitiveType reports whether name is one of the fixed base-type
// spellings, as opposed to a struct tag or typedef name.
func IsPrimitiveType(name string) bool {
	return PrimitiveTypes[name]
}

// Resolve maps a primitive spelling to its Registry type. The C-subset
// collapses char down to an 8-bit integer and int to 32 bits, matching
// SysY's own two-width integer model (no short/long).
func Resolve(reg *types.Registry, name string) *types.Type {
	switch name {
	case "void":
		return reg.Void()
	case "char":
		return reg.I8()
	case "unsigned char":
		return reg.U8()
	case "int":
		return reg.I32()
	case "unsigned int":
		return reg.U32()
	default:
		return nil
	}
}

// IsIntegerType reports whether a primitive spelling denotes an
// integer type (every primitive but "void").
func IsIntegerType(name string) bool {
	return PrimitiveTypes[name] && name != "void"
}

// IsUnsigned reports whether a primitive spelling's integer type is
// unsigned.
func IsUnsigned(name string) bool {
	switch name {
	case "unsigned char", "unsigned int":
		return true
	default:
		return false
	}
}
