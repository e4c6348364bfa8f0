package semantic

import (
	"strings"

	"sysycc/internal/ast"
	"sysycc/internal/builtins"
	"sysycc/internal/errors"
	"sysycc/internal/types"
)

// resolveType turns a TypeExpr's surface syntax into a Registry type,
// reporting an unknown-type diagnostic (and returning void, so the
// caller can keep checking instead of panicking) when a struct tag or
// typedef name does not resolve. An array length that is not a
// compile-time constant is reported as such and leaves the array at
// length -1, the same as a bare "[]" dimension.
func (c *Checker) resolveType(t *ast.TypeExpr) *types.Type {
	if t == nil {
		return c.reg.Void()
	}
	switch {
	case t.Pointer != nil:
		return c.reg.Pointer(c.resolveType(t.Pointer))
	case t.ArrayOf != nil:
		length := -1
		if t.ArrayLen != nil {
			if v, ok := c.evalConstInt(t.ArrayLen); ok {
				length = int(v)
			} else {
				c.addErr(errors.NewSemanticError(errors.ErrorInvalidOperation,
					"array length must be a compile-time constant", t.Position).Build())
			}
		}
		return c.reg.Array(c.resolveType(t.ArrayOf), length)
	default:
		return c.resolveBaseType(t.Base, t.Position)
	}
}

func (c *Checker) resolveBaseType(name string, p ast.Position) *types.Type {
	if builtins.IsPrimitiveType(name) {
		return builtins.Resolve(c.reg, name)
	}
	if tag, ok := strings.CutPrefix(name, "struct "); ok {
		if st, ok := c.structs[tag]; ok {
			return st
		}
		c.addErr(errors.NewSemanticError(errors.ErrorUnknownType,
			"unknown struct '"+tag+"'", p).Build())
		return c.reg.Void()
	}
	if td, ok := c.typedefs[name]; ok {
		return td
	}
	c.addErr(errors.NewSemanticError(errors.ErrorUnknownType,
		"unknown type '"+name+"'", p).Build())
	return c.reg.Void()
}

// decay turns an array type into a pointer to its element, C's
// implicit array-to-pointer conversion wherever a value is used other
// than as the operand of "&" or inside a brace initializer.
func decay(t *types.Type, reg *types.Registry) *types.Type {
	if t.IsArray() {
		return reg.Pointer(t.Elem())
	}
	return t
}

// commonIntType applies the C-subset's simplified usual-arithmetic-
// conversions: unsigned wins over signed at the same width, otherwise
// i32 (the subset has only 8- and 32-bit integers, and every binary
// arithmetic operator promotes 8-bit operands to 32 bits first).
func (c *Checker) commonIntType(a, b *types.Type) *types.Type {
	if (!a.Signed() && a.Size() >= 4) || (!b.Signed() && b.Size() >= 4) {
		return c.reg.U32()
	}
	return c.reg.I32()
}
