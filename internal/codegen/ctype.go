package codegen

import (
	"fmt"
	"strings"

	"sysycc/internal/types"
)

// ctype renders t as a C type spelling, stdint.h-backed for the two
// integer widths the front end ever produces. A pointer-to-array
// collapses to a pointer-to-element, matching the array-to-pointer
// decay internal/irgen already applies everywhere else — this emitter
// never spells out a "T(*)[N]" pointer-to-array type.
func ctype(t *types.Type) string {
	u := t.Unwrap()
	switch u.Kind() {
	case types.KindVoid:
		return "void"
	case types.KindInt:
		bits := u.Size() * 8
		if u.Signed() {
			return fmt.Sprintf("int%d_t", bits)
		}
		return fmt.Sprintf("uint%d_t", bits)
	case types.KindPointer:
		elem := u.Elem()
		if elem.Unwrap().IsArray() {
			elem = elem.Unwrap().Elem()
		}
		return ctype(elem) + "*"
	case types.KindArray:
		return ctype(u.Elem()) + "*"
	case types.KindStruct:
		return "struct " + cStructTag(u.StructID())
	case types.KindFunc:
		return "void*"
	}
	return "void"
}

// cDecl spells a declaration of name with type t: a bracketed array
// declarator for a (complete) array type, a plain "T name" otherwise.
func cDecl(t *types.Type, name string) string {
	u := t.Unwrap()
	if u.Kind() == types.KindArray && u.Len() >= 0 {
		return fmt.Sprintf("%s %s[%d]", ctype(u.Elem()), name, u.Len())
	}
	return fmt.Sprintf("%s %s", ctype(t), name)
}

func cStructTag(id string) string {
	return "s_" + strings.ReplaceAll(id, " ", "_")
}

// walkStructDeps records every struct type reachable from t (through
// pointers, arrays, and field types) into order, fields-before-owner,
// so emitting defs in order never references an undefined tag.
func walkStructDeps(t *types.Type, seen map[*types.Type]bool, order *[]*types.Type) {
	if t == nil {
		return
	}
	u := t.Unwrap()
	if seen[u] {
		return
	}
	seen[u] = true
	switch u.Kind() {
	case types.KindPointer, types.KindArray:
		walkStructDeps(u.Elem(), seen, order)
	case types.KindStruct:
		for _, f := range u.Fields() {
			walkStructDeps(f.Type, seen, order)
		}
		*order = append(*order, u)
	}
}
