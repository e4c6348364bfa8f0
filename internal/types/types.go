// Package types implements the nominal type system described by the
// mid-end data model: primitive integers, pointers, arrays, structs,
// function types, and a transparent const-wrapper.
//
// Types are hash-consed: two structurally equal types share the same
// *Type pointer once both have passed through a Registry, so identity
// comparison (==) doubles as structural equality everywhere except the
// const-wrapper, which stays transparent for identity purposes.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the sum of type variants.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindPointer
	KindArray
	KindStruct
	KindFunc
	KindConst
)

// Type is the immutable, interned representation of a SysY-extended type.
type Type struct {
	kind Kind

	// KindInt
	bits   int // 8 or 32
	signed bool

	// KindPointer / KindArray / KindConst
	elem     *Type
	isRvalue bool
	length   int // KindArray only; -1 for unknown length

	// KindStruct
	structID string
	fields   []Field

	// KindFunc
	params []*Type
	ret    *Type
}

// Field is one member of a struct type, in declaration order.
type Field struct {
	Name string
	Type *Type
}

func (t *Type) Kind() Kind { return t.kind }

func (t *Type) String() string {
	switch t.kind {
	case KindVoid:
		return "void"
	case KindInt:
		switch {
		case t.bits == 8 && t.signed:
			return "i8"
		case t.bits == 8 && !t.signed:
			return "u8"
		case t.bits == 32 && t.signed:
			return "i32"
		default:
			return "u32"
		}
	case KindPointer:
		return t.elem.String() + "*"
	case KindArray:
		if t.length < 0 {
			return t.elem.String() + "[]"
		}
		return fmt.Sprintf("%s[%d]", t.elem.String(), t.length)
	case KindStruct:
		return "struct " + t.structID
	case KindFunc:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("func(%s) -> %s", strings.Join(parts, ", "), t.ret.String())
	case KindConst:
		return "const " + t.elem.String()
	}
	return "?"
}

// Unwrap strips a const-wrapper; every other kind returns itself.
func (t *Type) Unwrap() *Type {
	if t.kind == KindConst {
		return t.elem
	}
	return t
}

// IsConst reports whether t (or its immediate wrapper) denotes an
// immutable binding. const-ness is not recursive into pointees.
func (t *Type) IsConst() bool { return t.kind == KindConst }

// Signed reports whether t is a signed integer type (pointers are
// conservatively treated as unsigned per the Binary-op contract).
func (t *Type) Signed() bool {
	u := t.Unwrap()
	return u.kind == KindInt && u.signed
}

func (t *Type) IsInt() bool     { return t.Unwrap().kind == KindInt }
func (t *Type) IsPointer() bool { return t.Unwrap().kind == KindPointer }
func (t *Type) IsArray() bool   { return t.Unwrap().kind == KindArray }
func (t *Type) IsStruct() bool  { return t.Unwrap().kind == KindStruct }
func (t *Type) IsFunc() bool    { return t.Unwrap().kind == KindFunc }
func (t *Type) IsVoid() bool    { return t.Unwrap().kind == KindVoid }

// Elem returns the pointee/element type of a pointer or array (nil otherwise).
func (t *Type) Elem() *Type {
	u := t.Unwrap()
	if u.kind == KindPointer || u.kind == KindArray {
		return u.elem
	}
	return nil
}

// Len returns an array's element count, or -1 if t is not a (fixed) array.
func (t *Type) Len() int {
	u := t.Unwrap()
	if u.kind != KindArray {
		return -1
	}
	return u.length
}

func (t *Type) Fields() []Field {
	u := t.Unwrap()
	if u.kind != KindStruct {
		return nil
	}
	return u.fields
}

func (t *Type) StructID() string { return t.Unwrap().structID }

func (t *Type) Params() []*Type {
	u := t.Unwrap()
	if u.kind != KindFunc {
		return nil
	}
	return u.params
}

func (t *Type) Ret() *Type {
	u := t.Unwrap()
	if u.kind != KindFunc {
		return nil
	}
	return u.ret
}

// FieldIndex returns the declaration index of a struct field, or -1.
func (t *Type) FieldIndex(name string) int {
	for i, f := range t.Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Size returns the size in bytes: 1/4 for integers, 4 for pointers,
// length*elem for arrays, the packed sum for structs.
func (t *Type) Size() int {
	u := t.Unwrap()
	switch u.kind {
	case KindVoid:
		return 0
	case KindInt:
		return u.bits / 8
	case KindPointer:
		return 4
	case KindArray:
		if u.length < 0 {
			return 4 // decayed array is a pointer
		}
		return u.length * u.elem.Size()
	case KindStruct:
		return structSize(u)
	}
	return 0
}

// Align returns the alignment in bytes: its own size for scalars, the
// widest field's alignment for structs.
func (t *Type) Align() int {
	u := t.Unwrap()
	switch u.kind {
	case KindInt:
		return u.bits / 8
	case KindPointer:
		return 4
	case KindArray:
		return u.elem.Align()
	case KindStruct:
		best := 1
		for _, f := range u.fields {
			if a := f.Type.Align(); a > best {
				best = a
			}
		}
		return best
	}
	return 1
}

// FieldOffset returns the byte offset of field i within the struct,
// computed as align*ceil(size/align) summed over preceding fields.
func (t *Type) FieldOffset(i int) int {
	u := t.Unwrap()
	off := 0
	for j := 0; j < i; j++ {
		off = alignUp(off, u.fields[j].Type.Align()) + u.fields[j].Type.Size()
	}
	return alignUp(off, u.fields[i].Type.Align())
}

func structSize(u *Type) int {
	if len(u.fields) == 0 {
		return 0
	}
	last := len(u.fields) - 1
	off := u.FieldOffset(last)
	return alignUp(off+u.fields[last].Type.Size(), u.Align())
}

func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	return ((off + align - 1) / align) * align
}

// CanAccept reports whether a store to a location of type t may
// receive a value of type src without an explicit cast. Const-wrapped
// targets never accept assignment.
func (t *Type) CanAccept(src *Type) bool {
	if t.IsConst() {
		return false
	}
	if t == src || t.Unwrap() == src.Unwrap() {
		return true
	}
	if t.IsInt() && src.IsInt() {
		return true // integer promotions/truncations are implicit
	}
	if t.IsPointer() && src.IsPointer() {
		return true
	}
	return false
}

// Identical reports structural equality ignoring const-wrapping and
// array rvalue-ness, matching the compatibility rules construction
// preconditions rely on (e.g. create_binary's l.type == r.type check
// is stricter: it uses == directly once both sides are interned).
func Identical(a, b *Type) bool {
	return a.Unwrap() == b.Unwrap()
}
