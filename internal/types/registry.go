package types

import "fmt"

// Registry hash-conses every Type so that structurally equal types
// share one *Type pointer. Passes and the builder rely on this: type
// comparisons elsewhere in the core use == rather than a deep-equal.
type Registry struct {
	void    *Type
	ints    map[[2]int]*Type // [bits, signed?1:0] -> *Type
	ptrs    map[ptrKey]*Type
	arrays  map[arrKey]*Type
	structs map[string]*Type
	funcs   map[string]*Type
	consts  map[*Type]*Type
}

type ptrKey struct {
	elem     *Type
	isRvalue bool
}

type arrKey struct {
	elem     *Type
	length   int
	isRvalue bool
}

func NewRegistry() *Registry {
	return &Registry{
		void:    &Type{kind: KindVoid},
		ints:    make(map[[2]int]*Type),
		ptrs:    make(map[ptrKey]*Type),
		arrays:  make(map[arrKey]*Type),
		structs: make(map[string]*Type),
		funcs:   make(map[string]*Type),
		consts:  make(map[*Type]*Type),
	}
}

func (r *Registry) Void() *Type { return r.void }

func (r *Registry) Int(bits int, signed bool) *Type {
	s := 0
	if signed {
		s = 1
	}
	key := [2]int{bits, s}
	if t, ok := r.ints[key]; ok {
		return t
	}
	t := &Type{kind: KindInt, bits: bits, signed: signed}
	r.ints[key] = t
	return t
}

func (r *Registry) I8() *Type  { return r.Int(8, true) }
func (r *Registry) U8() *Type  { return r.Int(8, false) }
func (r *Registry) I32() *Type { return r.Int(32, true) }
func (r *Registry) U32() *Type { return r.Int(32, false) }

func (r *Registry) Pointer(elem *Type) *Type {
	key := ptrKey{elem, false}
	if t, ok := r.ptrs[key]; ok {
		return t
	}
	t := &Type{kind: KindPointer, elem: elem}
	r.ptrs[key] = t
	return t
}

// Array creates a fixed-length array type; length < 0 denotes an
// incomplete array, the type of any declarator with a bare "[]"
// dimension (a parameter before it decays, or a local or global whose
// length internal/irgen then takes from its brace initializer).
func (r *Registry) Array(elem *Type, length int) *Type {
	key := arrKey{elem, length, false}
	if t, ok := r.arrays[key]; ok {
		return t
	}
	t := &Type{kind: KindArray, elem: elem, length: length}
	r.arrays[key] = t
	return t
}

// Struct returns the (possibly newly created) named struct type. The
// field list is only fixed by the first call with non-nil fields;
// later calls with nil fields look up the existing definition, which
// lets the front end forward-declare via typedef before the body is
// known.
func (r *Registry) Struct(id string, fields []Field) *Type {
	if t, ok := r.structs[id]; ok {
		if fields != nil && t.fields == nil {
			t.fields = fields
		}
		return t
	}
	t := &Type{kind: KindStruct, structID: id, fields: fields}
	r.structs[id] = t
	return t
}

func (r *Registry) Func(params []*Type, ret *Type) *Type {
	key := funcKey(params, ret)
	if t, ok := r.funcs[key]; ok {
		return t
	}
	t := &Type{kind: KindFunc, params: params, ret: ret}
	r.funcs[key] = t
	return t
}

func funcKey(params []*Type, ret *Type) string {
	s := fmt.Sprintf("%p(", ret)
	for _, p := range params {
		s += fmt.Sprintf("%p,", p)
	}
	return s + ")"
}

// Const wraps t in the transparent const-marker, interned per-elem so
// repeated wrapping of the same type returns the same pointer.
func (r *Registry) Const(t *Type) *Type {
	if t.IsConst() {
		return t
	}
	if c, ok := r.consts[t]; ok {
		return c
	}
	c := &Type{kind: KindConst, elem: t}
	r.consts[t] = c
	return c
}
