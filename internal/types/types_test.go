package types

import "testing"

func TestIntSizeAndString(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		t        *Type
		wantSize int
		wantStr  string
	}{
		{r.I8(), 1, "i8"},
		{r.U8(), 1, "u8"},
		{r.I32(), 4, "i32"},
		{r.U32(), 4, "u32"},
	}
	for _, c := range cases {
		if c.t.Size() != c.wantSize {
			t.Errorf("%s: size = %d, want %d", c.wantStr, c.t.Size(), c.wantSize)
		}
		if c.t.String() != c.wantStr {
			t.Errorf("String() = %s, want %s", c.t.String(), c.wantStr)
		}
	}
}

func TestInterningIsStable(t *testing.T) {
	r := NewRegistry()
	if r.I32() != r.I32() {
		t.Error("I32() should return the same interned pointer across calls")
	}
	p1 := r.Pointer(r.I32())
	p2 := r.Pointer(r.I32())
	if p1 != p2 {
		t.Error("Pointer(i32) should be interned to a single pointer type")
	}
}

func TestStructLayout(t *testing.T) {
	r := NewRegistry()
	// struct { i8 a; i32 b; i8 c; }
	st := r.Struct("Point", []Field{
		{Name: "a", Type: r.I8()},
		{Name: "b", Type: r.I32()},
		{Name: "c", Type: r.I8()},
	})
	if st.Align() != 4 {
		t.Errorf("Align() = %d, want 4", st.Align())
	}
	if off := st.FieldOffset(1); off != 4 {
		t.Errorf("FieldOffset(b) = %d, want 4", off)
	}
	if off := st.FieldOffset(2); off != 8 {
		t.Errorf("FieldOffset(c) = %d, want 8", off)
	}
	if sz := st.Size(); sz != 12 {
		t.Errorf("Size() = %d, want 12 (padded to 4-byte alignment)", sz)
	}
}

func TestArraySize(t *testing.T) {
	r := NewRegistry()
	arr := r.Array(r.I32(), 10)
	if arr.Size() != 40 {
		t.Errorf("Size() = %d, want 40", arr.Size())
	}
	if arr.Len() != 10 {
		t.Errorf("Len() = %d, want 10", arr.Len())
	}
}

func TestConstWrapperTransparentExceptCanAccept(t *testing.T) {
	r := NewRegistry()
	base := r.I32()
	c := r.Const(base)
	if !Identical(c, base) {
		t.Error("const wrapper should be structurally identical to its element for identity purposes")
	}
	if c.CanAccept(base) {
		t.Error("a const-wrapped type must never accept assignment")
	}
	if !base.CanAccept(c) {
		t.Error("a mutable i32 should accept a const i32 value")
	}
}

func TestFieldIndex(t *testing.T) {
	r := NewRegistry()
	st := r.Struct("P", []Field{{Name: "x", Type: r.I32()}, {Name: "y", Type: r.I32()}})
	if st.FieldIndex("y") != 1 {
		t.Errorf("FieldIndex(y) = %d, want 1", st.FieldIndex("y"))
	}
	if st.FieldIndex("z") != -1 {
		t.Errorf("FieldIndex(z) = %d, want -1", st.FieldIndex("z"))
	}
}
