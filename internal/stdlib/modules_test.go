package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sysycc/internal/ir"
)

func TestIsRuntimeExtern(t *testing.T) {
	for _, name := range []string{"getint", "getch", "getarray", "putint", "putch", "putarray", "starttime", "stoptime"} {
		assert.True(t, IsRuntimeExtern(name), "%s should be a runtime extern", name)
	}
	assert.False(t, IsRuntimeExtern("main"))
	assert.False(t, IsRuntimeExtern("memset"))
}

func TestEnsureDeclaresOnFirstUse(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	assert.Nil(t, m.FindFunction("putint"))

	f := Ensure(b, m, "putint")
	assert.NotNil(t, f)
	assert.True(t, f.IsExtern)
	assert.Len(t, f.ParamTypes, 1)
	assert.True(t, f.ParamTypes[0].Signed())
	assert.True(t, f.ReturnType.IsVoid())

	again := Ensure(b, m, "putint")
	assert.Same(t, f, again, "Ensure must not redeclare an existing extern")
}

func TestEnsureGetintReturnsInt(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	f := Ensure(b, m, "getint")
	assert.Empty(t, f.ParamTypes)
	assert.True(t, f.ReturnType.IsInt())
	assert.True(t, f.ReturnType.Signed())
}

func TestEnsureGetarrayTakesPointer(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	f := Ensure(b, m, "getarray")
	assert.Len(t, f.ParamTypes, 1)
	assert.True(t, f.ParamTypes[0].IsPointer())
}
