// Package stdlib declares the SysY runtime's fixed extern surface: the
// I/O and timing primitives a translation unit may call without ever
// declaring a prototype for them. Externs are materialized on demand
// the first time internal/irgen lowers a call to one, the same
// lazy-declare idiom internal/pass's loop_conv/dirty_conv passes use
// for memset and _sysy_starttime/_sysy_stoptime.
package stdlib

import (
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// Signature describes one runtime extern's parameter/return types,
// resolved against a Registry rather than stored as fixed *types.Type
// values since each translation unit builds its own Registry.
type Signature struct {
	Params func(reg *types.Registry) []*types.Type
	Ret    func(reg *types.Registry) *types.Type
}

func noParams(*types.Registry) []*types.Type  { return nil }
func voidRet(reg *types.Registry) *types.Type { return reg.Void() }
func intRet(reg *types.Registry) *types.Type  { return reg.I32() }

// Signatures is the fixed table of externs the SysY runtime provides.
// starttime/stoptime are declared here under their front-end spelling;
// dirty_conv rewrites call sites to the runtime's real
// _sysy_starttime/_sysy_stoptime names, each re-declared under that
// name the first time the pass needs it (see dirtyconv.go).
var Signatures = map[string]Signature{
	"getint": {noParams, intRet},
	"getch":  {noParams, intRet},
	"getarray": {
		func(reg *types.Registry) []*types.Type { return []*types.Type{reg.Pointer(reg.I32())} },
		intRet,
	},
	"putint": {
		func(reg *types.Registry) []*types.Type { return []*types.Type{reg.I32()} },
		voidRet,
	},
	"putch": {
		func(reg *types.Registry) []*types.Type { return []*types.Type{reg.I32()} },
		voidRet,
	},
	"putarray": {
		func(reg *types.Registry) []*types.Type {
			return []*types.Type{reg.I32(), reg.Pointer(reg.I32())}
		},
		voidRet,
	},
	"starttime": {noParams, voidRet},
	"stoptime":  {noParams, voidRet},
}

// IsRuntimeExtern reports whether name is one of the fixed runtime
// externs, as opposed to a user-defined function internal/semantic
// must resolve against the translation unit's own symbol table.
func IsRuntimeExtern(name string) bool {
	_, ok := Signatures[name]
	return ok
}

// Ensure returns m's declaration for a runtime extern, declaring it
// the first time it is called.
func Ensure(b *ir.Builder, m *ir.Module, name string) *ir.Function {
	if f := m.FindFunction(name); f != nil {
		return f
	}
	sig := Signatures[name]
	return b.CreateFunction(name, sig.Params(m.Types), sig.Ret(m.Types), true, false)
}
