package irgen

import (
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// binding is what a name resolves to while lowering a function body:
// the alloca address backing it (every local and parameter gets one,
// mem2reg promotes the ones that turn out to be profitable) and its
// declared element type.
type binding struct {
	addr *ir.Value
	typ  *types.Type
}

// lexScope is a parent-chained block scope, the same shape
// internal/semantic's scope uses, kept as a separate copy here since
// irgen's bindings carry IR addresses rather than resolved types alone.
type lexScope struct {
	parent *lexScope
	vars   map[string]binding
}

func newLexScope(parent *lexScope) *lexScope {
	return &lexScope{parent: parent, vars: make(map[string]binding)}
}

func (s *lexScope) declare(name string, b binding) {
	s.vars[name] = b
}

func (s *lexScope) lookup(name string) (binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}
