package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Print renders m as the persisted text IR format described in spec.md
// §6.3: one function per block of "define @name(...) -> T { ... }",
// globals as "global @name : T = init", one instruction per line.
func Print(m *Module) string {
	var sb strings.Builder
	names := make([]*GlobalVar, len(m.Globals))
	copy(names, m.Globals)
	sort.SliceStable(names, func(i, j int) bool { return names[i].Name < names[j].Name })
	for _, g := range names {
		printGlobal(&sb, g)
	}
	if len(m.Globals) > 0 {
		sb.WriteString("\n")
	}
	for i, f := range m.Functions {
		printFunction(&sb, f)
		if i != len(m.Functions)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func printGlobal(sb *strings.Builder, g *GlobalVar) {
	kw := "global"
	if !g.IsMutable {
		kw = "const global"
	}
	sb.WriteString(fmt.Sprintf("%s @%s : %s", kw, g.Name, g.ElemType))
	if v := g.Init.Value(); v != nil {
		sb.WriteString(" = " + operandName(v))
	}
	sb.WriteString("\n")
}

func printFunction(sb *strings.Builder, f *Function) {
	params := make([]string, len(f.ParamTypes))
	for i, pt := range f.ParamTypes {
		params[i] = pt.String()
	}
	sig := fmt.Sprintf("define @%s(%s) -> %s", f.Name, strings.Join(params, ", "), f.ReturnType)
	if f.IsExtern {
		sb.WriteString("declare " + sig[len("define "):] + "\n")
		return
	}
	sb.WriteString(sig + " {\n")
	for _, bb := range f.Blocks {
		printBlock(sb, bb)
	}
	sb.WriteString("}\n")
}

func printBlock(sb *strings.Builder, bb *BasicBlock) {
	sb.WriteString(bb.Label + ":")
	if len(bb.Predecessors) > 0 {
		preds := make([]string, len(bb.Predecessors))
		for i, p := range bb.Predecessors {
			preds[i] = p.Label
		}
		sb.WriteString("  ; preds = " + strings.Join(preds, ", "))
	}
	sb.WriteString("\n")
	for _, inst := range bb.Instrs {
		sb.WriteString("    " + inst.String() + "\n")
	}
}
