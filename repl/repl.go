// Package repl is an interactive loop over the same
// parse/check/lower/optimize pipeline cmd/sysycc drives, grounded on
// the teacher's own minimal bufio.Scanner repl but extended to accept
// a multi-line snippet (terminated by a blank line) and pretty-print
// the resulting IR rather than just the parsed AST, since a single
// line is rarely a complete translation unit in this language.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"sysycc/internal/errors"
	"sysycc/grammar"
	"sysycc/internal/ir"
	"sysycc/internal/irgen"
	"sysycc/internal/pass"
	"sysycc/internal/semantic"
	"sysycc/internal/types"
)

const prompt = "sysycc> "

// Start runs the loop until in is exhausted, writing prompts and
// results to out.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		snippet, ok := readSnippet(scanner)
		if !ok {
			return
		}
		if strings.TrimSpace(snippet) == "" {
			continue
		}
		run(snippet, out)
	}
}

// readSnippet accumulates lines until a blank line or EOF, returning
// false only once the underlying reader is exhausted with nothing left
// to show.
func readSnippet(scanner *bufio.Scanner) (string, bool) {
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

func run(source string, out io.Writer) {
	prog, err := grammar.Parse("<repl>", source)
	if err != nil {
		color.New(color.FgRed).Fprintf(out, "syntax error: %s\n", err)
		return
	}

	checker := semantic.NewChecker(types.NewRegistry())
	diags := checker.Check(prog)
	if len(diags) > 0 {
		reporter := errors.NewErrorReporter("<repl>", source)
		for _, d := range diags {
			fmt.Fprint(out, reporter.Report(d))
		}
		if reporter.ErrorCount() > 0 {
			return
		}
	}

	mod := irgen.Lower(prog)
	pm := pass.NewManager(mod, 0)
	pass.RegisterStandard(pm)
	pm.RunAll()

	color.New(color.FgGreen).Fprintln(out, "-- IR --")
	fmt.Fprintln(out, ir.Print(mod))
}
