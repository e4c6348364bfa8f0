package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"sysycc/internal/errors"
)

// ConvertCompilerErrors transforms internal/errors.CompilerError
// diagnostics (spec.md §6.4's (file,line,column,message) contract)
// into LSP diagnostics for IDE display. Positions are 1-based in
// CompilerError, 0-based on the wire.
func ConvertCompilerErrors(diags []errors.CompilerError) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, d := range diags {
		length := d.Length
		if length <= 0 {
			length = 1
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      uint32(maxZero(d.Position.Line - 1)),
					Character: uint32(maxZero(d.Position.Column - 1)),
				},
				End: protocol.Position{
					Line:      uint32(maxZero(d.Position.Line - 1)),
					Character: uint32(maxZero(d.Position.Column - 1 + length)),
				},
			},
			Severity: ptrSeverity(severityOf(d.Level)),
			Source:   ptrString("sysycc"),
			Message:  d.Code + ": " + d.Message,
		})
	}
	return out
}

// ConvertSyntaxError wraps a plain parse error (grammar.Parse's own
// return, never a structured CompilerError) into a single diagnostic
// at the file's first line, since participle's error carries no
// position this package can parse back out without re-depending on
// participle itself.
func ConvertSyntaxError(err error) []protocol.Diagnostic {
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("sysycc-parser"),
		Message:  err.Error(),
	}}
}

func severityOf(level errors.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errors.Error:
		return protocol.DiagnosticSeverityError
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	case errors.Note:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func maxZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }
func ptrString(s string) *string                                            { return &s }
