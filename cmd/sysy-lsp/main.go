// Command sysy-lsp is the diagnostics-only language server spec.md
// §6.2 names: it re-parses and re-checks a file on every open/change
// and publishes internal/errors diagnostics over LSP, wired exactly
// the way the teacher's own cmd/kanso-lsp wires tliron/commonlog and
// tliron/glsp's server.
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"sysycc/internal/lsp"
)

const lsName = "sysy-lsp"

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewHandler()
	handler := protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		SetTrace:              h.SetTrace,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidChange: h.TextDocumentDidChange,
		TextDocumentDidClose:  h.TextDocumentDidClose,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("starting sysy-lsp")
	if err := s.RunStdio(); err != nil {
		log.Println("sysy-lsp:", err)
		os.Exit(1)
	}
}
