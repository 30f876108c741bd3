// Package lsp implements LSP protocol handlers.
package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/document"
	"isort-lsp/internal/isort"
	"isort-lsp/internal/server"
)

// PublishDiagnostics sends diagnostic information to the client for a
// specific document. A nil slice is published as an empty list, which clears
// the document's entries in the editor.
func PublishDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if context == nil || context.Notify == nil {
		log.Warning("cannot publish diagnostics, context or Notify is nil")
		return
	}

	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	log.Debugf("publishing %d diagnostic(s) for %s", len(diagnostics), uri)

	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// lintDocument runs the tool in check mode and translates its report into
// diagnostics. Disabled checks and skipped documents yield an empty list.
func lintDocument(context *glsp.Context, srv *server.Server, doc *document.Document) []protocol.Diagnostic {
	workspace := srv.Settings().ByDocument(doc)

	if !workspace.Check {
		// If sorting check is disabled, return empty diagnostics.
		return []protocol.Diagnostic{}
	}

	srv.AcquireWorker()
	defer srv.ReleaseWorker()

	result, err := srv.Runner().RunOnDocument(doc, workspace, []string{"--check"}, true)
	if err != nil {
		logError(context, fmt.Sprintf("%s check failed with error: %v", isort.Display, err))
		return []protocol.Diagnostic{}
	}
	if result == nil {
		return []protocol.Diagnostic{}
	}
	if result.Exception != "" {
		notifyError(context, result.Exception)
	}
	if result.Stderr == "" {
		return []protocol.Diagnostic{}
	}

	return isort.ParseCheckOutput(doc, result.Stderr, workspace.Severity)
}

// lintAndPublish recomputes and publishes diagnostics for a document.
func lintAndPublish(context *glsp.Context, srv *server.Server, doc *document.Document) {
	PublishDiagnostics(context, doc.URI, lintDocument(context, srv, doc))
}
