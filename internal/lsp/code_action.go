// Package lsp implements LSP protocol handlers.
package lsp

import (
	"fmt"
	"slices"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/document"
	"isort-lsp/internal/isort"
	"isort-lsp/internal/server"
)

const (
	organizeImportsTitle = "isort: Organize Imports"
	fixSortingTitle      = "isort: Fix import sorting and/or formatting"
)

// CodeAction handles the textDocument/codeAction request.
//
// The editor's Organize Imports command asks for exactly the organize kind;
// that case computes the edit eagerly. Every other request gets lightweight
// action stubs carrying only the document URI, resolved on demand via
// codeAction/resolve.
func CodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in CodeAction")
		return nil, nil
	}

	uri := params.TextDocument.URI

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Warningf("document not found for code action: %s", uri)
		return nil, nil
	}

	path, _ := document.Locate(doc.URI)
	if srv.Runner().IsStdlibFile(path) {
		// Don't format standard library files.
		return nil, nil
	}

	organizeKind := protocol.CodeActionKindSourceOrganizeImports
	quickFixKind := protocol.CodeActionKindQuickFix

	only := params.Context.Only
	if len(only) == 1 && only[0] == organizeKind {
		edits := formatDocument(context, srv, doc)
		if len(edits) > 0 {
			// The edit addresses the sorting issues, so clear the entries.
			PublishDiagnostics(context, uri, nil)
			return []protocol.CodeAction{
				{
					Title:       organizeImportsTitle,
					Kind:        &organizeKind,
					Data:        uri,
					Edit:        workspaceEditFor(doc, edits),
					Diagnostics: []protocol.Diagnostic{},
				},
			}, nil
		}
	}

	var actions []protocol.CodeAction

	if len(only) == 0 || slices.Contains(only, organizeKind) {
		actions = append(actions, protocol.CodeAction{
			Title:       organizeImportsTitle,
			Kind:        &organizeKind,
			Data:        uri,
			Diagnostics: []protocol.Diagnostic{},
		})
	}

	if len(only) == 0 || slices.Contains(only, quickFixKind) {
		diagnostics := toolDiagnostics(params.Context.Diagnostics)
		if len(diagnostics) > 0 {
			actions = append(actions, protocol.CodeAction{
				Title:       fixSortingTitle,
				Kind:        &quickFixKind,
				Data:        uri,
				Diagnostics: diagnostics,
			})
		}
	}

	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// CodeActionResolve handles the codeAction/resolve request, computing the
// deferred edit for a previously returned action stub.
func CodeActionResolve(context *glsp.Context, params *protocol.CodeAction) (*protocol.CodeAction, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in CodeActionResolve")
		return params, nil
	}

	uri, ok := params.Data.(string)
	if !ok {
		log.Warningf("code action carries no document token: %v", params.Data)
		return params, nil
	}

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Warningf("document not found for code action resolve: %s", uri)
		return params, nil
	}

	edits := formatDocument(context, srv, doc)
	if len(edits) > 0 {
		// The edit addresses the sorting issues, so clear the entries.
		PublishDiagnostics(context, uri, nil)
	} else {
		// No change, possibly because the tool failed. Return the original
		// text as is and leave the diagnostics in place.
		edits = []protocol.TextEdit{
			{
				Range:   isort.WholeDocumentRange(doc),
				NewText: doc.Text,
			},
		}
	}

	params.Edit = workspaceEditFor(doc, edits)

	return params, nil
}

// formatDocument runs the tool in format mode and builds the resulting
// whole-document edit, if any.
func formatDocument(context *glsp.Context, srv *server.Server, doc *document.Document) []protocol.TextEdit {
	workspace := srv.Settings().ByDocument(doc)
	workspace.Args = isort.FilterArgs(workspace.Args)

	srv.AcquireWorker()
	defer srv.ReleaseWorker()

	result, err := srv.Runner().RunOnDocument(doc, workspace, nil, true)
	if err != nil {
		logError(context, fmt.Sprintf("%s formatting failed with error: %v", isort.Display, err))
		return nil
	}
	if result != nil && result.Exception != "" {
		notifyError(context, result.Exception)
	}

	return isort.BuildEdits(doc, result)
}

// toolDiagnostics keeps only the diagnostics this server produced.
func toolDiagnostics(diagnostics []protocol.Diagnostic) []protocol.Diagnostic {
	var matched []protocol.Diagnostic
	for _, d := range diagnostics {
		if isort.IsToolDiagnostic(d) {
			matched = append(matched, d)
		}
	}
	return matched
}

// workspaceEditFor packages whole-document edits as a versioned workspace
// edit for the given document.
func workspaceEditFor(doc *document.Document, edits []protocol.TextEdit) *protocol.WorkspaceEdit {
	version := doc.Version

	return &protocol.WorkspaceEdit{
		DocumentChanges: []any{
			protocol.TextDocumentEdit{
				TextDocument: protocol.OptionalVersionedTextDocumentIdentifier{
					TextDocumentIdentifier: protocol.TextDocumentIdentifier{
						URI: doc.URI,
					},
					Version: &version,
				},
				Edits: convertToEdits(edits),
			},
		},
	}
}

// convertToEdits converts []protocol.TextEdit to []interface{} as required by the protocol.
func convertToEdits(textEdits []protocol.TextEdit) []any {
	edits := make([]any, len(textEdits))
	for i, edit := range textEdits {
		edits[i] = edit
	}

	return edits
}
