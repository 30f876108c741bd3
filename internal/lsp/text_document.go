// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/document"
	"isort-lsp/internal/server"
)

// DidOpen handles the textDocument/didOpen notification.
// This is sent when a document is opened in the editor.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in DidOpen")
		return nil
	}

	doc := &document.Document{
		URI:        params.TextDocument.URI,
		Text:       params.TextDocument.Text,
		Version:    params.TextDocument.Version,
		LanguageID: params.TextDocument.LanguageID,
	}
	srv.Documents().Set(doc.URI, doc)

	log.Debugf("document opened: %s (version %d, language %s, %d bytes)",
		doc.URI, doc.Version, doc.LanguageID, len(doc.Text))

	lintAndPublish(context, srv, doc)

	return nil
}

// DidChange handles the textDocument/didChange notification.
// It supports both full and incremental sync modes. Checks run on open and
// save only, so the change is applied without republishing diagnostics.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in DidChange")
		return nil
	}

	uri := params.TextDocument.URI

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Warningf("document not found for didChange: %s", uri)
		return nil
	}

	newText := doc.Text

	for i, changeInterface := range params.ContentChanges {
		change, ok := changeInterface.(protocol.TextDocumentContentChangeEvent)
		if !ok {
			log.Warningf("invalid content change type at index %d for %s", i, uri)
			continue
		}

		if change.Range == nil {
			// Full sync mode: replace entire document text
			newText = change.Text
			continue
		}

		// Incremental sync mode: apply diff
		updatedText, err := document.ApplyContentChange(newText, change)
		if err != nil {
			log.Errorf("error applying incremental change to %s: %v", uri, err)
			continue
		}
		newText = updatedText
	}

	srv.Documents().Set(uri, &document.Document{
		URI:        uri,
		Text:       newText,
		Version:    params.TextDocument.Version,
		LanguageID: doc.LanguageID,
	})

	return nil
}

// DidSave handles the textDocument/didSave notification.
// This is sent when a document is saved in the editor.
func DidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in DidSave")
		return nil
	}

	uri := params.TextDocument.URI

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Warningf("document not found for didSave: %s", uri)
		return nil
	}

	lintAndPublish(context, srv, doc)

	return nil
}

// DidClose handles the textDocument/didClose notification.
// This is sent when a document is closed in the editor.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in DidClose")
		return nil
	}

	uri := params.TextDocument.URI

	srv.Documents().Delete(uri)

	log.Debugf("document closed: %s", uri)

	// Publishing empty diagnostics clears the entries for this file.
	PublishDiagnostics(context, uri, nil)

	return nil
}
