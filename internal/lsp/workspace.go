// Package lsp implements LSP protocol handlers.
package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/server"
	"isort-lsp/internal/settings"
)

// DidChangeConfiguration handles workspace configuration changes from the
// client. The settings payload carries the same shape as the initialization
// options and replaces the registry wholesale.
func DidChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in DidChangeConfiguration")
		return nil
	}

	workspaces, global, err := settings.Parse(params.Settings)
	if err != nil {
		logError(context, fmt.Sprintf("failed to parse configuration change: %v", err))
		return nil
	}
	srv.Settings().Replace(workspaces, global)

	log.Debugf("configuration replaced for %d workspace(s)", len(srv.Settings().All()))

	return nil
}
