// Package lsp implements LSP protocol handlers.
package lsp

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"

	"isort-lsp/internal/isort"
	"isort-lsp/internal/server"
	"isort-lsp/internal/settings"
)

var (
	// serverInstance holds the global server instance
	// This is set by SetServer and accessed by handlers
	serverInstance interface{}
)

// SetServer sets the global server instance for handlers to access.
func SetServer(srv interface{}) {
	serverInstance = srv
}

// Initialize handles the LSP initialize request.
// This is the first request sent by the client and establishes the server capabilities.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (interface{}, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warning("server instance not available in Initialize")
		return nil, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		log.Infof("server CWD: %s", cwd)
	}

	srv.SetClientCapabilities(&params.Capabilities)
	if params.Trace != nil {
		srv.SetTrace(*params.Trace)
	}

	folders := make([]string, 0, len(params.WorkspaceFolders))
	for _, folder := range params.WorkspaceFolders {
		folders = append(folders, folder.URI)
	}
	srv.SetWorkspaceFolders(folders)

	workspaces, global, err := settings.Parse(params.InitializationOptions)
	if err != nil {
		logError(context, fmt.Sprintf("failed to parse initialization options: %v", err))
	}
	srv.Settings().Replace(workspaces, global)

	if payload, err := json.MarshalIndent(params.InitializationOptions, "", "    "); err == nil {
		log.Infof("settings used to run server:\n%s", payload)
	}

	// Probe the tool version for each workspace off the request path.
	go logToolInfo(context, srv)

	// Build server capabilities
	changeKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	falseVal := false

	capabilities := protocol.ServerCapabilities{
		// Text document synchronization
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
			WillSave:  &falseVal,
			Save: &protocol.SaveOptions{
				IncludeText: &falseVal,
			},
		},

		// Code actions: organize imports plus the diagnostic quick fix.
		// Edits are resolved lazily via codeAction/resolve.
		CodeActionProvider: &protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{
				protocol.CodeActionKindSourceOrganizeImports,
				protocol.CodeActionKindQuickFix,
			},
			ResolveProvider: &trueVal,
		},
	}

	// Build and return InitializeResult
	serverVersion := "0.1.0"

	result := protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    "isort-lsp",
			Version: &serverVersion,
		},
	}

	return result, nil
}

// Initialized handles the initialized notification from the client.
// This is sent after the initialize response, signaling that the client is ready.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

// Shutdown handles the shutdown request.
// The client sends this to ask the server to shut down gracefully.
func Shutdown(context *glsp.Context) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		return nil
	}

	srv.SetShuttingDown()
	srv.Documents().Clear()
	srv.Runner().Shutdown()

	return nil
}

// Exit handles the exit notification.
func Exit(context *glsp.Context) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		return nil
	}

	srv.Runner().Shutdown()

	return nil
}

// SetTrace handles the $/setTrace notification.
func SetTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		return nil
	}

	srv.SetTrace(params.Value)

	return nil
}

// logToolInfo probes the tool installation for every registered workspace,
// bounded by the worker ceiling.
func logToolInfo(context *glsp.Context, srv *server.Server) {
	group := new(errgroup.Group)
	group.SetLimit(server.MaxWorkers)

	for _, workspace := range srv.Settings().All() {
		group.Go(func() error {
			logVersionInfo(context, srv, workspace)
			logVerboseConfig(srv, workspace)
			return nil
		})
	}

	_ = group.Wait()
}

// logVersionInfo runs the tool's version probe for one workspace and reports
// whether the installed version is supported.
func logVersionInfo(context *glsp.Context, srv *server.Server, workspace settings.Settings) {
	result, err := srv.Runner().Run(workspace, []string{"--version-number"})
	if err != nil {
		log.Errorf("error while detecting %s version: %v", isort.Display, err)
		return
	}
	if result == nil || result.Stdout == "" {
		return
	}

	log.Infof("version info for %s running for %s: %s", isort.Display, workspace.WorkspaceFS, result.Stdout)

	version := isort.ParseVersion(result.Stdout)
	if !isort.IsSupportedVersion(version) {
		logError(context, fmt.Sprintf(
			"version of %s running for %s is not supported: supported %s>=%s, found %s==%s",
			isort.Display, workspace.WorkspaceFS, isort.Module, isort.MinVersion, isort.Module, version))
		return
	}

	log.Infof("supported %s>=%s, found %s==%s", isort.Module, isort.MinVersion, isort.Module, version)
}

// logVerboseConfig dumps the tool's effective configuration for one
// workspace when verbose tracing is on.
func logVerboseConfig(srv *server.Server, workspace settings.Settings) {
	if srv.Trace() != protocol.TraceValueVerbose {
		return
	}

	result, err := srv.Runner().Run(workspace, []string{"--show-config"})
	if err != nil {
		log.Errorf("error while getting %s config: %v", isort.Display, err)
		return
	}
	if result != nil {
		log.Infof("config details for %s running for %s: %s", isort.Display, workspace.WorkspaceFS, result.Stdout)
	}
}
