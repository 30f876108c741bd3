package lsp

import (
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/document"
	"isort-lsp/internal/isort"
	"isort-lsp/internal/settings"
)

func TestInitialize(t *testing.T) {
	stub := &stubRunner{runResult: &isort.Result{Stdout: "5.13.2\n"}}
	srv := setupTestServer(stub, nil)

	// Create test parameters
	clientName := "test-client"
	clientVersion := "1.0.0"
	trace := protocol.TraceValueMessage

	params := &protocol.InitializeParams{
		ProcessID: nil,
		ClientInfo: &struct {
			Name    string  `json:"name"`
			Version *string `json:"version,omitempty"`
		}{
			Name:    clientName,
			Version: &clientVersion,
		},
		Capabilities: protocol.ClientCapabilities{},
		Trace:        &trace,
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: testWorkspaceURI, Name: "project"},
		},
		InitializationOptions: map[string]any{
			"settings": []any{
				map[string]any{
					"workspace": testWorkspaceURI,
					"check":     true,
					"args":      []any{"--profile", "black"},
				},
			},
			"globalSettings": map[string]any{
				"showNotifications": "onError",
			},
		},
	}

	ctx := &glsp.Context{}

	result, err := Initialize(ctx, params)
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if result == nil {
		t.Fatal("Initialize returned nil result")
	}

	initResult, ok := result.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("Initialize returned wrong type: %T", result)
	}

	// Verify ServerInfo
	if initResult.ServerInfo == nil {
		t.Error("ServerInfo is nil")
	} else {
		if initResult.ServerInfo.Name != "isort-lsp" {
			t.Errorf("ServerInfo.Name = %q, want %q", initResult.ServerInfo.Name, "isort-lsp")
		}
		if initResult.ServerInfo.Version == nil {
			t.Error("ServerInfo.Version is nil")
		} else if *initResult.ServerInfo.Version != "0.1.0" {
			t.Errorf("ServerInfo.Version = %q, want %q", *initResult.ServerInfo.Version, "0.1.0")
		}
	}

	caps := initResult.Capabilities

	// Test TextDocumentSync
	if syncOpts, ok := caps.TextDocumentSync.(protocol.TextDocumentSyncOptions); ok {
		if syncOpts.OpenClose == nil || !*syncOpts.OpenClose {
			t.Error("TextDocumentSync.OpenClose should be true")
		}
		if syncOpts.Change == nil || *syncOpts.Change != protocol.TextDocumentSyncKindIncremental {
			t.Error("TextDocumentSync.Change should be Incremental")
		}
		if syncOpts.Save == nil {
			t.Error("TextDocumentSync.Save should be set")
		}
	} else {
		t.Errorf("TextDocumentSync has wrong type: %T", caps.TextDocumentSync)
	}

	// Test CodeActionProvider
	if actionOpts, ok := caps.CodeActionProvider.(*protocol.CodeActionOptions); ok {
		if !slices.Contains(actionOpts.CodeActionKinds, protocol.CodeActionKindSourceOrganizeImports) {
			t.Error("CodeActionProvider should advertise organize imports")
		}
		if !slices.Contains(actionOpts.CodeActionKinds, protocol.CodeActionKindQuickFix) {
			t.Error("CodeActionProvider should advertise quick fix")
		}
		if actionOpts.ResolveProvider == nil || !*actionOpts.ResolveProvider {
			t.Error("CodeActionProvider should support resolve")
		}
	} else {
		t.Errorf("CodeActionProvider has wrong type: %T", caps.CodeActionProvider)
	}

	// Verify client state was captured
	if srv.Trace() != protocol.TraceValueMessage {
		t.Errorf("trace = %q, want %q", srv.Trace(), protocol.TraceValueMessage)
	}
	if folders := srv.GetWorkspaceFolders(); !slices.Equal(folders, []string{testWorkspaceURI}) {
		t.Errorf("workspace folders = %v", folders)
	}
	if srv.GetClientCapabilities() == nil {
		t.Error("client capabilities were not stored")
	}

	// Verify the settings table was rebuilt from initialization options
	workspaces := srv.Settings().All()
	if len(workspaces) != 1 {
		t.Fatalf("got %d workspaces, want 1", len(workspaces))
	}
	if workspaces[0].WorkspaceURI != testWorkspaceURI {
		t.Errorf("workspace URI = %q", workspaces[0].WorkspaceURI)
	}
	if !workspaces[0].Check {
		t.Error("workspace check setting should be true")
	}
	if !slices.Equal(workspaces[0].Args, []string{"--profile", "black"}) {
		t.Errorf("workspace args = %v", workspaces[0].Args)
	}
	if srv.Settings().Global().ShowNotifications != "onError" {
		t.Errorf("global showNotifications = %q", srv.Settings().Global().ShowNotifications)
	}

	// The version probe runs in the background; wait for it to hit the stub
	deadline := time.Now().Add(2 * time.Second)
	for len(stub.probeCalls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	probes := stub.probeCalls()
	if len(probes) != 1 {
		t.Fatalf("got %d version probes, want 1", len(probes))
	}
	if !slices.Equal(probes[0], []string{"--version-number"}) {
		t.Errorf("probe args = %v", probes[0])
	}
}

func TestInitialize_NoOptions(t *testing.T) {
	stub := &stubRunner{}
	srv := setupTestServer(stub, nil)

	result, err := Initialize(&glsp.Context{}, &protocol.InitializeParams{
		Capabilities: protocol.ClientCapabilities{},
	})
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if result == nil {
		t.Fatal("Initialize returned nil result")
	}

	// Without client settings the server registers its own working directory.
	workspaces := srv.Settings().All()
	if len(workspaces) != 1 {
		t.Fatalf("got %d workspaces, want 1", len(workspaces))
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if workspaces[0].WorkspaceFS != settings.NormalizePath(cwd) {
		t.Errorf("fallback workspace = %q, want %q", workspaces[0].WorkspaceFS, cwd)
	}
}

func TestInitialized(t *testing.T) {
	params := &protocol.InitializedParams{}
	ctx := &glsp.Context{}

	err := Initialized(ctx, params)
	if err != nil {
		t.Fatalf("Initialized returned error: %v", err)
	}
}

func TestShutdown(t *testing.T) {
	stub := &stubRunner{}
	srv := setupTestServer(stub, nil)

	srv.Documents().Set(testDocumentURI, &document.Document{
		URI:     testDocumentURI,
		Text:    unsortedSource,
		Version: 1,
	})

	if _, ok := srv.Documents().Get(testDocumentURI); !ok {
		t.Fatal("Document should exist before shutdown")
	}

	err := Shutdown(&glsp.Context{})
	if err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	if !srv.IsShuttingDown() {
		t.Error("Server should be marked as shutting down")
	}
	if len(srv.Documents().List()) != 0 {
		t.Error("Document store should be cleared after shutdown")
	}
	if stub.shutdownCalls() != 1 {
		t.Errorf("runner shutdown called %d times, want 1", stub.shutdownCalls())
	}
}

func TestExit(t *testing.T) {
	stub := &stubRunner{}
	setupTestServer(stub, nil)

	err := Exit(&glsp.Context{})
	if err != nil {
		t.Fatalf("Exit returned error: %v", err)
	}

	if stub.shutdownCalls() != 1 {
		t.Errorf("runner shutdown called %d times, want 1", stub.shutdownCalls())
	}
}

func TestSetTrace(t *testing.T) {
	stub := &stubRunner{}
	srv := setupTestServer(stub, nil)

	err := SetTrace(&glsp.Context{}, &protocol.SetTraceParams{Value: protocol.TraceValueVerbose})
	if err != nil {
		t.Fatalf("SetTrace returned error: %v", err)
	}

	if srv.Trace() != protocol.TraceValueVerbose {
		t.Errorf("trace = %q, want verbose", srv.Trace())
	}
}

func TestLogVersionInfo_UnsupportedVersion(t *testing.T) {
	t.Setenv(NotificationEnv, NotifyAlways)

	stub := &stubRunner{runResult: &isort.Result{Stdout: "4.3.21\n"}}
	srv := setupTestServer(stub, nil)

	ctx, recorder := newRecordingContext()

	logVersionInfo(ctx, srv, srv.Settings().All()[0])

	messages := recorder.shownMessages()
	if len(messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(messages))
	}
	if messages[0].Type != protocol.MessageTypeError {
		t.Errorf("notification type = %v, want error", messages[0].Type)
	}
	if !strings.Contains(messages[0].Message, "not supported") {
		t.Errorf("notification message = %q", messages[0].Message)
	}
}

func TestLogVersionInfo_ProbeFailure(t *testing.T) {
	t.Setenv(NotificationEnv, NotifyAlways)

	stub := &stubRunner{runErr: os.ErrNotExist}
	srv := setupTestServer(stub, nil)

	ctx, recorder := newRecordingContext()

	// Probe failures are logged but never notified.
	logVersionInfo(ctx, srv, srv.Settings().All()[0])

	if messages := recorder.shownMessages(); len(messages) != 0 {
		t.Errorf("got %d notifications, want 0", len(messages))
	}
}
