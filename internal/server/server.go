// Package server provides the core LSP server state and management.
package server

import (
	"context"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/semaphore"

	"isort-lsp/internal/document"
	"isort-lsp/internal/isort"
	"isort-lsp/internal/settings"
)

// MaxWorkers caps the number of concurrent tool invocations.
const MaxWorkers = 5

// ToolRunner executes the formatting tool. The concrete implementation
// spawns subprocesses; tests substitute a stub.
type ToolRunner interface {
	RunOnDocument(doc *document.Document, s settings.Settings, extra []string, useStdin bool) (*isort.Result, error)
	Run(s settings.Settings, extra []string) (*isort.Result, error)
	IsStdlibFile(path string) bool
	Shutdown()
}

// Server holds the state of the LSP server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// registry holds per-workspace tool settings
	registry *settings.Registry

	// runner executes the tool as a subprocess or over JSON-RPC
	runner ToolRunner

	// workers bounds concurrent tool runs
	workers *semaphore.Weighted

	// workspaceFolders stores the workspace folders from the client
	workspaceFolders []string

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	// trace controls $/logTrace verbosity
	trace protocol.TraceValue

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

// New creates a new LSP server instance.
func New() *Server {
	return &Server{
		documents: NewDocumentStore(),
		registry:  settings.NewRegistry(),
		runner:    isort.NewRunner(),
		workers:   semaphore.NewWeighted(MaxWorkers),
		trace:     protocol.TraceValueOff,
	}
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Settings returns the workspace settings registry.
func (s *Server) Settings() *settings.Registry {
	return s.registry
}

// Runner returns the tool runner.
func (s *Server) Runner() ToolRunner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runner
}

// SetRunner replaces the tool runner.
func (s *Server) SetRunner(r ToolRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = r
}

// AcquireWorker blocks until a tool worker slot is free.
func (s *Server) AcquireWorker() {
	// The weighted semaphore only fails on context cancellation.
	_ = s.workers.Acquire(context.Background(), 1)
}

// ReleaseWorker returns a tool worker slot.
func (s *Server) ReleaseWorker() {
	s.workers.Release(1)
}

// Trace returns the current trace value.
func (s *Server) Trace() protocol.TraceValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trace
}

// SetTrace sets the trace value.
func (s *Server) SetTrace(value protocol.TraceValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = value
}

// SetWorkspaceFolders sets the workspace folders.
func (s *Server) SetWorkspaceFolders(folders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaceFolders = folders
}

// GetWorkspaceFolders returns the workspace folders.
func (s *Server) GetWorkspaceFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspaceFolders
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}
