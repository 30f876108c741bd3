package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"isort-lsp/internal/lsp"
	"isort-lsp/internal/server"
)

const (
	serverName = "isort-lsp"
	version    = "0.1.0"
)

var (
	tcpMode  bool
	tcpPort  int
	logLevel string
	logFile  string
)

func init() {
	// Command-line flags
	flag.BoolVar(&tcpMode, "tcp", false, "Run server in TCP mode (for debugging)")
	flag.IntVar(&tcpPort, "port", 8765, "TCP port to listen on (used with -tcp)")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s version %s\n\n", serverName, version)
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", serverName)
	fmt.Fprintf(os.Stderr, "Language Server Protocol implementation for the isort import sorter\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	// Print version if requested
	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	setupLogging()

	// Initialize server state
	srv := server.New()

	// Create GLSP handler
	handler := protocol.Handler{
		Initialize:  lsp.Initialize,
		Initialized: lsp.Initialized,
		Shutdown:    lsp.Shutdown,
		Exit:        lsp.Exit,
		SetTrace:    lsp.SetTrace,

		TextDocumentDidOpen:   lsp.DidOpen,
		TextDocumentDidChange: lsp.DidChange,
		TextDocumentDidSave:   lsp.DidSave,
		TextDocumentDidClose:  lsp.DidClose,

		TextDocumentCodeAction: lsp.CodeAction,
		CodeActionResolve:      lsp.CodeActionResolve,

		WorkspaceDidChangeConfiguration: lsp.DidChangeConfiguration,
	}

	// Create GLSP server
	glspServer := glspserver.NewServer(&handler, serverName, logLevel == "debug")

	// Store our server instance for handler access
	lsp.SetServer(srv)

	// Start server with appropriate transport
	if tcpMode {
		fmt.Fprintf(os.Stderr, "%s version %s listening on TCP port %d\n", serverName, version, tcpPort)
		if err := glspServer.RunTCP(fmt.Sprintf("127.0.0.1:%d", tcpPort)); err != nil {
			log.Fatalf("TCP server error: %v", err)
		}
	} else {
		if err := glspServer.RunStdio(); err != nil {
			log.Fatalf("STDIO server error: %v", err)
		}
	}
}

// setupLogging configures the logging backend from the command-line flags.
// Protocol traffic uses stdout in STDIO mode, so logs go to stderr unless a
// file is given.
func setupLogging() {
	verbosity := 0
	switch logLevel {
	case "debug":
		verbosity = 2
	case "info":
		verbosity = 1
	}

	var path *string
	if logFile != "" {
		path = &logFile
	}

	commonlog.Configure(verbosity, path)
}
