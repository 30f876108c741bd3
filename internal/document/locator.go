package document

import (
	"net/url"
	"strings"
)

// Kind classifies how a document is treated for tool dispatch.
type Kind int

const (
	// KindFile is a regular filesystem-backed document.
	KindFile Kind = iota
	// KindNotebookCell is a cell inside a notebook; its path is the parent
	// notebook file.
	KindNotebookCell
	// KindInteractive is an interactive window document, excluded from all
	// tool runs.
	KindInteractive
)

const notebookCellScheme = "vscode-notebook-cell"

// Locate derives the filesystem path and kind for a document URI.
//
// Notebook cell URIs embed the parent notebook path plus a cell fragment;
// only the notebook path is usable for settings lookup and tool invocation,
// so the fragment is discarded. When no path can be derived the URI is
// returned unchanged and callers must not treat it as a file.
func Locate(uri string) (string, Kind) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" {
		return uri, kindForPath(uri)
	}

	switch parsed.Scheme {
	case "file":
		path := filePath(parsed)
		return path, kindForPath(path)
	case notebookCellScheme:
		return filePath(parsed), KindNotebookCell
	default:
		return uri, kindForPath(uri)
	}
}

// PathFromURI converts a file URI to a filesystem path, or returns the
// input unchanged when it is not a file URI.
func PathFromURI(uri string) string {
	path, _ := Locate(uri)
	return path
}

// URIFromPath converts an absolute filesystem path to a file URI.
func URIFromPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if !strings.HasPrefix(path, "/") {
		// Windows drive-letter paths need a third slash.
		return "file:///" + path
	}
	return "file://" + path
}

func kindForPath(path string) Kind {
	if strings.HasSuffix(path, ".interactive") {
		return KindInteractive
	}
	return KindFile
}

// filePath extracts the path component, undoing the leading slash that URI
// parsing leaves in front of Windows drive letters.
func filePath(u *url.URL) string {
	path := u.Path
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path
}
