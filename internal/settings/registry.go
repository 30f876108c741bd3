package settings

import (
	"os"
	"path/filepath"
	"sync"

	"isort-lsp/internal/document"
)

// Registry maps workspace roots to their settings.
//
// The table is replaced wholesale on configuration changes; readers observe
// either the previous or the new complete table, never a mix. Every lookup
// returns a deep copy.
type Registry struct {
	mu     sync.RWMutex
	global Settings
	order  []string
	table  map[string]Settings
}

func NewRegistry() *Registry {
	return &Registry{
		global: Defaults(),
		table:  map[string]Settings{},
	}
}

// Replace installs a new settings table from a client payload. An empty
// payload registers the server's working directory under global defaults so
// that every later lookup still resolves.
func (r *Registry) Replace(entries []Settings, global Settings) {
	order := make([]string, 0, len(entries))
	table := make(map[string]Settings, len(entries))

	if len(entries) == 0 {
		key := NormalizePath(workingDir())
		entry := global.Clone()
		entry.WorkspaceURI = document.URIFromPath(key)
		entry.WorkspaceFS = key
		entry.Cwd = key
		order = append(order, key)
		table[key] = entry
	}

	for _, entry := range entries {
		key := NormalizePath(document.PathFromURI(entry.WorkspaceURI))
		entry.WorkspaceFS = key
		if _, seen := table[key]; !seen {
			order = append(order, key)
		}
		table[key] = entry
	}

	r.mu.Lock()
	r.global = global.Clone()
	r.order = order
	r.table = table
	r.mu.Unlock()
}

// ByDocument returns the settings governing a document, walking from the
// document's location toward the root until a registered workspace matches.
// Documents outside every workspace use the only workspace when exactly one
// is registered, and otherwise get a root synthesized from their parent
// directory with global defaults.
func (r *Registry) ByDocument(doc *document.Document) Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if doc == nil {
		return r.first()
	}
	path, _ := document.Locate(doc.URI)
	if path == "" {
		return r.first()
	}

	if key, ok := r.enclosingRoot(path); ok {
		return r.table[key].Clone()
	}
	if len(r.order) == 1 {
		return r.table[r.order[0]].Clone()
	}

	parent := NormalizePath(filepath.Dir(path))
	entry := r.global.Clone()
	entry.WorkspaceURI = document.URIFromPath(parent)
	entry.WorkspaceFS = parent
	entry.Cwd = parent
	return entry
}

// All returns a copy of every registered workspace's settings, in
// registration order.
func (r *Registry) All() []Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Settings, 0, len(r.order))
	for _, key := range r.order {
		all = append(all, r.table[key].Clone())
	}
	return all
}

// Global returns a copy of the merged global defaults.
func (r *Registry) Global() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.global.Clone()
}

// first returns the first registered workspace's settings; it is the
// fallback for lookups with no usable document. Callers hold r.mu.
func (r *Registry) first() Settings {
	if len(r.order) == 0 {
		return r.global.Clone()
	}
	return r.table[r.order[0]].Clone()
}

// enclosingRoot finds the nearest registered workspace containing path.
// Callers hold r.mu.
func (r *Registry) enclosingRoot(path string) (string, bool) {
	dir := NormalizePath(path)
	for {
		if _, ok := r.table[dir]; ok {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
