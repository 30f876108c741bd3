// Package settings resolves per-workspace configuration for tool runs.
package settings

import (
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
)

// Settings is the resolved configuration for one workspace root.
//
// WorkspaceFS is the normalized filesystem path of WorkspaceURI and is
// derived server-side, never read from the wire.
type Settings struct {
	WorkspaceURI      string            `json:"workspace"`
	WorkspaceFS       string            `json:"-"`
	Cwd               string            `json:"cwd,omitempty"`
	Path              []string          `json:"path"`
	Interpreter       []string          `json:"interpreter"`
	Args              []string          `json:"args"`
	Check             bool              `json:"check"`
	Severity          map[string]string `json:"severity"`
	ImportStrategy    string            `json:"importStrategy"`
	ShowNotifications string            `json:"showNotifications"`
}

// Defaults returns the built-in settings used when the client provides none.
// An empty interpreter means the server's own Python is used.
func Defaults() Settings {
	return Settings{
		Check:             false,
		Severity:          map[string]string{"E": "Hint", "W": "Warning"},
		ImportStrategy:    "useBundled",
		ShowNotifications: "off",
	}
}

// Clone returns a deep copy, so transient mutation during one request cannot
// leak into the shared table.
func (s Settings) Clone() Settings {
	c := s
	c.Path = slices.Clone(s.Path)
	c.Interpreter = slices.Clone(s.Interpreter)
	c.Args = slices.Clone(s.Args)
	c.Severity = maps.Clone(s.Severity)
	return c
}

// wireSettings mirrors one settings object as the client sends it. Pointer
// fields distinguish absent keys from zero values.
type wireSettings struct {
	Workspace         *string            `json:"workspace"`
	Cwd               *string            `json:"cwd"`
	Path              *[]string          `json:"path"`
	Interpreter       *[]string          `json:"interpreter"`
	Args              *[]string          `json:"args"`
	Check             *bool              `json:"check"`
	Severity          *map[string]string `json:"severity"`
	ImportStrategy    *string            `json:"importStrategy"`
	ShowNotifications *string            `json:"showNotifications"`
}

func (w *wireSettings) apply(s *Settings) {
	if w.Workspace != nil {
		s.WorkspaceURI = *w.Workspace
	}
	if w.Cwd != nil {
		s.Cwd = *w.Cwd
	}
	if w.Path != nil {
		s.Path = slices.Clone(*w.Path)
	}
	if w.Interpreter != nil {
		s.Interpreter = slices.Clone(*w.Interpreter)
	}
	if w.Args != nil {
		s.Args = slices.Clone(*w.Args)
	}
	if w.Check != nil {
		s.Check = *w.Check
	}
	if w.Severity != nil {
		s.Severity = maps.Clone(*w.Severity)
	}
	if w.ImportStrategy != nil {
		s.ImportStrategy = *w.ImportStrategy
	}
	if w.ShowNotifications != nil {
		s.ShowNotifications = *w.ShowNotifications
	}
}

// Parse decodes an initializationOptions or configuration payload. The
// payload arrives untyped from the protocol layer, so it is re-encoded and
// decoded into typed form. Keys absent from globalSettings keep their
// built-in defaults; keys absent from a workspace entry fall back to the
// merged global settings.
func Parse(options any) ([]Settings, Settings, error) {
	global := Defaults()
	if options == nil {
		return nil, global, nil
	}

	raw, err := json.Marshal(options)
	if err != nil {
		return nil, global, fmt.Errorf("encode settings payload: %w", err)
	}

	var payload struct {
		Settings       []wireSettings `json:"settings"`
		GlobalSettings *wireSettings  `json:"globalSettings"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, global, fmt.Errorf("decode settings payload: %w", err)
	}

	if payload.GlobalSettings != nil {
		payload.GlobalSettings.apply(&global)
	}

	entries := make([]Settings, 0, len(payload.Settings))
	for i := range payload.Settings {
		entry := global.Clone()
		payload.Settings[i].apply(&entry)
		entries = append(entries, entry)
	}
	return entries, global, nil
}

// NormalizePath canonicalizes a filesystem path for use as a registry key.
func NormalizePath(path string) string {
	return filepath.Clean(path)
}
