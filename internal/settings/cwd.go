package settings

import (
	"path/filepath"
	"strings"

	"isort-lsp/internal/document"
)

// documentVars are the substitution tokens that need a target document to
// resolve.
var documentVars = []string{
	"${file}",
	"${fileBasename}",
	"${fileBasenameNoExtension}",
	"${fileExtname}",
	"${fileDirname}",
	"${fileDirnameBasename}",
	"${relativeFile}",
	"${relativeFileDirname}",
	"${fileWorkspaceFolder}",
}

// ResolveCwd expands substitution tokens in the configured working
// directory. A template that needs a document when none is available, or an
// unset template, falls back to the workspace root.
func ResolveCwd(s Settings, doc *document.Document) string {
	cwd := s.Cwd
	if cwd == "" {
		return s.WorkspaceFS
	}

	var docPath string
	if doc != nil {
		docPath, _ = document.Locate(doc.URI)
	}
	if docPath == "" {
		if containsDocumentVar(cwd) {
			return s.WorkspaceFS
		}
		return strings.ReplaceAll(cwd, "${workspaceFolder}", s.WorkspaceFS)
	}

	dir := filepath.Dir(docPath)
	base := filepath.Base(docPath)
	ext := filepath.Ext(docPath)
	replacements := [][2]string{
		{"${file}", docPath},
		{"${fileBasename}", base},
		{"${fileBasenameNoExtension}", strings.TrimSuffix(base, ext)},
		{"${fileExtname}", ext},
		{"${fileDirname}", dir},
		{"${fileDirnameBasename}", filepath.Base(dir)},
		{"${relativeFile}", relativeTo(s.WorkspaceFS, docPath)},
		{"${relativeFileDirname}", relativeTo(s.WorkspaceFS, dir)},
		{"${fileWorkspaceFolder}", s.WorkspaceFS},
		{"${workspaceFolder}", s.WorkspaceFS},
	}
	for _, r := range replacements {
		cwd = strings.ReplaceAll(cwd, r[0], r[1])
	}
	return cwd
}

func containsDocumentVar(cwd string) bool {
	for _, v := range documentVars {
		if strings.Contains(cwd, v) {
			return true
		}
	}
	return false
}

func relativeTo(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}
