package settings

import (
	"testing"

	"isort-lsp/internal/document"
)

const (
	testWorkspace = "/home/user/myproject"
	testDocPath   = "/home/user/myproject/src/foo.py"
)

func testResolveSettings(cwd string) Settings {
	s := Defaults()
	s.WorkspaceURI = document.URIFromPath(testWorkspace)
	s.WorkspaceFS = testWorkspace
	s.Cwd = cwd
	return s
}

func testResolveDoc() *document.Document {
	return &document.Document{URI: document.URIFromPath(testDocPath)}
}

func TestResolveCwd_WithDocument(t *testing.T) {
	tests := []struct {
		name string
		cwd  string
		want string
	}{
		{"no cwd falls back to workspace", "", testWorkspace},
		{"plain path unchanged", "/custom/path", "/custom/path"},
		{"file", "${file}", testDocPath},
		{"fileBasename", "${fileBasename}", "foo.py"},
		{"fileBasenameNoExtension", "${fileBasenameNoExtension}", "foo"},
		{"fileExtname", "${fileExtname}", ".py"},
		{"fileDirname", "${fileDirname}", "/home/user/myproject/src"},
		{"fileDirnameBasename", "${fileDirnameBasename}", "src"},
		{"relativeFile", "${relativeFile}", "src/foo.py"},
		{"relativeFileDirname", "${relativeFileDirname}", "src"},
		{"fileWorkspaceFolder", "${fileWorkspaceFolder}", testWorkspace},
		{"workspaceFolder", "${workspaceFolder}/tools", testWorkspace + "/tools"},
		{"composite", "${fileDirname}/subdir", "/home/user/myproject/src/subdir"},
		{"multiple tokens", "${fileDirname}/${fileBasenameNoExtension}", "/home/user/myproject/src/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCwd(testResolveSettings(tt.cwd), testResolveDoc())
			if got != tt.want {
				t.Errorf("ResolveCwd(%q) = %q, want %q", tt.cwd, got, tt.want)
			}
		})
	}
}

func TestResolveCwd_WithoutDocument(t *testing.T) {
	tests := []struct {
		name string
		cwd  string
		want string
	}{
		{"no cwd falls back to workspace", "", testWorkspace},
		{"plain path unchanged", "/custom/path", "/custom/path"},
		{"document token falls back to workspace", "${fileDirname}", testWorkspace},
		{"workspaceFolder still resolves", "${workspaceFolder}/tools", testWorkspace + "/tools"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCwd(testResolveSettings(tt.cwd), nil)
			if got != tt.want {
				t.Errorf("ResolveCwd(%q) = %q, want %q", tt.cwd, got, tt.want)
			}
		})
	}
}

func TestResolveCwd_DocumentWithoutPath(t *testing.T) {
	// Documents whose URI yields no usable path behave like no document.
	doc := &document.Document{URI: ""}
	got := ResolveCwd(testResolveSettings("${fileDirname}"), doc)
	if got != testWorkspace {
		t.Errorf("ResolveCwd = %q, want %q", got, testWorkspace)
	}
}
