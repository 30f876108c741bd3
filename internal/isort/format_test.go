package isort

import (
	"slices"
	"testing"

	"isort-lsp/internal/document"
)

func TestFilterArgs(t *testing.T) {
	args := []string{"--profile", "black", "--diff", "--check-only", "-h", "--version", "--overwrite-in-place"}

	got := FilterArgs(args)

	want := []string{"--profile", "black", "--check-only"}
	if !slices.Equal(got, want) {
		t.Errorf("FilterArgs = %v, want %v", got, want)
	}
}

func TestFilterArgs_Empty(t *testing.T) {
	if got := FilterArgs(nil); len(got) != 0 {
		t.Errorf("FilterArgs(nil) = %v, want empty", got)
	}
}

func TestBuildEdits_ReplacesWholeDocument(t *testing.T) {
	doc := &document.Document{
		URI:  "file:///tmp/app.py",
		Text: "import sys\nimport os\n",
	}
	result := &Result{Stdout: "import os\nimport sys\n"}

	edits := BuildEdits(doc, result)
	if len(edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(edits))
	}

	edit := edits[0]
	if edit.NewText != "import os\nimport sys\n" {
		t.Errorf("new text = %q", edit.NewText)
	}
	if edit.Range.Start.Line != 0 || edit.Range.Start.Character != 0 {
		t.Errorf("range start = %v, want 0:0", edit.Range.Start)
	}
	if edit.Range.End.Line != 2 || edit.Range.End.Character != 0 {
		t.Errorf("range end = %v, want 2:0", edit.Range.End)
	}
}

func TestBuildEdits_NoRun(t *testing.T) {
	doc := &document.Document{URI: "file:///tmp/app.py", Text: "import os\n"}

	if edits := BuildEdits(doc, nil); edits != nil {
		t.Errorf("edits for skipped run = %v, want nil", edits)
	}
	if edits := BuildEdits(doc, &Result{}); edits != nil {
		t.Errorf("edits for empty output = %v, want nil", edits)
	}
}

func TestBuildEdits_AlreadyFormatted(t *testing.T) {
	doc := &document.Document{
		URI:  "file:///tmp/app.py",
		Text: "import os\nimport sys\n",
	}
	result := &Result{Stdout: "import os\nimport sys\n"}

	if edits := BuildEdits(doc, result); edits != nil {
		t.Errorf("edits for identical output = %v, want nil", edits)
	}
}

func TestBuildEdits_ErrorOutputDiscarded(t *testing.T) {
	doc := &document.Document{URI: "file:///tmp/app.py", Text: "import sys\nimport os\n"}
	result := &Result{
		Stdout: "garbage partial output",
		Stderr: "ERROR: something went wrong\n",
	}

	if edits := BuildEdits(doc, result); edits != nil {
		t.Errorf("edits despite error output = %v, want nil", edits)
	}

	result = &Result{
		Stdout: "garbage partial output",
		Stderr: "Traceback (most recent call last):\n  ...\n",
	}
	if edits := BuildEdits(doc, result); edits != nil {
		t.Errorf("edits despite traceback = %v, want nil", edits)
	}
}

func TestBuildEdits_RestoresDocumentLineEndings(t *testing.T) {
	doc := &document.Document{
		URI:  "file:///tmp/app.py",
		Text: "import sys\r\nimport os\r\n",
	}
	// The tool always emits LF on stdout.
	result := &Result{Stdout: "import os\nimport sys\n"}

	edits := BuildEdits(doc, result)
	if len(edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(edits))
	}
	if edits[0].NewText != "import os\r\nimport sys\r\n" {
		t.Errorf("new text = %q, want CRLF endings", edits[0].NewText)
	}
}

func TestBuildEdits_NotebookCellDropsFinalNewline(t *testing.T) {
	doc := &document.Document{
		URI:  "vscode-notebook-cell:/tmp/analysis.ipynb#W1sZmlsZQ",
		Text: "import sys\nimport os",
	}
	result := &Result{Stdout: "import os\nimport sys\n"}

	edits := BuildEdits(doc, result)
	if len(edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(edits))
	}
	if edits[0].NewText != "import os\nimport sys" {
		t.Errorf("new text = %q, want no trailing newline", edits[0].NewText)
	}
}

func TestBuildEdits_NotebookCellAlreadyFormatted(t *testing.T) {
	doc := &document.Document{
		URI:  "vscode-notebook-cell:/tmp/analysis.ipynb#W1sZmlsZQ",
		Text: "import os\nimport sys",
	}
	// Identical up to the trailing newline the tool appends.
	result := &Result{Stdout: "import os\nimport sys\n"}

	if edits := BuildEdits(doc, result); edits != nil {
		t.Errorf("edits for identical cell = %v, want nil", edits)
	}
}

func TestWholeDocumentRange(t *testing.T) {
	doc := &document.Document{Text: "import os\nimport sys\n"}

	r := WholeDocumentRange(doc)
	if r.Start.Line != 0 || r.Start.Character != 0 {
		t.Errorf("start = %v, want 0:0", r.Start)
	}
	if r.End.Line != 2 || r.End.Character != 0 {
		t.Errorf("end = %v, want 2:0", r.End)
	}
}
