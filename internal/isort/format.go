package isort

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/document"
)

// droppedFormatArgs are settings arguments stripped from format-mode runs:
// they would suppress or corrupt the rewritten source on stdout.
var droppedFormatArgs = []string{"--diff", "-h", "--help", "--version", "--overwrite-in-place"}

// FilterArgs removes arguments that are incompatible with capturing the
// formatted source from stdout.
func FilterArgs(args []string) []string {
	filtered := make([]string, 0, len(args))
	for _, arg := range args {
		dropped := false
		for _, d := range droppedFormatArgs {
			if arg == d {
				dropped = true
				break
			}
		}
		if !dropped {
			filtered = append(filtered, arg)
		}
	}
	return filtered
}

// BuildEdits converts a format-mode run into a whole-document replacement.
// Nil means no edit: a skipped run, empty output, error output, or text
// that already matches the document.
func BuildEdits(doc *document.Document, result *Result) []protocol.TextEdit {
	if result == nil || result.Stdout == "" {
		return nil
	}
	if hasErrorOutput(result.Stderr) {
		log.Warningf("discarding formatted output for %s due to errors on stderr", doc.URI)
		return nil
	}

	newSource := doc.MatchLineEndings(result.Stdout)
	if _, kind := document.Locate(doc.URI); kind == document.KindNotebookCell {
		// The tool appends a final newline, but notebook cells are stored
		// without one; keeping it would grow the cell on every format.
		newSource = document.TrimFinalLineEnding(newSource)
	}

	if newSource == doc.Text {
		return nil
	}

	return []protocol.TextEdit{{
		Range:   WholeDocumentRange(doc),
		NewText: newSource,
	}}
}

// WholeDocumentRange spans the entire document, for full-replacement edits.
func WholeDocumentRange(doc *document.Document) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: protocol.UInteger(doc.LineCount()), Character: 0},
	}
}

// hasErrorOutput reports whether stderr carries a tool error rather than
// informational chatter.
func hasErrorOutput(stderr string) bool {
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(line, "ERROR") || strings.HasPrefix(line, "Traceback") {
			return true
		}
	}
	return false
}
