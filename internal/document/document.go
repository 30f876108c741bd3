// Package document provides the open-document model, URI handling, and
// line-ending reconciliation for text synchronized over LSP.
package document

import "strings"

// Document is an open text document, tracked verbatim as the client sends it.
type Document struct {
	URI        string
	Text       string
	Version    int32
	LanguageID string
}

// LineCount reports the number of lines in the document. A trailing newline
// does not start a new line; an empty document has zero lines.
func (d *Document) LineCount() int {
	if d.Text == "" {
		return 0
	}
	n := strings.Count(d.Text, "\n")
	if !strings.HasSuffix(d.Text, "\n") {
		n++
	}
	return n
}
