package document

import "strings"

// lineEnding reports the line terminator style of text, judged from its
// first line. Empty string means the style cannot be determined.
func lineEnding(text string) string {
	if text == "" {
		return ""
	}
	idx := strings.IndexByte(text, '\n')
	if idx > 0 && text[idx-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// MatchLineEndings rewrites the line endings of text to match the document.
// When either style cannot be determined the text is returned unchanged.
func (d *Document) MatchLineEndings(text string) string {
	expected := lineEnding(d.Text)
	actual := lineEnding(text)
	if actual == expected || actual == "" || expected == "" {
		return text
	}
	return strings.ReplaceAll(text, actual, expected)
}

// TrimFinalLineEnding removes exactly one trailing line terminator.
func TrimFinalLineEnding(text string) string {
	if strings.HasSuffix(text, "\r\n") {
		return text[:len(text)-2]
	}
	return strings.TrimSuffix(text, "\n")
}
