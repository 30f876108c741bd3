package document

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ApplyContentChange applies a TextDocumentContentChangeEvent to the given
// text and returns the updated text. LSP positions are UTF-16 code unit
// offsets, so they are converted to byte offsets before splicing.
func ApplyContentChange(text string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}

	lines := strings.Split(text, "\n")

	startLine := int(change.Range.Start.Line)
	startChar := int(change.Range.Start.Character)
	endLine := int(change.Range.End.Line)
	endChar := int(change.Range.End.Character)

	if startLine < 0 || startLine >= len(lines) {
		return "", fmt.Errorf("start line %d out of range (0-%d)", startLine, len(lines)-1)
	}
	if endLine < 0 || endLine >= len(lines) {
		return "", fmt.Errorf("end line %d out of range (0-%d)", endLine, len(lines)-1)
	}
	if startLine > endLine {
		return "", fmt.Errorf("start line %d after end line %d", startLine, endLine)
	}

	startByteOffset, err := utf16CharOffsetToByteOffset(lines[startLine], startChar)
	if err != nil {
		return "", fmt.Errorf("invalid start position: %w", err)
	}
	endByteOffset, err := utf16CharOffsetToByteOffset(lines[endLine], endChar)
	if err != nil {
		return "", fmt.Errorf("invalid end position: %w", err)
	}

	var result strings.Builder
	for i := range startLine {
		result.WriteString(lines[i])
		result.WriteString("\n")
	}
	result.WriteString(lines[startLine][:startByteOffset])
	result.WriteString(change.Text)
	result.WriteString(lines[endLine][endByteOffset:])
	for i := endLine + 1; i < len(lines); i++ {
		result.WriteString("\n")
		result.WriteString(lines[i])
	}

	return result.String(), nil
}

// utf16CharOffsetToByteOffset converts a UTF-16 code unit offset to a UTF-8
// byte offset within the given line. Offsets one past the end of the line
// are allowed for insertions.
func utf16CharOffsetToByteOffset(line string, utf16Offset int) (int, error) {
	if utf16Offset == 0 {
		return 0, nil
	}

	utf16Units := utf16.Encode([]rune(line))
	if utf16Offset > len(utf16Units) {
		return 0, fmt.Errorf("UTF-16 offset %d exceeds line length %d", utf16Offset, len(utf16Units))
	}
	if utf16Offset == len(utf16Units) {
		return len(line), nil
	}

	byteOffset := 0
	utf16Count := 0
	for _, r := range line {
		if utf16Count >= utf16Offset {
			break
		}
		// Runes outside the BMP take a surrogate pair.
		if r <= 0xFFFF {
			utf16Count++
		} else {
			utf16Count += 2
		}
		byteOffset += utf8.RuneLen(r)
	}

	return byteOffset, nil
}
