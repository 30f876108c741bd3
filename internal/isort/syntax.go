package isort

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// nonSourcePrefixes start lines that are not Python but are understood by
// the tool: cell magics, line magics, and shell escapes. They are blanked
// before the parse attempt and left untouched in the payload itself.
var nonSourcePrefixes = []string{"%", "!"}

// IsPython reports whether code parses as Python source. Tool runs are
// skipped for documents that fail this gate, since their output would be
// untrustworthy.
func IsPython(code string) bool {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(blankNonSourceLines(code)))
	if err != nil {
		return false
	}
	defer tree.Close()

	root := tree.RootNode()
	return root != nil && !root.HasError()
}

func blankNonSourceLines(code string) string {
	lines := strings.Split(code, "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		for _, prefix := range nonSourcePrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				lines[i] = ""
				changed = true
				break
			}
		}
	}
	if !changed {
		return code
	}
	return strings.Join(lines, "\n")
}
