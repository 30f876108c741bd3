package isort

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"isort-lsp/internal/document"
)

const (
	diagnosticSource  = "isort"
	diagnosticCode    = "E"
	diagnosticMessage = "Imports are incorrectly sorted and/or formatted."
)

// IsSortingError reports whether a line of check-mode output is the tool's
// import-order error signature.
func IsSortingError(line string) bool {
	return strings.HasPrefix(line, "ERROR") &&
		strings.Contains(strings.ToLower(line), "imports are incorrectly sorted")
}

// ParseCheckOutput translates check-mode output into diagnostics: at most
// one per document, anchored at the first import statement so the squiggle
// lands where the fix applies.
func ParseCheckOutput(doc *document.Document, output string, severity map[string]string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	sortingError := false
	for _, line := range strings.Split(output, "\n") {
		if IsSortingError(line) {
			sortingError = true
			break
		}
	}
	if !sortingError {
		return diagnostics
	}

	line := firstImportLine(doc.Text)
	sev := severityFor(diagnosticCode, severity)
	src := diagnosticSource
	diagnostics = append(diagnostics, protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line), Character: 0},
			End:   protocol.Position{Line: protocol.UInteger(line + 1), Character: 0},
		},
		Message:  diagnosticMessage,
		Severity: &sev,
		Code:     &protocol.IntegerOrString{Value: diagnosticCode},
		Source:   &src,
	})
	return diagnostics
}

// IsToolDiagnostic reports whether a diagnostic was produced by this
// package's check translation.
func IsToolDiagnostic(d protocol.Diagnostic) bool {
	return d.Source != nil && *d.Source == diagnosticSource &&
		d.Code != nil && d.Code.Value == diagnosticCode
}

// firstImportLine finds the first import statement, or line zero when the
// document has none.
func firstImportLine(text string) int {
	for i, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "import") || strings.HasPrefix(line, "from") {
			return i
		}
	}
	return 0
}

// severityFor maps a diagnostic code to its configured LSP severity.
// Unknown codes and unknown severity names fall back to Warning.
func severityFor(code string, severity map[string]string) protocol.DiagnosticSeverity {
	name := "Warning"
	if v, ok := severity[code]; ok {
		name = v
	}
	switch name {
	case "Error":
		return protocol.DiagnosticSeverityError
	case "Warning":
		return protocol.DiagnosticSeverityWarning
	case "Information":
		return protocol.DiagnosticSeverityInformation
	case "Hint":
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityWarning
	}
}
