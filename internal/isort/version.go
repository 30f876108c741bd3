package isort

import (
	"strings"

	"golang.org/x/mod/semver"
)

// ParseVersion extracts the version from a --version-number run, which
// prints the bare version on its first stdout line.
func ParseVersion(output string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(line)
}

// IsSupportedVersion reports whether a tool version satisfies MinVersion.
// Unparseable versions count as unsupported.
func IsSupportedVersion(version string) bool {
	v := canonicalVersion(version)
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, canonicalVersion(MinVersion)) >= 0
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
