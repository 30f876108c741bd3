package isort

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"plain", "5.13.2", "5.13.2"},
		{"trailing newline", "5.13.2\n", "5.13.2"},
		{"surrounding whitespace", "  5.13.2  \n", "5.13.2"},
		{"multiple lines", "5.13.2\nwarning: something\n", "5.13.2"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVersion(tt.output); got != tt.want {
				t.Errorf("ParseVersion(%q) = %q, want %q", tt.output, got, tt.want)
			}
		})
	}
}

func TestIsSupportedVersion(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"5.10.1", true},
		{"5.10.2", true},
		{"5.13.2", true},
		{"6.0.0", true},
		{"5.10.0", false},
		{"5.8.0", false},
		{"4.3.21", false},
		{"", false},
		{"not-a-version", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := IsSupportedVersion(tt.version); got != tt.want {
				t.Errorf("IsSupportedVersion(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}
