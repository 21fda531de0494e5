package logger

import "testing"

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain locator", "https://example.com/watch?v=abc", "https://example.com/watch?v=abc"},
		{"newline injection", "title\nERROR: forged", "title\\nERROR: forged"},
		{"carriage return", "a\rb", "a\\rb"},
		{"tab", "a\tb", "a\\tb"},
		{"ansi escape", "a\x1bm", "a\\x1bm"},
		{"null byte", "a\x00b", "a\\x00b"},
		{"unicode preserved", "canción ☂", "canción ☂"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForLog(tt.input); got != tt.expected {
				t.Errorf("SanitizeForLog(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
