package logger

import (
	"fmt"
	"strings"
)

// SanitizeForLog escapes control characters in user-supplied strings
// (locators, media titles) before they reach the log output. Newlines would
// otherwise allow fake log entries and ANSI escapes could manipulate the
// terminal. Unicode text passes through untouched.
func SanitizeForLog(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\n':
			result.WriteString("\\n")
		case '\r':
			result.WriteString("\\r")
		case '\t':
			result.WriteString("\\t")
		default:
			if r < 32 || r == 127 {
				result.WriteString(fmt.Sprintf("\\x%02x", r))
			} else {
				result.WriteRune(r)
			}
		}
	}
	return result.String()
}
