package validation

import "strings"

// DefaultMaxNameLength bounds sanitized names when no explicit limit is
// configured.
const DefaultMaxNameLength = 200

// fallbackName is used when sanitation leaves nothing usable.
const fallbackName = "transcript"

// SanitizeName strips characters that are illegal in filesystem names and
// truncates the result to maxLen runes. It is deterministic and idempotent:
// SanitizeName(SanitizeName(x)) == SanitizeName(x).
func SanitizeName(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if shouldStrip(r) {
			continue
		}
		sb.WriteRune(r)
	}

	result := strings.TrimSpace(sb.String())
	result = truncateRunes(result, maxLen)
	result = strings.TrimSpace(result)

	if result == "" || result == "." || result == ".." {
		return fallbackName
	}
	return result
}

// shouldStrip reports whether a rune may not appear in a filename. The set
// covers the Windows-reserved punctuation plus control characters, so names
// are portable across filesystems.
func shouldStrip(r rune) bool {
	if r < 32 || r == 127 {
		return true
	}
	switch r {
	case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
		return true
	}
	return false
}

// truncateRunes cuts s to at most maxLen runes without splitting a
// multi-byte character.
func truncateRunes(s string, maxLen int) string {
	count := 0
	for i := range s {
		if count == maxLen {
			return s[:i]
		}
		count++
	}
	return s
}
