package validation

import (
	"net/url"
	"strings"
)

// ValidateLocator reports whether s is a well-formed absolute URI with a
// non-empty scheme and host. No network access is performed.
func ValidateLocator(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
