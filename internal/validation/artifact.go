package validation

import (
	"os"
	"path/filepath"
	"strings"
)

const bytesPerMiB = 1024 * 1024

// ValidateArtifact reports whether the file at path is a usable audio
// artifact: it exists, carries one of the allowed extensions, and does not
// exceed maxSizeMiB. Pure predicate, no side effects.
func ValidateArtifact(path string, allowedExts []string, maxSizeMiB int64) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	allowed := false
	for _, e := range allowedExts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	return info.Size() <= maxSizeMiB*bytesPerMiB
}
