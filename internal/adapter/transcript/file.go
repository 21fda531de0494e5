// Package transcript persists transcript text as plain files named after
// the media title.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/polixdev/voicescribe/internal/port"
)

const extension = ".txt"

type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Append writes text to <dir>/<title>.txt, creating the file when absent
// and appending when it exists. Prior content is never truncated; a
// trailing newline separates successive entries.
func (s *FileSink) Append(title, text string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(s.dir, title+extension)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text + "\n"); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close transcript file: %w", err)
	}
	return path, nil
}

var _ port.TranscriptSink = (*FileSink)(nil)
