// Package ytdlp fetches remote audio with the yt-dlp CLI: best audio
// stream, extracted to mp3 at 192k, capped at the configured size ceiling.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/polixdev/voicescribe/internal/port"
)

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

type Fetcher struct {
	binPath      string
	workDir      string
	maxSizeBytes int64
	runner       commandRunner
	mkdirAll     func(path string, perm os.FileMode) error
}

func NewFetcher(binPath, workDir string, maxSizeMiB int64) *Fetcher {
	return &Fetcher{
		binPath:      binPath,
		workDir:      workDir,
		maxSizeBytes: maxSizeMiB * 1024 * 1024,
		runner:       execRunner{},
		mkdirAll:     os.MkdirAll,
	}
}

// Fetch downloads the audio for locator into the work directory and
// returns the artifact path plus the media title. The subprocess is killed
// when ctx expires or is cancelled.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (port.FetchResult, error) {
	if err := f.mkdirAll(f.workDir, 0o755); err != nil {
		return port.FetchResult{}, fmt.Errorf("create artifact directory: %w", err)
	}

	args := f.buildArgs(locator)
	stdout, stderr, err := f.runner.Run(ctx, f.binPath, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return port.FetchResult{}, ctxErr
		}
		return port.FetchResult{}, fmt.Errorf("yt-dlp failed: %w: %s", err, firstLine(stderr))
	}

	path := lastLine(stdout)
	if path == "" {
		return port.FetchResult{}, errors.New("yt-dlp reported no output file")
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return port.FetchResult{Path: path, Title: title}, nil
}

func (f *Fetcher) buildArgs(locator string) []string {
	return []string{
		"--quiet",
		"--no-progress",
		"--no-playlist",
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--max-filesize", fmt.Sprintf("%d", f.maxSizeBytes),
		"--output", filepath.Join(f.workDir, "%(title)s.%(ext)s"),
		"--print", "after_move:filepath",
		"--no-simulate",
		locator,
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

var _ port.Fetcher = (*Fetcher)(nil)
