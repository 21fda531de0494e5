// Package whispercpp transcribes audio by preprocessing it with ffmpeg to
// the 16 kHz mono WAV whisper.cpp expects, then running whisper.cpp with
// txt export.
package whispercpp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/polixdev/voicescribe/internal/port"
)

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

type Transcriber struct {
	ffmpegPath  string
	whisperPath string
	modelPath   string
	language    string

	loadOnce      sync.Once
	resolvedModel string
	loadErr       error

	runner    commandRunner
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	readFile  func(name string) ([]byte, error)
	stat      func(name string) (os.FileInfo, error)
	readDir   func(name string) ([]os.DirEntry, error)
}

func NewTranscriber(ffmpegPath, whisperPath, modelPath, language string) *Transcriber {
	return &Transcriber{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		modelPath:   modelPath,
		language:    language,
		runner:      execRunner{},
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		readFile:    os.ReadFile,
		stat:        os.Stat,
		readDir:     os.ReadDir,
	}
}

// LoadModel resolves the model file once per transcriber lifetime. The
// resolution outcome, success or failure, is memoized so sequential jobs
// share it.
func (t *Transcriber) LoadModel(ctx context.Context) error {
	t.loadOnce.Do(func() {
		t.resolvedModel, t.loadErr = t.resolveModelPath()
	})
	return t.loadErr
}

// Transcribe converts audioPath to text. Temporary preprocessing artifacts
// live in a per-call directory removed before returning; both subprocesses
// are killed when ctx expires or is cancelled.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := t.LoadModel(ctx); err != nil {
		return "", err
	}

	tempDir, err := t.mkdirTemp("", "voicescribe-*")
	if err != nil {
		return "", fmt.Errorf("create temporary workspace: %w", err)
	}
	defer func() { _ = t.removeAll(tempDir) }()

	wavPath := filepath.Join(tempDir, "preprocessed-16k-mono.wav")
	stderr, err := t.runner.Run(ctx, t.ffmpegPath, buildFFmpegArgs(audioPath, wavPath)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("ffmpeg preprocessing failed: %w: %s", err, lastLine(stderr))
	}

	textBase := filepath.Join(tempDir, "transcript")
	stderr, err = t.runner.Run(ctx, t.whisperPath, buildWhisperArgs(t.resolvedModel, wavPath, textBase, t.language)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("whisper.cpp transcription failed: %w: %s", err, lastLine(stderr))
	}

	content, err := t.readFile(textBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("whisper.cpp completed but transcript is missing: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

// resolveModelPath accepts either a model file or a directory holding
// .bin/.gguf models, in which case the first one in lexical order wins.
func (t *Transcriber) resolveModelPath() (string, error) {
	modelPath := strings.TrimSpace(t.modelPath)
	if modelPath == "" {
		return "", fmt.Errorf("model path is required")
	}

	info, err := t.stat(modelPath)
	if err != nil {
		return "", fmt.Errorf("cannot access model path %s: %w", modelPath, err)
	}
	if !info.IsDir() {
		return modelPath, nil
	}

	entries, err := t.readDir(modelPath)
	if err != nil {
		return "", fmt.Errorf("cannot read model directory %s: %w", modelPath, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".bin" || ext == ".gguf" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no .bin or .gguf model files found in %s", modelPath)
	}

	sort.Strings(names)
	return filepath.Join(modelPath, names[0]), nil
}

func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

func buildWhisperArgs(modelPath, audioPath, textBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", textBase,
		"-otxt",
	}
	lang := strings.TrimSpace(language)
	if lang != "" && !strings.EqualFold(lang, "auto") {
		args = append(args, "-l", lang)
	}
	return args
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

var _ port.Transcriber = (*Transcriber)(nil)
