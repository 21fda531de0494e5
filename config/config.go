package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	StageTimeout       time.Duration
	MaxArtifactSizeMiB int64
	SupportedAudioExts []string
	MaxFilenameLength  int
	OutputDir          string
	DataDir            string
	Port               int
	AuthTokenHash      string
	YtdlpPath          string
	FfmpegPath         string
	WhisperPath        string
	WhisperModelPath   string
	WhisperLanguage    string
}

func Load() (*Config, error) {
	stageTimeoutSeconds, err := strconv.Atoi(getEnv("STAGE_TIMEOUT_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid STAGE_TIMEOUT_SECONDS: %w", err)
	}
	if stageTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("STAGE_TIMEOUT_SECONDS must be positive")
	}

	maxArtifactSizeMiB, err := strconv.ParseInt(getEnv("MAX_ARTIFACT_SIZE_MIB", "100"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ARTIFACT_SIZE_MIB: %w", err)
	}

	maxFilenameLength, err := strconv.Atoi(getEnv("MAX_FILENAME_LENGTH", "200"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_FILENAME_LENGTH: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "7891"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	exts, err := parseExtensions(getEnv("SUPPORTED_AUDIO_EXTENSIONS", ".mp3,.wav,.m4a,.ogg"))
	if err != nil {
		return nil, err
	}

	return &Config{
		StageTimeout:       time.Duration(stageTimeoutSeconds) * time.Second,
		MaxArtifactSizeMiB: maxArtifactSizeMiB,
		SupportedAudioExts: exts,
		MaxFilenameLength:  maxFilenameLength,
		OutputDir:          getEnv("OUTPUT_DIR", "."),
		DataDir:            getEnv("DATA_DIR", "./data"),
		Port:               port,
		AuthTokenHash:      os.Getenv("AUTH_TOKEN_HASH"),
		YtdlpPath:          getEnv("YTDLP_PATH", "yt-dlp"),
		FfmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		WhisperPath:        getEnv("WHISPER_PATH", "whisper.cpp"),
		WhisperModelPath:   getEnv("WHISPER_MODEL_PATH", "models"),
		WhisperLanguage:    getEnv("WHISPER_LANGUAGE", ""),
	}, nil
}

func parseExtensions(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		ext := strings.ToLower(strings.TrimSpace(p))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("invalid SUPPORTED_AUDIO_EXTENSIONS entry %q: must start with a dot", p)
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("SUPPORTED_AUDIO_EXTENSIONS must list at least one extension")
	}
	return exts, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
