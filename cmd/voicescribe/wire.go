package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/polixdev/voicescribe/config"
	"github.com/polixdev/voicescribe/internal/adapter/fetcher/ytdlp"
	sqlitestore "github.com/polixdev/voicescribe/internal/adapter/storage/sqlite"
	"github.com/polixdev/voicescribe/internal/adapter/transcriber/whispercpp"
	"github.com/polixdev/voicescribe/internal/adapter/transcript"
	"github.com/polixdev/voicescribe/internal/service"
)

// buildServices assembles the store, event bus, and job service from
// configuration. The returned close function releases the store.
func buildServices(cfg *config.Config) (*service.JobService, *service.EventBus, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create store: %w", err)
	}

	fetcher := ytdlp.NewFetcher(cfg.YtdlpPath, filepath.Join(cfg.DataDir, "artifacts"), cfg.MaxArtifactSizeMiB)
	transcriber := whispercpp.NewTranscriber(cfg.FfmpegPath, cfg.WhisperPath, cfg.WhisperModelPath, cfg.WhisperLanguage)
	sink := transcript.NewFileSink(cfg.OutputDir)

	eventBus := service.NewEventBus()
	pipeline := service.NewPipeline(fetcher, transcriber, sink, eventBus, service.PipelineConfig{
		StageTimeout:       cfg.StageTimeout,
		MaxArtifactSizeMiB: cfg.MaxArtifactSizeMiB,
		SupportedAudioExts: cfg.SupportedAudioExts,
		MaxFilenameLength:  cfg.MaxFilenameLength,
	})
	jobSvc := service.NewJobService(store, eventBus, pipeline)

	return jobSvc, eventBus, func() { _ = store.Close() }, nil
}
