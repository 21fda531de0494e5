package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/infrastructure/logger"
	"github.com/polixdev/voicescribe/internal/port"
	"github.com/polixdev/voicescribe/internal/validation"
)

// PipelineConfig carries the per-stage policy knobs.
type PipelineConfig struct {
	StageTimeout       time.Duration
	MaxArtifactSizeMiB int64
	SupportedAudioExts []string
	MaxFilenameLength  int
}

// Pipeline drives one job through fetch, artifact validation,
// transcription, and persistence. Each heavy stage runs under RunBounded;
// cancellation is observed at checkpoints between stages and, through the
// controller's context, inside the stages themselves. The downloaded
// artifact is removed on every terminal path before the terminal event is
// published.
type Pipeline struct {
	fetcher     port.Fetcher
	transcriber port.Transcriber
	sink        port.TranscriptSink
	events      *EventBus
	cfg         PipelineConfig

	// OnTransition, when set, observes every stage change in addition to
	// the progress events. For the terminal stage it runs before the
	// terminal event is published, so observers that persist the job see
	// the final state no later than subscribers do.
	OnTransition func(job *domain.Job, stage domain.Stage)

	removeFile func(string) error
}

func NewPipeline(fetcher port.Fetcher, transcriber port.Transcriber, sink port.TranscriptSink, events *EventBus, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		transcriber: transcriber,
		sink:        sink,
		events:      events,
		cfg:         cfg,
		removeFile:  os.Remove,
	}
}

// Run executes the job to a terminal outcome. It blocks the calling
// goroutine; callers wanting an unblocked submitter start it on its own
// goroutine (see JobService).
func (p *Pipeline) Run(job *domain.Job, ctrl *CancellationController) domain.Outcome {
	outcome := p.execute(job, ctrl)
	p.cleanup(job)
	p.finish(job, outcome)
	return outcome
}

func (p *Pipeline) execute(job *domain.Job, ctrl *CancellationController) domain.Outcome {
	if !validation.ValidateLocator(job.Locator) {
		return domain.Failed(domain.FailureInvalidInput, fmt.Sprintf("locator %q is not an absolute URL", logger.SanitizeForLog(job.Locator)))
	}

	// Checkpoint: before entering the fetch stage.
	if ctrl.Requested() {
		return domain.Cancelled()
	}
	runCtx := ctrl.Context()

	p.transition(job, domain.StageFetching, "fetching audio")
	fetched, err := RunBounded(runCtx, p.cfg.StageTimeout, func(ctx context.Context) (port.FetchResult, error) {
		return p.fetcher.Fetch(ctx, job.Locator)
	})
	// The fetcher may have materialized a file even on a failed or
	// abandoned run; record whatever it reported so cleanup covers it.
	job.ArtifactPath = fetched.Path
	if outcome, failed := p.mapStageError(err, domain.FailureFetchTimeout, domain.FailureFetchError, "fetch failed"); failed {
		return outcome
	}
	job.Title = validation.SanitizeName(fetched.Title, p.cfg.MaxFilenameLength)

	// Checkpoint: after fetch completes.
	if ctrl.Requested() {
		return domain.Cancelled()
	}

	p.transition(job, domain.StageValidating, "validating downloaded audio")
	if !validation.ValidateArtifact(job.ArtifactPath, p.cfg.SupportedAudioExts, p.cfg.MaxArtifactSizeMiB) {
		return domain.Failed(domain.FailureInvalidArtifact, "downloaded audio is missing, unsupported, or over the size ceiling")
	}

	p.transition(job, domain.StageTranscribing, "transcribing audio")
	text, err := RunBounded(runCtx, p.cfg.StageTimeout, func(ctx context.Context) (string, error) {
		if err := p.transcriber.LoadModel(ctx); err != nil {
			return "", fmt.Errorf("load model: %w", err)
		}
		return p.transcriber.Transcribe(ctx, job.ArtifactPath)
	})
	if outcome, failed := p.mapStageError(err, domain.FailureTranscribeTimeout, domain.FailureTranscribeError, "transcription failed"); failed {
		return outcome
	}

	// Checkpoint: after transcribe completes.
	if ctrl.Requested() {
		return domain.Cancelled()
	}

	p.transition(job, domain.StagePersisting, "saving transcript")
	outputPath, err := p.sink.Append(job.Title, text)
	if err != nil {
		return domain.Failed(domain.FailurePersistError, fmt.Sprintf("save transcript: %v", err))
	}

	return domain.Succeeded(outputPath)
}

// mapStageError folds a guarded stage result into the failure taxonomy.
// Cancellation is not an error: it maps to the cancelled outcome.
func (p *Pipeline) mapStageError(err error, timeoutKind, errorKind domain.FailureKind, prefix string) (domain.Outcome, bool) {
	switch {
	case err == nil:
		return domain.Outcome{}, false
	case errors.Is(err, ErrTimedOut):
		return domain.Failed(timeoutKind, fmt.Sprintf("%s: stage exceeded %s", prefix, p.cfg.StageTimeout)), true
	case errors.Is(err, context.Canceled):
		return domain.Cancelled(), true
	default:
		return domain.Failed(errorKind, fmt.Sprintf("%s: %v", prefix, err)), true
	}
}

// transition applies a stage change and emits exactly one progress event
// for it.
func (p *Pipeline) transition(job *domain.Job, stage domain.Stage, message string) {
	if !domain.ValidTransition(job.Stage, stage) {
		logger.Warn.Printf("job %s: unexpected transition %s -> %s", job.ID, job.Stage, stage)
	}
	job.Stage = stage
	if p.OnTransition != nil {
		p.OnTransition(job, stage)
	}
	p.events.Publish(job.ID, domain.ProgressEvent{Stage: stage, Message: message})
}

// cleanup removes the artifact regardless of outcome. Failures are logged
// and never change the already-decided outcome.
func (p *Pipeline) cleanup(job *domain.Job) {
	if job.ArtifactPath == "" {
		return
	}
	if err := p.removeFile(job.ArtifactPath); err != nil && !os.IsNotExist(err) {
		logger.Warn.Printf("job %s: failed to remove artifact %s: %v", job.ID, job.ArtifactPath, err)
	}
}

// finish records the outcome on the job and publishes the single terminal
// event.
func (p *Pipeline) finish(job *domain.Job, outcome domain.Outcome) {
	job.Stage = outcome.Status
	job.Kind = outcome.Kind
	job.OutputPath = outcome.OutputPath
	if outcome.Status == domain.StageFailed {
		job.ErrorMessage = outcome.Message
	}
	if p.OnTransition != nil {
		p.OnTransition(job, outcome.Status)
	}
	p.events.Publish(job.ID, domain.ProgressEvent{
		Stage:    outcome.Status,
		Message:  outcome.Message,
		Terminal: true,
		Outcome:  &outcome,
	})
}
