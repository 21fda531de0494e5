package domain

import (
	"database/sql"
	"time"
)

type Stage string

const (
	StageIdle         Stage = "idle"
	StageFetching     Stage = "fetching"
	StageValidating   Stage = "validating"
	StageTranscribing Stage = "transcribing"
	StagePersisting   Stage = "persisting"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
	StageCancelled    Stage = "cancelled"
)

// Terminal reports whether a stage is a terminal outcome. Exactly one
// terminal stage is reached per job.
func (s Stage) Terminal() bool {
	switch s {
	case StageDone, StageFailed, StageCancelled:
		return true
	default:
		return false
	}
}

// ValidTransition enforces the allowed edges of the job state machine.
// Failure and cancellation are reachable from every non-terminal stage.
func ValidTransition(from, to Stage) bool {
	if !from.Terminal() && (to == StageFailed || to == StageCancelled) {
		return true
	}
	switch from {
	case StageIdle:
		return to == StageFetching
	case StageFetching:
		return to == StageValidating
	case StageValidating:
		return to == StageTranscribing
	case StageTranscribing:
		return to == StagePersisting
	case StagePersisting:
		return to == StageDone
	default:
		return false
	}
}

type FailureKind string

const (
	FailureInvalidInput      FailureKind = "invalid_input"
	FailureFetchTimeout      FailureKind = "fetch_timeout"
	FailureFetchError        FailureKind = "fetch_error"
	FailureInvalidArtifact   FailureKind = "invalid_artifact"
	FailureTranscribeTimeout FailureKind = "transcribe_timeout"
	FailureTranscribeError   FailureKind = "transcribe_error"
	FailurePersistError      FailureKind = "persist_error"
)

// Outcome is the single terminal result of a job.
type Outcome struct {
	Status     Stage       `json:"status"`
	OutputPath string      `json:"outputPath,omitempty"`
	Kind       FailureKind `json:"kind,omitempty"`
	Message    string      `json:"message,omitempty"`
}

func Succeeded(outputPath string) Outcome {
	return Outcome{Status: StageDone, OutputPath: outputPath, Message: "transcript saved to " + outputPath}
}

func Failed(kind FailureKind, message string) Outcome {
	return Outcome{Status: StageFailed, Kind: kind, Message: message}
}

func Cancelled() Outcome {
	return Outcome{Status: StageCancelled, Message: "job cancelled"}
}

type Job struct {
	ID           string
	Locator      string
	Title        string
	Stage        Stage
	Kind         FailureKind
	ErrorMessage string
	ArtifactPath string
	OutputPath   string
	CreatedAt    time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
}

func NewJob(id, locator string) *Job {
	return &Job{
		ID:        id,
		Locator:   locator,
		Stage:     StageIdle,
		CreatedAt: time.Now().UTC(),
	}
}
