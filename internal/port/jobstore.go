package port

import (
	"context"

	"github.com/polixdev/voicescribe/internal/domain"
)

type JobStore interface {
	Insert(ctx context.Context, job *domain.Job) error
	UpdateStage(ctx context.Context, id string, stage domain.Stage) error
	// Complete records the terminal stage, outcome fields, and discovered
	// title from the finished job.
	Complete(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Job, error)
}
