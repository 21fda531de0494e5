package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/infrastructure/logger"
	"github.com/polixdev/voicescribe/internal/port"
)

// JobService supervises jobs: each submitted job runs its own pipeline on
// its own goroutine so the submitter stays responsive, with a per-job
// cancellation controller and a persisted history row. Jobs are independent
// of each other; no cross-job ordering is guaranteed.
type JobService struct {
	store    port.JobStore
	events   *EventBus
	pipeline *Pipeline

	mu          sync.Mutex
	controllers map[string]*CancellationController
}

func NewJobService(store port.JobStore, events *EventBus, pipeline *Pipeline) *JobService {
	s := &JobService{
		store:       store,
		events:      events,
		pipeline:    pipeline,
		controllers: make(map[string]*CancellationController),
	}
	pipeline.OnTransition = s.recordStage
	return s
}

// Submit registers a new job and starts it in the background.
func (s *JobService) Submit(ctx context.Context, locator string) (*domain.Job, error) {
	job := domain.NewJob(uuid.NewString(), locator)
	if err := s.store.Insert(ctx, job); err != nil {
		return nil, err
	}

	ctrl := NewCancellationController(context.Background())
	s.mu.Lock()
	s.controllers[job.ID] = ctrl
	s.mu.Unlock()

	logger.Info.Printf("job %s submitted: %s", job.ID, logger.SanitizeForLog(locator))
	go s.runJob(job, ctrl)

	return job, nil
}

// RunAndWait registers a new job, runs it to completion, and forwards every
// progress event to onEvent in publication order. The parent context doubles
// as a cancellation source: cancelling it (SIGINT in the CLI) is honored
// like an explicit cancel request.
func (s *JobService) RunAndWait(ctx context.Context, locator string, onEvent func(domain.ProgressEvent)) (*domain.Job, domain.Outcome, error) {
	job := domain.NewJob(uuid.NewString(), locator)
	if err := s.store.Insert(ctx, job); err != nil {
		return nil, domain.Outcome{}, err
	}

	ctrl := NewCancellationController(ctx)
	s.mu.Lock()
	s.controllers[job.ID] = ctrl
	s.mu.Unlock()

	ch := s.events.Subscribe(job.ID)
	done := make(chan domain.Outcome, 1)
	go func() {
		done <- s.runJob(job, ctrl)
	}()

	for event := range ch {
		if onEvent != nil {
			onEvent(event)
		}
		if event.Terminal {
			break
		}
	}
	s.events.Unsubscribe(job.ID, ch)

	outcome := <-done
	return job, outcome, nil
}

func (s *JobService) runJob(job *domain.Job, ctrl *CancellationController) domain.Outcome {
	defer func() {
		s.mu.Lock()
		delete(s.controllers, job.ID)
		s.mu.Unlock()
		ctrl.Release()
	}()

	outcome := s.pipeline.Run(job, ctrl)
	logger.Info.Printf("job %s finished: %s", job.ID, outcome.Status)
	return outcome
}

// Cancel requests abandonment of a running job. It is idempotent; repeat
// calls and calls against an already-terminal job are no-ops.
func (s *JobService) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	ctrl, ok := s.controllers[jobID]
	s.mu.Unlock()
	if ok {
		ctrl.Request()
		logger.Info.Printf("job %s: cancellation requested", jobID)
		return nil
	}

	// Not running: still report success for a known terminal job.
	if _, err := s.store.Get(ctx, jobID); err != nil {
		return err
	}
	return nil
}

// IsCancelRequested reports whether cancellation was requested for a
// running job.
func (s *JobService) IsCancelRequested(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.controllers[jobID]; ok {
		return ctrl.Requested()
	}
	return false
}

func (s *JobService) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.Get(ctx, jobID)
}

func (s *JobService) ListRecent(ctx context.Context, limit int) ([]*domain.Job, error) {
	return s.store.ListRecent(ctx, limit)
}

// recordStage persists stage changes. The terminal write carries the full
// outcome and lands before the terminal event is published, so a status
// read that races the event stream never trails it.
func (s *JobService) recordStage(job *domain.Job, stage domain.Stage) {
	var err error
	if stage.Terminal() {
		err = s.store.Complete(context.Background(), job)
	} else {
		err = s.store.UpdateStage(context.Background(), job.ID, stage)
	}
	if err != nil {
		logger.Error.Printf("job %s: failed to record stage %s: %v", job.ID, stage, err)
	}
}
