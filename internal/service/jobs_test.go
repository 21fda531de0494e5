package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/port"
)

type memStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*domain.Job)}
}

func (m *memStore) Insert(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memStore) UpdateStage(ctx context.Context, id string, stage domain.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.Stage = stage
	}
	return nil
}

func (m *memStore) Complete(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.jobs[job.ID]
	if !ok {
		return domain.ErrJobNotFound
	}
	stored.Stage = job.Stage
	stored.Kind = job.Kind
	stored.Title = job.Title
	stored.OutputPath = job.OutputPath
	stored.ErrorMessage = job.ErrorMessage
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *memStore) ListRecent(ctx context.Context, limit int) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		copied := *job
		out = append(out, &copied)
	}
	return out, nil
}

var _ port.JobStore = (*memStore)(nil)

func newTestService(t *testing.T, fetcher port.Fetcher, transcriber port.Transcriber, sink port.TranscriptSink) (*JobService, *memStore, *EventBus) {
	t.Helper()
	store := newMemStore()
	bus := NewEventBus()
	pipeline := NewPipeline(fetcher, transcriber, sink, bus, testConfig())
	return NewJobService(store, bus, pipeline), store, bus
}

func waitForTerminal(t *testing.T, store *memStore, jobID string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), jobID)
		require.NoError(t, err)
		if job.Stage.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal stage")
	return nil
}

func TestJobService_SubmitRunsToCompletion(t *testing.T) {
	artifact := writeArtifact(t, "episode.mp3")
	sink := &stubSink{path: "/out/t.txt"}
	svc, store, _ := newTestService(t, okFetcher(artifact), okTranscriber("text"), sink)

	job, err := svc.Submit(context.Background(), "https://example.com/v/1")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	final := waitForTerminal(t, store, job.ID)
	assert.Equal(t, domain.StageDone, final.Stage)
	assert.Equal(t, "/out/t.txt", final.OutputPath)
}

func TestJobService_RunAndWaitForwardsEvents(t *testing.T) {
	artifact := writeArtifact(t, "episode.mp3")
	sink := &stubSink{path: "/out/t.txt"}
	svc, _, _ := newTestService(t, okFetcher(artifact), okTranscriber("text"), sink)

	var events []domain.ProgressEvent
	job, outcome, err := svc.RunAndWait(context.Background(), "https://example.com/v/1", func(e domain.ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageDone, outcome.Status)
	assert.Equal(t, domain.StageDone, job.Stage)
	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].Terminal)
	assert.Equal(t, 1, terminalCount(events))
}

func TestJobService_CancelRunningJob(t *testing.T) {
	release := make(chan struct{})
	fetcher := &stubFetcher{fn: func(ctx context.Context, locator string) (port.FetchResult, error) {
		close(release)
		<-ctx.Done()
		return port.FetchResult{}, ctx.Err()
	}}
	svc, store, _ := newTestService(t, fetcher, okTranscriber(""), &stubSink{})

	job, err := svc.Submit(context.Background(), "https://example.com/v/1")
	require.NoError(t, err)

	<-release
	require.NoError(t, svc.Cancel(context.Background(), job.ID))

	final := waitForTerminal(t, store, job.ID)
	assert.Equal(t, domain.StageCancelled, final.Stage)

	// Cancel after the job is terminal stays a no-op.
	assert.NoError(t, svc.Cancel(context.Background(), job.ID))
}

func TestJobService_CancelUnknownJob(t *testing.T) {
	svc, _, _ := newTestService(t, okFetcher(""), okTranscriber(""), &stubSink{})
	err := svc.Cancel(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobService_GetUnknownJob(t *testing.T) {
	svc, _, _ := newTestService(t, okFetcher(""), okTranscriber(""), &stubSink{})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobService_ParentContextCancelsRunAndWait(t *testing.T) {
	fetcher := &stubFetcher{fn: func(ctx context.Context, locator string) (port.FetchResult, error) {
		<-ctx.Done()
		return port.FetchResult{}, ctx.Err()
	}}
	svc, _, _ := newTestService(t, fetcher, okTranscriber(""), &stubSink{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, outcome, err := svc.RunAndWait(ctx, "https://example.com/v/1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCancelled, outcome.Status)
}
