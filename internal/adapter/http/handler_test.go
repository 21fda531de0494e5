package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/service"
)

type stubJobService struct {
	submitFn func(ctx context.Context, locator string) (*domain.Job, error)
	cancelFn func(ctx context.Context, jobID string) error
	getFn    func(ctx context.Context, jobID string) (*domain.Job, error)
	listFn   func(ctx context.Context, limit int) ([]*domain.Job, error)
}

func (s *stubJobService) Submit(ctx context.Context, locator string) (*domain.Job, error) {
	return s.submitFn(ctx, locator)
}

func (s *stubJobService) Cancel(ctx context.Context, jobID string) error {
	return s.cancelFn(ctx, jobID)
}

func (s *stubJobService) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.getFn(ctx, jobID)
}

func (s *stubJobService) ListRecent(ctx context.Context, limit int) ([]*domain.Job, error) {
	return s.listFn(ctx, limit)
}

func newTestServer(svc JobService) *Server {
	return NewServer(svc, service.NewEventBus(), "")
}

func TestSubmitJob(t *testing.T) {
	svc := &stubJobService{
		submitFn: func(ctx context.Context, locator string) (*domain.Job, error) {
			return domain.NewJob("job-1", locator), nil
		},
	}
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"locator":"https://example.com/v/1"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.ID)
	assert.Equal(t, "idle", resp.Stage)
}

func TestSubmitJob_InvalidLocator(t *testing.T) {
	svc := &stubJobService{
		submitFn: func(ctx context.Context, locator string) (*domain.Job, error) {
			t.Fatal("submit should not be reached")
			return nil, nil
		},
	}
	srv := newTestServer(svc)

	for _, body := range []string{`{"locator":"not a url"}`, `{"locator":""}`, `{broken`} {
		req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestJobStatus(t *testing.T) {
	job := domain.NewJob("job-1", "https://example.com/v/1")
	job.Stage = domain.StageDone
	job.Title = "Some Talk"
	job.OutputPath = "/out/Some Talk.txt"

	svc := &stubJobService{
		getFn: func(ctx context.Context, jobID string) (*domain.Job, error) {
			if jobID != "job-1" {
				return nil, domain.ErrJobNotFound
			}
			return job, nil
		},
	}
	srv := newTestServer(svc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "done", resp.Stage)
	assert.Equal(t, "/out/Some Talk.txt", resp.OutputPath)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelJob(t *testing.T) {
	var cancelled string
	svc := &stubJobService{
		cancelFn: func(ctx context.Context, jobID string) error {
			if jobID == "missing" {
				return domain.ErrJobNotFound
			}
			cancelled = jobID
			return nil
		},
	}
	srv := newTestServer(svc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/job-1/cancel", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "job-1", cancelled)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/missing/cancel", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs(t *testing.T) {
	svc := &stubJobService{
		listFn: func(ctx context.Context, limit int) ([]*domain.Job, error) {
			assert.Equal(t, 2, limit)
			return []*domain.Job{
				domain.NewJob("a", "https://example.com/a"),
				domain.NewJob("b", "https://example.com/b"),
			}, nil
		},
	}
	srv := newTestServer(svc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs?limit=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
