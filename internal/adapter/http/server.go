// Package http exposes the job API: submit, inspect, cancel, and a
// per-job SSE progress stream.
package http

import (
	"context"
	"net/http"

	"github.com/polixdev/voicescribe/internal/adapter/http/middleware"
	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/service"
)

// JobService is the slice of the job service the handlers need.
type JobService interface {
	Submit(ctx context.Context, locator string) (*domain.Job, error)
	Cancel(ctx context.Context, jobID string) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Job, error)
}

type Server struct {
	mux        *http.ServeMux
	handlers   *Handlers
	sseHandler *SSEHandler
	tokenHash  string
}

func NewServer(jobSvc JobService, eventBus *service.EventBus, tokenHash string) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		handlers:   NewHandlers(jobSvc),
		sseHandler: NewSSEHandler(eventBus, jobSvc),
		tokenHash:  tokenHash,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /jobs", s.handlers.SubmitJob())
	s.mux.HandleFunc("GET /jobs", s.handlers.ListJobs())
	s.mux.HandleFunc("GET /jobs/{id}", s.handlers.JobStatus())
	s.mux.HandleFunc("POST /jobs/{id}/cancel", s.handlers.CancelJob())
	s.mux.HandleFunc("GET /events/{id}", s.sseHandler.Events())
	s.mux.HandleFunc("GET /healthz", s.handlers.Health())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := middleware.SecurityHeaders(middleware.BearerAuth(s.tokenHash, s.mux))
	handler.ServeHTTP(w, r)
}
