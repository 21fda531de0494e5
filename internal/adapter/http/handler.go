package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/infrastructure/logger"
	"github.com/polixdev/voicescribe/internal/validation"
)

type Handlers struct {
	jobSvc JobService
}

func NewHandlers(jobSvc JobService) *Handlers {
	return &Handlers{jobSvc: jobSvc}
}

type submitRequest struct {
	Locator string `json:"locator"`
}

type jobResponse struct {
	ID           string `json:"id"`
	Locator      string `json:"locator"`
	Title        string `json:"title,omitempty"`
	Stage        string `json:"stage"`
	FailureKind  string `json:"failure_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	OutputPath   string `json:"output_path,omitempty"`
	CreatedAt    string `json:"created_at"`
	StartedAt    string `json:"started_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

func toJobResponse(job *domain.Job) jobResponse {
	resp := jobResponse{
		ID:           job.ID,
		Locator:      job.Locator,
		Title:        job.Title,
		Stage:        string(job.Stage),
		FailureKind:  string(job.Kind),
		ErrorMessage: job.ErrorMessage,
		OutputPath:   job.OutputPath,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
	}
	if job.StartedAt.Valid {
		resp.StartedAt = job.StartedAt.Time.Format(time.RFC3339)
	}
	if job.CompletedAt.Valid {
		resp.CompletedAt = job.CompletedAt.Time.Format(time.RFC3339)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// SubmitJob accepts a locator and starts a job in the background. The
// response carries the job ID for status polling and the SSE stream.
func (h *Handlers) SubmitJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// Reject obviously malformed locators before enqueueing; the
		// pipeline rechecks, but a 400 beats a failed job.
		if !validation.ValidateLocator(req.Locator) {
			writeError(w, http.StatusBadRequest, "locator must be an absolute URL")
			return
		}

		job, err := h.jobSvc.Submit(r.Context(), req.Locator)
		if err != nil {
			logger.Error.Printf("submit job: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to submit job")
			return
		}
		writeJSON(w, http.StatusAccepted, toJobResponse(job))
	}
}

func (h *Handlers) JobStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := h.jobSvc.Get(r.Context(), r.PathValue("id"))
		if errors.Is(err, domain.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			logger.Error.Printf("get job: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load job")
			return
		}
		writeJSON(w, http.StatusOK, toJobResponse(job))
	}
}

func (h *Handlers) CancelJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.jobSvc.Cancel(r.Context(), r.PathValue("id"))
		if errors.Is(err, domain.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			logger.Error.Printf("cancel job: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to cancel job")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancel requested"})
	}
}

func (h *Handlers) ListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}

		jobs, err := h.jobSvc.ListRecent(r.Context(), limit)
		if err != nil {
			logger.Error.Printf("list jobs: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list jobs")
			return
		}

		resp := make([]jobResponse, 0, len(jobs))
		for _, job := range jobs {
			resp = append(resp, toJobResponse(job))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
