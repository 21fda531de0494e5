package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/service"
)

type SSEHandler struct {
	eventBus *service.EventBus
	jobSvc   JobService
}

func NewSSEHandler(eventBus *service.EventBus, jobSvc JobService) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		jobSvc:   jobSvc,
	}
}

// sseWrite writes an SSE event, handling multi-line data correctly.
func sseWrite(w http.ResponseWriter, eventName string, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func sendProgress(w http.ResponseWriter, event domain.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	sseWrite(w, "progress", string(payload))
}

// terminalEvent synthesizes the final event for a job that finished before
// the client connected. Progress events are not replayed, so late
// subscribers only get the outcome.
func terminalEvent(job *domain.Job) domain.ProgressEvent {
	var outcome domain.Outcome
	switch job.Stage {
	case domain.StageDone:
		outcome = domain.Succeeded(job.OutputPath)
	case domain.StageCancelled:
		outcome = domain.Cancelled()
	default:
		outcome = domain.Failed(job.Kind, job.ErrorMessage)
	}
	return domain.ProgressEvent{
		JobID:     job.ID,
		Stage:     job.Stage,
		Terminal:  true,
		Outcome:   &outcome,
		Timestamp: time.Now().UTC(),
	}
}

// Events streams a job's progress events until the terminal one.
func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		job, err := h.jobSvc.Get(r.Context(), id)
		if errors.Is(err, domain.ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to load job", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		// Already terminal: send the outcome and close.
		if job.Stage.Terminal() {
			sendProgress(w, terminalEvent(job))
			return
		}

		// Subscribe before re-reading the stage so the terminal event
		// cannot slip between the check and the subscription.
		ch := h.eventBus.Subscribe(id)
		defer h.eventBus.Unsubscribe(id, ch)

		if job, err = h.jobSvc.Get(r.Context(), id); err == nil && job.Stage.Terminal() {
			sendProgress(w, terminalEvent(job))
			return
		}

		ctx := r.Context()
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case event, ok := <-ch:
				if !ok {
					return
				}
				sendProgress(w, event)
				if event.Terminal {
					return
				}
			}
		}
	}
}
