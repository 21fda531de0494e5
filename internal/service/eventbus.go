package service

import (
	"sync"
	"time"

	"github.com/polixdev/voicescribe/internal/domain"
)

// EventBus fans progress events out to per-job subscribers. Delivery is
// fire-and-forget: a slow subscriber loses events rather than blocking the
// pipeline, and late subscribers do not see a replay. Events for one job
// are published by a single producer and carry increasing sequence numbers.
type EventBus struct {
	subscribers map[string][]chan domain.ProgressEvent
	nextSeq     map[string]int64
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan domain.ProgressEvent),
		nextSeq:     make(map[string]int64),
	}
}

func (eb *EventBus) Subscribe(jobID string) chan domain.ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan domain.ProgressEvent, 16)
	eb.subscribers[jobID] = append(eb.subscribers[jobID], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(jobID string, ch chan domain.ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[jobID]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[jobID]) == 0 {
		delete(eb.subscribers, jobID)
	}
}

// Publish assigns the event's sequence number and timestamp and delivers it
// to current subscribers of the job.
func (eb *EventBus) Publish(jobID string, event domain.ProgressEvent) domain.ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextSeq[jobID]++
	event.JobID = jobID
	event.Seq = eb.nextSeq[jobID]
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	for _, ch := range eb.subscribers[jobID] {
		select {
		case ch <- event:
		default:
			// Drop event if subscriber is slow
		}
	}

	// The terminal event is the last one a job may publish.
	if event.Terminal {
		delete(eb.nextSeq, jobID)
	}
	return event
}
