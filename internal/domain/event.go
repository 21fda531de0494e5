package domain

import "time"

// ProgressEvent is published once per stage transition and once for the
// terminal outcome. Events for one job are totally ordered by Seq.
type ProgressEvent struct {
	Seq       int64     `json:"seq"`
	JobID     string    `json:"jobId"`
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message,omitempty"`
	Terminal  bool      `json:"terminal"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
