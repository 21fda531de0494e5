package service

import (
	"context"
	"sync"
)

// CancellationController carries an external caller's request to abandon a
// running job. Request is idempotent and monotonic: once observed, a job
// can never "un-cancel". The controller's context is cancelled on the first
// request so guard-wrapped calls can be interrupted mid-flight instead of
// waiting for the next checkpoint.
type CancellationController struct {
	mu        sync.Mutex
	requested bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewCancellationController(parent context.Context) *CancellationController {
	ctx, cancel := context.WithCancel(parent)
	return &CancellationController{ctx: ctx, cancel: cancel}
}

// Request marks the job for cancellation. Only the first call has effect.
func (c *CancellationController) Request() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requested {
		return
	}
	c.requested = true
	c.cancel()
}

// Requested is polled by the pipeline at safe checkpoints. Cancellation of
// the parent context counts as a request, so an interrupted caller (SIGINT,
// client disconnect) is honored the same way.
func (c *CancellationController) Requested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested || c.ctx.Err() != nil
}

// Context is cancelled as soon as cancellation is requested.
func (c *CancellationController) Context() context.Context {
	return c.ctx
}

// Release frees the controller's context resources once the job is
// terminal.
func (c *CancellationController) Release() {
	c.cancel()
}
