package driving

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// IndexingDispatcher accepts indexing jobs and runs them on a
// background worker pool, decoupled from the caller.
type IndexingDispatcher interface {
	// Submit enqueues an indexing job for a project and returns its job
	// handle. Fire-and-forget: progress is observed via Status.
	// Fails with domain.ErrJobQueueFull when the queue is saturated and
	// domain.ErrDispatcherStopped after shutdown.
	Submit(ctx context.Context, projectID string, doReset bool) (string, error)

	// Status returns the last reported snapshot for a job handle, or
	// domain.ErrNotFound for an unknown handle.
	Status(jobID string) (*domain.JobStatus, error)

	// Wait blocks until the job reaches a terminal state or the context
	// is cancelled, returning the final snapshot.
	Wait(ctx context.Context, jobID string) (*domain.JobStatus, error)

	// Stop drains the queue and shuts down the worker pool. Safe to
	// call more than once.
	Stop()
}
