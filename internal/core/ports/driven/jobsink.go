package driven

import "github.com/custodia-labs/ragpipe/internal/core/domain"

// JobStatusSink receives indexing job state transitions. The pipeline
// and dispatcher report through this port; callers observe job progress
// by querying the sink's backing store rather than waiting on the job.
type JobStatusSink interface {
	// UpdateState records a state change for a job. Implementations
	// must tolerate repeated terminal updates from retried deliveries.
	UpdateState(jobID string, state domain.JobState, meta domain.JobMeta)
}

// JobStatusStore is a sink that also serves status reads. The
// dispatcher registers jobs here on submission and callers poll Get.
type JobStatusStore interface {
	JobStatusSink

	// Create registers a freshly submitted job in the pending state.
	Create(jobID, projectID string)

	// Get returns the latest snapshot for a job, or domain.ErrNotFound
	// for an unknown handle.
	Get(jobID string) (*domain.JobStatus, error)
}
