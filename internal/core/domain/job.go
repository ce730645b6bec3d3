package domain

import "time"

// JobState is the lifecycle state of an indexing job.
// Valid transitions: Pending -> Running -> Success | Failure, with
// Running -> Retry -> Running between bounded retry attempts. There is
// no partial-success terminal state, and a job observed as Failure has
// exhausted its attempts.
type JobState string

// Job states.
const (
	JobStatePending JobState = "PENDING"
	JobStateRunning JobState = "RUNNING"
	JobStateRetry   JobState = "RETRY"
	JobStateSuccess JobState = "SUCCESS"
	JobStateFailure JobState = "FAILURE"
)

// IsTerminal returns true once the job can no longer change state.
func (s JobState) IsTerminal() bool {
	return s == JobStateSuccess || s == JobStateFailure
}

// Signal is an opaque enumerated result code attached to job metadata
// or responses. Signals are stable strings, distinct from errors.
type Signal string

// Signal vocabulary.
const (
	SignalProcessingSuccess    Signal = "PROCESSING_SUCCESS"
	SignalVectorInsertSuccess  Signal = "INSERT_INTO_VECTORDB_SUCCESS"
	SignalVectorInsertError    Signal = "INSERT_INTO_VECTORDB_ERROR"
	SignalProjectNotFoundError Signal = "PROJECT_NOT_FOUND_ERROR"
)

// IndexingJob is the ephemeral description and progress of one
// background indexing run. It is created on submission, mutated by the
// pipeline, and discarded after its terminal state has been reported.
type IndexingJob struct {
	// ID is the job handle returned to the submitter.
	ID string

	// ProjectID identifies the project whose chunks get indexed.
	ProjectID string

	// DoReset drops and recreates the collection before indexing.
	DoReset bool

	// State is the current lifecycle state.
	State JobState

	// InsertedCount is the number of chunks upserted so far.
	InsertedCount int

	// Attempt is the current delivery attempt, starting at 1.
	Attempt int

	// Signal is the result code of the most recent attempt.
	Signal Signal

	// Error is the failure message of the most recent attempt, empty
	// on success.
	Error string

	// SubmittedAt is when the job was accepted.
	SubmittedAt time.Time
}

// JobMeta carries a signal code plus optional counters when a job
// reports a state change.
type JobMeta struct {
	// Signal is the result code for this state change.
	Signal Signal

	// InsertedCount is the running total of upserted chunks.
	InsertedCount int

	// Attempt is the delivery attempt that produced this update.
	Attempt int

	// Error is a descriptive failure message, empty on success.
	Error string
}

// JobStatus is a point-in-time snapshot of a job as seen by callers.
type JobStatus struct {
	JobID     string
	ProjectID string
	State     JobState
	Meta      JobMeta
	UpdatedAt time.Time
}
