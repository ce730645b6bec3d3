// Package memory provides in-memory store implementations used for
// job tracking, tests and local runs without a database.
package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStatusStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStatusStore.
// Jobs are ephemeral process state, so nothing is persisted.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.JobStatus
}

// NewJobStore creates a new in-memory job status store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]domain.JobStatus),
	}
}

// Create registers a freshly submitted job in the pending state.
func (s *JobStore) Create(jobID, projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = domain.JobStatus{
		JobID:     jobID,
		ProjectID: projectID,
		State:     domain.JobStatePending,
		UpdatedAt: time.Now(),
	}
}

// UpdateState records a state change for a job. Updates for unknown
// jobs are accepted so redelivered jobs never lose their reports.
func (s *JobStore) UpdateState(jobID string, state domain.JobState, meta domain.JobMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.jobs[jobID]
	status.JobID = jobID
	status.State = state
	status.Meta = meta
	status.UpdatedAt = time.Now()
	s.jobs[jobID] = status
}

// Get returns the latest snapshot for a job.
func (s *JobStore) Get(jobID string) (*domain.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}
