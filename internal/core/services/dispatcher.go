package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driving.IndexingDispatcher = (*Dispatcher)(nil)

// Dispatcher defaults.
const (
	DefaultWorkers     = 2
	DefaultQueueSize   = 16
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 60 * time.Second

	// statusPollInterval is how often Wait re-reads job status.
	statusPollInterval = 25 * time.Millisecond
)

// jobRunner runs one attempt of an indexing job. Satisfied by
// *IndexingPipeline; narrowed to an interface for testing.
type jobRunner interface {
	Run(ctx context.Context, job *domain.IndexingJob) error
}

// Dispatcher runs indexing jobs on a background worker pool. It layers
// three separate concerns around the pipeline: submission producing a
// handle, a worker pool consuming the queue, and a bounded fixed-delay
// retry wrapper applied to the whole job.
//
// Per-project locks serialise overlapping attempts on the same
// project. Plain re-runs converge anyway because upserts are keyed by
// chunk ID, but two interleaved doReset runs could drop the collection
// under each other's inserts; the lock closes that race.
type Dispatcher struct {
	runner      jobRunner
	jobs        driven.JobStatusStore
	queue       chan *domain.IndexingJob
	maxAttempts int
	retryDelay  time.Duration
	jobTimeout  time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewDispatcher creates a dispatcher and starts its worker pool.
// Zero-valued settings fall back to the package defaults; a zero
// JobTimeout disables the per-attempt time limit.
func NewDispatcher(runner jobRunner, jobs driven.JobStatusStore, cfg domain.IndexingSettings) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		runner:      runner,
		jobs:        jobs,
		queue:       make(chan *domain.IndexingJob, queueSize),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		jobTimeout:  cfg.JobTimeout,
		baseCtx:     ctx,
		cancel:      cancel,
		locks:       make(map[string]*sync.Mutex),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Submit enqueues an indexing job and returns its handle.
func (d *Dispatcher) Submit(_ context.Context, projectID string, doReset bool) (string, error) {
	job := &domain.IndexingJob{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		DoReset:     doReset,
		State:       domain.JobStatePending,
		SubmittedAt: time.Now(),
	}

	// The lock covers the stopped check and the enqueue so Submit can
	// never race Stop into a send on a closed channel.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return "", domain.ErrDispatcherStopped
	}
	d.jobs.Create(job.ID, projectID)

	select {
	case d.queue <- job:
		logger.Debug("Queued indexing job %s for project %s (reset=%t)", job.ID, projectID, doReset)
		return job.ID, nil
	default:
		d.jobs.UpdateState(job.ID, domain.JobStateFailure, domain.JobMeta{
			Signal: domain.SignalVectorInsertError,
			Error:  domain.ErrJobQueueFull.Error(),
		})
		return "", domain.ErrJobQueueFull
	}
}

// Status returns the last reported snapshot for a job handle.
func (d *Dispatcher) Status(jobID string) (*domain.JobStatus, error) {
	return d.jobs.Get(jobID)
}

// Wait blocks until the job reaches a terminal state or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		status, err := d.jobs.Get(jobID)
		if err != nil {
			return nil, err
		}
		if status.State.IsTerminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop shuts down the worker pool after in-flight jobs finish.
// Queued jobs that have not started are still picked up before the
// workers exit. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

// worker consumes jobs until the queue is closed.
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		d.execute(job)
	}
}

// execute runs a job with bounded retries under the project lock. The
// terminal FAILURE write happens here, never inside an attempt, so a
// job observed as FAILURE has no retries pending. Between attempts the
// status store shows the non-terminal RETRY state.
func (d *Dispatcher) execute(job *domain.IndexingJob) {
	lock := d.projectLock(job.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		job.Attempt = attempt

		if err := d.runAttempt(job); err == nil {
			return
		}
		if d.baseCtx.Err() != nil || attempt == d.maxAttempts {
			if attempt == d.maxAttempts {
				logger.Error("Job %s exhausted %d attempts", job.ID, d.maxAttempts)
			}
			d.jobs.UpdateState(job.ID, domain.JobStateFailure, d.attemptMeta(job))
			return
		}

		logger.Warn("Job %s attempt %d failed, retrying in %s", job.ID, attempt, d.retryDelay)
		d.jobs.UpdateState(job.ID, domain.JobStateRetry, d.attemptMeta(job))
		select {
		case <-d.baseCtx.Done():
			d.jobs.UpdateState(job.ID, domain.JobStateFailure, d.attemptMeta(job))
			return
		case <-time.After(d.retryDelay):
		}
	}
}

// attemptMeta snapshots the last attempt's outcome for a status write.
func (d *Dispatcher) attemptMeta(job *domain.IndexingJob) domain.JobMeta {
	return domain.JobMeta{
		Signal:        job.Signal,
		InsertedCount: job.InsertedCount,
		Attempt:       job.Attempt,
		Error:         job.Error,
	}
}

// runAttempt runs one attempt under the configured time limit.
func (d *Dispatcher) runAttempt(job *domain.IndexingJob) error {
	ctx := d.baseCtx
	if d.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.jobTimeout)
		defer cancel()
	}
	return d.runner.Run(ctx, job)
}

// projectLock returns the mutex serialising jobs for a project.
func (d *Dispatcher) projectLock(projectID string) *sync.Mutex {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()

	lock, ok := d.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[projectID] = lock
	}
	return lock
}
