package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/custodia-labs/ragpipe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// scriptedRunner fails a fixed number of attempts before succeeding,
// reporting outcomes the way the pipeline does: success goes to the
// sink, a failed attempt only marks the job and returns the error.
type scriptedRunner struct {
	jobs     driven.JobStatusSink
	failures int

	attempts atomic.Int32
}

func (r *scriptedRunner) Run(_ context.Context, job *domain.IndexingJob) error {
	attempt := r.attempts.Add(1)
	if int(attempt) <= r.failures {
		job.State = domain.JobStateFailure
		job.Signal = domain.SignalVectorInsertError
		job.Error = "scripted failure"
		return errors.New("scripted failure")
	}
	job.State = domain.JobStateSuccess
	job.Signal = domain.SignalVectorInsertSuccess
	job.InsertedCount = 42
	r.jobs.UpdateState(job.ID, domain.JobStateSuccess, domain.JobMeta{
		Signal:        job.Signal,
		InsertedCount: job.InsertedCount,
		Attempt:       job.Attempt,
	})
	return nil
}

// blockingRunner holds every job until released.
type blockingRunner struct {
	jobs    driven.JobStatusSink
	release chan struct{}
	started chan string
}

func (r *blockingRunner) Run(_ context.Context, job *domain.IndexingJob) error {
	if r.started != nil {
		r.started <- job.ID
	}
	<-r.release
	r.jobs.UpdateState(job.ID, domain.JobStateSuccess, domain.JobMeta{
		Signal:  domain.SignalVectorInsertSuccess,
		Attempt: job.Attempt,
	})
	return nil
}

// overlapRunner records whether two jobs of the same project ever ran
// at the same time.
type overlapRunner struct {
	jobs driven.JobStatusSink

	mu       sync.Mutex
	active   map[string]int
	overlaps int
}

func (r *overlapRunner) Run(_ context.Context, job *domain.IndexingJob) error {
	r.mu.Lock()
	if r.active == nil {
		r.active = make(map[string]int)
	}
	r.active[job.ProjectID]++
	if r.active[job.ProjectID] > 1 {
		r.overlaps++
	}
	r.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	r.mu.Lock()
	r.active[job.ProjectID]--
	r.mu.Unlock()

	r.jobs.UpdateState(job.ID, domain.JobStateSuccess, domain.JobMeta{
		Signal:  domain.SignalVectorInsertSuccess,
		Attempt: job.Attempt,
	})
	return nil
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDispatcher_SubmitAndWait_Success(t *testing.T) {
	jobs := storagemem.NewJobStore()
	runner := &scriptedRunner{jobs: jobs}
	d := NewDispatcher(runner, jobs, domain.IndexingSettings{RetryDelay: time.Millisecond})
	defer d.Stop()

	jobID, err := d.Submit(context.Background(), "proj-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	status, err := d.Wait(waitCtx(t), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateSuccess, status.State)
	assert.Equal(t, domain.SignalVectorInsertSuccess, status.Meta.Signal)
	assert.Equal(t, 42, status.Meta.InsertedCount)
}

func TestDispatcher_Status_UnknownJob(t *testing.T) {
	jobs := storagemem.NewJobStore()
	d := NewDispatcher(&scriptedRunner{jobs: jobs}, jobs, domain.IndexingSettings{})
	defer d.Stop()

	_, err := d.Status("no-such-job")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	jobs := storagemem.NewJobStore()
	runner := &scriptedRunner{jobs: jobs, failures: 2}
	d := NewDispatcher(runner, jobs, domain.IndexingSettings{
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})
	defer d.Stop()

	jobID, err := d.Submit(context.Background(), "proj-1", false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := jobs.Get(jobID)
		return err == nil && status.State == domain.JobStateSuccess
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(3), runner.attempts.Load())
}

func TestDispatcher_WaitSpansRetries(t *testing.T) {
	jobs := storagemem.NewJobStore()
	runner := &scriptedRunner{jobs: jobs, failures: 1}
	d := NewDispatcher(runner, jobs, domain.IndexingSettings{
		MaxAttempts: 3,
		RetryDelay:  200 * time.Millisecond,
	})
	defer d.Stop()

	jobID, err := d.Submit(context.Background(), "proj-1", false)
	require.NoError(t, err)

	// Watch the status stream while waiting: the failed first attempt
	// must surface as the non-terminal RETRY state, never as FAILURE.
	var sawRetry, sawFailure atomic.Bool
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		for {
			status, err := jobs.Get(jobID)
			if err == nil {
				switch status.State {
				case domain.JobStateRetry:
					sawRetry.Store(true)
				case domain.JobStateFailure:
					sawFailure.Store(true)
				}
				if status.State.IsTerminal() {
					return
				}
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()

	status, err := d.Wait(waitCtx(t), jobID)
	require.NoError(t, err)
	<-watcherDone

	assert.Equal(t, domain.JobStateSuccess, status.State)
	assert.Equal(t, int32(2), runner.attempts.Load())
	assert.True(t, sawRetry.Load(), "retry window should be observable as RETRY")
	assert.False(t, sawFailure.Load(), "a pending retry must never look terminal")
}

func TestDispatcher_ExhaustsAttempts(t *testing.T) {
	jobs := storagemem.NewJobStore()
	runner := &scriptedRunner{jobs: jobs, failures: 100}
	d := NewDispatcher(runner, jobs, domain.IndexingSettings{
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})

	jobID, err := d.Submit(context.Background(), "proj-1", false)
	require.NoError(t, err)

	// Stop drains in-flight work, so afterwards the attempt count is final.
	d.Stop()

	assert.Equal(t, int32(3), runner.attempts.Load())
	status, err := jobs.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateFailure, status.State)
	assert.Equal(t, domain.SignalVectorInsertError, status.Meta.Signal)
	assert.Equal(t, "scripted failure", status.Meta.Error)
	assert.Equal(t, 3, status.Meta.Attempt)
}

func TestDispatcher_QueueFull(t *testing.T) {
	jobs := storagemem.NewJobStore()
	runner := &blockingRunner{
		jobs:    jobs,
		release: make(chan struct{}),
		started: make(chan string, 4),
	}
	d := NewDispatcher(runner, jobs, domain.IndexingSettings{
		Workers:    1,
		QueueSize:  1,
		RetryDelay: time.Millisecond,
	})
	defer d.Stop()

	// First job occupies the worker, second fills the queue.
	first, err := d.Submit(context.Background(), "proj-1", false)
	require.NoError(t, err)
	<-runner.started

	_, err = d.Submit(context.Background(), "proj-2", false)
	require.NoError(t, err)

	_, err = d.Submit(context.Background(), "proj-3", false)
	require.ErrorIs(t, err, domain.ErrJobQueueFull)

	close(runner.release)

	status, err := d.Wait(waitCtx(t), first)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateSuccess, status.State)
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	jobs := storagemem.NewJobStore()
	d := NewDispatcher(&scriptedRunner{jobs: jobs}, jobs, domain.IndexingSettings{})
	d.Stop()
	d.Stop() // idempotent

	_, err := d.Submit(context.Background(), "proj-1", false)
	assert.ErrorIs(t, err, domain.ErrDispatcherStopped)
}

func TestDispatcher_SerialisesSameProject(t *testing.T) {
	jobs := storagemem.NewJobStore()
	runner := &overlapRunner{jobs: jobs}
	d := NewDispatcher(runner, jobs, domain.IndexingSettings{
		Workers:    4,
		QueueSize:  16,
		RetryDelay: time.Millisecond,
	})

	for i := 0; i < 6; i++ {
		_, err := d.Submit(context.Background(), "proj-1", i%2 == 0)
		require.NoError(t, err)
	}
	d.Stop()

	assert.Zero(t, runner.overlaps, "jobs of the same project must not overlap")
}
