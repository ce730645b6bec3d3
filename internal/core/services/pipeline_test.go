package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/custodia-labs/ragpipe/internal/adapters/driven/storage/memory"
	vectormem "github.com/custodia-labs/ragpipe/internal/adapters/driven/vectordb/memory"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// seedChunks stores n chunks for a project and returns the store.
func seedChunks(t *testing.T, chunks *storagemem.ChunkStore, projectID string, n int) {
	t.Helper()
	batch := make([]domain.Chunk, n)
	for i := range batch {
		batch[i] = domain.Chunk{
			ProjectID: projectID,
			Text:      fmt.Sprintf("chunk %d", i),
			Metadata:  map[string]any{"pos": i},
		}
	}
	inserted, err := chunks.InsertMany(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, n, inserted)
}

func TestIndexingPipeline_Run_PaginatesAndUpserts(t *testing.T) {
	projects := storagemem.NewProjectStore()
	chunks := storagemem.NewChunkStore()
	vector := vectormem.New()
	jobs := storagemem.NewJobStore()
	embedder := &mockEmbedder{dims: 4}

	// 250 chunks means two full pages and one partial page.
	seedChunks(t, chunks, "proj-1", 250)

	pipeline := NewIndexingPipeline(projects, chunks, vector, embedder, jobs, 100)
	job := &domain.IndexingJob{ID: "job-1", ProjectID: "proj-1", Attempt: 1}
	jobs.Create(job.ID, job.ProjectID)

	err := pipeline.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStateSuccess, job.State)
	assert.Equal(t, 250, job.InsertedCount)

	status, err := jobs.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateSuccess, status.State)
	assert.Equal(t, domain.SignalVectorInsertSuccess, status.Meta.Signal)
	assert.Equal(t, 250, status.Meta.InsertedCount)

	info, err := vector.CollectionInfo(context.Background(), "collection_proj-1")
	require.NoError(t, err)
	assert.Equal(t, 250, info.PointCount)
	assert.Equal(t, 4, info.VectorSize)
}

func TestIndexingPipeline_Run_RerunIsIdempotent(t *testing.T) {
	projects := storagemem.NewProjectStore()
	chunks := storagemem.NewChunkStore()
	vector := vectormem.New()
	jobs := storagemem.NewJobStore()
	embedder := &mockEmbedder{dims: 4}

	seedChunks(t, chunks, "proj-1", 150)

	pipeline := NewIndexingPipeline(projects, chunks, vector, embedder, jobs, 100)

	for _, jobID := range []string{"job-1", "job-2"} {
		job := &domain.IndexingJob{ID: jobID, ProjectID: "proj-1", Attempt: 1}
		jobs.Create(job.ID, job.ProjectID)
		require.NoError(t, pipeline.Run(context.Background(), job))
		assert.Equal(t, 150, job.InsertedCount)
	}

	// Upserts are keyed by chunk ID, so the re-run overwrote instead of
	// duplicating.
	info, err := vector.CollectionInfo(context.Background(), "collection_proj-1")
	require.NoError(t, err)
	assert.Equal(t, 150, info.PointCount)
}

func TestIndexingPipeline_Run_ResetRebuildsCollection(t *testing.T) {
	projects := storagemem.NewProjectStore()
	chunks := storagemem.NewChunkStore()
	vector := vectormem.New()
	jobs := storagemem.NewJobStore()
	embedder := &mockEmbedder{dims: 4}

	seedChunks(t, chunks, "proj-1", 20)

	pipeline := NewIndexingPipeline(projects, chunks, vector, embedder, jobs, 100)
	first := &domain.IndexingJob{ID: "job-1", ProjectID: "proj-1", Attempt: 1}
	jobs.Create(first.ID, first.ProjectID)
	require.NoError(t, pipeline.Run(context.Background(), first))

	// Replace the chunk set, then rebuild with reset. The new chunks
	// get fresh IDs, so without the reset the stale points would linger.
	_, err := chunks.DeleteByProject(context.Background(), "proj-1")
	require.NoError(t, err)
	seedChunks(t, chunks, "proj-1", 5)

	second := &domain.IndexingJob{ID: "job-2", ProjectID: "proj-1", DoReset: true, Attempt: 1}
	jobs.Create(second.ID, second.ProjectID)
	require.NoError(t, pipeline.Run(context.Background(), second))

	assert.Equal(t, 5, second.InsertedCount)
	info, err := vector.CollectionInfo(context.Background(), "collection_proj-1")
	require.NoError(t, err)
	assert.Equal(t, 5, info.PointCount)
}

func TestIndexingPipeline_Run_EmptyProjectSucceeds(t *testing.T) {
	projects := storagemem.NewProjectStore()
	chunks := storagemem.NewChunkStore()
	vector := vectormem.New()
	jobs := storagemem.NewJobStore()
	embedder := &mockEmbedder{dims: 4}

	pipeline := NewIndexingPipeline(projects, chunks, vector, embedder, jobs, 100)
	job := &domain.IndexingJob{ID: "job-1", ProjectID: "empty", Attempt: 1}
	jobs.Create(job.ID, job.ProjectID)

	require.NoError(t, pipeline.Run(context.Background(), job))
	assert.Equal(t, domain.JobStateSuccess, job.State)
	assert.Equal(t, 0, job.InsertedCount)

	// The empty collection still exists, ready for searches.
	exists, err := vector.CollectionExists(context.Background(), "collection_empty")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIndexingPipeline_Run_EmbedFailure(t *testing.T) {
	projects := storagemem.NewProjectStore()
	chunks := storagemem.NewChunkStore()
	vector := vectormem.New()
	jobs := storagemem.NewJobStore()
	embedder := &mockEmbedder{dims: 4, embedErr: errors.New("embedding backend down")}

	seedChunks(t, chunks, "proj-1", 10)

	pipeline := NewIndexingPipeline(projects, chunks, vector, embedder, jobs, 100)
	job := &domain.IndexingJob{ID: "job-1", ProjectID: "proj-1", Attempt: 1}
	jobs.Create(job.ID, job.ProjectID)

	err := pipeline.Run(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, domain.JobStateFailure, job.State)
	assert.Equal(t, domain.SignalVectorInsertError, job.Signal)
	assert.Contains(t, job.Error, "embedding backend down")

	// The attempt never reports a terminal state itself: the store still
	// shows RUNNING until the dispatcher decides retry or failure.
	status, err := jobs.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateRunning, status.State)
}

func TestIndexingPipeline_Run_ProjectResolveFailure(t *testing.T) {
	chunks := storagemem.NewChunkStore()
	vector := vectormem.New()
	jobs := storagemem.NewJobStore()
	embedder := &mockEmbedder{dims: 4}
	projects := &failingProjectStore{err: errors.New("database locked")}

	pipeline := NewIndexingPipeline(projects, chunks, vector, embedder, jobs, 100)
	job := &domain.IndexingJob{ID: "job-1", ProjectID: "proj-1", Attempt: 1}
	jobs.Create(job.ID, job.ProjectID)

	err := pipeline.Run(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, domain.JobStateFailure, job.State)
	assert.Equal(t, domain.SignalProjectNotFoundError, job.Signal)
	assert.Contains(t, job.Error, "database locked")
}

func TestIndexingPipeline_Run_CancelledContext(t *testing.T) {
	projects := storagemem.NewProjectStore()
	chunks := storagemem.NewChunkStore()
	vector := vectormem.New()
	jobs := storagemem.NewJobStore()
	embedder := &mockEmbedder{dims: 4}

	seedChunks(t, chunks, "proj-1", 10)

	pipeline := NewIndexingPipeline(projects, chunks, vector, embedder, jobs, 100)
	job := &domain.IndexingJob{ID: "job-1", ProjectID: "proj-1", Attempt: 1}
	jobs.Create(job.ID, job.ProjectID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipeline.Run(ctx, job)
	require.Error(t, err)
	assert.Equal(t, domain.JobStateFailure, job.State)
	assert.Equal(t, domain.SignalVectorInsertError, job.Signal)
}
