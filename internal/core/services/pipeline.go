package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// DefaultPageSize is the number of chunks processed per page.
const DefaultPageSize = 100

// IndexingPipeline moves a project's chunks into its vector collection:
// resolve the project, ensure the collection, then embed and upsert
// page by page. One Run is one job attempt; any error aborts the whole
// attempt, there is no partial-page retry. Re-running is safe because
// upserts are keyed by chunk ID.
type IndexingPipeline struct {
	projects driven.ProjectStore
	chunks   driven.ChunkStore
	vector   driven.VectorStore
	embedder driven.EmbeddingService
	sink     driven.JobStatusSink
	pageSize int
}

// NewIndexingPipeline creates an indexing pipeline. A pageSize of zero
// falls back to DefaultPageSize.
func NewIndexingPipeline(
	projects driven.ProjectStore,
	chunks driven.ChunkStore,
	vector driven.VectorStore,
	embedder driven.EmbeddingService,
	sink driven.JobStatusSink,
	pageSize int,
) *IndexingPipeline {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &IndexingPipeline{
		projects: projects,
		chunks:   chunks,
		vector:   vector,
		embedder: embedder,
		sink:     sink,
		pageSize: pageSize,
	}
}

// Run executes one attempt of an indexing job. The job's inserted
// count is reset at the start so a retried attempt counts from scratch.
// Cancellation is honoured between pages only, so an aborted run always
// leaves a whole number of fully indexed pages behind.
func (p *IndexingPipeline) Run(ctx context.Context, job *domain.IndexingJob) error {
	logger.Section("Indexing " + job.ProjectID)

	job.State = domain.JobStateRunning
	job.InsertedCount = 0
	p.sink.UpdateState(job.ID, job.State, domain.JobMeta{Attempt: job.Attempt})

	project, err := p.projects.GetOrCreate(ctx, job.ProjectID)
	if err != nil {
		return p.fail(job, domain.SignalProjectNotFoundError, fmt.Errorf("resolve project %q: %w", job.ProjectID, err))
	}

	collection := project.CollectionName()
	logger.Debug("Collection: %s", collection)

	if err := p.vector.Connect(ctx); err != nil {
		return p.fail(job, domain.SignalVectorInsertError, fmt.Errorf("connect vector store: %w", err))
	}

	if err := p.vector.CreateCollection(ctx, collection, p.embedder.Dimensions(), job.DoReset); err != nil {
		return p.fail(job, domain.SignalVectorInsertError, fmt.Errorf("create collection %q: %w", collection, err))
	}

	// Total count drives progress logs only; pagination terminates on
	// the first empty page regardless.
	total, err := p.chunks.TotalCount(ctx, project.ID)
	if err != nil {
		logger.Warn("Chunk count unavailable for %s: %v", project.ID, err)
		total = 0
	}

	for pageNo := 1; ; pageNo++ {
		if err := ctx.Err(); err != nil {
			return p.fail(job, domain.SignalVectorInsertError, fmt.Errorf("job cancelled before page %d: %w", pageNo, err))
		}

		page, err := p.chunks.GetPage(ctx, project.ID, pageNo, p.pageSize)
		if err != nil {
			return p.fail(job, domain.SignalVectorInsertError, fmt.Errorf("fetch page %d: %w", pageNo, err))
		}
		if len(page) == 0 {
			break
		}

		if err := p.indexPage(ctx, collection, page); err != nil {
			return p.fail(job, domain.SignalVectorInsertError, fmt.Errorf("index page %d: %w", pageNo, err))
		}

		job.InsertedCount += len(page)
		if total > 0 {
			logger.Info("Indexed %d/%d chunks", job.InsertedCount, total)
		} else {
			logger.Info("Indexed %d chunks", job.InsertedCount)
		}
	}

	job.State = domain.JobStateSuccess
	job.Signal = domain.SignalVectorInsertSuccess
	job.Error = ""
	p.sink.UpdateState(job.ID, job.State, domain.JobMeta{
		Signal:        job.Signal,
		InsertedCount: job.InsertedCount,
		Attempt:       job.Attempt,
	})
	logger.Info("Indexing complete: %d chunks", job.InsertedCount)
	return nil
}

// indexPage embeds one page of chunks and upserts it as a unit.
func (p *IndexingPipeline) indexPage(ctx context.Context, collection string, page []domain.Chunk) error {
	texts := make([]string, len(page))
	metadata := make([]map[string]any, len(page))
	ids := make([]int64, len(page))
	for i, c := range page {
		texts[i] = c.Text
		metadata[i] = c.Metadata
		ids[i] = c.ID
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts, domain.InputModeDocument)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.vector.InsertMany(ctx, collection, texts, vectors, metadata, ids); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// fail records the attempt's outcome on the job and returns the cause.
// It deliberately does not report a terminal state: whether a failed
// attempt ends the job or schedules a retry is the dispatcher's call,
// so the status store never shows FAILURE while retries are pending.
func (p *IndexingPipeline) fail(job *domain.IndexingJob, signal domain.Signal, err error) error {
	job.State = domain.JobStateFailure
	job.Signal = signal
	job.Error = err.Error()
	logger.Error("Indexing job %s attempt %d failed: %v", job.ID, job.Attempt, err)
	return err
}
