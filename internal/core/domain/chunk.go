package domain

// Chunk is a stored unit of project text. Chunks are produced upstream
// by a splitter and consumed here by the indexing pipeline; the pipeline
// never creates or modifies chunk content.
//
// Chunk IDs are unique within a project and stable across pipeline
// re-runs. Pagination orders by ID ascending, so for a static chunk set
// every page walk visits each chunk exactly once.
type Chunk struct {
	// ID is the chunk identifier, used as the vector record ID on upsert.
	ID int64

	// ProjectID links to the owning Project.
	ProjectID string

	// Text is the chunk content that gets embedded and stored.
	Text string

	// Metadata contains arbitrary key-value pairs carried into the
	// vector store payload. Key order is irrelevant.
	Metadata map[string]any
}

// RetrievedDocument is a similarity search hit. It is produced only by
// vector search and never persisted.
type RetrievedDocument struct {
	// Text is the stored chunk text.
	Text string

	// Score is the similarity score, higher is closer.
	Score float64

	// Metadata is the payload stored alongside the vector.
	Metadata map[string]any
}

// CollectionInfo describes a vector collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string

	// VectorSize is the configured dimensionality. Every vector in the
	// collection has exactly this many components.
	VectorSize int

	// Distance is the similarity metric, e.g. "Cosine" or "Dot".
	Distance string

	// PointCount is the number of stored vectors.
	PointCount int
}
