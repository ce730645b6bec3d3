// Package domain defines the core business entities for ragpipe.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Project: A named owner of chunks with exactly one vector collection
//   - Chunk: A stored unit of project text, embedded during indexing
//   - RetrievedDocument: A similarity search hit, produced only by search
//   - IndexingJob: Ephemeral state of one background indexing run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
