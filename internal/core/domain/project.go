package domain

import (
	"strings"
	"time"
)

// collectionPrefix is prepended to a project ID to form its collection name.
const collectionPrefix = "collection_"

// Project owns a set of chunks and maps to exactly one vector collection.
type Project struct {
	// ID is the opaque, caller-supplied project identifier.
	ID string

	// CreatedAt is when the project record was first created.
	CreatedAt time.Time
}

// CollectionName derives the vector collection name for a project ID.
// It is a pure function: no two projects can share a collection.
func CollectionName(projectID string) string {
	return strings.TrimSpace(collectionPrefix + projectID)
}

// CollectionName returns the vector collection owned by this project.
func (p *Project) CollectionName() string {
	return CollectionName(p.ID)
}
