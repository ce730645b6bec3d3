package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCollectionName_Derivation tests the project ID to collection mapping
func TestCollectionName_Derivation(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		expected  string
	}{
		{
			name:      "simple id",
			projectID: "1",
			expected:  "collection_1",
		},
		{
			name:      "alphanumeric id",
			projectID: "project-abc",
			expected:  "collection_project-abc",
		},
		{
			name:      "empty id",
			projectID: "",
			expected:  "collection_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollectionName(tt.projectID))
		})
	}
}

// TestProject_CollectionName tests the method matches the free function
func TestProject_CollectionName(t *testing.T) {
	p := Project{ID: "42"}
	assert.Equal(t, CollectionName("42"), p.CollectionName())
	assert.Equal(t, "collection_42", p.CollectionName())
}

// TestCollectionName_DistinctProjects tests that distinct IDs never collide
func TestCollectionName_DistinctProjects(t *testing.T) {
	assert.NotEqual(t, CollectionName("a"), CollectionName("b"))
}
