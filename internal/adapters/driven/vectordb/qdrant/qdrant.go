// Package qdrant provides a vector store adapter for a Qdrant server
// reached over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default configuration values.
const (
	DefaultURL      = "http://localhost:6333"
	DefaultDistance = "Cosine"
	DefaultTimeout  = 30 * time.Second
)

// Config holds configuration for the Qdrant vector store.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey authenticates requests, empty for unsecured hosts.
	APIKey string

	// Distance is the metric applied to new collections (default: Cosine).
	Distance string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// VectorStore talks to Qdrant over REST. Connections are plain HTTP,
// so Connect only validates reachability and Disconnect never fails.
type VectorStore struct {
	client   *http.Client
	url      string
	apiKey   string
	distance string

	mu        sync.Mutex
	connected bool
}

// New creates a Qdrant vector store client.
func New(cfg Config) *VectorStore {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Distance == "" {
		cfg.Distance = DefaultDistance
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &VectorStore{
		client:   &http.Client{Timeout: cfg.Timeout},
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		distance: cfg.Distance,
	}
}

// point is the Qdrant upsert point format.
type point struct {
	ID      int64          `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// collectionInfoResponse is the GET /collections/{name} response subset.
type collectionInfoResponse struct {
	Result struct {
		PointsCount int `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// searchResponse is the points/search response subset.
type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Connect validates the server is reachable. Idempotent; repeated
// calls after a successful check are no-ops.
func (s *VectorStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	if err := s.do(ctx, http.MethodGet, "/collections", nil, nil); err != nil {
		return fmt.Errorf("qdrant unreachable at %s: %w", s.url, err)
	}
	s.connected = true
	return nil
}

// Disconnect resets the connected flag. Safe to call unconditionally,
// including when Connect was never called or failed.
func (s *VectorStore) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.client.CloseIdleConnections()
	return nil
}

// ListCollections returns all collection names.
func (s *VectorStore) ListCollections(ctx context.Context) ([]string, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &resp); err != nil {
		return nil, err
	}

	names := make([]string, len(resp.Result.Collections))
	for i, c := range resp.Result.Collections {
		names[i] = c.Name
	}
	return names, nil
}

// CollectionExists reports whether the named collection exists.
func (s *VectorStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, http.MethodGet, "/collections/"+name, nil, nil)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// CollectionInfo returns the collection's configured size, metric and
// point count.
func (s *VectorStore) CollectionInfo(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	var resp collectionInfoResponse
	err := s.do(ctx, http.MethodGet, "/collections/"+name, nil, &resp)
	if isNotFound(err) {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &domain.CollectionInfo{
		Name:       name,
		VectorSize: resp.Result.Config.Params.Vectors.Size,
		Distance:   resp.Result.Config.Params.Vectors.Distance,
		PointCount: resp.Result.PointsCount,
	}, nil
}

// CreateCollection ensures the collection exists with the given size.
// An existing collection is reused as-is unless doReset is set, in
// which case it is dropped first and recreated empty.
func (s *VectorStore) CreateCollection(ctx context.Context, name string, vectorSize int, doReset bool) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size %d: %w", vectorSize, domain.ErrInvalidInput)
	}

	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		if !doReset {
			return nil
		}
		if err := s.DeleteCollection(ctx, name); err != nil {
			return err
		}
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": s.distance,
		},
	}
	return s.do(ctx, http.MethodPut, "/collections/"+name, body, nil)
}

// DeleteCollection drops the collection. Missing collections are ignored.
func (s *VectorStore) DeleteCollection(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, "/collections/"+name, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// InsertMany upserts a page of points keyed by record ID. Qdrant
// overwrites points sharing an ID, which keeps retried jobs idempotent.
func (s *VectorStore) InsertMany(ctx context.Context, name string, texts []string, vectors [][]float32, metadata []map[string]any, recordIDs []int64) error {
	n := len(texts)
	if len(vectors) != n || len(metadata) != n || len(recordIDs) != n {
		return fmt.Errorf("texts/vectors/metadata/ids lengths %d/%d/%d/%d: %w",
			n, len(vectors), len(metadata), len(recordIDs), domain.ErrInvalidInput)
	}

	points := make([]point, n)
	for i := range texts {
		points[i] = point{
			ID:     recordIDs[i],
			Vector: vectors[i],
			Payload: map[string]any{
				"text":     texts[i],
				"metadata": metadata[i],
			},
		}
	}

	err := s.do(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true", map[string]any{"points": points}, nil)
	if isNotFound(err) {
		return fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}
	return err
}

// SearchByVector returns up to limit documents ordered by
// non-increasing similarity, as scored by the server.
func (s *VectorStore) SearchByVector(ctx context.Context, name string, vector []float32, limit int) ([]domain.RetrievedDocument, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, domain.ErrInvalidInput)
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var resp searchResponse
	err := s.do(ctx, http.MethodPost, "/collections/"+name+"/points/search", body, &resp)
	if isNotFound(err) {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, err
	}

	docs := make([]domain.RetrievedDocument, 0, len(resp.Result))
	for _, hit := range resp.Result {
		doc := domain.RetrievedDocument{Score: hit.Score}
		if text, ok := hit.Payload["text"].(string); ok {
			doc.Text = text
		}
		if meta, ok := hit.Payload["metadata"].(map[string]any); ok {
			doc.Metadata = meta
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// statusError carries the HTTP status of a failed Qdrant call.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant returned status %d: %s", e.status, e.body)
}

// Unwrap maps backend failures onto the domain error taxonomy.
func (e *statusError) Unwrap() error {
	return domain.ErrProviderFailure
}

// isNotFound reports whether err is a 404 from the server.
func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

// do sends one JSON request and decodes the response into out when
// out is non-nil.
func (s *VectorStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w: %w", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{status: resp.StatusCode, body: string(data)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w: %w", domain.ErrProviderFailure, err)
		}
	}
	return nil
}
