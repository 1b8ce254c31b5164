// Package chroma provides a vector store adapter for a remote ChromaDB server
// speaking the v2 REST API.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultTenant     = "default_tenant"
	DefaultDatabase   = "default_database"
	DefaultCollection = "docsight"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
)

// Metadata keys stored with each embedding.
const (
	metaDocumentID = "documentId"
	metaSegment    = "segment"
	metaFilename   = "filename"
	metaTitle      = "title"
)

// Config holds configuration for the Chroma store.
type Config struct {
	// BaseURL is the Chroma server URL (default: http://localhost:8000).
	BaseURL string

	// Tenant and Database select the namespace (defaults: default_tenant, default_database).
	Tenant   string
	Database string

	// Collection is created on first use with cosine space (default: docsight).
	Collection string

	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration

	// MaxRetries bounds retries of transient failures (default: 3).
	MaxRetries uint64

	// InitialInterval is the first retry delay (default: backoff's 500ms).
	InitialInterval time.Duration
}

// Store talks to a Chroma collection. The collection ID is resolved lazily
// so an unreachable server does not prevent start-up.
type Store struct {
	client  *http.Client
	cfg     Config
	baseURL string

	mu           sync.Mutex
	collectionID string
}

type createCollectionRequest struct {
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GetOrCreate bool           `json:"get_or_create"`
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusError is a non-2xx response.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chroma: status %d: %s", e.Status, e.Body)
}

// New creates a Chroma store. No request is made until first use.
func New(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Tenant == "" {
		cfg.Tenant = DefaultTenant
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		baseURL: fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s", cfg.BaseURL, url.PathEscape(cfg.Tenant), url.PathEscape(cfg.Database)),
	}
}

// Upsert inserts or replaces records in the collection.
func (s *Store) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	id, err := s.collection(ctx)
	if err != nil {
		return err
	}

	req := upsertRequest{
		IDs:        make([]string, len(records)),
		Embeddings: make([][]float32, len(records)),
		Metadatas:  make([]map[string]any, len(records)),
	}
	for i, r := range records {
		req.IDs[i] = r.ID
		req.Embeddings[i] = r.Vector
		req.Metadatas[i] = encodeMetadata(r.Metadata)
	}

	if err := s.do(ctx, http.MethodPost, "/collections/"+id+"/upsert", req, nil); err != nil {
		s.forgetCollection(err)
		return err
	}
	return nil
}

// Query returns up to TopK matches ordered by descending similarity.
func (s *Store) Query(ctx context.Context, query driven.VectorQuery) ([]driven.VectorMatch, error) {
	if query.TopK <= 0 || domain.IsZeroVector(query.Vector) {
		return nil, nil
	}
	id, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{query.Vector},
		NResults:        query.TopK,
		Where:           whereClause(query.Filter),
		Include:         []string{"metadatas", "distances"},
	}

	var resp queryResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+id+"/query", req, &resp); err != nil {
		s.forgetCollection(err)
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	ids := resp.IDs[0]
	matches := make([]driven.VectorMatch, 0, len(ids))
	for i, matchID := range ids {
		// A match without a distance cannot be scored.
		if len(resp.Distances) == 0 || i >= len(resp.Distances[0]) {
			logger.Warn("Chroma match %s has no distance, skipping", matchID)
			continue
		}
		distance := resp.Distances[0][i]
		var meta map[string]any
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			meta = resp.Metadatas[0][i]
		}
		matches = append(matches, driven.VectorMatch{
			ID:       matchID,
			Score:    similarity(distance),
			Metadata: decodeMetadata(meta),
		})
	}
	return matches, nil
}

// Ping checks the server heartbeat.
func (s *Store) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/api/v2/heartbeat", http.NoBody)
	if err != nil {
		return fmt.Errorf("chroma: create ping request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: heartbeat returned status %d", domain.ErrVectorStoreUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// collection resolves the collection ID, creating the collection if needed.
func (s *Store) collection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionID != "" {
		return s.collectionID, nil
	}

	req := createCollectionRequest{
		Name:        s.cfg.Collection,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
		GetOrCreate: true,
	}
	var resp collectionResponse
	if err := s.do(ctx, http.MethodPost, "/collections", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: collection %q has no id", domain.ErrVectorStoreUnavailable, s.cfg.Collection)
	}

	logger.Debug("Chroma collection %s resolved to %s", s.cfg.Collection, resp.ID)
	s.collectionID = resp.ID
	return s.collectionID, nil
}

// do sends a JSON request with retries. Transport errors and 5xx/429
// responses are retried; other statuses fail immediately. Exhausted
// retries surface as domain.ErrVectorStoreUnavailable.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("chroma: marshal request: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("chroma: create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("chroma: read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &statusError{Status: resp.StatusCode, Body: errorMessage(data)}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("chroma: decode response: %w", err))
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	if s.cfg.InitialInterval > 0 {
		eb.InitialInterval = s.cfg.InitialInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, s.cfg.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		logger.Debug("Chroma %s %s failed, retrying in %s: %v", method, path, wait, err)
	}

	err = backoff.RetryNotify(op, policy, notify)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var serr *statusError
	if errors.As(err, &serr) && serr.Status < 500 && serr.Status != http.StatusTooManyRequests {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
}

// forgetCollection drops the cached collection ID after a 404 so the next
// call recreates the collection.
func (s *Store) forgetCollection(err error) {
	var serr *statusError
	if !errors.As(err, &serr) || serr.Status != http.StatusNotFound {
		return
	}
	s.mu.Lock()
	s.collectionID = ""
	s.mu.Unlock()
}

// whereClause builds a Chroma metadata filter. Chroma rejects an empty
// $and, so a single condition is sent bare.
func whereClause(f driven.VectorFilter) map[string]any {
	var conds []map[string]any
	if f.Segment != "" {
		conds = append(conds, map[string]any{metaSegment: map[string]any{"$eq": string(f.Segment)}})
	}
	if f.ExcludeDocumentID != "" {
		conds = append(conds, map[string]any{metaDocumentID: map[string]any{"$ne": f.ExcludeDocumentID}})
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return map[string]any{"$and": conds}
	}
}

func encodeMetadata(m driven.VectorMetadata) map[string]any {
	meta := map[string]any{
		metaDocumentID: m.DocumentID,
		metaSegment:    string(m.Segment),
	}
	if m.Filename != "" {
		meta[metaFilename] = m.Filename
	}
	if m.Title != "" {
		meta[metaTitle] = m.Title
	}
	return meta
}

func decodeMetadata(meta map[string]any) driven.VectorMetadata {
	str := func(key string) string {
		v, _ := meta[key].(string)
		return v
	}
	return driven.VectorMetadata{
		DocumentID: str(metaDocumentID),
		Segment:    domain.Segment(str(metaSegment)),
		Filename:   str(metaFilename),
		Title:      str(metaTitle),
	}
}

// similarity converts a cosine-space distance into a similarity in [0, 1].
func similarity(distance float64) float64 {
	sim := 1 - distance
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}

func errorMessage(data []byte) string {
	var e errorResponse
	if json.Unmarshal(data, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return string(data)
}
