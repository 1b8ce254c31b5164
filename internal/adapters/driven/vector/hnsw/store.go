// Package hnsw provides an in-process vector store backed by a coder/hnsw graph.
//
// The graph lives in memory. When a VectorRecordStore is supplied every
// upsert is written through to it and the graph is rebuilt from it on open.
// Replacing an existing key marks the graph stale; it is rebuilt from the
// record maps before the next search instead of deleting graph nodes.
package hnsw

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/coder/hnsw"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Graph tuning defaults.
const (
	DefaultM        = 16
	DefaultEfSearch = 64

	// oversample widens graph searches so filtered queries still fill TopK.
	oversample = 4
)

// Config holds configuration for the store.
type Config struct {
	// Dimensions is the fixed vector size. Records of any other size are rejected.
	Dimensions int

	// M is the maximum number of neighbours per node (default: 16).
	M int

	// EfSearch is the search candidate list size (default: 64).
	EfSearch int
}

// Store is a thread-safe vector store over an HNSW graph.
type Store struct {
	mu  sync.RWMutex
	cfg Config

	graph *hnsw.Graph[string]
	stale bool

	// vectors and metadata are the source of truth; graph is derived from them.
	vectors  map[string][]float32
	metadata map[string]driven.VectorMetadata

	dims    int
	records driven.VectorRecordStore
}

// Open creates a store and loads any persisted records. records may be nil
// for a purely in-memory index.
func Open(ctx context.Context, cfg Config, records driven.VectorRecordStore) (*Store, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	if cfg.M == 0 {
		cfg.M = DefaultM
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = DefaultEfSearch
	}

	s := &Store{
		cfg:      cfg,
		graph:    newGraph(cfg),
		vectors:  make(map[string][]float32),
		metadata: make(map[string]driven.VectorMetadata),
		dims:     cfg.Dimensions,
		records:  records,
	}

	if records == nil {
		return s, nil
	}

	saved, err := records.LoadVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load vectors: %w", domain.ErrVectorStoreUnavailable, err)
	}
	skipped := 0
	for _, r := range saved {
		if len(r.Vector) != s.dims || domain.IsZeroVector(r.Vector) {
			skipped++
			continue
		}
		s.add(r)
	}
	if skipped > 0 {
		logger.Warn("Skipped %d stored vectors that do not match %d dimensions", skipped, s.dims)
	}
	logger.Debug("HNSW store opened with %d vectors", len(s.vectors))
	return s, nil
}

func newGraph(cfg Config) *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.Distance = hnsw.CosineDistance
	g.M = cfg.M
	g.EfSearch = cfg.EfSearch
	return g
}

// Upsert writes records through to the record store, then indexes them.
func (s *Store) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: vector record without id", domain.ErrInvalidInput)
		}
		if len(r.Vector) != s.dims {
			return fmt.Errorf("%w: vector %s has %d dimensions, want %d",
				domain.ErrInvalidInput, r.ID, len(r.Vector), s.dims)
		}
		if domain.IsZeroVector(r.Vector) {
			return fmt.Errorf("%w: vector %s is all zeros", domain.ErrInvalidInput, r.ID)
		}
	}

	if s.records != nil {
		if err := s.records.SaveVectors(ctx, records); err != nil {
			return fmt.Errorf("%w: save vectors: %w", domain.ErrVectorStoreUnavailable, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.add(r)
	}
	return nil
}

// add stores the record and indexes it. A replaced key only marks the graph
// stale. Caller holds the write lock (or owns the store exclusively during Open).
func (s *Store) add(r driven.VectorRecord) {
	vec := make([]float32, len(r.Vector))
	copy(vec, r.Vector)

	_, exists := s.vectors[r.ID]
	s.vectors[r.ID] = vec
	s.metadata[r.ID] = r.Metadata

	if exists || s.stale {
		s.stale = true
		return
	}
	if !s.insert(r.ID, vec) {
		s.stale = true
	}
}

// insert adds one node to the graph and reports whether it succeeded.
func (s *Store) insert(key string, vec []float32) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("HNSW insert panic recovered for %s: %v", key, r)
			ok = false
		}
	}()
	s.graph.Add(hnsw.MakeNode(key, vec))
	return true
}

// rebuild replaces the graph with one built from the record maps, in key
// order. Caller holds the write lock.
func (s *Store) rebuild() error {
	keys := make([]string, 0, len(s.vectors))
	for k := range s.vectors {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	s.graph = newGraph(s.cfg)
	for _, k := range keys {
		if !s.insert(k, s.vectors[k]) {
			return fmt.Errorf("%w: index rebuild failed", domain.ErrVectorStoreUnavailable)
		}
	}
	s.stale = false
	logger.Debug("HNSW graph rebuilt with %d vectors", len(keys))
	return nil
}

// fresh rebuilds a stale graph before a search.
func (s *Store) fresh() error {
	s.mu.RLock()
	stale := s.stale
	s.mu.RUnlock()
	if !stale {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stale {
		return nil
	}
	return s.rebuild()
}

// Query returns up to TopK filtered matches ordered by descending similarity.
func (s *Store) Query(ctx context.Context, query driven.VectorQuery) (matches []driven.VectorMatch, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query.TopK <= 0 {
		return nil, nil
	}
	if len(query.Vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			domain.ErrInvalidInput, len(query.Vector), s.dims)
	}
	if domain.IsZeroVector(query.Vector) {
		return nil, nil
	}

	if err := s.fresh(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("HNSW search panic recovered: %v", r)
			matches, err = nil, fmt.Errorf("%w: index search failed", domain.ErrVectorStoreUnavailable)
		}
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.graph.Len()
	if total == 0 {
		return nil, nil
	}

	// Filtering happens after the graph search, so widen k until TopK
	// matches survive or the whole graph has been considered.
	k := min(query.TopK*oversample, total)
	for {
		matches = s.search(query, k)
		if len(matches) >= query.TopK || k >= total {
			break
		}
		k = min(k*2, total)
	}

	if len(matches) > query.TopK {
		matches = matches[:query.TopK]
	}
	return matches, nil
}

// search runs one graph search and applies the filter. Caller holds the read lock.
func (s *Store) search(query driven.VectorQuery, k int) []driven.VectorMatch {
	nodes := s.graph.Search(query.Vector, k)

	matches := make([]driven.VectorMatch, 0, len(nodes))
	for _, n := range nodes {
		vec, ok := s.vectors[n.Key]
		if !ok {
			continue
		}
		meta := s.metadata[n.Key]
		if !query.Filter.Matches(meta) {
			continue
		}
		matches = append(matches, driven.VectorMatch{
			ID:       n.Key,
			Score:    Similarity(query.Vector, vec),
			Metadata: meta,
		})
	}
	sortMatches(matches)
	return matches
}

// Len returns the number of indexed vectors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Close releases resources. The record store is owned by the caller.
func (s *Store) Close() error {
	return nil
}

// Similarity converts cosine distance into a similarity clamped to [0, 1].
func Similarity(a, b []float32) float64 {
	sim := 1 - float64(hnsw.CosineDistance(a, b))
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}

// sortMatches orders matches by descending score, then ID for stable output.
func sortMatches(matches []driven.VectorMatch) {
	slices.SortFunc(matches, func(a, b driven.VectorMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
