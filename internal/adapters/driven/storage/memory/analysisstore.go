package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure AnalysisStore implements the interface.
var _ driven.AnalysisStore = (*AnalysisStore)(nil)

// AnalysisStore is an in-memory implementation of driven.AnalysisStore.
// Records are deep-copied on the way in and out so callers never share
// state with the store.
type AnalysisStore struct {
	mu       sync.RWMutex
	analyses map[string][]byte
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		analyses: make(map[string][]byte),
	}
}

// Save stores or replaces an analysis.
func (s *AnalysisStore) Save(_ context.Context, analysis *domain.DocumentAnalysis) error {
	if analysis == nil || analysis.ID == "" {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.ID] = data
	return nil
}

// Get retrieves an analysis by ID.
func (s *AnalysisStore) Get(_ context.Context, id string) (*domain.DocumentAnalysis, error) {
	s.mu.RLock()
	data, ok := s.analyses[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	var analysis domain.DocumentAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &analysis, nil
}

// List returns all analyses, newest upload first.
func (s *AnalysisStore) List(_ context.Context) ([]domain.DocumentAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DocumentAnalysis, 0, len(s.analyses))
	for _, data := range s.analyses {
		var analysis domain.DocumentAnalysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		result = append(result, analysis)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].UploadedAt.After(result[j].UploadedAt)
	})
	return result, nil
}
