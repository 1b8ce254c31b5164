package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure VectorRecordStore implements the interface.
var _ driven.VectorRecordStore = (*VectorRecordStore)(nil)

// VectorRecordStore is an in-memory implementation of driven.VectorRecordStore.
type VectorRecordStore struct {
	mu      sync.RWMutex
	records map[string]driven.VectorRecord
}

// NewVectorRecordStore creates a new in-memory vector record store.
func NewVectorRecordStore() *VectorRecordStore {
	return &VectorRecordStore{
		records: make(map[string]driven.VectorRecord),
	}
}

// SaveVectors upserts records by ID.
func (s *VectorRecordStore) SaveVectors(_ context.Context, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		s.records[r.ID] = r
	}
	return nil
}

// LoadVectors returns every stored record ordered by ID.
func (s *VectorRecordStore) LoadVectors(_ context.Context) ([]driven.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]driven.VectorRecord, 0, len(s.records))
	for _, r := range s.records {
		r.Vector = append([]float32(nil), r.Vector...)
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
