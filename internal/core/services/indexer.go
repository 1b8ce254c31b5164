package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// indexedSegments are the segments persisted to the vector store.
var indexedSegments = []domain.Segment{
	domain.SegmentSummary,
	domain.SegmentMethodology,
	domain.SegmentFullText,
}

// VectorIndexer persists a document's vectors.
type VectorIndexer struct {
	store driven.VectorStore
}

// NewVectorIndexer creates an indexer. A nil store makes Index fail with
// domain.ErrVectorStoreUnavailable.
func NewVectorIndexer(store driven.VectorStore) *VectorIndexer {
	return &VectorIndexer{store: store}
}

// Records returns the vector records for an analysis. Zero vectors are skipped.
func (x *VectorIndexer) Records(analysis *domain.DocumentAnalysis) []driven.VectorRecord {
	var records []driven.VectorRecord
	for _, segment := range indexedSegments {
		vec := analysis.Embeddings.Segment(segment)
		if domain.IsZeroVector(vec) {
			continue
		}
		records = append(records, driven.VectorRecord{
			ID:     driven.VectorRecordID(analysis.ID, segment),
			Vector: vec,
			Metadata: driven.VectorMetadata{
				DocumentID: analysis.ID,
				Segment:    segment,
				Filename:   analysis.Filename,
				Title:      analysis.Content.Structure.Title,
			},
		})
	}
	return records
}

// Index upserts the analysis vectors and returns how many were written.
func (x *VectorIndexer) Index(ctx context.Context, analysis *domain.DocumentAnalysis) (int, error) {
	if x.store == nil {
		return 0, domain.ErrVectorStoreUnavailable
	}

	records := x.Records(analysis)
	if len(records) == 0 {
		return 0, nil
	}

	if err := x.store.Upsert(ctx, records); err != nil {
		if errors.Is(err, domain.ErrVectorStoreUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	return len(records), nil
}
