package driven

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// VectorStore persists document vectors and answers nearest-neighbour queries.
// Implementations must be safe for concurrent use: independent analyses
// share a single store.
type VectorStore interface {
	// Upsert inserts or replaces records by ID.
	// Writing the same ID twice keeps the last vector.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Query returns up to TopK matches ordered by descending similarity.
	Query(ctx context.Context, query VectorQuery) ([]VectorMatch, error)

	// Close releases resources.
	Close() error
}

// VectorMetadata is stored alongside each vector.
type VectorMetadata struct {
	DocumentID string         `json:"documentId"`
	Segment    domain.Segment `json:"segment"`
	Filename   string         `json:"filename,omitempty"`
	Title      string         `json:"title,omitempty"`
}

// VectorRecord is one persisted vector.
type VectorRecord struct {
	// ID is unique per (document, segment). See VectorRecordID.
	ID       string
	Vector   []float32
	Metadata VectorMetadata
}

// VectorRecordID returns the record ID for a document segment.
func VectorRecordID(documentID string, segment domain.Segment) string {
	return documentID + "#" + string(segment)
}

// VectorFilter restricts query candidates.
type VectorFilter struct {
	// Segment limits matches to one segment. Empty matches all.
	Segment domain.Segment

	// ExcludeDocumentID drops matches from this document.
	ExcludeDocumentID string
}

// Matches reports whether metadata passes the filter.
func (f VectorFilter) Matches(m VectorMetadata) bool {
	if f.Segment != "" && m.Segment != f.Segment {
		return false
	}
	if f.ExcludeDocumentID != "" && m.DocumentID == f.ExcludeDocumentID {
		return false
	}
	return true
}

// VectorQuery is a similarity search request.
type VectorQuery struct {
	Vector []float32
	TopK   int
	Filter VectorFilter
}

// VectorMatch is one similarity search result.
type VectorMatch struct {
	ID string

	// Score is the cosine similarity in [0, 1].
	Score    float64
	Metadata VectorMetadata
}

// VectorRecordStore persists raw vector records for in-process indexes
// that need to survive restarts.
type VectorRecordStore interface {
	// SaveVectors upserts records by ID.
	SaveVectors(ctx context.Context, records []VectorRecord) error

	// LoadVectors returns every stored record.
	LoadVectors(ctx context.Context) ([]VectorRecord, error)
}
