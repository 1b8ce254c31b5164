package driven

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// AnalysisStore checkpoints DocumentAnalysis records.
// Backed by SQLite for durable storage.
type AnalysisStore interface {
	// Save stores or replaces an analysis by ID.
	Save(ctx context.Context, analysis *domain.DocumentAnalysis) error

	// Get retrieves an analysis by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.DocumentAnalysis, error)

	// List returns all analyses, newest upload first.
	List(ctx context.Context) ([]domain.DocumentAnalysis, error)
}
