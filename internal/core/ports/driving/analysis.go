package driving

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// AnalysisService runs documents through the analysis pipeline.
type AnalysisService interface {
	// Analyze ingests one document and returns its terminal record.
	// Extraction failures yield a failed record, not an error; an error is
	// returned only for invalid input.
	Analyze(ctx context.Context, raw *domain.RawDocument) (*domain.DocumentAnalysis, error)

	// Resume continues a checkpointed analysis from its last completed stage.
	Resume(ctx context.Context, id string) (*domain.DocumentAnalysis, error)

	// Get retrieves an analysis by ID.
	Get(ctx context.Context, id string) (*domain.DocumentAnalysis, error)

	// List returns all stored analyses.
	List(ctx context.Context) ([]domain.DocumentAnalysis, error)
}
