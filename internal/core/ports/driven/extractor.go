package driven

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// TextExtractor turns the bytes of one MIME family into plain text.
type TextExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	// A trailing "/*" matches a whole family (e.g. "image/*").
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract returns the document text.
	// Failures are *domain.ExtractionError values.
	Extract(ctx context.Context, raw *domain.RawDocument) (*ExtractResult, error)
}

// ExtractResult contains the output of extraction.
type ExtractResult struct {
	// Text is the extracted plain text.
	Text string

	// PageCount is the number of pages read (1 for single-page formats).
	PageCount int

	// Extractor names the extractor that produced the text.
	Extractor string
}

// ExtractorRegistry selects the appropriate extractor for a document.
type ExtractorRegistry interface {
	// Extract dispatches on the declared MIME type.
	// Unknown types fail with a *domain.ExtractionError wrapping
	// domain.ErrUnsupportedFormat.
	Extract(ctx context.Context, raw *domain.RawDocument) (*ExtractResult, error)

	// Register adds an extractor to the registry.
	Register(extractor TextExtractor)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}

// OCREngine recognises text in a pre-processed image.
type OCREngine interface {
	// Recognize returns the text found in a PNG-encoded image.
	Recognize(ctx context.Context, png []byte) (string, error)

	// Name identifies the engine.
	Name() string
}
