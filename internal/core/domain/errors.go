package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTerminalStatus indicates a record has already completed or failed.
	ErrTerminalStatus = errors.New("analysis already in terminal status")

	// Extraction Errors. These are fatal to the pipeline.

	// ErrUnsupportedFormat indicates no extractor handles the declared MIME type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates the file could not be converted to text
	// (corrupt file, OCR failure, PDF parser failure).
	ErrExtraction = errors.New("extraction failed")

	// Service Errors. These are recovered locally by each stage.

	// ErrAnalysisService indicates the text-understanding service failed,
	// timed out or returned a non-2xx response.
	ErrAnalysisService = errors.New("analysis service error")

	// ErrMalformedResponse indicates the service answered with output that
	// could not be parsed or validated.
	ErrMalformedResponse = errors.New("malformed service response")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Stages requiring it fall back to their documented defaults.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Embeddings are zero-filled and relationship discovery is skipped.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured
	// or unreachable. Persistence and relationship discovery are skipped.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrOCRUnavailable indicates no OCR engine is installed or configured.
	ErrOCRUnavailable = errors.New("OCR engine unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// RateLimitError reports a 429 answer. RetryAfter is zero when the
// provider did not say how long to wait.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

// Error implements error.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// Unwrap returns ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ExtractionError reports a fatal failure of the Text Extractor.
// It always wraps ErrUnsupportedFormat or ErrExtraction.
type ExtractionError struct {
	// MIMEType is the declared type of the failing document.
	MIMEType string

	// Err is the underlying cause.
	Err error
}

// NewUnsupportedFormatError builds the error returned for MIME types without an extractor.
func NewUnsupportedFormatError(mimeType string) *ExtractionError {
	return &ExtractionError{MIMEType: mimeType, Err: ErrUnsupportedFormat}
}

// NewExtractionError wraps a parser or OCR failure.
func NewExtractionError(mimeType string, err error) *ExtractionError {
	if errors.Is(err, ErrExtraction) || errors.Is(err, ErrUnsupportedFormat) {
		return &ExtractionError{MIMEType: mimeType, Err: err}
	}
	return &ExtractionError{MIMEType: mimeType, Err: fmt.Errorf("%w: %w", ErrExtraction, err)}
}

// Error implements error.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.MIMEType, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ParseError reports a text-understanding response that failed the
// parsing boundary. Raw holds the offending response for diagnostics.
type ParseError struct {
	// Stage is the pipeline stage that requested the response.
	Stage Stage

	// Raw is the unparsed service response.
	Raw string

	// Err is the underlying decode or validation failure.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse response: %v", e.Stage, e.Err)
}

// Unwrap exposes both the cause and ErrMalformedResponse to errors.Is.
func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}
