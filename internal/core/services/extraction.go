package services

import (
	"context"
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// errEmptyText is the cause recorded when a file yields no text at all.
var errEmptyText = errors.New("no text content extracted")

// minLanguageConfidence is the whatlanggo confidence below which no
// language is recorded.
const minLanguageConfidence = 0.5

// TextExtractionService converts raw documents into text and content metadata.
type TextExtractionService struct {
	registry driven.ExtractorRegistry
}

// NewTextExtractionService creates an extraction service over registry.
func NewTextExtractionService(registry driven.ExtractorRegistry) *TextExtractionService {
	return &TextExtractionService{registry: registry}
}

// Extract returns the document text with its metadata. Every failure is a
// *domain.ExtractionError; whitespace-only output counts as a failure.
func (s *TextExtractionService) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Content, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if s.registry == nil {
		return nil, domain.NewUnsupportedFormatError(raw.MIMEType)
	}

	result, err := s.registry.Extract(ctx, raw)
	if err != nil {
		var extractionErr *domain.ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, err
		}
		return nil, domain.NewExtractionError(raw.MIMEType, err)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, domain.NewExtractionError(raw.MIMEType, errEmptyText)
	}

	pages := result.PageCount
	if pages < 1 {
		pages = 1
	}

	return &domain.Content{
		Text: text,
		Metadata: domain.ContentMetadata{
			Language:  DetectLanguage(text),
			PageCount: pages,
			WordCount: len(strings.Fields(text)),
			Extractor: result.Extractor,
		},
	}, nil
}

// DetectLanguage returns the ISO 639-1 code of the text's language, or ""
// when detection is not confident.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(truncateRunes(text, 4000))
	if info.Confidence < minLanguageConfidence {
		return ""
	}
	return info.Lang.Iso6391()
}
