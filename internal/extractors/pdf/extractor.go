// Package pdf extracts the text layer of PDF documents.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Name identifies this extractor in analysis metadata.
const Name = "pdf"

// MIMEType is the only type handled by this extractor.
const MIMEType = "application/pdf"

// pageSeparator joins the text of consecutive pages.
const pageSeparator = "\n\n"

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads the embedded text of each page. Image-only pages
// contribute nothing; no OCR is attempted.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific extractor
}

// Extract returns the text of all pages joined by blank lines.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (result *driven.ExtractResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if len(raw.Content) == 0 {
		return nil, domain.NewExtractionError(raw.MIMEType, errors.New("empty file"))
	}

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = domain.NewExtractionError(raw.MIMEType, fmt.Errorf("parse PDF: %v", r))
		}
	}()

	reader, err := pdf.NewReader(newBytesReaderAt(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, domain.NewExtractionError(raw.MIMEType, fmt.Errorf("open PDF: %w", err))
	}

	numPages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewExtractionError(raw.MIMEType, err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("pdf: skipping page %d of %s: %v", i, raw.Filename, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if b.Len() > 0 {
			b.WriteString(pageSeparator)
		}
		b.WriteString(text)
	}

	return &driven.ExtractResult{
		Text:      b.String(),
		PageCount: numPages,
		Extractor: Name,
	}, nil
}

// bytesReaderAt implements io.ReaderAt for a byte slice.
type bytesReaderAt struct {
	data []byte
}

func newBytesReaderAt(data []byte) *bytesReaderAt {
	return &bytesReaderAt{data: data}
}

func (r *bytesReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n = copy(p, r.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}
