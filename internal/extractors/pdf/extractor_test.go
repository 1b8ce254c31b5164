package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// buildPDF assembles a minimal PDF with one Helvetica text line per page.
func buildPDF(pages ...string) []byte {
	var objects []string
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+i*2)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+i*2),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.IsType(t, &Extractor{}, extractor)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Equal(t, []string{"application/pdf"}, mimeTypes)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_SinglePage(t *testing.T) {
	raw := &domain.RawDocument{
		Filename: "paper.pdf",
		MIMEType: MIMEType,
		Content:  buildPDF("Hello PDF"),
	}

	result, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Hello PDF")
	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, Name, result.Extractor)
}

func TestExtract_MultiplePages(t *testing.T) {
	raw := &domain.RawDocument{
		Filename: "paper.pdf",
		MIMEType: MIMEType,
		Content:  buildPDF("First page", "Second page"),
	}

	result, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 2, result.PageCount)
	assert.Contains(t, result.Text, "First page")
	assert.Contains(t, result.Text, "Second page")
	assert.Contains(t, result.Text, pageSeparator)
}

func TestExtract_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty", content: nil},
		{name: "not a pdf", content: []byte("this is not a pdf at all, just some words")},
		{name: "truncated", content: buildPDF("Hello")[:60]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawDocument{MIMEType: MIMEType, Content: tt.content}
			result, err := New().Extract(context.Background(), raw)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrExtraction)

			var extractionErr *domain.ExtractionError
			assert.ErrorAs(t, err, &extractionErr)
		})
	}
}

func TestExtract_NilDocument(t *testing.T) {
	result, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestBytesReaderAt(t *testing.T) {
	r := newBytesReaderAt([]byte("abcdef"))

	buf := make([]byte, 3)
	n, err := r.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "cde", string(buf))

	n, err = r.ReadAt(buf, 4)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, n)

	_, err = r.ReadAt(buf, 10)
	assert.Equal(t, io.EOF, err)

	_, err = r.ReadAt(buf, -1)
	assert.Error(t, err)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.TextExtractor = (*Extractor)(nil)
}
