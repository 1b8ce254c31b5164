package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.IsType(t, &Extractor{}, extractor)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/plain")
	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/csv")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected string
	}{
		{name: "plain ascii", content: []byte("Hello world"), expected: "Hello world"},
		{name: "utf-8 preserved", content: []byte("Über café"), expected: "Über café"},
		{name: "invalid bytes replaced", content: []byte{'a', 0xff, 'b'}, expected: "a\ufffdb"},
		{name: "bom dropped", content: []byte("\ufeffTitle"), expected: "Title"},
		{name: "crlf normalised", content: []byte("a\r\nb"), expected: "a\nb"},
		{name: "empty", content: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Extract(context.Background(), &domain.RawDocument{
				MIMEType: "text/plain",
				Content:  tt.content,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Text)
			assert.Equal(t, 1, result.PageCount)
			assert.Equal(t, Name, result.Extractor)
		})
	}
}

func TestExtract_NilDocument(t *testing.T) {
	result, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.TextExtractor = (*Extractor)(nil)
}
