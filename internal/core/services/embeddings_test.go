package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/postprocessors/chunker"
)

func assertDimensions(t *testing.T, e domain.Embeddings, dims int) {
	t.Helper()
	assert.Equal(t, dims, e.Dimensions)
	for _, seg := range []domain.Segment{
		domain.SegmentSummary, domain.SegmentMethodology,
		domain.SegmentConclusions, domain.SegmentFullText,
	} {
		assert.Len(t, e.Segment(seg), dims, "segment %s", seg)
	}
}

func TestEmbeddingGenerator_Generate(t *testing.T) {
	embedder := newMockEmbedder(8)
	embedder.vectors["Our abstract."] = unitVector(8, 2)

	structure := domain.DocumentStructure{
		Abstract: "Our abstract.",
		Sections: []domain.Section{{Title: "2. Methods", Content: "We mixed things."}},
	}
	gen := NewEmbeddingGenerator(embedder, 8, testPipeline())

	e, err := gen.Generate(context.Background(), structure, "Full document text about mixing things.")

	require.NoError(t, err)
	assert.True(t, e.Generated)
	assertDimensions(t, e, 8)
	assert.Equal(t, unitVector(8, 2), e.Summary)
	assert.False(t, domain.IsZeroVector(e.Methodology))
	assert.True(t, domain.IsZeroVector(e.Conclusions))
	assert.False(t, domain.IsZeroVector(e.FullText))
	assert.True(t, e.Comparable())
}

func TestEmbeddingGenerator_Generate_FitsModelDimensions(t *testing.T) {
	tests := []struct {
		name      string
		modelDims int
	}{
		{name: "model smaller than configured", modelDims: 4},
		{name: "model larger than configured", modelDims: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewEmbeddingGenerator(newMockEmbedder(tt.modelDims), 8, testPipeline())

			e, err := gen.Generate(context.Background(), domain.DocumentStructure{}, "some text")

			require.NoError(t, err)
			assertDimensions(t, e, 8)
		})
	}
}

func TestEmbeddingGenerator_Generate_EmptyText(t *testing.T) {
	embedder := newMockEmbedder(8)
	gen := NewEmbeddingGenerator(embedder, 8, testPipeline())

	e, err := gen.Generate(context.Background(), domain.DocumentStructure{}, "")

	require.NoError(t, err)
	assertDimensions(t, e, 8)
	assert.False(t, e.Comparable())
	assert.Empty(t, embedder.texts)
}

func TestEmbeddingGenerator_Generate_Failure(t *testing.T) {
	t.Run("nil embedder", func(t *testing.T) {
		e, err := NewEmbeddingGenerator(nil, 8, testPipeline()).
			Generate(context.Background(), domain.DocumentStructure{}, "text")

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.False(t, e.Generated)
		assertDimensions(t, e, 8)
	})

	t.Run("embed error zeroes every vector", func(t *testing.T) {
		embedder := newMockEmbedder(8)
		embedder.err = errServiceDown

		e, err := NewEmbeddingGenerator(embedder, 8, testPipeline()).
			Generate(context.Background(), domain.DocumentStructure{}, "text")

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.ErrorIs(t, err, errServiceDown)
		assert.False(t, e.Generated)
		assertDimensions(t, e, 8)
		assert.True(t, domain.IsZeroVector(e.FullText))
	})

	t.Run("batch error", func(t *testing.T) {
		embedder := newMockEmbedder(8)
		embedder.batchErr = errServiceDown

		e, err := NewEmbeddingGenerator(embedder, 8, testPipeline()).
			Generate(context.Background(), domain.DocumentStructure{}, "text")

		assert.ErrorIs(t, err, errServiceDown)
		assert.True(t, domain.IsZeroVector(e.Summary))
	})
}

func TestEmbeddingGenerator_FullTextDisabled(t *testing.T) {
	p := testPipeline()
	p.FullTextEmbedding = false

	e, err := NewEmbeddingGenerator(newMockEmbedder(8), 8, p).
		Generate(context.Background(), domain.DocumentStructure{}, "text")

	require.NoError(t, err)
	assert.True(t, domain.IsZeroVector(e.FullText))
	assert.False(t, domain.IsZeroVector(e.Summary))
}

func TestEmbeddingGenerator_FullTextIsChunkMean(t *testing.T) {
	embedder := newMockEmbedder(2)
	embedder.vectors["aaaa"] = []float32{2, 0}
	embedder.vectors["bbbb"] = []float32{0, 4}

	gen := NewEmbeddingGenerator(embedder, 2, testPipeline())
	gen.SetSplitter(chunker.New(chunker.WithChunkSize(4), chunker.WithOverlap(0)))

	e, err := gen.Generate(context.Background(), domain.DocumentStructure{Abstract: "x"}, "aaaabbbb")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, e.FullText)
}

func TestSegmentTexts(t *testing.T) {
	t.Run("structure fields win", func(t *testing.T) {
		s := domain.DocumentStructure{Abstract: "A", Methodology: "M", Conclusion: "C"}
		segments := SegmentTexts(s, "body", 10)

		assert.Equal(t, "A", segments[domain.SegmentSummary])
		assert.Equal(t, "M", segments[domain.SegmentMethodology])
		assert.Equal(t, "C", segments[domain.SegmentConclusions])
	})

	t.Run("falls back to prefix and sections", func(t *testing.T) {
		s := domain.DocumentStructure{Sections: []domain.Section{
			{Title: "Materials and Methods", Content: "method text"},
			{Title: "5. Conclusions", Content: "conclusion text"},
		}}
		segments := SegmentTexts(s, strings.Repeat("x", 50), 10)

		assert.Equal(t, strings.Repeat("x", 10), segments[domain.SegmentSummary])
		assert.Equal(t, "method text", segments[domain.SegmentMethodology])
		assert.Equal(t, "conclusion text", segments[domain.SegmentConclusions])
	})
}

func TestFit(t *testing.T) {
	assert.Equal(t, []float32{1, 2, 0}, Fit([]float32{1, 2}, 3))
	assert.Equal(t, []float32{1, 2}, Fit([]float32{1, 2, 3}, 2))
	assert.Equal(t, []float32{0, 0}, Fit(nil, 2))
}
