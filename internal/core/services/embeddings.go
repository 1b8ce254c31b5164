package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/postprocessors/chunker"
)

// TextSplitter splits long text into embeddable chunks.
type TextSplitter interface {
	Split(text string) []string
}

// EmbeddingGenerator turns a document's segments into fixed-size vectors.
type EmbeddingGenerator struct {
	embedder   driven.EmbeddingService
	splitter   TextSplitter
	dimensions int
	prefix     int
	fullText   bool
	timeout    time.Duration
}

// NewEmbeddingGenerator creates a generator producing vectors of the given
// dimensionality. A nil embedder yields zero vectors for every document.
func NewEmbeddingGenerator(
	embedder driven.EmbeddingService,
	dimensions int,
	pipeline domain.PipelineSettings,
) *EmbeddingGenerator {
	return &EmbeddingGenerator{
		embedder:   embedder,
		splitter:   chunker.New(),
		dimensions: dimensions,
		prefix:     pipeline.StructurePrefix,
		fullText:   pipeline.FullTextEmbedding,
		timeout:    pipeline.ServiceTimeout,
	}
}

// SetSplitter replaces the chunker used for the full-text vector.
func (g *EmbeddingGenerator) SetSplitter(splitter TextSplitter) {
	if splitter != nil {
		g.splitter = splitter
	}
}

// Dimensions returns the size of every generated vector.
func (g *EmbeddingGenerator) Dimensions() int {
	return g.dimensions
}

// Generate embeds the summary, methodology, conclusions and full text
// concurrently. All four vectors always have the declared size; absent
// segments are zero. If any call fails every vector is zeroed, Generated
// is false and the cause is returned.
func (g *EmbeddingGenerator) Generate(
	ctx context.Context,
	structure domain.DocumentStructure,
	text string,
) (domain.Embeddings, error) {
	if g.embedder == nil {
		return domain.ZeroEmbeddings(g.dimensions), domain.ErrEmbeddingUnavailable
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	segments := SegmentTexts(structure, text, g.prefix)
	out := domain.ZeroEmbeddings(g.dimensions)

	eg, egCtx := errgroup.WithContext(ctx)
	embedInto := func(dst *[]float32, segment string) {
		if strings.TrimSpace(segment) == "" {
			return
		}
		eg.Go(func() error {
			vec, err := g.embedder.Embed(egCtx, segment)
			if err != nil {
				return err
			}
			*dst = Fit(vec, g.dimensions)
			return nil
		})
	}

	embedInto(&out.Summary, segments[domain.SegmentSummary])
	embedInto(&out.Methodology, segments[domain.SegmentMethodology])
	embedInto(&out.Conclusions, segments[domain.SegmentConclusions])

	if g.fullText {
		if chunks := g.splitter.Split(text); len(chunks) > 0 {
			eg.Go(func() error {
				vecs, err := g.embedder.EmbedBatch(egCtx, chunks)
				if err != nil {
					return err
				}
				out.FullText = meanVector(vecs, g.dimensions)
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return domain.ZeroEmbeddings(g.dimensions), fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	out.Generated = true
	return out, nil
}

// SegmentTexts returns the text embedded for the summary, methodology and
// conclusions segments. The summary falls back to the first prefix runes.
func SegmentTexts(structure domain.DocumentStructure, text string, prefix int) map[domain.Segment]string {
	summary := structure.Abstract
	if strings.TrimSpace(summary) == "" {
		summary = truncateRunes(text, prefix)
	}

	methodology := structure.Methodology
	if strings.TrimSpace(methodology) == "" {
		if sec, ok := structure.FindSection("methodology", "methods"); ok {
			methodology = sec.Content
		}
	}

	conclusions := structure.Conclusion
	if strings.TrimSpace(conclusions) == "" {
		if sec, ok := structure.FindSection("conclusion"); ok {
			conclusions = sec.Content
		}
	}

	return map[domain.Segment]string{
		domain.SegmentSummary:     summary,
		domain.SegmentMethodology: methodology,
		domain.SegmentConclusions: conclusions,
	}
}

// Fit truncates or zero-pads v to exactly dims values.
func Fit(v []float32, dims int) []float32 {
	out := make([]float32, dims)
	copy(out, v)
	return out
}

// meanVector averages vectors after fitting each to dims.
func meanVector(vectors [][]float32, dims int) []float32 {
	mean := make([]float32, dims)
	if len(vectors) == 0 {
		return mean
	}
	for _, v := range vectors {
		fitted := Fit(v, dims)
		for i := range mean {
			mean[i] += fitted[i]
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
