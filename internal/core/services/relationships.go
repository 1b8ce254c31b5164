package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// relationshipResponse is the JSON answer of the relationship prompt.
type relationshipResponse struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Sections    []string `json:"sections"`
}

// RelationshipEngine finds and types links between similar documents.
type RelationshipEngine struct {
	llmStage
	store     driven.VectorStore
	threshold float64
	topK      int
	excerpt   int
}

// NewRelationshipEngine creates a relationship engine over store.
func NewRelationshipEngine(
	store driven.VectorStore,
	llm driven.LLMService,
	pipeline domain.PipelineSettings,
) *RelationshipEngine {
	return &RelationshipEngine{
		llmStage:  llmStage{llm: llm, timeout: pipeline.ServiceTimeout},
		store:     store,
		threshold: pipeline.SimilarityThreshold,
		topK:      pipeline.TopK,
		excerpt:   pipeline.RelationshipExcerpt,
	}
}

// Discover returns the relationships of analysis, strongest first. Only
// candidates strictly above the similarity threshold are kept. Documents
// without a usable summary vector have no relationships.
//
// A vector store failure returns no relationships and an error wrapping
// domain.ErrVectorStoreUnavailable. Candidates the service could not type
// become similar_findings; the relationships are returned together with
// the first such cause.
func (e *RelationshipEngine) Discover(
	ctx context.Context,
	analysis *domain.DocumentAnalysis,
) ([]domain.DocumentRelationship, error) {
	if !analysis.Embeddings.Comparable() {
		return []domain.DocumentRelationship{}, nil
	}
	if e.store == nil {
		return []domain.DocumentRelationship{}, domain.ErrVectorStoreUnavailable
	}

	matches, err := e.store.Query(ctx, driven.VectorQuery{
		Vector: analysis.Embeddings.Summary,
		TopK:   e.topK,
		Filter: driven.VectorFilter{
			Segment:           domain.SegmentSummary,
			ExcludeDocumentID: analysis.ID,
		},
	})
	if err != nil {
		return []domain.DocumentRelationship{}, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}

	candidates := e.candidates(analysis.ID, matches)
	excerpt := truncateRunes(analysis.Content.Text, e.excerpt)

	relationships := make([]domain.DocumentRelationship, 0, len(candidates))
	var firstErr error
	for _, m := range candidates {
		rel, err := e.describe(ctx, excerpt, m)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		relationships = append(relationships, rel)
	}

	return relationships, firstErr
}

// candidates keeps the best match per document above the threshold,
// ordered by descending similarity.
func (e *RelationshipEngine) candidates(selfID string, matches []driven.VectorMatch) []driven.VectorMatch {
	best := make(map[string]driven.VectorMatch)
	for _, m := range matches {
		docID := m.Metadata.DocumentID
		if docID == "" || docID == selfID || m.Score <= e.threshold {
			continue
		}
		if prev, ok := best[docID]; !ok || m.Score > prev.Score {
			best[docID] = m
		}
	}

	out := make([]driven.VectorMatch, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Metadata.DocumentID < out[j].Metadata.DocumentID
	})
	return out
}

// describe types one relationship. It always returns a usable relationship.
func (e *RelationshipEngine) describe(
	ctx context.Context,
	excerpt string,
	m driven.VectorMatch,
) (domain.DocumentRelationship, error) {
	title := m.Metadata.Title
	if title == "" {
		title = m.Metadata.Filename
	}

	rel := domain.DocumentRelationship{
		TargetDocumentID: m.Metadata.DocumentID,
		TargetTitle:      title,
		Type:             domain.RelationshipSimilarFindings,
		Similarity:       m.Score,
		Description:      genericDescription(m.Score),
		SpecificSections: []string{},
	}

	prompt := fmt.Sprintf(e.loadPrompt(driven.PromptRelationship), excerpt, title, m.Score)
	answer, err := e.generate(ctx, prompt, driven.GenerateOptions{
		Format:      driven.FormatJSON,
		Temperature: 0,
	})
	if err != nil {
		return rel, err
	}

	parsed, err := decodeResponse[relationshipResponse](domain.StageRelated, answer)
	if err != nil {
		// A bare label is an acceptable answer.
		if label, ok := domain.LookupRelationshipType(answer); ok {
			rel.Type = label
			return rel, nil
		}
		return rel, err
	}

	rel.Type = domain.ParseRelationshipType(parsed.Type)
	if d := strings.TrimSpace(parsed.Description); d != "" {
		rel.Description = d
	}
	if parsed.Sections != nil {
		rel.SpecificSections = parsed.Sections
	}
	return rel, nil
}

func genericDescription(similarity float64) string {
	return fmt.Sprintf("Documents share similar content (similarity %.2f)", similarity)
}
