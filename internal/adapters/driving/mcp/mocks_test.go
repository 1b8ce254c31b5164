package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	analyses []domain.DocumentAnalysis
	analysis *domain.DocumentAnalysis
	err      error

	lastRaw *domain.RawDocument
	lastID  string
}

func (m *mockAnalysisService) Analyze(_ context.Context, raw *domain.RawDocument) (*domain.DocumentAnalysis, error) {
	m.lastRaw = raw
	if m.err != nil {
		return nil, m.err
	}
	if m.analysis != nil {
		return m.analysis, nil
	}
	return domain.NewDocumentAnalysis("new-id", raw, time.Now()), nil
}

func (m *mockAnalysisService) Resume(_ context.Context, id string) (*domain.DocumentAnalysis, error) {
	m.lastID = id
	return m.analysis, m.err
}

func (m *mockAnalysisService) Get(_ context.Context, id string) (*domain.DocumentAnalysis, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	if m.analysis == nil {
		return nil, domain.ErrNotFound
	}
	return m.analysis, nil
}

func (m *mockAnalysisService) List(_ context.Context) ([]domain.DocumentAnalysis, error) {
	return m.analyses, m.err
}

// completedAnalysis returns a research-paper record with one relationship.
func completedAnalysis(id string, uploaded time.Time) domain.DocumentAnalysis {
	processed := uploaded.Add(time.Minute)
	return domain.DocumentAnalysis{
		ID:          id,
		Filename:    id + ".pdf",
		FileType:    "application/pdf",
		UploadedAt:  uploaded,
		ProcessedAt: &processed,
		Status:      domain.StatusCompleted,
		Stage:       domain.StageRelated,
		Content: domain.Content{
			Text: "Attention is all you need.",
			Structure: domain.DocumentStructure{
				Title:    "Attention Is All You Need",
				Abstract: "We propose the Transformer.",
			},
			Metadata: domain.ContentMetadata{Language: "en", PageCount: 11, WordCount: 5},
		},
		Classification: domain.DocumentTypeResearchPaper,
		Research:       domain.FallbackResearchAnalysis(),
		Embeddings:     domain.ZeroEmbeddings(4),
		Relationships: []domain.DocumentRelationship{{
			TargetDocumentID: "other",
			Type:             domain.RelationshipBuildsUpon,
			Similarity:       0.87,
			Description:      "Extends the attention mechanism.",
			SpecificSections: []string{"Methods"},
		}},
	}
}
