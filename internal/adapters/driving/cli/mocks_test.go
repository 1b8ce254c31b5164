package cli

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	mu       sync.Mutex
	analyses map[string]*domain.DocumentAnalysis
	result   *domain.DocumentAnalysis
	err      error

	analyzed []*domain.RawDocument
	resumed  []string
}

func newMockAnalysisService() *mockAnalysisService {
	return &mockAnalysisService{analyses: make(map[string]*domain.DocumentAnalysis)}
}

func (m *mockAnalysisService) Analyze(_ context.Context, raw *domain.RawDocument) (*domain.DocumentAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzed = append(m.analyzed, raw)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	a := completedAnalysis("analysis-1", raw.Filename)
	return a, nil
}

func (m *mockAnalysisService) Resume(_ context.Context, id string) (*domain.DocumentAnalysis, error) {
	m.resumed = append(m.resumed, id)
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.analyses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (m *mockAnalysisService) Get(_ context.Context, id string) (*domain.DocumentAnalysis, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.analyses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (m *mockAnalysisService) List(_ context.Context) ([]domain.DocumentAnalysis, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.DocumentAnalysis, 0, len(m.analyses))
	for _, a := range m.analyses {
		out = append(out, *a)
	}
	return out, nil
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	pingErr     error

	sets []string
}

func (m *mockAnalysisService) analyzedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.analyzed))
	for i, raw := range m.analyzed {
		names[i] = raw.Filename
	}
	return names
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets = append(m.sets, key+"="+value)
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetVectorStore(provider domain.VectorStoreProvider, baseURL string) error {
	m.settings.VectorStore.Provider = provider
	m.settings.VectorStore.BaseURL = baseURL
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// completedAnalysis returns a finished research-paper record.
func completedAnalysis(id, filename string) *domain.DocumentAnalysis {
	uploaded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	processed := uploaded.Add(time.Minute)
	return &domain.DocumentAnalysis{
		ID:          id,
		Filename:    filename,
		FileType:    "text/plain",
		Size:        42,
		UploadedAt:  uploaded,
		ProcessedAt: &processed,
		Status:      domain.StatusCompleted,
		Stage:       domain.StageRelated,
		Content: domain.Content{
			Text: "Deep Residual Learning\nWe present a residual learning framework.",
			Structure: domain.DocumentStructure{
				Title:    "Deep Residual Learning",
				Abstract: "We present a residual learning framework.",
				Sections: []domain.Section{{Title: "Introduction", Level: 1}},
			},
			Metadata: domain.ContentMetadata{Language: "en", PageCount: 1, WordCount: 8},
		},
		Classification: domain.DocumentTypeResearchPaper,
		Research: &domain.ResearchAnalysis{
			ResearchQuestions: []string{"Does depth help?"},
			Methodology:       domain.MethodologyAssessment{Description: "Image classification benchmarks"},
			KeyFindings:       []domain.KeyFinding{{Finding: "Residual nets train deeper", Significance: domain.SignificanceHigh}},
		},
		Relationships: []domain.DocumentRelationship{{
			TargetDocumentID: "doc-vgg",
			TargetTitle:      "Very Deep Convolutional Networks",
			Type:             domain.RelationshipBuildsUpon,
			Similarity:       0.82,
			Description:      "Extends very deep networks with shortcuts.",
		}},
	}
}

// setupTestServices installs mock services and returns a cleanup function
// restoring the previous state.
func setupTestServices() (*mockAnalysisService, *mockSettingsService, func()) {
	prevAnalysis, prevSettings, prevBootstrap := analysisService, settingsService, bootstrap
	analysis := newMockAnalysisService()
	settings := newMockSettingsService()
	analysisService = analysis
	settingsService = settings
	bootstrap = nil

	return analysis, settings, func() {
		analysisService = prevAnalysis
		settingsService = prevSettings
		bootstrap = prevBootstrap
		outputJSON = false
		analyzeType = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// execute runs the root command with args and returns the combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
