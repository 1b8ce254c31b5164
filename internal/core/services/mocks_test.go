package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService. Responses are chosen by the
// prompt kind so one mock can serve the whole pipeline.
type mockLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	delay     map[string]time.Duration
	calls     []string
	lastOpts  driven.GenerateOptions
}

func newMockLLM() *mockLLM {
	return &mockLLM{
		responses: make(map[string]string),
		errs:      make(map[string]error),
		delay:     make(map[string]time.Duration),
	}
}

// promptKind identifies the built-in prompt a request was rendered from.
func promptKind(prompt string) string {
	switch {
	case strings.Contains(prompt, "Extract the structure"):
		return driven.PromptStructure
	case strings.Contains(prompt, "Classify the document"):
		return driven.PromptClassify
	case strings.Contains(prompt, "peer reviewer"):
		return driven.PromptResearch
	case strings.Contains(prompt, "experimental design"):
		return driven.PromptExperimental
	case strings.Contains(prompt, "semantically similar"):
		return driven.PromptRelationship
	default:
		return "custom"
	}
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	kind := promptKind(prompt)

	m.mu.Lock()
	m.calls = append(m.calls, kind)
	m.lastOpts = opts
	delay := m.delay[kind]
	resp, err := m.responses[kind], m.errs[kind]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return resp, err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == kind {
			n++
		}
	}
	return n
}

// mockEmbedder implements driven.EmbeddingService. Each text maps to a
// deterministic vector unless vectors overrides it.
type mockEmbedder struct {
	mu       sync.Mutex
	dims     int
	vectors  map[string][]float32
	err      error
	batchErr error
	texts    []string
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	v := make([]float32, m.dims)
	for i, r := range text {
		v[i%m.dims] += float32(r%7 + 1)
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

// mockVectorStore implements driven.VectorStore with brute-force cosine search.
type mockVectorStore struct {
	mu        sync.Mutex
	records   map[string]driven.VectorRecord
	matches   []driven.VectorMatch
	upsertErr error
	queryErr  error
	queries   []driven.VectorQuery
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{records: make(map[string]driven.VectorRecord)}
}

func (m *mockVectorStore) Upsert(_ context.Context, records []driven.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, q driven.VectorQuery) ([]driven.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.matches != nil {
		return m.matches, nil
	}

	var out []driven.VectorMatch
	for _, r := range m.records {
		if !q.Filter.Matches(r.Metadata) {
			continue
		}
		out = append(out, driven.VectorMatch{ID: r.ID, Score: cosine(q.Vector, r.Vector), Metadata: r.Metadata})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if q.TopK > 0 && len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out, nil
}

func (m *mockVectorStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockRegistry implements driven.ExtractorRegistry.
type mockRegistry struct {
	result *driven.ExtractResult
	err    error
}

func (m *mockRegistry) Extract(_ context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &driven.ExtractResult{Text: string(raw.Content), PageCount: 1, Extractor: "mock"}, nil
}

func (m *mockRegistry) Register(_ driven.TextExtractor) {}

func (m *mockRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

// mockAnalysisStore implements driven.AnalysisStore and counts saves.
type mockAnalysisStore struct {
	mu      sync.Mutex
	records map[string]domain.DocumentAnalysis
	stages  []domain.Stage
	saveErr error
}

func newMockAnalysisStore() *mockAnalysisStore {
	return &mockAnalysisStore{records: make(map[string]domain.DocumentAnalysis)}
}

func (m *mockAnalysisStore) Save(_ context.Context, a *domain.DocumentAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, a.Stage)
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[a.ID] = *a
	return nil
}

func (m *mockAnalysisStore) Get(_ context.Context, id string) (*domain.DocumentAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *mockAnalysisStore) List(_ context.Context) ([]domain.DocumentAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DocumentAnalysis, 0, len(m.records))
	for _, a := range m.records {
		out = append(out, a)
	}
	return out, nil
}

// mockMetrics implements driven.PipelineMetrics.
type mockMetrics struct {
	mu           sync.Mutex
	stages       map[domain.Stage]int
	degradations map[domain.Stage]int
	documents    map[domain.AnalysisStatus]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		stages:       make(map[domain.Stage]int),
		degradations: make(map[domain.Stage]int),
		documents:    make(map[domain.AnalysisStatus]int),
	}
}

func (m *mockMetrics) ObserveStage(stage domain.Stage, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[stage]++
}

func (m *mockMetrics) RecordDegradation(stage domain.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradations[stage]++
}

func (m *mockMetrics) RecordDocument(status domain.AnalysisStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[status]++
}

// errServiceDown is a generic transport failure.
var errServiceDown = errors.New("connection refused")

// testPipeline returns pipeline settings with a short timeout.
func testPipeline() domain.PipelineSettings {
	p := domain.DefaultPipelineSettings()
	p.ServiceTimeout = 200 * time.Millisecond
	return p
}

// unitVector returns a dims-sized vector with 1 at index i.
func unitVector(dims, i int) []float32 {
	v := make([]float32, dims)
	v[i] = 1
	return v
}

// vectorWithCosine returns a unit vector whose cosine with unitVector(dims, 0) is c.
func vectorWithCosine(dims int, c float64) []float32 {
	v := make([]float32, dims)
	v[0] = float32(c)
	v[1] = float32(math.Sqrt(1 - c*c))
	return v
}
