package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreProvider identifies the vector store backend.
type VectorStoreProvider string

// Available vector store providers.
const (
	// VectorStoreHNSW is the in-process HNSW index persisted to the local database.
	VectorStoreHNSW VectorStoreProvider = "hnsw"

	// VectorStoreChroma is a remote ChromaDB server.
	VectorStoreChroma VectorStoreProvider = "chroma"

	// VectorStoreNone disables vector persistence and relationship discovery.
	VectorStoreNone VectorStoreProvider = "none"
)

// IsValid returns true if the provider is recognised.
func (p VectorStoreProvider) IsValid() bool {
	switch p {
	case VectorStoreHNSW, VectorStoreChroma, VectorStoreNone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p VectorStoreProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p VectorStoreProvider) Description() string {
	switch p {
	case VectorStoreHNSW:
		return "HNSW (local, in-process)"
	case VectorStoreChroma:
		return "ChromaDB (remote)"
	case VectorStoreNone:
		return "Disabled"
	default:
		return unknownDescription
	}
}

// VectorStoreSettings holds vector store configuration.
type VectorStoreSettings struct {
	// Provider is the vector store backend.
	Provider VectorStoreProvider

	// BaseURL is the server endpoint (for Chroma).
	BaseURL string

	// Collection is the collection name (for Chroma).
	Collection string

	// Dimensions is the fixed embedding vector size.
	Dimensions int
}

// PipelineSettings tunes the analysis pipeline.
type PipelineSettings struct {
	// SimilarityThreshold is the exclusive lower bound for relationships.
	SimilarityThreshold float64

	// TopK is the number of neighbours requested from the vector store.
	TopK int

	// ServiceTimeout bounds every text-understanding call.
	ServiceTimeout time.Duration

	// StructurePrefix is the number of characters sent to the structure analyzer.
	StructurePrefix int

	// ClassifyPrefix is the number of characters sent to the classifier.
	ClassifyPrefix int

	// AnalysisPrefix is the number of characters sent to the specialised analyzers.
	AnalysisPrefix int

	// RelationshipExcerpt is the number of characters of the source document
	// sent when typing a relationship.
	RelationshipExcerpt int

	// OCRMaxWidth bounds the width of images before OCR.
	OCRMaxWidth int

	// RequestsPerSecond paces calls to the text-understanding service (0 = unlimited).
	RequestsPerSecond float64

	// Burst is the maximum burst of service calls.
	Burst int

	// FullTextEmbedding enables the chunked full-text vector.
	FullTextEmbedding bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// VectorStore holds vector store settings.
	VectorStore VectorStoreSettings

	// Pipeline holds analysis pipeline tuning.
	Pipeline PipelineSettings
}

// DefaultPipelineSettings returns the pipeline defaults.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		SimilarityThreshold: 0.7,
		TopK:                10,
		ServiceTimeout:      30 * time.Second,
		StructurePrefix:     4000,
		ClassifyPrefix:      2000,
		AnalysisPrefix:      12000,
		RelationshipExcerpt: 1500,
		OCRMaxWidth:         2000,
		RequestsPerSecond:   4,
		Burst:               4,
		FullTextEmbedding:   true,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// AI features (Embedding, LLM) are left unconfigured by default;
// the pipeline then runs on its fallbacks.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		VectorStore: VectorStoreSettings{
			Provider:   VectorStoreHNSW,
			Collection: "docsight",
			Dimensions: 768, // nomic-embed-text default
		},
		Pipeline: DefaultPipelineSettings(),
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllVectorStoreProviders returns the available vector store backends.
func AllVectorStoreProviders() []VectorStoreProvider {
	return []VectorStoreProvider{
		VectorStoreHNSW,
		VectorStoreChroma,
		VectorStoreNone,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
