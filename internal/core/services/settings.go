package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyVectorProvider   = "vector_store.provider"
	keyVectorBaseURL    = "vector_store.base_url"
	keyVectorCollection = "vector_store.collection"
	keyVectorDims       = "vector_store.dimensions"

	keySimilarityThreshold = "pipeline.similarity_threshold"
	keyTopK                = "pipeline.top_k"
	keyServiceTimeout      = "pipeline.service_timeout"
	keyStructurePrefix     = "pipeline.structure_prefix"
	keyClassifyPrefix      = "pipeline.classify_prefix"
	keyAnalysisPrefix      = "pipeline.analysis_prefix"
	keyRelationshipExcerpt = "pipeline.relationship_excerpt"
	keyOCRMaxWidth         = "pipeline.ocr_max_width"
	keyRequestsPerSecond   = "pipeline.requests_per_second"
	keyBurst               = "pipeline.burst"
	keyFullTextEmbedding   = "pipeline.full_text_embedding"
)

// settingKind is the value type accepted by a settings key.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindAIProvider
	kindVectorProvider
)

// settingKinds lists every key accepted by Set.
var settingKinds = map[string]settingKind{
	keyEmbedProvider:       kindAIProvider,
	keyEmbedModel:          kindString,
	keyEmbedBaseURL:        kindString,
	keyEmbedAPIKey:         kindString,
	keyLLMProvider:         kindAIProvider,
	keyLLMModel:            kindString,
	keyLLMBaseURL:          kindString,
	keyLLMAPIKey:           kindString,
	keyVectorProvider:      kindVectorProvider,
	keyVectorBaseURL:       kindString,
	keyVectorCollection:    kindString,
	keyVectorDims:          kindInt,
	keySimilarityThreshold: kindFloat,
	keyTopK:                kindInt,
	keyServiceTimeout:      kindDuration,
	keyStructurePrefix:     kindInt,
	keyClassifyPrefix:      kindInt,
	keyAnalysisPrefix:      kindInt,
	keyRelationshipExcerpt: kindInt,
	keyOCRMaxWidth:         kindInt,
	keyRequestsPerSecond:   kindFloat,
	keyBurst:               kindInt,
	keyFullTextEmbedding:   kindBool,
}

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// settingValue is one key written by Save.
type settingValue struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Missing or invalid values fall back to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	dp := defaults.Pipeline

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		VectorStore: domain.VectorStoreSettings{
			Provider:   s.getVectorProvider(defaults.VectorStore.Provider),
			BaseURL:    s.configStore.GetString(keyVectorBaseURL),
			Collection: s.getString(keyVectorCollection, defaults.VectorStore.Collection),
			Dimensions: s.getInt(keyVectorDims, defaults.VectorStore.Dimensions),
		},
		Pipeline: domain.PipelineSettings{
			SimilarityThreshold: s.getFloat(keySimilarityThreshold, dp.SimilarityThreshold),
			TopK:                s.getInt(keyTopK, dp.TopK),
			ServiceTimeout:      s.getDuration(keyServiceTimeout, dp.ServiceTimeout),
			StructurePrefix:     s.getInt(keyStructurePrefix, dp.StructurePrefix),
			ClassifyPrefix:      s.getInt(keyClassifyPrefix, dp.ClassifyPrefix),
			AnalysisPrefix:      s.getInt(keyAnalysisPrefix, dp.AnalysisPrefix),
			RelationshipExcerpt: s.getInt(keyRelationshipExcerpt, dp.RelationshipExcerpt),
			OCRMaxWidth:         s.getInt(keyOCRMaxWidth, dp.OCRMaxWidth),
			RequestsPerSecond:   s.getFloat(keyRequestsPerSecond, dp.RequestsPerSecond),
			Burst:               s.getInt(keyBurst, dp.Burst),
			FullTextEmbedding:   s.getBool(keyFullTextEmbedding, dp.FullTextEmbedding),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}

	values := []settingValue{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyVectorProvider, settings.VectorStore.Provider.String()},
		{keyVectorBaseURL, settings.VectorStore.BaseURL},
		{keyVectorCollection, settings.VectorStore.Collection},
		{keyVectorDims, settings.VectorStore.Dimensions},
		{keySimilarityThreshold, settings.Pipeline.SimilarityThreshold},
		{keyTopK, settings.Pipeline.TopK},
		{keyServiceTimeout, settings.Pipeline.ServiceTimeout.String()},
		{keyStructurePrefix, settings.Pipeline.StructurePrefix},
		{keyClassifyPrefix, settings.Pipeline.ClassifyPrefix},
		{keyAnalysisPrefix, settings.Pipeline.AnalysisPrefix},
		{keyRelationshipExcerpt, settings.Pipeline.RelationshipExcerpt},
		{keyOCRMaxWidth, settings.Pipeline.OCRMaxWidth},
		{keyRequestsPerSecond, settings.Pipeline.RequestsPerSecond},
		{keyBurst, settings.Pipeline.Burst},
		{keyFullTextEmbedding, settings.Pipeline.FullTextEmbedding},
	}
	// API keys are only written when present so an empty form never wipes them.
	if settings.Embedding.APIKey != "" {
		values = append(values, settingValue{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, settingValue{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set updates a single setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// parseSetting converts a string into the stored representation for kind.
func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case kindAIProvider:
		if !domain.AIProvider(value).IsValid() {
			return nil, fmt.Errorf("invalid AI provider %q", value)
		}
		return value, nil
	case kindVectorProvider:
		if !domain.VectorStoreProvider(value).IsValid() {
			return nil, fmt.Errorf("invalid vector store %q", value)
		}
		return value, nil
	default:
		return value, nil
	}
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Vectors are fitted to the model's native size.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.VectorStore.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetVectorStore configures the vector store backend.
func (s *SettingsService) SetVectorStore(provider domain.VectorStoreProvider, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid vector store: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.VectorStore.Provider = provider
	switch {
	case baseURL != "":
		settings.VectorStore.BaseURL = baseURL
	case provider == domain.VectorStoreChroma && settings.VectorStore.BaseURL == "":
		settings.VectorStore.BaseURL = "http://localhost:8000"
	}

	return s.Save(settings)
}

// Validate checks that current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	p := settings.Pipeline
	switch {
	case p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1:
		return fmt.Errorf("similarity threshold must be within [0, 1], got %v", p.SimilarityThreshold)
	case p.TopK <= 0:
		return fmt.Errorf("top_k must be positive, got %d", p.TopK)
	case p.ServiceTimeout <= 0:
		return fmt.Errorf("service timeout must be positive, got %s", p.ServiceTimeout)
	case p.StructurePrefix <= 0 || p.ClassifyPrefix <= 0 || p.AnalysisPrefix <= 0 || p.RelationshipExcerpt <= 0:
		return fmt.Errorf("prefix lengths must be positive")
	case p.RequestsPerSecond < 0:
		return fmt.Errorf("requests per second must not be negative, got %v", p.RequestsPerSecond)
	}

	if settings.VectorStore.Dimensions <= 0 {
		return fmt.Errorf("vector dimensions must be positive, got %d", settings.VectorStore.Dimensions)
	}
	if settings.VectorStore.Provider == domain.VectorStoreChroma && settings.VectorStore.BaseURL == "" {
		return fmt.Errorf("vector store %q requires a base_url", settings.VectorStore.Provider)
	}

	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s is not fully configured", settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %s is not fully configured", settings.LLM.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getVectorProvider(defaultVal domain.VectorStoreProvider) domain.VectorStoreProvider {
	val := s.configStore.GetString(keyVectorProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.VectorStoreProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
