package driven

import "context"

// LLMService provides language model operations for document understanding.
// This is an optional service - when nil, every stage that needs it falls
// back to its documented default.
//
// Implementations may include:
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ResponseFormat asks the model for a particular output shape.
type ResponseFormat string

// Supported response formats.
const (
	// FormatText is free-form text (the default).
	FormatText ResponseFormat = ""

	// FormatJSON asks for a single JSON object.
	FormatJSON ResponseFormat = "json"
)

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Format requests structured output where the provider supports it.
	Format ResponseFormat

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
