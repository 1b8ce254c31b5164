package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, documents get zero-filled
// embeddings and take no part in relationship discovery.
//
// Note: This is separate from VectorStore which persists and queries vectors.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the native embedding vector size of the model.
	// Vectors are fitted to the configured dimensionality by the caller.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
