// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to run:
//
//   - TextExtractor: Turns raw bytes of one MIME family into plain text
//   - ExtractorRegistry: Selects the extractor for a declared MIME type
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - LLMService: Text understanding. Without it, structure falls back to
//     heuristics, classification to "other" and analyses to fallback reports.
//   - EmbeddingService: Generates vectors. Without it, embeddings are zero-filled.
//   - VectorStore: Vector persistence and similarity queries. Without it,
//     relationship discovery is skipped.
//   - AnalysisStore: Checkpoints analyses. Without it, Resume is unavailable.
//   - OCREngine: Recognises text in images. Without it, image uploads fail extraction.
//   - PromptStore: Custom prompt templates. Without it, embedded defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
