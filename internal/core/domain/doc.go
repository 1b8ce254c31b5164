// Package domain defines the core business entities for docsight.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: An uploaded file blob with its declared MIME type
//   - DocumentAnalysis: The record produced by the pipeline for one file
//   - DocumentStructure: Title, abstract, sections and references
//   - ResearchAnalysis / ExperimentalAnalysis: Specialised reports
//   - DocumentRelationship: A typed link to another document in the corpus
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
