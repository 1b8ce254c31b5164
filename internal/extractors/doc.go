// Package extractors provides implementations of the TextExtractor interface
// for the supported document formats, and the Registry that dispatches a
// document to the right extractor by its declared MIME type.
//
// Extractors are registered with the Registry at startup.
package extractors
