// Package sqlite provides a SQLite-based implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - AnalysisStore: DocumentAnalysis checkpoints
//   - VectorRecordStore: Raw vectors backing the in-process HNSW index
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Analyses are stored as a JSON payload plus a few indexed columns; vectors
// are little-endian float32 blobs.
//
// # Data Location
//
// By default, the database is stored at ~/.docsight/data/docsight.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
