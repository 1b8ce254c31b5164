package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Store is a SQLite-based storage that provides access to
// the analysis and vector stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docsight/data/docsight.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsight", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docsight.db")

	// WAL lets readers proceed while an analysis checkpoints.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AnalysisStore returns an AnalysisStore interface backed by this store.
func (s *Store) AnalysisStore() driven.AnalysisStore {
	return &analysisStore{store: s}
}

// VectorRecordStore returns a VectorRecordStore interface backed by this store.
func (s *Store) VectorRecordStore() driven.VectorRecordStore {
	return &vectorRecordStore{store: s}
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_analyses.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Analysis Store ====================

// analysisStore implements driven.AnalysisStore.
type analysisStore struct {
	store *Store
}

var _ driven.AnalysisStore = (*analysisStore)(nil)

// Save stores or replaces an analysis.
func (s *analysisStore) Save(ctx context.Context, analysis *domain.DocumentAnalysis) error {
	if analysis == nil || analysis.ID == "" {
		return domain.ErrInvalidInput
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshalling analysis: %w", err)
	}

	var processedAt sql.NullInt64
	if analysis.ProcessedAt != nil {
		processedAt = sql.NullInt64{Int64: analysis.ProcessedAt.UnixNano(), Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO analyses (id, filename, file_type, size, status, stage, classification,
			uploaded_at, processed_at, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			file_type = excluded.file_type,
			size = excluded.size,
			status = excluded.status,
			stage = excluded.stage,
			classification = excluded.classification,
			processed_at = excluded.processed_at,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, analysis.ID, analysis.Filename, analysis.FileType, analysis.Size,
		analysis.Status.String(), analysis.Stage.String(), analysis.Classification.String(),
		analysis.UploadedAt.UnixNano(), processedAt, string(payload))
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	return nil
}

// Get retrieves an analysis by ID.
func (s *analysisStore) Get(ctx context.Context, id string) (*domain.DocumentAnalysis, error) {
	var payload string
	err := s.store.db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return decodeAnalysis(payload)
}

// List returns all analyses, newest upload first.
func (s *analysisStore) List(ctx context.Context) ([]domain.DocumentAnalysis, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT payload FROM analyses ORDER BY uploaded_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var result []domain.DocumentAnalysis
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		analysis, err := decodeAnalysis(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, *analysis)
	}
	return result, rows.Err()
}

func decodeAnalysis(payload string) (*domain.DocumentAnalysis, error) {
	var analysis domain.DocumentAnalysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, fmt.Errorf("unmarshaling analysis: %w", err)
	}
	return &analysis, nil
}

// ==================== Vector Record Store ====================

// vectorRecordStore implements driven.VectorRecordStore.
type vectorRecordStore struct {
	store *Store
}

var _ driven.VectorRecordStore = (*vectorRecordStore)(nil)

// SaveVectors upserts records by ID in a single transaction.
func (s *vectorRecordStore) SaveVectors(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, document_id, segment, filename, title, dimensions, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			segment = excluded.segment,
			filename = excluded.filename,
			title = excluded.title,
			dimensions = excluded.dimensions,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		blob := float32SliceToBytes(r.Vector)
		if blob == nil {
			blob = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Metadata.DocumentID, string(r.Metadata.Segment),
			r.Metadata.Filename, r.Metadata.Title, len(r.Vector), blob); err != nil {
			return fmt.Errorf("saving vector %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadVectors returns every stored record ordered by ID.
func (s *vectorRecordStore) LoadVectors(ctx context.Context) ([]driven.VectorRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, segment, filename, title, vector FROM vectors ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("loading vectors: %w", err)
	}
	defer rows.Close()

	var result []driven.VectorRecord
	for rows.Next() {
		var r driven.VectorRecord
		var segment string
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Metadata.DocumentID, &segment,
			&r.Metadata.Filename, &r.Metadata.Title, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		r.Metadata.Segment = domain.Segment(segment)
		r.Vector = bytesToFloat32Slice(blob)
		result = append(result, r)
	}
	return result, rows.Err()
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
