package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/importer/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
)

// Store is a SQLite-based storage that provides access to store
// interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.importer/data/results.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".importer", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "results.db")

	// WAL mode lets readers run alongside import workers.
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

// ResultStore returns a ResultStore interface backed by this store.
func (s *Store) ResultStore() driven.ResultStore {
	return &resultStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
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
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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

// ==================== Result Store ====================

// resultStore implements driven.ResultStore.
type resultStore struct {
	store *Store
}

var _ driven.ResultStore = (*resultStore)(nil)

const resultColumns = `id, reference, accepted, rejected_by, rejected_at, metadata, content_size, imported_at, duration_ns`

// Save stores or replaces a result.
func (s *resultStore) Save(ctx context.Context, result *domain.ImportResult) error {
	if result == nil || result.ID == "" {
		return domain.ErrInvalidInput
	}

	metadataJSON, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	rejectedAt := ""
	if !result.Accepted {
		rejectedAt = result.RejectedAt.String()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO import_results (`+resultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reference = excluded.reference,
			accepted = excluded.accepted,
			rejected_by = excluded.rejected_by,
			rejected_at = excluded.rejected_at,
			metadata = excluded.metadata,
			content_size = excluded.content_size,
			imported_at = excluded.imported_at,
			duration_ns = excluded.duration_ns
	`,
		result.ID,
		result.Reference,
		result.Accepted,
		result.RejectedBy,
		rejectedAt,
		string(metadataJSON),
		result.ContentSize,
		result.ImportedAt.UnixNano(),
		int64(result.Duration),
	)
	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

// Get retrieves a result by ID.
func (s *resultStore) Get(ctx context.Context, id string) (*domain.ImportResult, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM import_results WHERE id = ?`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns results matching the query, newest first.
func (s *resultStore) List(ctx context.Context, query domain.ResultQuery) ([]domain.ImportResult, error) {
	var (
		where []string
		args  []any
	)
	if query.Accepted != nil {
		where = append(where, "accepted = ?")
		args = append(args, *query.Accepted)
	}
	if query.ReferencePrefix != "" {
		where = append(where, "substr(reference, 1, ?) = ?")
		args = append(args, len(query.ReferencePrefix), query.ReferencePrefix)
	}

	q := `SELECT ` + resultColumns + ` FROM import_results`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY imported_at DESC, id DESC"
	if query.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []domain.ImportResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// Delete removes a result.
func (s *resultStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM import_results WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting result: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*domain.ImportResult, error) {
	var (
		r            domain.ImportResult
		rejectedAt   string
		metadataJSON string
		importedAt   int64
		duration     int64
	)
	err := row.Scan(&r.ID, &r.Reference, &r.Accepted, &r.RejectedBy, &rejectedAt,
		&metadataJSON, &r.ContentSize, &importedAt, &duration)
	if err != nil {
		return nil, err
	}

	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	if rejectedAt != "" {
		if state, ok := domain.ParseParseState(rejectedAt); ok {
			r.RejectedAt = state
		}
	}
	r.ImportedAt = time.Unix(0, importedAt).UTC()
	r.Duration = time.Duration(duration)
	return &r, nil
}
