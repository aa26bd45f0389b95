// Package history records completed encodes in a SQLite database so past
// quality decisions can be reviewed and reused as starting points.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users need to delete the history database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Record is one completed encode.
type Record struct {
	ID            int64
	RunID         string
	Title         string
	SourcePath    string
	OutputPath    string
	Quality       int
	PredictedKbps float64
	TargetKbps    float64
	DolbyVision   bool
	CreatedAt     time.Time
}

// Store manages encode history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Add inserts a completed encode record and returns it with its assigned ID.
func (s *Store) Add(ctx context.Context, record Record) (Record, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	dv := 0
	if record.DolbyVision {
		dv = 1
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO encodes (
            run_id, title, source_path, output_path,
            quality, predicted_kbps, target_kbps, dolby_vision, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Title,
		record.SourcePath,
		record.OutputPath,
		record.Quality,
		record.PredictedKbps,
		record.TargetKbps,
		dv,
		record.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert encode record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	return record, nil
}

// List returns the most recent records, newest first. A limit of zero or
// less returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, run_id, title, source_path, output_path,
        quality, predicted_kbps, target_kbps, dolby_vision, created_at
        FROM encodes ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query encode records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record    Record
			dv        int
			createdAt string
		)
		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.Title,
			&record.SourcePath,
			&record.OutputPath,
			&record.Quality,
			&record.PredictedKbps,
			&record.TargetKbps,
			&dv,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan encode record: %w", err)
		}
		record.DolbyVision = dv != 0
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			record.CreatedAt = parsed
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encode records: %w", err)
	}
	return records, nil
}
