// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records completed conversions in a SQLite database so a
// library of converted images can be listed and exported later.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cr2-converter/pkg/types"
)

// DefaultPath is used by the catalog subcommands when no path is configured.
const DefaultPath = "cr2-catalog.db"

const defaultLimit = 50

// Store manages the catalog database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			output TEXT NOT NULL,
			format TEXT NOT NULL,
			make TEXT,
			model TEXT,
			captured_at TEXT,
			width INTEGER,
			height INTEGER,
			converted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_model ON conversions(model)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts one conversion. It implements convert.Recorder.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (source, output, format, make, model, captured_at, width, height, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Source, rec.Output, string(rec.Format),
		rec.Metadata.Make, rec.Metadata.Model, formatTime(rec.Metadata.CapturedAt),
		rec.Metadata.Width, rec.Metadata.Height,
		formatTime(rec.ConvertedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting conversion of %s: %w", rec.Source, err)
	}
	return nil
}

// ListOptions filters List results. Zero values match everything.
type ListOptions struct {
	Format types.OutputFormat
	Model  string
	Limit  int
}

// List returns recorded conversions, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.ConversionRecord, error) {
	var (
		where []string
		args  []any
	)
	if opts.Format != "" {
		where = append(where, "format = ?")
		args = append(args, string(opts.Format))
	}
	if opts.Model != "" {
		where = append(where, "model = ?")
		args = append(args, opts.Model)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, source, output, format, make, model, captured_at, width, height, converted_at
		FROM conversions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			rec                 types.ConversionRecord
			format              string
			mk, model, captured sql.NullString
			width, height       sql.NullInt64
			convertedAt         string
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Output, &format,
			&mk, &model, &captured, &width, &height, &convertedAt); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		rec.Format = types.OutputFormat(format)
		rec.Metadata = types.ImageMetadata{
			Make:       mk.String,
			Model:      model.String,
			CapturedAt: parseTime(captured.String),
			Width:      int(width.Int64),
			Height:     int(height.Int64),
		}
		rec.ConvertedAt = parseTime(convertedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
