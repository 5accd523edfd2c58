// Package history keeps a SQLite audit log of completed fill operations.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dsillex/formfill/internal/models"
)

// Entry is one recorded fill operation.
type Entry struct {
	ID           string              `json:"id"`
	DocumentType models.DocumentType `json:"documentType"`
	OutputPath   string              `json:"outputPath,omitempty"`
	Success      bool                `json:"success"`
	WarningCount int                 `json:"warningCount"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Store persists fill history in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fill_history (
		id TEXT PRIMARY KEY,
		document_type TEXT NOT NULL,
		output_path TEXT,
		success INTEGER NOT NULL,
		warning_count INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fill_history_created_at ON fill_history(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordFill stores the outcome of one fill. Satisfies the engine's recorder
// contract.
func (s *Store) RecordFill(ctx context.Context, docType models.DocumentType, result *models.FillResult) error {
	entry := &Entry{
		ID:           uuid.NewString(),
		DocumentType: docType,
		OutputPath:   result.OutputPath,
		Success:      result.Success,
		WarningCount: len(result.Warnings),
		Error:        result.Error,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fill_history (id, document_type, output_path, success, warning_count, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.DocumentType), entry.OutputPath, entry.Success, entry.WarningCount, entry.Error, entry.CreatedAt,
	)
	return err
}

// Get returns an entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	var docType string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_type, output_path, success, warning_count, error, created_at
		 FROM fill_history WHERE id = ?`, id,
	).Scan(&e.ID, &docType, &e.OutputPath, &e.Success, &e.WarningCount, &e.Error, &e.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history entry not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	e.DocumentType = models.DocumentType(docType)
	return &e, nil
}

// List returns entries newest first with offset and limit.
func (s *Store) List(ctx context.Context, offset, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_type, output_path, success, warning_count, error, created_at
		 FROM fill_history ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var docType string
		if err := rows.Scan(&e.ID, &docType, &e.OutputPath, &e.Success, &e.WarningCount, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.DocumentType = models.DocumentType(docType)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count returns the total number of recorded fills.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fill_history`).Scan(&count)
	return count, err
}

// Prune removes entries older than the cutoff and reports how many were
// deleted.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM fill_history WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
