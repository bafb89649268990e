package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/devaloi/docsync/internal/domain"
)

var tracer = otel.Tracer("docsync/store")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if path == ":memory:" {
		// A second pooled connection would get its own private memory db.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	return err
}

// LoadOrCreate returns the document for id, inserting an empty row first if
// none exists. The insert-then-select is atomic at the storage layer, so two
// connections joining a brand-new document concurrently cannot double-create.
func (s *SQLiteStore) LoadOrCreate(ctx context.Context, id string) (domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Document{}, ErrInvalidID
	}
	ctx, span := tracer.Start(ctx, "store.LoadOrCreate",
		trace.WithAttributes(attribute.String("doc.id", id)))
	defer span.End()

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, content, created_at, updated_at)
		VALUES (?, '', '', ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, now, now); err != nil {
		span.RecordError(err)
		return domain.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var doc domain.Document
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, content FROM documents WHERE id = ?", id,
	).Scan(&doc.ID, &doc.Name, &doc.Content)
	if err != nil {
		span.RecordError(err)
		return domain.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return doc, nil
}

// Save overwrites the stored content for id. Last writer wins; the row is
// created if a save somehow arrives before any load.
func (s *SQLiteStore) Save(ctx context.Context, id, content string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	ctx, span := tracer.Start(ctx, "store.Save",
		trace.WithAttributes(attribute.String("doc.id", id)))
	defer span.End()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, content, created_at, updated_at)
		VALUES (?, '', ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, id, content, now, now)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
