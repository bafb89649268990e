package store

import (
	"context"
	"errors"

	"github.com/devaloi/docsync/internal/domain"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrInvalidID means the caller passed a missing or blank document id.
	ErrInvalidID = errors.New("document id required")
	// ErrUnavailable means the durable store could not be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// Store is the persistence gateway for document content. It is a plain
// key-value overwrite layer: no merge logic, last writer wins.
type Store interface {
	// LoadOrCreate returns the document for id, creating an empty one
	// if none exists yet. Creation is idempotent and atomic: two
	// concurrent first loads both observe a single row.
	LoadOrCreate(ctx context.Context, id string) (domain.Document, error)
	// Save overwrites the stored content for id unconditionally.
	Save(ctx context.Context, id, content string) error
	// Close releases any resources held by the store.
	Close() error
}
