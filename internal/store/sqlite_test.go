package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func TestSQLiteLoadOrCreateNew(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	doc, err := s.LoadOrCreate(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("load or create: %v", err)
	}
	if doc.ID != "doc1" {
		t.Errorf("expected id doc1, got %q", doc.ID)
	}
	if doc.Content != "" {
		t.Errorf("expected empty content for new document, got %q", doc.Content)
	}

	// A second load without any save must return the same empty value.
	again, err := s.LoadOrCreate(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if again.Content != "" {
		t.Errorf("expected empty content on reload, got %q", again.Content)
	}
}

func TestSQLiteSaveLastWriterWins(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.LoadOrCreate(ctx, "doc1"); err != nil {
		t.Fatalf("load or create: %v", err)
	}
	if err := s.Save(ctx, "doc1", "first"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "doc1", "second"); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, err := s.LoadOrCreate(ctx, "doc1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Content != "second" {
		t.Errorf("expected last write to win, got %q", doc.Content)
	}
}

func TestSQLiteInvalidID(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.LoadOrCreate(ctx, ""); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for empty id, got %v", err)
	}
	if _, err := s.LoadOrCreate(ctx, "   "); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for blank id, got %v", err)
	}
	if err := s.Save(ctx, "", "content"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for save with empty id, got %v", err)
	}
}

func TestSQLiteConcurrentFirstLoad(t *testing.T) {
	t.Parallel()
	// File-backed: each pooled connection to ":memory:" would get its
	// own private database, which defeats a concurrency test.
	s, err := NewSQLite(filepath.Join(t.TempDir(), "docsync.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	// Two connections joining a brand-new document at the same time must
	// both see a single empty row, never an error or a clobbered one.
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := s.LoadOrCreate(context.Background(), "fresh")
			if err != nil {
				errs <- err
				return
			}
			if doc.Content != "" {
				errs <- errors.New("expected empty content: got " + doc.Content)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent load: %v", err)
	}
}

func TestSQLiteDocumentIsolation(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Save(ctx, "doc1", "alpha"); err != nil {
		t.Fatalf("save doc1: %v", err)
	}
	if err := s.Save(ctx, "doc2", "beta"); err != nil {
		t.Fatalf("save doc2: %v", err)
	}

	d1, _ := s.LoadOrCreate(ctx, "doc1")
	d2, _ := s.LoadOrCreate(ctx, "doc2")
	if d1.Content != "alpha" || d2.Content != "beta" {
		t.Errorf("documents bled into each other: doc1=%q doc2=%q", d1.Content, d2.Content)
	}
}

func TestSQLiteSaveBeforeLoad(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Save(ctx, "orphan", "content"); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, err := s.LoadOrCreate(ctx, "orphan")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Content != "content" {
		t.Errorf("expected saved content, got %q", doc.Content)
	}
}

func TestSQLiteClosedStoreUnavailable(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	s.Close()

	if _, err := s.LoadOrCreate(context.Background(), "doc1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable after close, got %v", err)
	}
	if err := s.Save(context.Background(), "doc1", "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable after close, got %v", err)
	}
}
