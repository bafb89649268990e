package testutil

import (
	"context"
	"sync"

	"github.com/devaloi/docsync/internal/domain"
	"github.com/devaloi/docsync/internal/store"
)

// MockConn implements registry.Conn for testing.
type MockConn struct {
	id       string
	messages [][]byte
	mu       sync.Mutex
}

// NewMockConn creates a new MockConn with the given id.
func NewMockConn(id string) *MockConn {
	return &MockConn{id: id}
}

// ID returns the mock connection's id.
func (m *MockConn) ID() string { return m.id }

// Send records a message sent to the mock connection.
func (m *MockConn) Send(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.messages = append(m.messages, cp)
}

// Messages returns a copy of all messages received by the mock connection.
func (m *MockConn) Messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.messages))
	copy(cp, m.messages)
	return cp
}

// MockStore implements store.Store for testing.
type MockStore struct {
	mu   sync.Mutex
	docs map[string]domain.Document
	err  error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{docs: make(map[string]domain.Document)}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *MockStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// LoadOrCreate returns the stored document for id, creating an empty one
// if absent.
func (s *MockStore) LoadOrCreate(_ context.Context, id string) (domain.Document, error) {
	if id == "" {
		return domain.Document{}, store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Document{}, s.err
	}
	if d, ok := s.docs[id]; ok {
		return d, nil
	}
	d := domain.Document{ID: id}
	s.docs[id] = d
	return d, nil
}

// Save overwrites the stored content for id.
func (s *MockStore) Save(_ context.Context, id, content string) error {
	if id == "" {
		return store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	d := s.docs[id]
	d.ID = id
	d.Content = content
	s.docs[id] = d
	return nil
}

// Close is a no-op for the mock store.
func (s *MockStore) Close() error { return nil }
