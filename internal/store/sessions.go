package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
)

// SessionStore is the in-memory session registry. Map membership and
// insertion order live under an RWMutex; each record carries its own
// lock, so a read-modify-write on one session never blocks operations
// on another. A future durable backend implements the same method set
// (declared consumer-side in internal/research).
type SessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	order   []string
	retired map[string]struct{}
}

type sessionEntry struct {
	mu      sync.Mutex
	session *models.Session
	deleted bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		retired: make(map[string]struct{}),
	}
}

// Create inserts a new session. The store keeps its own copy. Ids of
// deleted sessions stay retired, so a new session can never shadow one
// a background job may still be finishing.
func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[sess.ID]; ok {
		return fmt.Errorf("session %s: %w", sess.ID, api.ErrConflict)
	}
	if _, ok := s.retired[sess.ID]; ok {
		return fmt.Errorf("session %s: %w", sess.ID, api.ErrConflict)
	}
	s.entries[sess.ID] = &sessionEntry{session: sess.Clone()}
	s.order = append(s.order, sess.ID)
	return nil
}

// Get returns a snapshot of the current record.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, api.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, fmt.Errorf("session %s: %w", id, api.ErrNotFound)
	}
	return e.session.Clone(), nil
}

// Mutate applies fn to the live record under the record lock, so the
// whole read-modify-write is atomic with respect to concurrent readers
// and writers of the same session. If fn returns an error the record
// keeps whatever fn left behind; fn is expected to bail out before
// mutating on failure.
func (s *SessionStore) Mutate(ctx context.Context, id string, fn func(*models.Session) error) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, api.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return fmt.Errorf("session %s: %w", id, api.ErrNotFound)
	}
	return fn(e.session)
}

// List returns a page of snapshots in insertion order. Negative offset
// and limit clamp to zero; a page past the end is empty, never an error.
func (s *SessionStore) List(ctx context.Context, offset, limit int) ([]*models.Session, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	s.mu.RLock()
	if offset > len(s.order) {
		offset = len(s.order)
	}
	end := offset + limit
	if end > len(s.order) {
		end = len(s.order)
	}
	ids := make([]string, end-offset)
	copy(ids, s.order[offset:end])
	entries := make([]*sessionEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	page := make([]*models.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			page = append(page, e.session.Clone())
		}
		e.mu.Unlock()
	}
	return page, nil
}

// Delete removes the record. A second delete of the same id fails with
// api.ErrNotFound again; ids are never reused.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", id, api.ErrNotFound)
	}
	delete(s.entries, id)
	s.retired[id] = struct{}{}
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	// Mark the orphan so an in-flight Mutate holding the entry pointer
	// observes the deletion instead of writing into a detached record.
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}
