package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davidbz/modelbench/internal/domain"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps sessions in process memory with a sliding TTL.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store. A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		mu:      sync.Mutex{},
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create stores and returns a new disabled session.
func (s *MemoryStore) Create(ctx context.Context) (*domain.Session, error) {
	sess := newSession(s.now())

	s.mu.Lock()
	s.pruneLocked()
	s.mu.Unlock()

	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// Get returns a copy of the session.
func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expired(entry) {
		delete(s.entries, id)
		return nil, ErrSessionNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal(entry.data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &sess, nil
}

// Save stores a copy of the session and refreshes its TTL.
func (s *MemoryStore) Save(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id is required")
	}

	sess.UpdatedAt = s.now()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sess.ID] = memoryEntry{data: data, expires: s.expiry()}
	return nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || s.expired(entry) {
		delete(s.entries, id)
		return ErrSessionNotFound
	}

	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expires.IsZero() && !s.now().Before(entry.expires)
}

func (s *MemoryStore) pruneLocked() {
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
		}
	}
}
