package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Each session has its own lock so edits of
// different sessions never wait on each other.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	mu      sync.Mutex
	state   *State
	expires time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryTTL sets the idle expiry.
func WithMemoryTTL(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores st under a new ID.
func (s *MemoryStore) Create(_ context.Context, st *State) error {
	now := s.now()
	st.ID = uuid.NewString()
	st.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[st.ID] = &memoryEntry{state: st.Clone(), expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) entry(id string) (*memoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get returns a copy of the session.
func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s.now().After(e.expires) {
		s.remove(id, e)
		return nil, ErrNotFound
	}
	return e.state.Clone(), nil
}

// Update applies fn to a copy of the session and stores it when fn succeeds.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*State) error) (*State, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if now.After(e.expires) {
		s.remove(id, e)
		return nil, ErrNotFound
	}
	draft := e.state.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.ID = id
	draft.UpdatedAt = now
	e.state = draft
	e.expires = now.Add(s.ttl)
	return draft.Clone(), nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) remove(id string, e *memoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[id] == e {
		delete(s.entries, id)
	}
}

// Cleanup drops expired sessions.
func (s *MemoryStore) Cleanup() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.mu.TryLock() {
			if now.After(e.expires) {
				delete(s.entries, id)
			}
			e.mu.Unlock()
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
