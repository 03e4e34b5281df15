package store

import (
	"context"
	"sync"
	"time"

	"addresslookup/pkg/platform/sentinel"
	"addresslookup/pkg/requestcontext"
)

// InMemoryStore keeps sessions in process. Suitable for a single instance;
// use RedisStore when several instances share sessions.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	ttl      time.Duration
	clock    func() time.Time
}

type memorySession struct {
	values    map[string][]byte
	expiresAt time.Time
}

type MemoryOption func(*InMemoryStore)

// WithMemoryClock overrides the time source, for tests. Without it the
// store reads the request time from the context.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		s.clock = now
	}
}

// NewInMemory creates a store whose sessions expire ttl after their last
// write. A zero ttl never expires.
func NewInMemory(ttl time.Duration, opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Open(sessionID string) Session {
	return &memoryHandle{store: s, id: sessionID}
}

// PruneExpired drops expired sessions and returns how many were removed.
func (s *InMemoryStore) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now(context.Background())
	removed := 0
	for id, sess := range s.sessions {
		if sess.expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now(context.Background())
	n := 0
	for _, sess := range s.sessions {
		if !sess.expired(now) {
			n++
		}
	}
	return n
}

func (s *InMemoryStore) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (m *memorySession) expired(now time.Time) bool {
	return !m.expiresAt.IsZero() && !now.Before(m.expiresAt)
}

func (s *InMemoryStore) get(ctx context.Context, id, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.expired(s.now(ctx)) {
		return nil, sentinel.ErrNotFound
	}
	v, ok := sess.values[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *InMemoryStore) set(ctx context.Context, id, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now(ctx)
	sess, ok := s.sessions[id]
	if !ok || sess.expired(now) {
		sess = &memorySession{values: make(map[string][]byte)}
		s.sessions[id] = sess
	}
	v := make([]byte, len(value))
	copy(v, value)
	sess.values[key] = v
	sess.touch(now, s.ttl)
}

func (s *InMemoryStore) delete(ctx context.Context, id, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		delete(sess.values, key)
		sess.touch(s.now(ctx), s.ttl)
	}
}

func (m *memorySession) touch(now time.Time, ttl time.Duration) {
	if ttl > 0 {
		m.expiresAt = now.Add(ttl)
	}
}

type memoryHandle struct {
	store *InMemoryStore
	id    string
}

func (h *memoryHandle) Get(ctx context.Context, key string) ([]byte, error) {
	return h.store.get(ctx, h.id, key)
}

func (h *memoryHandle) Set(ctx context.Context, key string, value []byte) error {
	h.store.set(ctx, h.id, key, value)
	return nil
}

func (h *memoryHandle) Delete(ctx context.Context, key string) error {
	h.store.delete(ctx, h.id, key)
	return nil
}
