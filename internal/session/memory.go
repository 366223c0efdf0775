package session

import (
	"context"
	"sync"
	"time"

	chatdomain "github.com/havensuites/concierge/internal/chat/domain"
	"github.com/havensuites/concierge/internal/infra/cache"
)

// memoryEntry is one session. mu serialises turns on that session only.
type memoryEntry struct {
	mu    sync.Mutex
	state chatdomain.ConversationState
}

// MemoryStore is the default, process-local SessionStore. Idle sessions
// expire after the TTL.
type MemoryStore struct {
	entries *cache.InMemory[*memoryEntry]
}

// NewMemoryStore creates a store whose sessions live for ttl after their
// last turn.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: cache.New[*memoryEntry](ttl)}
}

func (s *MemoryStore) entry(sessionID string) *memoryEntry {
	return s.entries.GetOrSet(sessionID, func() *memoryEntry { return &memoryEntry{} })
}

// Update runs fn with exclusive access to the session's state.
// If fn fails the state is left as it was before the call.
func (s *MemoryStore) Update(ctx context.Context, sessionID string, fn func(*chatdomain.ConversationState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.state
	if err := fn(&working); err != nil {
		return err
	}
	e.state = working
	return nil
}

// Get returns a copy of the session's state; unknown sessions are empty.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*chatdomain.ConversationState, error) {
	e, ok := s.entries.Get(sessionID)
	if !ok {
		return &chatdomain.ConversationState{}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := e.state
	return &cp, nil
}

// Delete forgets the session.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.entries.Delete(sessionID)
	return nil
}

// Len reports how many sessions are held.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

// Close stops the expiry sweeper.
func (s *MemoryStore) Close() error {
	s.entries.Stop()
	return nil
}
