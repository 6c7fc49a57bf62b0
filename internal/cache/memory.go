package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     ConversationState
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when Redis is disabled.
// Expired entries are evicted lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates a new in-memory conversation-state store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the state for a phone, or nil when absent or expired
func (s *MemoryStore) Get(ctx context.Context, phone string) (*ConversationState, error) {
	s.mu.RLock()
	entry, ok := s.entries[phone]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, phone)
		s.mu.Unlock()
		return nil, nil
	}

	state := entry.state
	return &state, nil
}

// Set stores the state for a phone
func (s *MemoryStore) Set(ctx context.Context, phone string, state *ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = memoryEntry{
		state:     *state,
		expiresAt: time.Now().Add(stateTTL),
	}
	return nil
}

// Clear removes the state for a phone
func (s *MemoryStore) Clear(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}
