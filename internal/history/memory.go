package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the most recent messages in memory. When the limit is
// reached the oldest entry is evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
}

// NewMemoryStore creates an in-memory store retaining at most limit entries.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 1
	}
	return &MemoryStore{limit: limit}
}

// Append stores one message, evicting the oldest entry when full.
func (s *MemoryStore) Append(ctx context.Context, clientID, content string) (*Entry, error) {
	entry := Entry{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.limit {
		s.entries = s.entries[1:]
	}
	s.mu.Unlock()

	return &entry, nil
}

// Recent returns up to limit entries, oldest first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out, nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
