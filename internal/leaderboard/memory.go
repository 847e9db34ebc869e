package leaderboard

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory. Entries are lost on restart.
type MemoryStore struct {
	entries []ScoreEntry
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Submit(_ context.Context, entry ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) Top(_ context.Context, limit int) ([]ScoreEntry, error) {
	s.mu.RLock()
	entries := make([]ScoreEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	return TopN(entries, limit), nil
}

func (s *MemoryStore) Close() error { return nil }
