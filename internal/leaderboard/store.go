package leaderboard

import "context"

// Store defines the interface for leaderboard persistence.
type Store interface {
	// Submit appends an entry.
	Submit(ctx context.Context, entry ScoreEntry) error
	// Top returns up to limit entries ordered by score descending.
	Top(ctx context.Context, limit int) ([]ScoreEntry, error)
	// Close releases backend resources.
	Close() error
}
