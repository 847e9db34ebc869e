package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// User-visible statuses for leaderboard outcomes.
const (
	StatusUpdated     = "Leaderboard updated."
	StatusEnterName   = "Enter your name."
	StatusDeclined    = "Server declined."
	StatusNetworkErr  = "Network error."
	StatusUnavailable = "Scores unavailable."
)

// Service validates submissions and serves the ordered, length-limited view
// of a Store.
type Service struct {
	store Store
	limit int
}

// NewService wraps store. A non-positive limit uses DefaultLimit.
func NewService(store Store, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{store: store, limit: limit}
}

// Limit returns the length of the top-scores view.
func (s *Service) Limit() int {
	return s.limit
}

// Submit normalizes the name and stores the score.
func (s *Service) Submit(ctx context.Context, name string, score int) (ScoreEntry, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return ScoreEntry{}, err
	}
	if score < 0 || score > MaxScore {
		return ScoreEntry{}, ErrInvalidScore
	}

	entry := NewEntry(name, score)
	if err := s.store.Submit(ctx, entry); err != nil {
		if errors.Is(err, ErrDeclined) {
			return ScoreEntry{}, err
		}
		return ScoreEntry{}, fmt.Errorf("submit %q: %w", name, err)
	}

	slog.Info("score submitted", "name", name, "score", score)
	return entry, nil
}

// Top returns the best scores, highest first.
func (s *Service) Top(ctx context.Context) ([]ScoreEntry, error) {
	entries, err := s.store.Top(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch top scores: %w", err)
	}
	return TopN(entries, s.limit), nil
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// SubmitStatus maps a Submit result to the message shown to the player.
func SubmitStatus(err error) string {
	switch {
	case err == nil:
		return StatusUpdated
	case errors.Is(err, ErrEmptyName):
		return StatusEnterName
	case errors.Is(err, ErrDeclined), errors.Is(err, ErrInvalidScore):
		return StatusDeclined
	default:
		return StatusNetworkErr
	}
}
