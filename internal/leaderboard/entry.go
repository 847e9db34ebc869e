package leaderboard

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxNameLength caps player names, in runes.
	MaxNameLength = 12
	// DefaultLimit is the length of the top-scores view.
	DefaultLimit = 10
	// MaxScore is the largest score the stores can hold (INTEGER column).
	MaxScore = math.MaxInt32
)

var (
	ErrEmptyName    = errors.New("leaderboard: name is required")
	ErrInvalidScore = errors.New("leaderboard: score out of range")
	ErrDeclined     = errors.New("leaderboard: submission declined")
)

// ScoreEntry is one leaderboard row. Only name and score cross the wire.
type ScoreEntry struct {
	ID        string    `json:"-"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"-"`
}

// NewEntry creates an entry stamped with a fresh ID and the current time.
func NewEntry(name string, score int) ScoreEntry {
	return ScoreEntry{
		ID:        uuid.New().String(),
		Name:      name,
		Score:     score,
		CreatedAt: time.Now(),
	}
}

// NormalizeName trims whitespace and caps the name at MaxNameLength runes.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	return name, nil
}

// SortEntries orders entries by score descending, earlier entries first on ties.
func SortEntries(entries []ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// TopN sorts entries and returns at most limit of them.
func TopN(entries []ScoreEntry, limit int) []ScoreEntry {
	SortEntries(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
