package game

import (
	"encoding/json"
	"time"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes Phase as a string.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON deserializes Phase from a string.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "running":
		*p = PhaseRunning
	case "ended":
		*p = PhaseEnded
	default:
		*p = PhaseIdle
	}
	return nil
}

// RoundState is the state of a single round. Remaining time is always derived
// from StartedAt and the clock, never stored.
type RoundState struct {
	ID        string    `json:"id"`
	Phase     Phase     `json:"phase"`
	StartedAt time.Time `json:"started_at"`
	Score     int       `json:"score"`
	Warned    bool      `json:"warned"`
}

// IsRunning reports whether hits and hops are accepted.
func (s RoundState) IsRunning() bool {
	return s.Phase == PhaseRunning
}

// RemainingAt returns the time left in the round at now, never negative.
func (s RoundState) RemainingAt(now time.Time, duration time.Duration) time.Duration {
	if s.Phase != PhaseRunning {
		return 0
	}
	remaining := duration - now.Sub(s.StartedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
