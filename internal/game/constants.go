package game

import "time"

// Round timing
const (
	DefaultRoundDuration   = 20 * time.Second
	DefaultDangerThreshold = 5 * time.Second
	TickRate               = 20 // countdown ticks per second
	DefaultTickInterval    = time.Second / TickRate
)

// Relocation
const (
	DefaultHopMin     = 500 * time.Millisecond
	DefaultHopMax     = 800 * time.Millisecond
	DefaultTargetSize = 56 // pixels, square bug sprite
)

// Input
const (
	// DefaultHitDebounce of zero counts every hit while the round runs.
	DefaultHitDebounce = 0
)
