package game

import "math/rand"

// Position is the top-left corner of the target inside the play area, in pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds is the extent of the play area, in pixels.
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsEmpty reports whether the area cannot be measured or has no extent.
func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// MaxPosition returns the largest in-bounds corner for a target of the given
// size. An axis smaller than the target collapses to zero.
func (b Bounds) MaxPosition(targetSize int) Position {
	return Position{
		X: max(0, b.Width-targetSize),
		Y: max(0, b.Height-targetSize),
	}
}

// Contains reports whether a target of the given size at p lies fully inside b,
// treating degenerate axes as the single point zero.
func (b Bounds) Contains(p Position, targetSize int) bool {
	limit := b.MaxPosition(targetSize)
	return p.X >= 0 && p.X <= limit.X && p.Y >= 0 && p.Y <= limit.Y
}

// ComputeRandomPosition picks a corner uniformly from
// [0, max(0, width-size)] x [0, max(0, height-size)].
func ComputeRandomPosition(rng *rand.Rand, bounds Bounds, targetSize int) Position {
	limit := bounds.MaxPosition(targetSize)
	return Position{
		X: randInclusive(rng, 0, limit.X),
		Y: randInclusive(rng, 0, limit.Y),
	}
}

// randInclusive returns an integer uniformly chosen from [lo, hi].
func randInclusive(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
