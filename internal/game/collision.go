package game

import "math"

// HitSlop widens the hit circle beyond the target's drawn edge, in pixels.
const HitSlop = 4

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// Center returns the midpoint of a target of the given size at p.
func (p Position) Center(targetSize int) (float64, float64) {
	half := float64(targetSize) / 2
	return float64(p.X) + half, float64(p.Y) + half
}

// HitTest reports whether a click at (x, y) lands on a target of the given
// size at p. The hit area is a circle inscribed in the target plus HitSlop.
func HitTest(p Position, targetSize int, x, y float64) bool {
	cx, cy := p.Center(targetSize)
	return Distance(cx, cy, x, y) <= float64(targetSize)/2+HitSlop
}
