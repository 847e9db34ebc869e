package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bugbusters-server/internal/clock"
)

type timedRender struct {
	at  time.Time
	pos Position
}

func setupScheduler(bounds BoundsMeasurer) (*Scheduler, *clock.Manual, *[]timedRender) {
	clk := clock.NewManual(epoch)
	renders := &[]timedRender{}
	s := NewScheduler(SchedulerConfig{
		HopMin:     DefaultHopMin,
		HopMax:     DefaultHopMax,
		TargetSize: DefaultTargetSize,
	}, clk, rand.New(rand.NewSource(99)), bounds, RendererFunc(func(pos Position) {
		*renders = append(*renders, timedRender{at: clk.Now(), pos: pos})
	}))
	return s, clk, renders
}

func TestScheduler_HopIntervalsWithinRange(t *testing.T) {
	s, clk, renders := setupScheduler(FixedBounds{Width: 800, Height: 600})
	s.Start()

	clk.Advance(30 * time.Second)

	require.Greater(t, len(*renders), 30)
	for i := 1; i < len(*renders); i++ {
		gap := (*renders)[i].at.Sub((*renders)[i-1].at)
		assert.GreaterOrEqual(t, gap, DefaultHopMin)
		assert.LessOrEqual(t, gap, DefaultHopMax)
	}
	assert.Equal(t, len(*renders), s.Hops())
}

func TestScheduler_PositionsInBounds(t *testing.T) {
	bounds := Bounds{Width: 320, Height: 240}
	s, clk, renders := setupScheduler(FixedBounds(bounds))
	s.Start()

	clk.Advance(20 * time.Second)

	for _, r := range *renders {
		assert.True(t, bounds.Contains(r.pos, DefaultTargetSize), "position %+v out of bounds", r.pos)
	}
	assert.Equal(t, (*renders)[len(*renders)-1].pos, s.Position())
}

func TestScheduler_StopPreventsGhostHop(t *testing.T) {
	s, clk, renders := setupScheduler(FixedBounds{Width: 800, Height: 600})
	s.Start()
	require.Len(t, *renders, 1)

	s.Stop()
	assert.False(t, s.Running())
	assert.Zero(t, clk.Pending())

	clk.Advance(5 * time.Second)
	assert.Len(t, *renders, 1)
	assert.False(t, s.ForceHop(), "forced hops are refused while stopped")
	assert.Len(t, *renders, 1)
}

func TestScheduler_StaleFireIsDropped(t *testing.T) {
	s, clk, renders := setupScheduler(FixedBounds{Width: 800, Height: 600})
	s.Start()

	// Capture the generation of the pending hop, then restart the chain.
	s.mu.Lock()
	staleGen := s.gen
	s.mu.Unlock()
	s.Start()
	before := len(*renders)

	s.hop(staleGen)
	assert.Len(t, *renders, before, "a fire from a cancelled chain must not relocate")
	assert.Equal(t, 1, clk.Pending())
}

func TestScheduler_ForceHopResetsPendingDelay(t *testing.T) {
	s, clk, renders := setupScheduler(FixedBounds{Width: 800, Height: 600})
	s.Start()

	clk.Advance(400 * time.Millisecond)
	require.Len(t, *renders, 1)

	require.True(t, s.ForceHop())
	require.Len(t, *renders, 2)
	assert.Equal(t, 1, clk.Pending(), "forced hop replaces the pending hop")

	// The first pending hop was due by 800ms; the new one not before 900ms.
	clk.Advance(499 * time.Millisecond)
	assert.Len(t, *renders, 2)

	clk.Advance(301 * time.Millisecond)
	assert.Len(t, *renders, 3)
}

func TestScheduler_UnmeasurableBoundsPlaceAtOrigin(t *testing.T) {
	for _, b := range []Bounds{{}, {Width: 800}, {Height: 600}, {Width: -1, Height: -1}} {
		s, clk, renders := setupScheduler(FixedBounds(b))
		s.Start()
		clk.Advance(3 * time.Second)

		for _, r := range *renders {
			assert.Equal(t, Position{}, r.pos)
		}
		assert.True(t, s.Running(), "degenerate bounds must not stop the chain")
	}
}

func TestScheduler_NilCollaborators(t *testing.T) {
	clk := clock.NewManual(epoch)
	s := NewScheduler(SchedulerConfig{HopMin: 10 * time.Millisecond, HopMax: 20 * time.Millisecond}, clk, nil, nil, nil)

	s.Start()
	clk.Advance(time.Second)

	assert.Equal(t, Position{}, s.Position())
	assert.Greater(t, s.Hops(), 1)
}

func TestNextHopDelay_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 1000; i++ {
		d := NextHopDelay(rng, DefaultHopMin, DefaultHopMax)
		assert.GreaterOrEqual(t, d, DefaultHopMin)
		assert.LessOrEqual(t, d, DefaultHopMax)
	}

	assert.Equal(t, DefaultHopMin, NextHopDelay(rng, DefaultHopMin, DefaultHopMin))
	assert.Equal(t, DefaultHopMin, NextHopDelay(rng, DefaultHopMin, time.Millisecond))
}
