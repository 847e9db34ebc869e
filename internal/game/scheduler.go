package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ugaemi/bugbusters-server/internal/clock"
)

// SchedulerConfig tunes the relocation cadence.
type SchedulerConfig struct {
	HopMin     time.Duration
	HopMax     time.Duration
	TargetSize int
}

// Scheduler relocates the target on a randomized one-shot timer chain and on
// demand after hits. It only acts between Start and Stop.
type Scheduler struct {
	cfg      SchedulerConfig
	clock    clock.Clock
	rng      *rand.Rand
	bounds   BoundsMeasurer
	renderer Renderer

	mu       sync.Mutex
	active   bool
	gen      uint64 // bumped on every cancel; stale fires compare against it
	pending  clock.Timer
	position Position
	hops     int
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(cfg SchedulerConfig, clk clock.Clock, rng *rand.Rand, bounds BoundsMeasurer, renderer Renderer) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if bounds == nil {
		bounds = FixedBounds{}
	}
	return &Scheduler{
		cfg:      cfg,
		clock:    clk,
		rng:      rng,
		bounds:   bounds,
		renderer: renderer,
	}
}

// Start places the target and begins the hop chain. Any chain already running
// is cancelled first.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.active = true
	s.hops = 0
	s.relocateLocked()
	s.scheduleNextHopLocked()
}

// Stop halts the chain and cancels the pending hop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	s.cancelLocked()
}

// ForceHop relocates immediately and restarts the pending delay so the
// periodic hop does not land right after. Returns false when stopped.
func (s *Scheduler) ForceHop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	s.cancelLocked()
	s.relocateLocked()
	s.scheduleNextHopLocked()
	return true
}

// Position returns the last applied position.
func (s *Scheduler) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Running reports whether the hop chain is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Hops returns the number of relocations since the last Start.
func (s *Scheduler) Hops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hops
}

// NextHopDelay picks a delay uniformly from [HopMin, HopMax].
func NextHopDelay(rng *rand.Rand, minDelay, maxDelay time.Duration) time.Duration {
	if maxDelay <= minDelay {
		return minDelay
	}
	return minDelay + time.Duration(rng.Int63n(int64(maxDelay-minDelay)+1))
}

// hop is the timer callback for the periodic chain.
func (s *Scheduler) hop(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || gen != s.gen {
		return
	}
	s.pending = nil
	s.relocateLocked()
	s.scheduleNextHopLocked()
}

// Caller must hold s.mu.
func (s *Scheduler) scheduleNextHopLocked() {
	gen := s.gen
	delay := NextHopDelay(s.rng, s.cfg.HopMin, s.cfg.HopMax)
	s.pending = s.clock.AfterFunc(delay, func() { s.hop(gen) })
}

// Caller must hold s.mu.
func (s *Scheduler) cancelLocked() {
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// relocateLocked measures the play area and moves the target. An unmeasurable
// area puts the target at the origin. Caller must hold s.mu.
func (s *Scheduler) relocateLocked() {
	var pos Position
	if b := s.bounds.MeasureBounds(); !b.IsEmpty() {
		pos = ComputeRandomPosition(s.rng, b, s.cfg.TargetSize)
	}
	s.position = pos
	s.hops++
	if s.renderer != nil {
		s.renderer.Render(pos)
	}
}
