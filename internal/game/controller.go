package game

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ugaemi/bugbusters-server/internal/clock"
)

// Config holds the tunables of a round.
type Config struct {
	RoundDuration   time.Duration
	DangerThreshold time.Duration
	TickInterval    time.Duration
	HopMin          time.Duration
	HopMax          time.Duration
	HitDebounce     time.Duration
	TargetSize      int
}

// DefaultConfig returns the standard 20 second round.
func DefaultConfig() Config {
	return Config{
		RoundDuration:   DefaultRoundDuration,
		DangerThreshold: DefaultDangerThreshold,
		TickInterval:    DefaultTickInterval,
		HopMin:          DefaultHopMin,
		HopMax:          DefaultHopMax,
		HitDebounce:     DefaultHitDebounce,
		TargetSize:      DefaultTargetSize,
	}
}

// Normalize replaces unusable values with defaults.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.RoundDuration <= 0 {
		c.RoundDuration = def.RoundDuration
	}
	if c.DangerThreshold <= 0 {
		c.DangerThreshold = def.DangerThreshold
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.HopMin <= 0 {
		c.HopMin = def.HopMin
	}
	if c.HopMax < c.HopMin {
		c.HopMax = c.HopMin
	}
	if c.HitDebounce < 0 {
		c.HitDebounce = 0
	}
	if c.TargetSize < 0 {
		c.TargetSize = 0
	}
	return c
}

// Options are the collaborators of a Controller. Nil fields get harmless defaults.
type Options struct {
	Clock    clock.Clock
	Rand     *rand.Rand
	Bounds   BoundsMeasurer
	Renderer Renderer
	Notifier Notifier
}

// Controller owns the round lifecycle, the score and the countdown.
type Controller struct {
	cfg       Config
	clock     clock.Clock
	notifier  Notifier
	scheduler *Scheduler

	mu        sync.Mutex
	state     RoundState
	epoch     uint64 // bumped on every start and halt; stale ticks compare against it
	countdown clock.Timer
	lastHitAt time.Time
}

// NewController creates an idle controller.
func NewController(cfg Config, opts Options) *Controller {
	cfg = cfg.Normalize()
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(Event) {})
	}

	return &Controller{
		cfg:      cfg,
		clock:    opts.Clock,
		notifier: opts.Notifier,
		scheduler: NewScheduler(SchedulerConfig{
			HopMin:     cfg.HopMin,
			HopMax:     cfg.HopMax,
			TargetSize: cfg.TargetSize,
		}, opts.Clock, opts.Rand, opts.Bounds, opts.Renderer),
		state: RoundState{Phase: PhaseIdle},
	}
}

// Config returns the normalized configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// StartRound begins a fresh round from any phase. A running round is
// discarded and restarted.
func (c *Controller) StartRound() RoundState {
	c.mu.Lock()
	defer c.mu.Unlock()

	restart := c.state.Phase == PhaseRunning
	c.haltLocked()

	c.state = RoundState{
		ID:        uuid.New().String(),
		Phase:     PhaseRunning,
		StartedAt: c.clock.Now(),
	}
	c.lastHitAt = time.Time{}

	c.emitLocked(Event{Kind: EventScoreChanged, Score: 0})
	c.emitLocked(Event{Kind: EventTimeChanged, Remaining: c.cfg.RoundDuration})

	c.scheduler.Start()
	c.scheduleTickLocked()

	slog.Info("round started", "round", c.state.ID, "restart", restart, "duration", c.cfg.RoundDuration)
	return c.state
}

// RegisterHit scores a hit and forces a hop. Hits outside a running round,
// after the deadline, or inside the debounce window are ignored.
func (c *Controller) RegisterHit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerHitLocked()
}

// RegisterHitAt is RegisterHit for a click at (x, y). Clicks that miss the
// target's current position are ignored.
func (c *Controller) RegisterHitAt(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase == PhaseRunning && !HitTest(c.scheduler.Position(), c.cfg.TargetSize, x, y) {
		slog.Debug("hit missed target", "round", c.state.ID, "x", x, "y", y)
		return false
	}
	return c.registerHitLocked()
}

// Caller must hold c.mu.
func (c *Controller) registerHitLocked() bool {
	if c.state.Phase != PhaseRunning {
		slog.Debug("hit ignored", "phase", c.state.Phase.String())
		return false
	}

	now := c.clock.Now()
	if c.cfg.RoundDuration-now.Sub(c.state.StartedAt) <= 0 {
		// Deadline passed before the countdown noticed; end the round now.
		c.onCountdownTickLocked(now)
		return false
	}
	if c.cfg.HitDebounce > 0 && !c.lastHitAt.IsZero() && now.Sub(c.lastHitAt) < c.cfg.HitDebounce {
		return false
	}

	c.lastHitAt = now
	c.state.Score++
	c.emitLocked(Event{Kind: EventScoreChanged, Score: c.state.Score})
	c.scheduler.ForceHop()
	return true
}

// OnCountdownTick recomputes the remaining time at now, ending the round when
// it reaches zero. Ignored unless the round is running.
func (c *Controller) OnCountdownTick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseRunning {
		return
	}
	c.onCountdownTickLocked(now)
}

// Close halts all timers without emitting round_ended.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase == PhaseRunning {
		c.state.Phase = PhaseEnded
		slog.Info("round aborted", "round", c.state.ID, "score", c.state.Score)
	}
	c.haltLocked()
}

// Snapshot returns a copy of the current round state.
func (c *Controller) Snapshot() RoundState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase
}

// Remaining returns the time left in the running round, or zero.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.RemainingAt(c.clock.Now(), c.cfg.RoundDuration)
}

// Position returns the target's current position.
func (c *Controller) Position() Position {
	return c.scheduler.Position()
}

// tick is the countdown timer callback.
func (c *Controller) tick(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || c.state.Phase != PhaseRunning {
		slog.Debug("stale countdown tick dropped", "round", c.state.ID)
		return
	}
	c.countdown = nil
	c.onCountdownTickLocked(c.clock.Now())
	if c.state.Phase == PhaseRunning {
		c.scheduleTickLocked()
	}
}

// Caller must hold c.mu and the round must be running.
func (c *Controller) onCountdownTickLocked(now time.Time) {
	remaining := c.cfg.RoundDuration - now.Sub(c.state.StartedAt)

	if remaining <= 0 {
		c.state.Phase = PhaseEnded
		c.haltLocked()

		// The ending tick is the first at or below the threshold when the
		// countdown skipped past it.
		c.warnLocked()
		c.emitLocked(Event{Kind: EventRoundEnded, Score: c.state.Score})

		slog.Info("round ended", "round", c.state.ID, "score", c.state.Score)
		return
	}

	c.emitLocked(Event{Kind: EventTimeChanged, Remaining: remaining})
	if remaining <= c.cfg.DangerThreshold {
		c.warnLocked()
	}
}

// warnLocked fires the danger signal at most once per round.
// Caller must hold c.mu.
func (c *Controller) warnLocked() {
	if c.state.Warned {
		return
	}
	c.state.Warned = true
	c.emitLocked(Event{Kind: EventDangerThreshold})
}

// haltLocked cancels the countdown and hop continuations.
// Caller must hold c.mu.
func (c *Controller) haltLocked() {
	c.epoch++
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	c.scheduler.Stop()
}

// Caller must hold c.mu.
func (c *Controller) scheduleTickLocked() {
	epoch := c.epoch
	c.countdown = c.clock.AfterFunc(c.cfg.TickInterval, func() { c.tick(epoch) })
}

// Caller must hold c.mu.
func (c *Controller) emitLocked(ev Event) {
	ev.RoundID = c.state.ID
	c.notifier.Notify(ev)
}
