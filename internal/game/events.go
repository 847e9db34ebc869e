package game

import "time"

type EventKind int

const (
	EventScoreChanged EventKind = iota
	EventTimeChanged
	EventDangerThreshold
	EventRoundEnded
)

func (k EventKind) String() string {
	switch k {
	case EventScoreChanged:
		return "score_changed"
	case EventTimeChanged:
		return "time_changed"
	case EventDangerThreshold:
		return "danger"
	case EventRoundEnded:
		return "round_ended"
	default:
		return "unknown"
	}
}

// Event is a presentation signal emitted by the Controller.
type Event struct {
	Kind      EventKind
	RoundID   string
	Score     int           // ScoreChanged, RoundEnded
	Remaining time.Duration // TimeChanged
}

// Notifier receives controller events. It is called with the controller's
// lock held and must not call back into the Controller.
type Notifier interface {
	Notify(ev Event)
}

// Renderer applies a target position. It is called with the scheduler's lock
// held and must not call back into the Scheduler.
type Renderer interface {
	Render(pos Position)
}

// BoundsMeasurer reports the current play-area extent.
type BoundsMeasurer interface {
	MeasureBounds() Bounds
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// RendererFunc adapts a function to Renderer.
type RendererFunc func(pos Position)

func (f RendererFunc) Render(pos Position) { f(pos) }

// FixedBounds is a BoundsMeasurer that always reports the same extent.
type FixedBounds Bounds

func (b FixedBounds) MeasureBounds() Bounds { return Bounds(b) }
