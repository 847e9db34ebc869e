package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/ugaemi/bugbusters-server/internal/clock"
	"github.com/ugaemi/bugbusters-server/internal/game"
	"github.com/ugaemi/bugbusters-server/internal/leaderboard"
	"github.com/ugaemi/bugbusters-server/internal/metrics"
	"github.com/ugaemi/bugbusters-server/internal/ws"
)

// LeaderboardTimeout bounds every leaderboard call made for a player.
const LeaderboardTimeout = 5 * time.Second

var (
	ErrRoundNotEnded = errors.New("round is not over")
	ErrRoundRunning  = errors.New("round is still running")
	ErrNoLeaderboard = errors.New("leaderboard is not configured")
)

// Sender delivers messages to the player.
type Sender interface {
	SendMessage(msg ws.Message)
}

// Session is one player's connection to the game. It owns a Controller and
// turns its callbacks into WebSocket messages.
type Session struct {
	ID string

	sender Sender
	ctrl   *game.Controller
	scores *leaderboard.Service

	// Only touched from Notify, which the controller serializes.
	roundID string

	bounds game.Bounds
	mu     sync.RWMutex
}

// New creates an idle session.
func New(id string, sender Sender, cfg game.Config, scores *leaderboard.Service, clk clock.Clock, rng *rand.Rand) *Session {
	s := &Session{
		ID:     id,
		sender: sender,
		scores: scores,
	}
	s.ctrl = game.NewController(cfg, game.Options{
		Clock:    clk,
		Rand:     rng,
		Bounds:   s,
		Renderer: s,
		Notifier: s,
	})
	return s
}

// Controller exposes the round controller.
func (s *Session) Controller() *game.Controller {
	return s.ctrl
}

// StartRound starts or restarts a round.
func (s *Session) StartRound() game.RoundState {
	metrics.RoundsStarted.Inc()
	state := s.ctrl.StartRound()
	slog.Debug("session round started", "session", s.ID, "round", state.ID)
	return state
}

// Hit registers a hit. Hits outside a running round are ignored.
func (s *Session) Hit() bool {
	if !s.ctrl.RegisterHit() {
		return false
	}
	metrics.Hits.Inc()
	return true
}

// HitAt registers a click at (x, y); clicks that miss the target are ignored.
func (s *Session) HitAt(x, y float64) bool {
	if !s.ctrl.RegisterHitAt(x, y) {
		return false
	}
	metrics.Hits.Inc()
	return true
}

// Resize records the play-area extent reported by the player. Negative
// values are stored as zero.
func (s *Session) Resize(b game.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = game.Bounds{Width: max(0, b.Width), Height: max(0, b.Height)}
}

// MeasureBounds implements game.BoundsMeasurer.
func (s *Session) MeasureBounds() game.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Close stops the round without reporting a result.
func (s *Session) Close() {
	s.ctrl.Close()
}

type roundStartedMessage struct {
	RoundID    string `json:"round_id"`
	DurationMs int64  `json:"duration_ms"`
}

type targetMovedMessage struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type scoreChangedMessage struct {
	Score int `json:"score"`
}

type timeChangedMessage struct {
	RemainingMs int64 `json:"remaining_ms"`
}

type roundEndedMessage struct {
	RoundID    string `json:"round_id"`
	FinalScore int    `json:"final_score"`
}

type submitResultMessage struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

type leaderboardMessage struct {
	Entries []leaderboard.ScoreEntry `json:"entries"`
	Status  string                   `json:"status,omitempty"`
}

// Render implements game.Renderer.
func (s *Session) Render(pos game.Position) {
	metrics.Hops.Inc()
	msg, _ := ws.NewMessage(ws.TypeTargetMoved, targetMovedMessage{X: pos.X, Y: pos.Y})
	s.sender.SendMessage(msg)
}

// Notify implements game.Notifier.
func (s *Session) Notify(ev game.Event) {
	if ev.RoundID != s.roundID {
		s.roundID = ev.RoundID
		msg, _ := ws.NewMessage(ws.TypeRoundStarted, roundStartedMessage{
			RoundID:    ev.RoundID,
			DurationMs: s.ctrl.Config().RoundDuration.Milliseconds(),
		})
		s.sender.SendMessage(msg)
	}

	var msg ws.Message
	switch ev.Kind {
	case game.EventScoreChanged:
		msg, _ = ws.NewMessage(ws.TypeScoreChanged, scoreChangedMessage{Score: ev.Score})
	case game.EventTimeChanged:
		msg, _ = ws.NewMessage(ws.TypeTimeChanged, timeChangedMessage{RemainingMs: ev.Remaining.Milliseconds()})
	case game.EventDangerThreshold:
		msg, _ = ws.NewMessage(ws.TypeDanger, nil)
	case game.EventRoundEnded:
		metrics.RoundsEnded.Inc()
		metrics.FinalScore.Observe(float64(ev.Score))
		msg, _ = ws.NewMessage(ws.TypeRoundEnded, roundEndedMessage{RoundID: ev.RoundID, FinalScore: ev.Score})
		s.sender.SendMessage(msg)

		// Show the standings as soon as the round is over.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), LeaderboardTimeout)
			defer cancel()
			s.PushTopScores(ctx)
		}()
		return
	default:
		return
	}
	s.sender.SendMessage(msg)
}

// SubmitScore stores the final score of the ended round under name.
func (s *Session) SubmitScore(ctx context.Context, name string) (leaderboard.ScoreEntry, error) {
	state := s.ctrl.Snapshot()
	if state.Phase != game.PhaseEnded {
		return leaderboard.ScoreEntry{}, ErrRoundNotEnded
	}
	if s.scores == nil {
		return leaderboard.ScoreEntry{}, ErrNoLeaderboard
	}

	entry, err := s.scores.Submit(ctx, name, state.Score)
	metrics.ObserveLeaderboard("submit", err)
	if err != nil {
		slog.Warn("score submission failed", "session", s.ID, "round", state.ID, "error", err)
		return leaderboard.ScoreEntry{}, err
	}
	return entry, nil
}

// TopScores returns the leaderboard view. Refused while a round runs.
func (s *Session) TopScores(ctx context.Context) ([]leaderboard.ScoreEntry, error) {
	if s.ctrl.Phase() == game.PhaseRunning {
		return nil, ErrRoundRunning
	}
	if s.scores == nil {
		return nil, ErrNoLeaderboard
	}

	entries, err := s.scores.Top(ctx)
	metrics.ObserveLeaderboard("top", err)
	if err != nil {
		slog.Warn("leaderboard fetch failed", "session", s.ID, "error", err)
		return nil, err
	}
	return entries, nil
}

// PushSubmit submits the score and reports the outcome to the player,
// refreshing the standings on success.
func (s *Session) PushSubmit(ctx context.Context, name string) {
	_, err := s.SubmitScore(ctx, name)

	status := leaderboard.SubmitStatus(err)
	if errors.Is(err, ErrRoundNotEnded) {
		status = "Round is not over."
	}
	msg, _ := ws.NewMessage(ws.TypeSubmitResult, submitResultMessage{OK: err == nil, Status: status})
	s.sender.SendMessage(msg)

	if err == nil {
		s.PushTopScores(ctx)
	}
}

// PushTopScores sends the current standings, or an unavailable status.
// Nothing is sent if a new round started in the meantime.
func (s *Session) PushTopScores(ctx context.Context) {
	before := s.ctrl.Snapshot()
	entries, err := s.TopScores(ctx)
	if errors.Is(err, ErrRoundRunning) {
		return
	}
	if after := s.ctrl.Snapshot(); after.Phase == game.PhaseRunning || after.ID != before.ID {
		slog.Debug("stale standings dropped", "session", s.ID, "round", before.ID)
		return
	}

	var payload leaderboardMessage
	if err != nil {
		payload = leaderboardMessage{Entries: []leaderboard.ScoreEntry{}, Status: leaderboard.StatusUnavailable}
	} else {
		if entries == nil {
			entries = []leaderboard.ScoreEntry{}
		}
		payload = leaderboardMessage{Entries: entries}
	}
	msg, _ := ws.NewMessage(ws.TypeLeaderboard, payload)
	s.sender.SendMessage(msg)
}
