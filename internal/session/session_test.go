package session

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bugbusters-server/internal/clock"
	"github.com/ugaemi/bugbusters-server/internal/game"
	"github.com/ugaemi/bugbusters-server/internal/leaderboard"
	"github.com/ugaemi/bugbusters-server/internal/ws"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// recordingSender captures every message sent to the player.
type recordingSender struct {
	mu   sync.Mutex
	msgs []ws.Message
}

func newRecordingSender() *recordingSender {
	return &recordingSender{}
}

func (r *recordingSender) SendMessage(msg ws.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) messages() []ws.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ws.Message(nil), r.msgs...)
}

func (r *recordingSender) all(msgType string) []ws.Message {
	var out []ws.Message
	for _, m := range r.messages() {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingSender) find(msgType string) *ws.Message {
	for _, m := range r.messages() {
		if m.Type == msgType {
			return &m
		}
	}
	return nil
}

// waitFor polls until a message of msgType arrives.
func (r *recordingSender) waitFor(t *testing.T, msgType string) ws.Message {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m := r.find(msgType); m != nil {
			return *m
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msgType)
	return ws.Message{}
}

// brokenStore fails every leaderboard call.
type brokenStore struct{}

func (brokenStore) Submit(context.Context, leaderboard.ScoreEntry) error {
	return errors.New("dial tcp: connection refused")
}
func (brokenStore) Top(context.Context, int) ([]leaderboard.ScoreEntry, error) {
	return nil, errors.New("dial tcp: connection refused")
}
func (brokenStore) Close() error { return nil }

// gatedStore blocks Top until release is closed.
type gatedStore struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedStore) Submit(context.Context, leaderboard.ScoreEntry) error { return nil }
func (g *gatedStore) Top(ctx context.Context, _ int) ([]leaderboard.ScoreEntry, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return []leaderboard.ScoreEntry{{Name: "ana", Score: 7}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
func (g *gatedStore) Close() error { return nil }

// nullStore answers like a remote service replying with a JSON null.
type nullStore struct{}

func (nullStore) Submit(context.Context, leaderboard.ScoreEntry) error { return nil }
func (nullStore) Top(context.Context, int) ([]leaderboard.ScoreEntry, error) {
	return nil, nil
}
func (nullStore) Close() error { return nil }

func setupSession(t *testing.T, store leaderboard.Store) (*Session, *clock.Manual, *recordingSender) {
	t.Helper()
	if store == nil {
		store = leaderboard.NewMemoryStore()
	}
	clk := clock.NewManual(epoch)
	sender := newRecordingSender()
	cfg := game.DefaultConfig()
	s := New("client-1", sender, cfg, leaderboard.NewService(store, 10), clk, rand.New(rand.NewSource(11)))
	s.Resize(game.Bounds{Width: 800, Height: 600})
	return s, clk, sender
}

func decode[T any](t *testing.T, msg ws.Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Data, &v))
	return v
}

func TestSession_StartRoundSendsInitialMessages(t *testing.T) {
	s, _, sender := setupSession(t, nil)

	state := s.StartRound()

	msgs := sender.messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, ws.TypeRoundStarted, msgs[0].Type)
	assert.Equal(t, ws.TypeScoreChanged, msgs[1].Type)
	assert.Equal(t, ws.TypeTimeChanged, msgs[2].Type)
	assert.Equal(t, ws.TypeTargetMoved, msgs[3].Type)

	started := decode[roundStartedMessage](t, msgs[0])
	assert.Equal(t, state.ID, started.RoundID)
	assert.Equal(t, int64(20000), started.DurationMs)
	assert.Equal(t, int64(20000), decode[timeChangedMessage](t, msgs[2]).RemainingMs)

	pos := decode[targetMovedMessage](t, msgs[3])
	assert.True(t, s.MeasureBounds().Contains(game.Position{X: pos.X, Y: pos.Y}, game.DefaultTargetSize))
}

func TestSession_HitSendsScoreAndMove(t *testing.T) {
	s, _, sender := setupSession(t, nil)
	s.StartRound()
	moves := len(sender.all(ws.TypeTargetMoved))

	require.True(t, s.Hit())

	scores := sender.all(ws.TypeScoreChanged)
	assert.Equal(t, 1, decode[scoreChangedMessage](t, scores[len(scores)-1]).Score)
	assert.Len(t, sender.all(ws.TypeTargetMoved), moves+1)
}

func TestSession_HitBeforeStartIgnored(t *testing.T) {
	s, _, sender := setupSession(t, nil)

	assert.False(t, s.Hit())
	assert.Empty(t, sender.messages())
}

func TestSession_FullRoundEndsAndPushesLeaderboard(t *testing.T) {
	s, clk, sender := setupSession(t, nil)
	s.StartRound()
	clk.Advance(time.Second)
	s.Hit()
	s.Hit()

	clk.Advance(game.DefaultRoundDuration)

	ended := sender.all(ws.TypeRoundEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 2, decode[roundEndedMessage](t, ended[0]).FinalScore)
	assert.Len(t, sender.all(ws.TypeDanger), 1)

	board := decode[leaderboardMessage](t, sender.waitFor(t, ws.TypeLeaderboard))
	assert.Empty(t, board.Entries)
	assert.Empty(t, board.Status)
}

func TestSession_NoTargetMovedAfterRoundEnded(t *testing.T) {
	s, clk, sender := setupSession(t, nil)
	s.StartRound()
	clk.Advance(game.DefaultRoundDuration)
	clk.Advance(5 * time.Second)

	msgs := sender.messages()
	endIdx := -1
	for i, m := range msgs {
		if m.Type == ws.TypeRoundEnded {
			endIdx = i
		}
	}
	require.GreaterOrEqual(t, endIdx, 0)
	for _, m := range msgs[endIdx+1:] {
		assert.NotEqual(t, ws.TypeTargetMoved, m.Type, "ghost hop after round end")
		assert.NotEqual(t, ws.TypeTimeChanged, m.Type)
	}
}

func TestSession_SubmitScoreRequiresEndedRound(t *testing.T) {
	s, _, _ := setupSession(t, nil)

	_, err := s.SubmitScore(context.Background(), "ana")
	assert.ErrorIs(t, err, ErrRoundNotEnded, "idle")

	s.StartRound()
	_, err = s.SubmitScore(context.Background(), "ana")
	assert.ErrorIs(t, err, ErrRoundNotEnded, "running")
}

func TestSession_SubmitScoreUsesFinalScore(t *testing.T) {
	s, clk, _ := setupSession(t, nil)
	s.StartRound()
	for i := 0; i < 3; i++ {
		clk.Advance(100 * time.Millisecond)
		s.Hit()
	}
	clk.Advance(game.DefaultRoundDuration)

	entry, err := s.SubmitScore(context.Background(), "  ana ")
	require.NoError(t, err)
	assert.Equal(t, "ana", entry.Name)
	assert.Equal(t, 3, entry.Score)

	top, err := s.TopScores(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 3, top[0].Score)
}

func TestSession_TopScoresRefusedWhileRunning(t *testing.T) {
	s, _, _ := setupSession(t, nil)

	_, err := s.TopScores(context.Background())
	assert.NoError(t, err, "standings are viewable before the first round")

	s.StartRound()
	_, err = s.TopScores(context.Background())
	assert.ErrorIs(t, err, ErrRoundRunning)
}

func TestSession_PushSubmitEmptyName(t *testing.T) {
	s, clk, sender := setupSession(t, nil)
	s.StartRound()
	clk.Advance(game.DefaultRoundDuration)

	s.PushSubmit(context.Background(), "   ")

	result := decode[submitResultMessage](t, sender.waitFor(t, ws.TypeSubmitResult))
	assert.False(t, result.OK)
	assert.Equal(t, leaderboard.StatusEnterName, result.Status)
}

func TestSession_PushSubmitBeforeEnd(t *testing.T) {
	s, _, sender := setupSession(t, nil)
	s.StartRound()

	s.PushSubmit(context.Background(), "ana")

	result := decode[submitResultMessage](t, sender.waitFor(t, ws.TypeSubmitResult))
	assert.False(t, result.OK)
	assert.Equal(t, "Round is not over.", result.Status)
}

func TestSession_PushSubmitSuccessRefreshesBoard(t *testing.T) {
	s, clk, sender := setupSession(t, nil)
	s.StartRound()
	clk.Advance(time.Second)
	s.Hit()
	clk.Advance(game.DefaultRoundDuration)
	sender.waitFor(t, ws.TypeLeaderboard)

	s.PushSubmit(context.Background(), "bo")

	result := decode[submitResultMessage](t, sender.waitFor(t, ws.TypeSubmitResult))
	assert.True(t, result.OK)
	assert.Equal(t, leaderboard.StatusUpdated, result.Status)

	boards := sender.all(ws.TypeLeaderboard)
	require.Len(t, boards, 2)
	board := decode[leaderboardMessage](t, boards[1])
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "bo", board.Entries[0].Name)
	assert.Equal(t, 1, board.Entries[0].Score)
}

func TestSession_LeaderboardFailureDoesNotTouchRound(t *testing.T) {
	s, clk, sender := setupSession(t, brokenStore{})
	s.StartRound()
	clk.Advance(time.Second)
	s.Hit()
	clk.Advance(game.DefaultRoundDuration)
	before := s.Controller().Snapshot()

	board := decode[leaderboardMessage](t, sender.waitFor(t, ws.TypeLeaderboard))
	assert.Equal(t, leaderboard.StatusUnavailable, board.Status)

	s.PushSubmit(context.Background(), "ana")
	result := decode[submitResultMessage](t, sender.waitFor(t, ws.TypeSubmitResult))
	assert.False(t, result.OK)
	assert.Equal(t, leaderboard.StatusNetworkErr, result.Status)

	assert.Equal(t, before, s.Controller().Snapshot())
}

func TestSession_UnmeasuredAreaPlacesAtOrigin(t *testing.T) {
	s, clk, sender := setupSession(t, nil)
	s.Resize(game.Bounds{})
	s.StartRound()
	clk.Advance(3 * time.Second)

	moves := sender.all(ws.TypeTargetMoved)
	require.NotEmpty(t, moves)
	for _, m := range moves {
		assert.Equal(t, targetMovedMessage{}, decode[targetMovedMessage](t, m))
	}
}

func TestSession_ResizeClampsNegative(t *testing.T) {
	s, _, _ := setupSession(t, nil)

	s.Resize(game.Bounds{Width: -10, Height: 300})

	assert.Equal(t, game.Bounds{Width: 0, Height: 300}, s.MeasureBounds())
}

func TestSession_RestartAnnouncesNewRound(t *testing.T) {
	s, clk, sender := setupSession(t, nil)
	first := s.StartRound()
	clk.Advance(2 * time.Second)
	second := s.StartRound()

	started := sender.all(ws.TypeRoundStarted)
	require.Len(t, started, 2)
	assert.Equal(t, first.ID, decode[roundStartedMessage](t, started[0]).RoundID)
	assert.Equal(t, second.ID, decode[roundStartedMessage](t, started[1]).RoundID)
}

func TestSession_StandingsDroppedWhenRoundRestartsDuringFetch(t *testing.T) {
	store := newGatedStore()
	s, clk, sender := setupSession(t, store)
	s.StartRound()
	clk.Advance(game.DefaultRoundDuration)
	require.NotNil(t, sender.find(ws.TypeRoundEnded))

	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("standings fetch did not start")
	}
	s.StartRound()
	close(store.release)

	assert.Never(t, func() bool {
		return sender.find(ws.TypeLeaderboard) != nil
	}, 100*time.Millisecond, 5*time.Millisecond, "standings pushed into a running round")
	assert.Equal(t, game.PhaseRunning, s.Controller().Phase())
}

func TestSession_StandingsDroppedWhenRoundChangesDuringFetch(t *testing.T) {
	store := newGatedStore()
	s, clk, sender := setupSession(t, store)
	s.StartRound()
	clk.Advance(game.DefaultRoundDuration)
	<-store.entered

	// A whole new round starts and ends while the first fetch is in flight.
	s.StartRound()
	clk.Advance(game.DefaultRoundDuration)
	<-store.entered
	close(store.release)

	require.Eventually(t, func() bool {
		return len(sender.all(ws.TypeLeaderboard)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool {
		return len(sender.all(ws.TypeLeaderboard)) > 1
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSession_NullStandingsSentAsEmptyList(t *testing.T) {
	s, clk, sender := setupSession(t, nullStore{})
	s.StartRound()
	clk.Advance(game.DefaultRoundDuration)

	msg := sender.waitFor(t, ws.TypeLeaderboard)
	assert.JSONEq(t, `{"entries":[]}`, string(msg.Data))
}
