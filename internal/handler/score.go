package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ugaemi/bugbusters-server/internal/game"
	"github.com/ugaemi/bugbusters-server/internal/session"
	"github.com/ugaemi/bugbusters-server/internal/ws"
)

// ScoreHandler handles leaderboard messages. Store calls run off the hub
// goroutine so a slow backend never stalls other players.
type ScoreHandler struct {
	timeout time.Duration
}

// NewScoreHandler creates a score handler whose calls are bounded by timeout.
func NewScoreHandler(timeout time.Duration) *ScoreHandler {
	return &ScoreHandler{timeout: timeout}
}

type submitScoreRequest struct {
	Name string `json:"name"`
}

// HandleSubmitScore submits the ended round's score under the given name.
// The outcome arrives as submit_result.
func (h *ScoreHandler) HandleSubmitScore(s *session.Session, client *ws.Client, msg ws.Message) {
	var req submitScoreRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid submit data"))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		s.PushSubmit(ctx, req.Name)
	}()
}

// HandleFetchScores sends the current standings. Refused while a round runs.
func (h *ScoreHandler) HandleFetchScores(s *session.Session, client *ws.Client, _ ws.Message) {
	if s.Controller().Phase() == game.PhaseRunning {
		client.SendMessage(ws.NewErrorMessage("round is still running"))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		s.PushTopScores(ctx)
	}()
}
