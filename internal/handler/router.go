package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/ugaemi/bugbusters-server/internal/session"
	"github.com/ugaemi/bugbusters-server/internal/ws"
)

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	sessions *session.Manager
	round    *RoundHandler
	score    *ScoreHandler
}

// NewRouter creates a new message router.
func NewRouter(sessions *session.Manager) *Router {
	return &Router{
		sessions: sessions,
		round:    NewRoundHandler(),
		score:    NewScoreHandler(session.LeaderboardTimeout),
	}
}

// HandleConnect opens a session for a newly registered client.
func (r *Router) HandleConnect(client *ws.Client) {
	r.sessions.Create(client.ID, client)
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	s := r.sessions.Get(cm.Client.ID)
	if s == nil {
		cm.Client.SendMessage(ws.NewErrorMessage("no session"))
		return
	}

	switch msg.Type {
	// Round messages
	case ws.TypeStartRound:
		r.round.HandleStartRound(s, cm.Client, msg)
	case ws.TypeHit:
		r.round.HandleHit(s, cm.Client, msg)
	case ws.TypeResize:
		r.round.HandleResize(s, cm.Client, msg)

	// Leaderboard messages
	case ws.TypeSubmitScore:
		r.score.HandleSubmitScore(s, cm.Client, msg)
	case ws.TypeFetchScores:
		r.score.HandleFetchScores(s, cm.Client, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
	}
}

// HandleDisconnect closes the client's session.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.sessions.Remove(client.ID)
}
