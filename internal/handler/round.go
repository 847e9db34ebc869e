package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/ugaemi/bugbusters-server/internal/game"
	"github.com/ugaemi/bugbusters-server/internal/session"
	"github.com/ugaemi/bugbusters-server/internal/ws"
)

// maxAreaSide caps a reported play-area side, in pixels.
const maxAreaSide = 16384

// RoundHandler handles round control messages.
type RoundHandler struct{}

// NewRoundHandler creates a new round handler.
func NewRoundHandler() *RoundHandler {
	return &RoundHandler{}
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (req resizeRequest) valid() bool {
	return req.Width >= 0 && req.Height >= 0 && req.Width <= maxAreaSide && req.Height <= maxAreaSide
}

// startRoundRequest optionally carries the play area so the first hop lands
// inside it.
type startRoundRequest struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// HandleStartRound starts or restarts the player's round.
func (h *RoundHandler) HandleStartRound(s *session.Session, client *ws.Client, msg ws.Message) {
	if len(msg.Data) > 0 {
		var req startRoundRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			client.SendMessage(ws.NewErrorMessage("invalid start data"))
			return
		}
		if req.Width != nil && req.Height != nil {
			size := resizeRequest{Width: *req.Width, Height: *req.Height}
			if !size.valid() {
				client.SendMessage(ws.NewErrorMessage("area out of range"))
				return
			}
			s.Resize(game.Bounds{Width: size.Width, Height: size.Height})
		}
	}

	state := s.StartRound()
	slog.Info("player started round", "client", client.ID, "round", state.ID)
}

// hitRequest optionally carries the click point, checked against the target.
type hitRequest struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// HandleHit registers a hit. Hits outside a running round, and clicks that
// miss the target, are dropped without a reply.
func (h *RoundHandler) HandleHit(s *session.Session, client *ws.Client, msg ws.Message) {
	var req hitRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			client.SendMessage(ws.NewErrorMessage("invalid hit data"))
			return
		}
	}

	var ok bool
	if req.X != nil && req.Y != nil {
		ok = s.HitAt(*req.X, *req.Y)
	} else {
		ok = s.Hit()
	}
	if !ok {
		slog.Debug("hit dropped", "client", client.ID)
	}
}

// HandleResize records the player's play-area extent.
func (h *RoundHandler) HandleResize(s *session.Session, client *ws.Client, msg ws.Message) {
	var req resizeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid resize data"))
		return
	}
	if !req.valid() {
		client.SendMessage(ws.NewErrorMessage("area out of range"))
		return
	}

	s.Resize(game.Bounds{Width: req.Width, Height: req.Height})
	slog.Debug("play area resized", "client", client.ID, "width", req.Width, "height", req.Height)
}
