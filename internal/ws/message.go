package ws

import "encoding/json"

// Message represents a WebSocket message with type-based routing.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - Client requests
const (
	TypeStartRound  = "start_round"
	TypeHit         = "hit"
	TypeResize      = "resize"
	TypeSubmitScore = "submit_score"
	TypeFetchScores = "fetch_scores"
)

// Message types - Round events
const (
	TypeRoundStarted = "round_started"
	TypeTargetMoved  = "target_moved"
	TypeScoreChanged = "score_changed"
	TypeTimeChanged  = "time_changed"
	TypeDanger       = "danger"
	TypeRoundEnded   = "round_ended"
)

// Message types - Leaderboard
const (
	TypeSubmitResult = "submit_result"
	TypeLeaderboard  = "leaderboard"
)

// Message types - System
const (
	TypeError = "error"
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Message string `json:"message"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload. A nil payload sends no data.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}
