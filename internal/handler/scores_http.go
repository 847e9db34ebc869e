package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ugaemi/bugbusters-server/internal/leaderboard"
	"github.com/ugaemi/bugbusters-server/internal/metrics"
)

const maxSubmitBody = 4096

// ScoresHandler serves the leaderboard over HTTP: POST /scores appends an
// entry and GET /scores lists the best ones.
type ScoresHandler struct {
	scores *leaderboard.Service
}

// NewScoresHandler creates the /scores endpoint.
func NewScoresHandler(scores *leaderboard.Service) *ScoresHandler {
	return &ScoresHandler{scores: scores}
}

func (h *ScoresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Cache-Control")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	}

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, leaderboard.SubmitResponse{Error: "method not allowed"})
	}
}

func (h *ScoresHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scores.Top(r.Context())
	metrics.ObserveLeaderboard("http_top", err)
	if err != nil {
		slog.Error("failed to list scores", "error", err)
		writeJSON(w, http.StatusInternalServerError, leaderboard.SubmitResponse{Error: "scores unavailable"})
		return
	}
	if entries == nil {
		entries = []leaderboard.ScoreEntry{}
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, entries)
}

func (h *ScoresHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req leaderboard.SubmitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxSubmitBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, leaderboard.SubmitResponse{Error: "invalid body"})
		return
	}

	_, err := h.scores.Submit(r.Context(), req.Name, req.Score)
	metrics.ObserveLeaderboard("http_submit", err)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, leaderboard.SubmitResponse{OK: true})
	case errors.Is(err, leaderboard.ErrEmptyName), errors.Is(err, leaderboard.ErrInvalidScore):
		// Validation failures are a decline, not a transport error.
		writeJSON(w, http.StatusOK, leaderboard.SubmitResponse{Error: err.Error()})
	default:
		slog.Error("failed to store score", "name", req.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, leaderboard.SubmitResponse{Error: "store failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
