package session

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/ugaemi/bugbusters-server/internal/clock"
	"github.com/ugaemi/bugbusters-server/internal/game"
	"github.com/ugaemi/bugbusters-server/internal/leaderboard"
	"github.com/ugaemi/bugbusters-server/internal/metrics"
)

// Manager manages all connected sessions.
type Manager struct {
	cfg    game.Config
	scores *leaderboard.Service
	clock  clock.Clock

	sessions map[string]*Session // client ID -> session
	mu       sync.RWMutex
}

// NewManager creates a session manager. A nil clock uses the wall clock.
func NewManager(cfg game.Config, scores *leaderboard.Service, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Manager{
		cfg:      cfg.Normalize(),
		scores:   scores,
		clock:    clk,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session for a client, replacing any previous one with the same ID.
func (m *Manager) Create(id string, sender Sender) *Session {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := New(id, sender, m.cfg, m.scores, m.clock, rng)

	m.mu.Lock()
	old := m.sessions[id]
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	metrics.ActiveSessions.Set(float64(count))
	slog.Info("session created", "session", id)
	return s
}

// Get returns a session by client ID.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if s == nil {
		return
	}
	s.Close()
	metrics.ActiveSessions.Set(float64(count))
	slog.Info("session removed", "session", id)
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	metrics.ActiveSessions.Set(0)
}
