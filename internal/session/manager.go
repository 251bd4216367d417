package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"moviematch/internal/logging"
	"moviematch/internal/metrics"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	mu         sync.Mutex
	session    *Session
	lastActive time.Time
}

// Manager owns the live sessions. Each session is isolated; calls on the
// same session are serialized, calls on different sessions are not.
type Manager struct {
	ranker Ranker
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a Manager whose sessions share one read-only ranker.
func NewManager(ranker Ranker, opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		ranker:   ranker,
		opts:     opts.withDefaults(),
		logger:   logging.NewComponentLogger(logger, "session"),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new empty session and returns its id.
func (m *Manager) Create() string {
	id := uuid.NewString()
	s := New(id, m.ranker, m.opts, m.logger)

	m.mu.Lock()
	s.CreatedAt = m.now()
	m.sessions[id] = &entry{session: s, lastActive: s.CreatedAt}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	m.logger.Info("session created", slog.String(logging.FieldSession, id))
	return id
}

// With runs fn on the session while holding its lock.
func (m *Manager) With(id string, fn func(*Session) error) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		e.lastActive = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Get returns a snapshot of the session.
func (m *Manager) Get(id string) (State, error) {
	var st State
	err := m.With(id, func(s *Session) error {
		st = s.Snapshot()
		return nil
	})
	return st, err
}

// Delete ends a session. Reports whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		metrics.ActiveSessions.Set(float64(n))
		m.logger.Info("session ended", slog.String(logging.FieldSession, id))
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than idle and returns how many were
// removed. A non-positive idle disables expiry.
func (m *Manager) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	removed := 0
	for id, e := range m.sessions {
		if e.lastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		metrics.ActiveSessions.Set(float64(n))
		m.logger.Info("expired idle sessions", slog.Int("removed", removed), slog.Int("remaining", n))
	}
	return removed
}
