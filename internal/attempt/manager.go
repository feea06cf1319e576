package attempt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/quiz"
)

// ManagerOptions configures attempt timers.
type ManagerOptions struct {
	TickInterval time.Duration
	NewTicker    TickerFactory
}

// Manager keeps at most one live attempt per user.
type Manager struct {
	engine  *quiz.Engine
	opts    ManagerOptions
	metrics *Metrics
	logger  zerolog.Logger

	mu       sync.Mutex
	attempts map[uuid.UUID]*Runner
}

// NewManager creates an attempt manager.
func NewManager(engine *quiz.Engine, opts ManagerOptions, metrics *Metrics, logger zerolog.Logger) *Manager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Manager{
		engine:   engine,
		opts:     opts,
		metrics:  metrics,
		logger:   logger.With().Str("component", "attempt_manager").Logger(),
		attempts: make(map[uuid.UUID]*Runner),
	}
}

// Start begins a new attempt for the user, abandoning any attempt still open.
func (m *Manager) Start(userID uuid.UUID, quizID string, def quiz.Definition, hooks Hooks) (*Runner, error) {
	session, err := m.engine.Start(def)
	if err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}
	r := newRunner(userID, quizID, session, hooks, m.metrics, m.logger)

	m.mu.Lock()
	prev := m.attempts[userID]
	m.attempts[userID] = r
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	r.start(context.Background(), m.opts.NewTicker(m.opts.TickInterval))
	return r, nil
}

// Get returns the user's current attempt.
func (m *Manager) Get(userID uuid.UUID) (*Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.attempts[userID]
	if !ok {
		return nil, ErrNoActiveAttempt
	}
	return r, nil
}

// Abandon tears down the user's attempt, if any.
func (m *Manager) Abandon(userID uuid.UUID) bool {
	m.mu.Lock()
	r, ok := m.attempts[userID]
	delete(m.attempts, userID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	r.Close()
	return true
}

// Return accepts the report of the user's completed attempt and releases it.
func (m *Manager) Return(userID uuid.UUID) error {
	r, err := m.Get(userID)
	if err != nil {
		return err
	}
	if err := r.Return(); err != nil {
		return err
	}
	m.remove(userID, r)
	return nil
}

// Duration is the time budget of every attempt.
func (m *Manager) Duration() time.Duration {
	return m.engine.Duration()
}

// Active returns the number of attempts held.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

// Shutdown closes every attempt.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	runners := make([]*Runner, 0, len(m.attempts))
	for id, r := range m.attempts {
		runners = append(runners, r)
		delete(m.attempts, id)
	}
	m.mu.Unlock()

	for _, r := range runners {
		r.Close()
	}
	if len(runners) > 0 {
		m.logger.Info().Int("attempts", len(runners)).Msg("closed attempts on shutdown")
	}
}

func (m *Manager) remove(userID uuid.UUID, r *Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts[userID] == r {
		delete(m.attempts, userID)
	}
}
