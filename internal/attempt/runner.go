package attempt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/quiz"
)

var (
	ErrAttemptClosed   = errors.New("attempt closed")
	ErrNoActiveAttempt = errors.New("no active attempt")
)

// Hooks receive attempt events. They run with the runner lock held and
// must not call back into the runner.
type Hooks struct {
	// OnTick fires after every applied timer tick.
	OnTick func(quiz.View)
	// OnFinished fires once when the session completes, by answer or timeout.
	OnFinished func(quiz.Report)
	// OnReturn is the completion callback: it fires once, after the session
	// completed and the user accepted the report.
	OnReturn func()
}

// Runner drives one quiz session and owns its timer.
type Runner struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	QuizID    string
	StartedAt time.Time

	mu      sync.Mutex
	session *quiz.Session
	hooks   Hooks
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool

	metrics *Metrics
	logger  zerolog.Logger
}

func newRunner(userID uuid.UUID, quizID string, session *quiz.Session, hooks Hooks, metrics *Metrics, logger zerolog.Logger) *Runner {
	id := uuid.New()
	return &Runner{
		ID:        id,
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: time.Now().UTC(),
		session:   session,
		hooks:     hooks,
		cancel:    func() {},
		done:      make(chan struct{}),
		metrics:   metrics,
		logger: logger.With().
			Str("attempt_id", id.String()).
			Str("user_id", userID.String()).
			Str("quiz_id", quizID).
			Logger(),
	}
}

// start launches the timer goroutine.
func (r *Runner) start(ctx context.Context, ticker Ticker) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.metrics.Started.WithLabelValues(r.QuizID).Inc()
	r.metrics.Active.Inc()
	r.logger.Info().Int("remaining_seconds", r.session.Remaining()).Msg("attempt started")

	go r.run(ctx, ticker)
}

func (r *Runner) run(ctx context.Context, ticker Ticker) {
	defer close(r.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !r.tick() {
				return
			}
		}
	}
}

// tick applies one second and reports whether the timer should keep running.
func (r *Runner) tick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.session.Completed() {
		return false
	}
	if err := r.session.Tick(); err != nil {
		return false
	}
	if r.hooks.OnTick != nil {
		r.hooks.OnTick(r.session.View())
	}
	if r.session.Completed() {
		r.finishLocked()
		return false
	}
	return true
}

func (r *Runner) finishLocked() {
	r.cancel()

	report, err := r.session.Report()
	if err != nil {
		r.logger.Error().Err(err).Msg("report unavailable after completion")
		return
	}

	outcome := OutcomeCompleted
	if report.TimedOut {
		outcome = OutcomeTimedOut
	}
	r.metrics.Finished.WithLabelValues(r.QuizID, outcome).Inc()
	r.metrics.Active.Dec()
	r.metrics.Score.Observe(float64(report.Percentage))

	r.logger.Info().
		Str("outcome", outcome).
		Int("score", report.Score).
		Int("total", report.TotalQuestions).
		Int("percentage", report.Percentage).
		Dur("elapsed", time.Since(r.StartedAt)).
		Msg("attempt finished")

	if r.hooks.OnFinished != nil {
		r.hooks.OnFinished(report)
	}
}

// SelectOption forwards the choice to the session.
func (r *Runner) SelectOption(option int) (quiz.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return quiz.View{}, ErrAttemptClosed
	}
	if err := r.session.SelectOption(option); err != nil {
		return r.session.View(), err
	}
	return r.session.View(), nil
}

// Advance grades the current selection. On the last question it completes
// the session and stops the timer.
func (r *Runner) Advance() (quiz.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return quiz.View{}, ErrAttemptClosed
	}
	if err := r.session.Advance(); err != nil {
		return r.session.View(), err
	}
	if r.session.Completed() {
		r.finishLocked()
	}
	return r.session.View(), nil
}

func (r *Runner) View() quiz.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.View()
}

func (r *Runner) Report() (quiz.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Report()
}

// Return accepts the report of a completed attempt, closes the runner and
// fires the completion callback.
func (r *Runner) Return() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrAttemptClosed
	}
	if !r.session.Completed() {
		return quiz.ErrSessionInProgress
	}
	r.closeLocked()
	r.logger.Info().Msg("attempt returned")

	if r.hooks.OnReturn != nil {
		r.hooks.OnReturn()
	}
	return nil
}

// Close tears the attempt down and cancels its timer. No tick is applied
// and no hook fires once Close returns. Safe to call more than once.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Runner) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	r.cancel()

	if !r.session.Completed() {
		r.metrics.Finished.WithLabelValues(r.QuizID, OutcomeAbandoned).Inc()
		r.metrics.Active.Dec()
		r.logger.Info().
			Int("question_index", r.session.QuestionIndex()).
			Int("remaining_seconds", r.session.Remaining()).
			Msg("attempt abandoned")
	}
}

// Closed reports whether the runner was torn down.
func (r *Runner) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Done is closed once the timer goroutine has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }
