package attempt

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/smartquiz/internal/quiz"
)

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

type tickerSource struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (s *tickerSource) New(time.Duration) Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newManualTicker()
	s.tickers = append(s.tickers, t)
	return t
}

func (s *tickerSource) at(i int) *manualTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickers[i]
}

type recorder struct {
	ticks    chan quiz.View
	finished chan quiz.Report
	mu       sync.Mutex
	returns  int
}

func newRecorder() *recorder {
	return &recorder{ticks: make(chan quiz.View, 16), finished: make(chan quiz.Report, 1)}
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnTick:     func(v quiz.View) { r.ticks <- v },
		OnFinished: func(rep quiz.Report) { r.finished <- rep },
		OnReturn: func() {
			r.mu.Lock()
			r.returns++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) returnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.returns
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
	}
	var zero T
	return zero
}

func sampleDefinition() quiz.Definition {
	return quiz.Definition{
		Title: "Sample",
		Questions: []quiz.Question{
			{Prompt: "q0", Options: []string{"a", "b", "c"}, Correct: 2},
			{Prompt: "q1", Options: []string{"a", "b", "c"}, Correct: 0},
		},
	}
}

func newTestManager(t *testing.T, budget time.Duration) (*Manager, *tickerSource, *Metrics) {
	t.Helper()
	src := &tickerSource{}
	metrics := NewMetrics(prometheus.NewRegistry())
	m := NewManager(
		quiz.NewEngine(quiz.Config{Duration: budget}),
		ManagerOptions{TickInterval: time.Second, NewTicker: src.New},
		metrics,
		zerolog.Nop(),
	)
	return m, src, metrics
}

func TestRunnerTimeoutCompletesAndStopsTimer(t *testing.T) {
	m, src, metrics := newTestManager(t, 3*time.Second)
	rec := newRecorder()

	r, err := m.Start(uuid.New(), "sample", sampleDefinition(), rec.hooks())
	require.NoError(t, err)
	tk := src.at(0)

	_, err = r.SelectOption(1)
	require.NoError(t, err)

	for want := 2; want >= 0; want-- {
		tk.ch <- time.Now()
		v := waitFor(t, rec.ticks)
		assert.Equal(t, want, v.RemainingSeconds)
	}

	report := waitFor(t, rec.finished)
	assert.True(t, report.TimedOut)
	assert.Empty(t, report.Reviews)
	assert.Equal(t, 0, report.Percentage)

	waitFor(t, (<-chan struct{})(tk.stopped))
	waitFor(t, r.Done())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Finished.WithLabelValues("sample", OutcomeTimedOut)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.Active))
}

func TestRunnerAdvanceToCompletionCancelsTimer(t *testing.T) {
	m, src, metrics := newTestManager(t, time.Minute)
	rec := newRecorder()

	r, err := m.Start(uuid.New(), "sample", sampleDefinition(), rec.hooks())
	require.NoError(t, err)

	for _, choice := range []int{2, 1} {
		_, err := r.SelectOption(choice)
		require.NoError(t, err)
		_, err = r.Advance()
		require.NoError(t, err)
	}

	report := waitFor(t, rec.finished)
	assert.Equal(t, 1, report.Score)
	assert.Equal(t, 50, report.Percentage)
	assert.False(t, report.TimedOut)

	waitFor(t, r.Done())
	waitFor(t, (<-chan struct{})(src.at(0).stopped))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Finished.WithLabelValues("sample", OutcomeCompleted)))
}

func TestRunnerCloseStopsTicks(t *testing.T) {
	m, src, metrics := newTestManager(t, time.Minute)
	rec := newRecorder()

	r, err := m.Start(uuid.New(), "sample", sampleDefinition(), rec.hooks())
	require.NoError(t, err)
	tk := src.at(0)

	tk.ch <- time.Now()
	waitFor(t, rec.ticks)

	r.Close()
	waitFor(t, r.Done())

	select {
	case tk.ch <- time.Now():
		t.Fatal("tick delivered after close")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, 59, r.View().RemainingSeconds)
	assert.Len(t, rec.ticks, 0)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Finished.WithLabelValues("sample", OutcomeAbandoned)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.Active))

	r.Close()
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Finished.WithLabelValues("sample", OutcomeAbandoned)))
}

func TestRunnerRejectsOperationsAfterClose(t *testing.T) {
	m, _, _ := newTestManager(t, time.Minute)

	r, err := m.Start(uuid.New(), "sample", sampleDefinition(), Hooks{})
	require.NoError(t, err)
	r.Close()

	_, err = r.SelectOption(0)
	assert.ErrorIs(t, err, ErrAttemptClosed)
	_, err = r.Advance()
	assert.ErrorIs(t, err, ErrAttemptClosed)
	assert.ErrorIs(t, r.Return(), ErrAttemptClosed)
}

func TestRunnerSurfacesEngineErrors(t *testing.T) {
	m, _, _ := newTestManager(t, time.Minute)

	r, err := m.Start(uuid.New(), "sample", sampleDefinition(), Hooks{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Advance()
	assert.ErrorIs(t, err, quiz.ErrNoSelection)

	_, err = r.SelectOption(3)
	assert.ErrorIs(t, err, quiz.ErrInvalidOption)
}

func TestRunnerReturnFiresCompletionOnce(t *testing.T) {
	m, _, _ := newTestManager(t, time.Minute)
	rec := newRecorder()

	r, err := m.Start(uuid.New(), "sample", sampleDefinition(), rec.hooks())
	require.NoError(t, err)

	assert.ErrorIs(t, r.Return(), quiz.ErrSessionInProgress)
	assert.Equal(t, 0, rec.returnCount())

	for _, choice := range []int{2, 0} {
		_, err := r.SelectOption(choice)
		require.NoError(t, err)
		_, err = r.Advance()
		require.NoError(t, err)
	}
	waitFor(t, rec.finished)

	require.NoError(t, r.Return())
	assert.ErrorIs(t, r.Return(), ErrAttemptClosed)
	assert.Equal(t, 1, rec.returnCount())
	assert.True(t, r.Closed())
}
