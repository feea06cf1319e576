package attempt

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for finished attempts.
const (
	OutcomeCompleted = "completed"
	OutcomeTimedOut  = "timed_out"
	OutcomeAbandoned = "abandoned"
)

// Metrics tracks attempt lifecycle counters.
type Metrics struct {
	Started  *prometheus.CounterVec
	Finished *prometheus.CounterVec
	Active   prometheus.Gauge
	Score    prometheus.Histogram
}

// NewMetrics registers attempt metrics on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Quiz attempts started.",
		}, []string{"quiz"}),
		Finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_attempts_finished_total",
			Help: "Quiz attempts that ended, by outcome.",
		}, []string{"quiz", "outcome"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_active_attempts",
			Help: "Attempts currently holding a timer.",
		}),
		Score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_attempt_score_percent",
			Help:    "Final percentage of finished attempts.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Started, m.Finished, m.Active, m.Score)
	}
	return m
}
