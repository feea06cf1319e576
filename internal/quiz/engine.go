package quiz

import (
	"fmt"
	"time"
)

// DefaultDuration is the time budget of every attempt.
const DefaultDuration = 20 * time.Minute

// Config holds engine settings.
type Config struct {
	Duration time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{Duration: DefaultDuration}
}

// Engine starts sessions with a fixed time budget.
type Engine struct {
	config Config
}

// NewEngine creates an engine. Non-positive or sub-second durations fall back to DefaultDuration.
func NewEngine(config Config) *Engine {
	if config.Duration < time.Second {
		config.Duration = DefaultDuration
	}
	return &Engine{config: config}
}

// Duration returns the per-attempt budget.
func (e *Engine) Duration() time.Duration {
	return e.config.Duration
}

// Start begins a new attempt at def.
func (e *Engine) Start(def Definition) (*Session, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		def:       def,
		selected:  Unanswered,
		remaining: int(e.config.Duration / time.Second),
		records:   make([]AnswerRecord, 0, len(def.Questions)),
		status:    StatusInProgress,
	}, nil
}

// Validate reports whether def can be played.
func (def Definition) Validate() error {
	if len(def.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuizDefinition)
	}
	for i, q := range def.Questions {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrInvalidQuizDefinition, i)
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct index %d out of range", ErrInvalidQuizDefinition, i, q.Correct)
		}
	}
	return nil
}
