package quiz

import "fmt"

// Session is the state of one attempt. It is not safe for concurrent use;
// callers serialize access.
type Session struct {
	def       Definition
	index     int
	selected  int
	score     int
	remaining int
	records   []AnswerRecord
	status    Status
	timedOut  bool
}

// SelectOption records the choice for the current question, replacing any earlier one.
func (s *Session) SelectOption(option int) error {
	if s.status == StatusCompleted {
		return ErrSessionAlreadyCompleted
	}
	q := s.def.Questions[s.index]
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidOption, option, len(q.Options))
	}
	s.selected = option
	return nil
}

// Advance grades the current selection and moves on. Advancing past the
// last question completes the session.
func (s *Session) Advance() error {
	if s.status == StatusCompleted {
		return ErrSessionAlreadyCompleted
	}
	if s.selected == Unanswered {
		return ErrNoSelection
	}

	q := s.def.Questions[s.index]
	correct := s.selected == q.Correct
	s.records = append(s.records, AnswerRecord{
		QuestionIndex: s.index,
		Selected:      s.selected,
		Correct:       correct,
	})
	if correct {
		s.score++
	}

	if s.index == len(s.def.Questions)-1 {
		s.status = StatusCompleted
		return nil
	}
	s.index++
	s.selected = Unanswered
	return nil
}

// Tick consumes one second of the budget. When the budget runs out the
// session completes and the current question is left unrecorded.
func (s *Session) Tick() error {
	if s.status == StatusCompleted {
		return ErrSessionAlreadyCompleted
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.status = StatusCompleted
		s.timedOut = true
	}
	return nil
}

// Completed reports whether the session reached its terminal state.
func (s *Session) Completed() bool { return s.status == StatusCompleted }

// TimedOut reports whether the budget ran out before the last question was answered.
func (s *Session) TimedOut() bool { return s.timedOut }

func (s *Session) Status() Status         { return s.status }
func (s *Session) Score() int             { return s.score }
func (s *Session) Remaining() int         { return s.remaining }
func (s *Session) QuestionIndex() int     { return s.index }
func (s *Session) Selected() int          { return s.selected }
func (s *Session) Definition() Definition { return s.def }

// Records returns a copy of the answer log.
func (s *Session) Records() []AnswerRecord {
	out := make([]AnswerRecord, len(s.records))
	copy(out, s.records)
	return out
}

// View snapshots the session for rendering. Once completed the question
// fields are left empty.
func (s *Session) View() View {
	total := len(s.def.Questions)
	v := View{
		Title:            s.def.Title,
		QuestionIndex:    s.index,
		TotalQuestions:   total,
		Selected:         s.selected,
		Score:            s.score,
		RemainingSeconds: s.remaining,
		Clock:            FormatClock(s.remaining),
		Progress:         float64(s.index) / float64(total) * 100,
		Status:           s.status,
	}
	if s.status == StatusInProgress {
		q := s.def.Questions[s.index]
		v.Prompt = q.Prompt
		v.Options = append([]string(nil), q.Options...)
	}
	return v
}
