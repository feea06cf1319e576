package quiz

import (
	"fmt"
	"math"
)

// Review pairs an answer record with the question it answers.
type Review struct {
	AnswerRecord
	Question Question `json:"question"`
}

// YourAnswer returns the text of the selected option.
func (r Review) YourAnswer() string {
	if r.Selected < 0 || r.Selected >= len(r.Question.Options) {
		return ""
	}
	return r.Question.Options[r.Selected]
}

// CorrectAnswer returns the text of the correct option.
func (r Review) CorrectAnswer() string {
	return r.Question.Options[r.Question.Correct]
}

// Report summarizes a completed session.
type Report struct {
	Title          string   `json:"title"`
	TotalQuestions int      `json:"total_questions"`
	Score          int      `json:"score"`
	Percentage     int      `json:"percentage"`
	TimedOut       bool     `json:"timed_out"`
	Reviews        []Review `json:"reviews"`
}

// Report builds the review summary. Only valid once the session is completed.
func (s *Session) Report() (Report, error) {
	if s.status != StatusCompleted {
		return Report{}, ErrSessionInProgress
	}
	reviews := make([]Review, 0, len(s.records))
	for _, rec := range s.records {
		reviews = append(reviews, Review{
			AnswerRecord: rec,
			Question:     s.def.Questions[rec.QuestionIndex],
		})
	}
	total := len(s.def.Questions)
	return Report{
		Title:          s.def.Title,
		TotalQuestions: total,
		Score:          s.score,
		Percentage:     Percentage(s.score, total),
		TimedOut:       s.timedOut,
		Reviews:        reviews,
	}, nil
}

// Percentage rounds score/total to the nearest whole percent.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
