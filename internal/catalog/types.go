package catalog

import (
	"context"
	"errors"

	"github.com/gokatarajesh/smartquiz/internal/quiz"
)

var ErrQuizNotFound = errors.New("quiz not found")

// Summary is what the dashboard shows for a practice quiz.
type Summary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Difficulty    string `json:"difficulty"`
	Category      string `json:"category"`
	QuestionCount int    `json:"question_count"`
}

// Quiz is a catalog entry with its playable definition.
type Quiz struct {
	Summary
	Definition quiz.Definition `json:"definition"`
}

// Loader fetches quizzes from a backing store.
type Loader interface {
	ListQuizzes(ctx context.Context) ([]Summary, error)
	LoadQuiz(ctx context.Context, id string) (Quiz, error)
}

func newQuiz(id, title, difficulty, category string, questions []quiz.Question) Quiz {
	return Quiz{
		Summary: Summary{
			ID:            id,
			Title:         title,
			Difficulty:    difficulty,
			Category:      category,
			QuestionCount: len(questions),
		},
		Definition: quiz.Definition{Title: title, Questions: questions},
	}
}
