package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/smartquiz/internal/quiz"
)

// Querier is the subset of pgxpool.Pool the loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLoader reads the practice_quizzes table.
type PostgresLoader struct {
	db Querier
}

func NewPostgresLoader(db Querier) *PostgresLoader {
	return &PostgresLoader{db: db}
}

const listQuizzesSQL = `
SELECT id, title, difficulty, category, jsonb_array_length(questions)
FROM practice_quizzes
ORDER BY position, id`

const loadQuizSQL = `
SELECT id, title, difficulty, category, questions
FROM practice_quizzes
WHERE id = $1`

func (l *PostgresLoader) ListQuizzes(ctx context.Context) ([]Summary, error) {
	rows, err := l.db.Query(ctx, listQuizzesSQL)
	if err != nil {
		return nil, fmt.Errorf("query practice quizzes: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.Difficulty, &s.Category, &s.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan practice quiz: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate practice quizzes: %w", err)
	}
	return out, nil
}

func (l *PostgresLoader) LoadQuiz(ctx context.Context, id string) (Quiz, error) {
	var (
		title, difficulty, category string
		raw                         []byte
	)
	err := l.db.QueryRow(ctx, loadQuizSQL, id).Scan(&id, &title, &difficulty, &category, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	var questions []quiz.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	q := newQuiz(id, title, difficulty, category, questions)
	if err := q.Definition.Validate(); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s: %w", id, err)
	}
	return q, nil
}
