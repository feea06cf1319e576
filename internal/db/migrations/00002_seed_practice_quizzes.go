package migrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/gokatarajesh/smartquiz/internal/catalog"
)

func init() {
	goose.AddMigrationContext(upSeedPracticeQuizzes, downSeedPracticeQuizzes)
}

const upsertPracticeQuizSQL = `
INSERT INTO practice_quizzes (id, title, difficulty, category, questions, position)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    difficulty = EXCLUDED.difficulty,
    category = EXCLUDED.category,
    questions = EXCLUDED.questions,
    position = EXCLUDED.position,
    updated_at = NOW()`

func upSeedPracticeQuizzes(ctx context.Context, tx *sql.Tx) error {
	quizzes, err := catalog.PracticeQuizzes()
	if err != nil {
		return fmt.Errorf("load practice catalog: %w", err)
	}
	for i, q := range quizzes {
		questions, err := json.Marshal(q.Definition.Questions)
		if err != nil {
			return fmt.Errorf("encode %s questions: %w", q.ID, err)
		}
		if _, err := tx.ExecContext(ctx, upsertPracticeQuizSQL, q.ID, q.Title, q.Difficulty, q.Category, string(questions), i); err != nil {
			return fmt.Errorf("seed %s: %w", q.ID, err)
		}
	}
	return nil
}

func downSeedPracticeQuizzes(ctx context.Context, tx *sql.Tx) error {
	quizzes, err := catalog.PracticeQuizzes()
	if err != nil {
		return fmt.Errorf("load practice catalog: %w", err)
	}
	for _, q := range quizzes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM practice_quizzes WHERE id = $1`, q.ID); err != nil {
			return fmt.Errorf("unseed %s: %w", q.ID, err)
		}
	}
	return nil
}
