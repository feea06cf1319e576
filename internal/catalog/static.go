package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gokatarajesh/smartquiz/internal/quiz"
)

//go:embed practice.yaml
var practiceYAML []byte

type yamlCatalog struct {
	Quizzes []struct {
		ID         string          `yaml:"id"`
		Title      string          `yaml:"title"`
		Difficulty string          `yaml:"difficulty"`
		Category   string          `yaml:"category"`
		Questions  []quiz.Question `yaml:"questions"`
	} `yaml:"quizzes"`
}

// ParseYAML decodes and validates a catalog document.
func ParseYAML(data []byte) ([]Quiz, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Quizzes))
	quizzes := make([]Quiz, 0, len(doc.Quizzes))
	for _, q := range doc.Quizzes {
		if q.ID == "" {
			return nil, fmt.Errorf("catalog quiz %q: missing id", q.Title)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("catalog quiz %q: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}

		entry := newQuiz(q.ID, q.Title, q.Difficulty, q.Category, q.Questions)
		if err := entry.Definition.Validate(); err != nil {
			return nil, fmt.Errorf("catalog quiz %q: %w", q.ID, err)
		}
		quizzes = append(quizzes, entry)
	}
	return quizzes, nil
}

// PracticeQuizzes returns the built-in practice catalog.
func PracticeQuizzes() ([]Quiz, error) {
	return ParseYAML(practiceYAML)
}

// StaticLoader serves a fixed, ordered set of quizzes.
type StaticLoader struct {
	order   []string
	quizzes map[string]Quiz
}

func NewStaticLoader(quizzes []Quiz) *StaticLoader {
	l := &StaticLoader{
		order:   make([]string, 0, len(quizzes)),
		quizzes: make(map[string]Quiz, len(quizzes)),
	}
	for _, q := range quizzes {
		if _, ok := l.quizzes[q.ID]; !ok {
			l.order = append(l.order, q.ID)
		}
		l.quizzes[q.ID] = q
	}
	return l
}

func (l *StaticLoader) ListQuizzes(_ context.Context) ([]Summary, error) {
	out := make([]Summary, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.quizzes[id].Summary)
	}
	return out, nil
}

func (l *StaticLoader) LoadQuiz(_ context.Context, id string) (Quiz, error) {
	if q, ok := l.quizzes[id]; ok {
		return q, nil
	}
	return Quiz{}, ErrQuizNotFound
}
