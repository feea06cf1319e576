package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{15, 20, 75},
		{2, 3, 67},
		{1, 3, 33},
		{1, 8, 13},
		{0, 5, 0},
		{5, 5, 100},
		{0, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Percentage(tc.score, tc.total), "%d/%d", tc.score, tc.total)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "20:00", FormatClock(1200))
	assert.Equal(t, "0:09", FormatClock(9))
	assert.Equal(t, "1:05", FormatClock(65))
	assert.Equal(t, "0:00", FormatClock(-3))
}

func TestReportPairsRecordsWithQuestions(t *testing.T) {
	s := startSession(t, threeQuestionQuiz())
	answer(t, s, 2)
	answer(t, s, 1)
	answer(t, s, 1)

	report, err := s.Report()
	require.NoError(t, err)
	require.Len(t, report.Reviews, 3)

	wrong := report.Reviews[1]
	assert.Equal(t, "q1", wrong.Question.Prompt)
	assert.False(t, wrong.Correct)
	assert.Equal(t, "b", wrong.YourAnswer())
	assert.Equal(t, "a", wrong.CorrectAnswer())
	assert.Equal(t, "Sample", report.Title)
}

func TestViewTracksProgress(t *testing.T) {
	s := startSession(t, threeQuestionQuiz())
	require.NoError(t, s.SelectOption(1))

	v := s.View()
	assert.Equal(t, "q0", v.Prompt)
	assert.Equal(t, []string{"a", "b", "c"}, v.Options)
	assert.Equal(t, 1, v.Selected)
	assert.Equal(t, "20:00", v.Clock)
	assert.Equal(t, float64(0), v.Progress)

	require.NoError(t, s.Advance())
	assert.InDelta(t, 33.33, s.View().Progress, 0.01)

	answer(t, s, 0)
	answer(t, s, 1)
	done := s.View()
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Empty(t, done.Prompt)
}
