package quiz

// Status of a session. Completed is terminal.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Unanswered marks the absence of a selection.
const Unanswered = -1

// Question is one multiple-choice item. Correct indexes into Options.
type Question struct {
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Options []string `json:"options" yaml:"options"`
	Correct int      `json:"correct" yaml:"correct"`
}

// Definition is the quiz handed to the engine. Sessions read it, never write it.
type Definition struct {
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// AnswerRecord is appended when the user advances past a question.
type AnswerRecord struct {
	QuestionIndex int  `json:"question_index"`
	Selected      int  `json:"selected"`
	Correct       bool `json:"correct"`
}

// View is a read-only snapshot of a session for rendering.
type View struct {
	Title            string   `json:"title"`
	QuestionIndex    int      `json:"question_index"`
	TotalQuestions   int      `json:"total_questions"`
	Prompt           string   `json:"prompt,omitempty"`
	Options          []string `json:"options,omitempty"`
	Selected         int      `json:"selected"`
	Score            int      `json:"score"`
	RemainingSeconds int      `json:"remaining_seconds"`
	Clock            string   `json:"clock"`
	Progress         float64  `json:"progress"`
	Status           Status   `json:"status"`
}
