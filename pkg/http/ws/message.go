package ws

import (
	"encoding/json"
	"fmt"
)

// MessageType constants for the live quiz protocol.
const (
	// Client -> Server
	TypeStartQuiz         = "start_quiz"
	TypeSelectOption      = "select_option"
	TypeNextQuestion      = "next_question"
	TypeAbandonQuiz       = "abandon_quiz"
	TypeReturnToDashboard = "return_to_dashboard"
	TypePing              = "ping"

	// Server -> Client
	TypeQuizStarted   = "quiz_started"
	TypeQuestionState = "question_state"
	TypeTimerTick     = "timer_tick"
	TypeQuizComplete  = "quiz_complete"
	TypeReturned      = "returned"
	TypeAbandoned     = "abandoned"
	TypeError         = "error"
	TypePong          = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload any) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	msg.Payload = data
	return msg, nil
}

// Client Messages (incoming)

type StartQuizPayload struct {
	QuizID string `json:"quiz_id"`
}

type SelectOptionPayload struct {
	Option int `json:"option"`
}

// Server Messages (outgoing)

type QuizStartedPayload struct {
	AttemptID        string `json:"attempt_id"`
	QuizID           string `json:"quiz_id"`
	Title            string `json:"title"`
	TotalQuestions   int    `json:"total_questions"`
	DurationSeconds  int    `json:"duration_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type TimerTickPayload struct {
	AttemptID        string `json:"attempt_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Clock            string `json:"clock"`
}

type ReturnedPayload struct {
	AttemptID string `json:"attempt_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type QuestionStatePayload struct {
	AttemptID        string   `json:"attempt_id"`
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
	Status           string   `json:"status"`
}

type ReviewPayload struct {
	QuestionIndex int    `json:"question_index"`
	Prompt        string `json:"prompt"`
	YourAnswer    string `json:"your_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"correct"`
}

type QuizCompletePayload struct {
	AttemptID      string          `json:"attempt_id"`
	Title          string          `json:"title"`
	TotalQuestions int             `json:"total_questions"`
	Score          int             `json:"score"`
	Percentage     int             `json:"percentage"`
	TimedOut       bool            `json:"timed_out"`
	Reviews        []ReviewPayload `json:"reviews"`
}
