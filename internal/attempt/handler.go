package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/auth"
	"github.com/gokatarajesh/smartquiz/internal/catalog"
	"github.com/gokatarajesh/smartquiz/internal/quiz"
	"github.com/gokatarajesh/smartquiz/internal/server"
	httperrors "github.com/gokatarajesh/smartquiz/pkg/http/errors"
	ws "github.com/gokatarajesh/smartquiz/pkg/http/ws"
)

// QuizSource loads quizzes by id.
type QuizSource interface {
	Get(ctx context.Context, id string) (catalog.Quiz, error)
}

// Handler manages WebSocket connections and routes attempt messages.
type Handler struct {
	attempts *Manager
	quizzes  QuizSource
	hub      *ws.Hub
	auth     auth.TokenValidator
	logger   zerolog.Logger
}

// NewHandler creates the live quiz WebSocket handler.
func NewHandler(attempts *Manager, quizzes QuizSource, hub *ws.Hub, validator auth.TokenValidator, logger zerolog.Logger) *Handler {
	return &Handler{
		attempts: attempts,
		quizzes:  quizzes,
		hub:      hub,
		auth:     validator,
		logger:   logger.With().Str("component", "attempt_ws").Logger(),
	}
}

// HandleWebSocket authenticates the ?token= query and upgrades the connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.auth.ValidateToken(r.Context(), token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	userID := claims.UserID
	logger := h.logger.With().Str("user_id", userID.String()).Logger()
	wsConn := ws.NewConnection(conn, logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	ctx := context.WithoutCancel(r.Context())
	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(ctx, userID, msg)
	})

	if h.hub.UnregisterConnection(userID, wsConn) && h.attempts.Abandon(userID) {
		logger.Info().Msg("attempt abandoned on disconnect")
	}
}

func (h *Handler) handleMessage(ctx context.Context, userID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartQuiz:
		return h.handleStartQuiz(ctx, userID, msg.Payload)
	case ws.TypeSelectOption:
		return h.handleSelectOption(userID, msg.Payload)
	case ws.TypeNextQuestion:
		return h.handleNextQuestion(userID)
	case ws.TypeAbandonQuiz:
		return h.handleAbandon(userID)
	case ws.TypeReturnToDashboard:
		return h.handleReturn(userID)
	case ws.TypePing:
		return h.send(userID, ws.TypePong, nil)
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleStartQuiz(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.StartQuizPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.QuizID == "" {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid start_quiz payload")
	}

	q, err := h.quizzes.Get(ctx, req.QuizID)
	if err != nil {
		if errors.Is(err, catalog.ErrQuizNotFound) {
			return h.sendError(userID, httperrors.ErrCodeQuizNotFound, "Quiz not found")
		}
		h.logger.Error().Err(err).Str("quiz_id", req.QuizID).Msg("load quiz failed")
		return h.sendError(userID, httperrors.ErrCodeCatalogFetchFail, "Failed to load quiz")
	}

	out := &outbox{h: h, userID: userID}
	r, err := h.attempts.Start(userID, q.ID, q.Definition, out.hooks())
	if err != nil {
		return h.sendAttemptError(userID, err)
	}
	out.bind(r.ID)

	view := r.View()
	started := ws.QuizStartedPayload{
		AttemptID:        r.ID.String(),
		QuizID:           q.ID,
		Title:            view.Title,
		TotalQuestions:   view.TotalQuestions,
		DurationSeconds:  int(h.attempts.Duration().Seconds()),
		RemainingSeconds: view.RemainingSeconds,
	}
	if err := h.send(userID, ws.TypeQuizStarted, started); err != nil {
		return err
	}
	return h.send(userID, ws.TypeQuestionState, questionState(r.ID, view))
}

func (h *Handler) handleSelectOption(userID uuid.UUID, payload json.RawMessage) error {
	var req ws.SelectOptionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid select_option payload")
	}

	r, err := h.attempts.Get(userID)
	if err != nil {
		return h.sendAttemptError(userID, err)
	}
	view, err := r.SelectOption(req.Option)
	if err != nil {
		return h.sendAttemptError(userID, err)
	}
	return h.send(userID, ws.TypeQuestionState, questionState(r.ID, view))
}

func (h *Handler) handleNextQuestion(userID uuid.UUID) error {
	r, err := h.attempts.Get(userID)
	if err != nil {
		return h.sendAttemptError(userID, err)
	}
	view, err := r.Advance()
	if err != nil {
		return h.sendAttemptError(userID, err)
	}
	// The last answer is followed by quiz_complete from the finish hook.
	if view.Status == quiz.StatusCompleted {
		return nil
	}
	return h.send(userID, ws.TypeQuestionState, questionState(r.ID, view))
}

func (h *Handler) handleAbandon(userID uuid.UUID) error {
	r, err := h.attempts.Get(userID)
	if err != nil {
		return h.sendAttemptError(userID, err)
	}
	h.attempts.Abandon(userID)
	return h.send(userID, ws.TypeAbandoned, ws.ReturnedPayload{AttemptID: r.ID.String()})
}

func (h *Handler) handleReturn(userID uuid.UUID) error {
	r, err := h.attempts.Get(userID)
	if err != nil {
		return h.sendAttemptError(userID, err)
	}
	if err := h.attempts.Return(userID); err != nil {
		return h.sendAttemptError(userID, err)
	}
	return h.send(userID, ws.TypeReturned, ws.ReturnedPayload{AttemptID: r.ID.String()})
}

func (h *Handler) send(userID uuid.UUID, msgType string, payload any) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return h.hub.SendToUser(userID, msg)
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	return h.send(userID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}

func (h *Handler) sendAttemptError(userID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, quiz.ErrInvalidQuizDefinition):
		return h.sendError(userID, httperrors.ErrCodeInvalidQuiz, err.Error())
	case errors.Is(err, quiz.ErrInvalidOption):
		return h.sendError(userID, httperrors.ErrCodeInvalidOption, "Option is out of range")
	case errors.Is(err, quiz.ErrNoSelection):
		return h.sendError(userID, httperrors.ErrCodeNoSelection, "Select an option first")
	case errors.Is(err, quiz.ErrSessionAlreadyCompleted), errors.Is(err, ErrAttemptClosed):
		return h.sendError(userID, httperrors.ErrCodeQuizCompleted, "Quiz is already completed")
	case errors.Is(err, quiz.ErrSessionInProgress):
		return h.sendError(userID, httperrors.ErrCodeQuizInProgress, "Quiz is still in progress")
	case errors.Is(err, ErrNoActiveAttempt):
		return h.sendError(userID, httperrors.ErrCodeNoActiveAttempt, "No quiz in progress")
	default:
		h.logger.Error().Err(err).Str("user_id", userID.String()).Msg("attempt operation failed")
		return h.sendError(userID, httperrors.ErrCodeAttemptFailed, "Attempt failed")
	}
}

// outbox turns runner hooks into messages for one user.
type outbox struct {
	h      *Handler
	userID uuid.UUID

	mu        sync.Mutex
	attemptID uuid.UUID
}

func (o *outbox) bind(id uuid.UUID) {
	o.mu.Lock()
	o.attemptID = id
	o.mu.Unlock()
}

func (o *outbox) id() uuid.UUID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attemptID
}

func (o *outbox) hooks() Hooks {
	return Hooks{
		OnTick: func(v quiz.View) {
			o.deliver(ws.TypeTimerTick, ws.TimerTickPayload{
				AttemptID:        o.id().String(),
				RemainingSeconds: v.RemainingSeconds,
				Clock:            v.Clock,
			})
		},
		OnFinished: func(rep quiz.Report) {
			o.deliver(ws.TypeQuizComplete, completePayload(o.id(), rep))
		},
		OnReturn: func() {
			o.h.logger.Debug().Str("user_id", o.userID.String()).Str("attempt_id", o.id().String()).Msg("returned to dashboard")
		},
	}
}

func (o *outbox) deliver(msgType string, payload any) {
	if err := o.h.send(o.userID, msgType, payload); err != nil {
		o.h.logger.Debug().Err(err).Str("type", msgType).Str("user_id", o.userID.String()).Msg("drop attempt event")
	}
}

func questionState(attemptID uuid.UUID, v quiz.View) ws.QuestionStatePayload {
	return ws.QuestionStatePayload{
		AttemptID:        attemptID.String(),
		Title:            v.Title,
		QuestionIndex:    v.QuestionIndex,
		TotalQuestions:   v.TotalQuestions,
		Prompt:           v.Prompt,
		Options:          v.Options,
		Selected:         v.Selected,
		Score:            v.Score,
		RemainingSeconds: v.RemainingSeconds,
		Clock:            v.Clock,
		Progress:         v.Progress,
		Status:           string(v.Status),
	}
}

func completePayload(attemptID uuid.UUID, rep quiz.Report) ws.QuizCompletePayload {
	reviews := make([]ws.ReviewPayload, 0, len(rep.Reviews))
	for _, rv := range rep.Reviews {
		reviews = append(reviews, ws.ReviewPayload{
			QuestionIndex: rv.QuestionIndex,
			Prompt:        rv.Question.Prompt,
			YourAnswer:    rv.YourAnswer(),
			CorrectAnswer: rv.CorrectAnswer(),
			Correct:       rv.Correct,
		})
	}
	return ws.QuizCompletePayload{
		AttemptID:      attemptID.String(),
		Title:          rep.Title,
		TotalQuestions: rep.TotalQuestions,
		Score:          rep.Score,
		Percentage:     rep.Percentage,
		TimedOut:       rep.TimedOut,
		Reviews:        reviews,
	}
}
