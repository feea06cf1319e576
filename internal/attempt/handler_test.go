package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/smartquiz/internal/auth/jwt"
	"github.com/gokatarajesh/smartquiz/internal/catalog"
	httperrors "github.com/gokatarajesh/smartquiz/pkg/http/errors"
	ws "github.com/gokatarajesh/smartquiz/pkg/http/ws"
)

const testCatalog = `
quizzes:
  - id: sample
    title: Sample
    difficulty: Beginner
    category: Testing
    questions:
      - prompt: q0
        options: [a, b, c]
        correct: 2
      - prompt: q1
        options: [a, b, c]
        correct: 0
`

type loaderSource struct {
	loader catalog.Loader
}

func (s loaderSource) Get(ctx context.Context, id string) (catalog.Quiz, error) {
	return s.loader.LoadQuiz(ctx, id)
}

type staticValidator map[string]uuid.UUID

func (v staticValidator) ValidateToken(_ context.Context, token string) (*jwt.Claims, error) {
	id, ok := v[token]
	if !ok {
		return nil, jwt.ErrInvalidToken
	}
	return &jwt.Claims{UserID: id, Username: "tester"}, nil
}

type wsFixture struct {
	server  *httptest.Server
	manager *Manager
	tickers *tickerSource
	userID  uuid.UUID
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	quizzes, err := catalog.ParseYAML([]byte(testCatalog))
	require.NoError(t, err)

	m, src, _ := newTestManager(t, time.Minute)
	t.Cleanup(m.Shutdown)
	userID := uuid.New()
	h := NewHandler(m, loaderSource{catalog.NewStaticLoader(quizzes)}, ws.NewHub(zerolog.Nop()),
		staticValidator{"good": userID}, zerolog.Nop())

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)
	return &wsFixture{server: srv, manager: m, tickers: src, userID: userID}
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg, err := ws.NewMessage(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

func expect[T any](t *testing.T, conn *websocket.Conn, msgType string) T {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, msgType, msg.Type, "payload: %s", msg.Payload)

	var payload T
	if len(msg.Payload) > 0 {
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	}
	return payload
}

func TestHandleWebSocketRejectsMissingOrBadToken(t *testing.T) {
	f := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")

	for _, query := range []string{"", "?token=bogus"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+query, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestWebSocketQuizFlow(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "good")

	send(t, conn, ws.TypeStartQuiz, ws.StartQuizPayload{QuizID: "sample"})
	started := expect[ws.QuizStartedPayload](t, conn, ws.TypeQuizStarted)
	assert.Equal(t, "sample", started.QuizID)
	assert.Equal(t, 2, started.TotalQuestions)
	assert.Equal(t, 60, started.DurationSeconds)

	state := expect[ws.QuestionStatePayload](t, conn, ws.TypeQuestionState)
	assert.Equal(t, started.AttemptID, state.AttemptID)
	assert.Equal(t, "q0", state.Prompt)
	assert.Equal(t, -1, state.Selected)

	f.tickers.at(0).ch <- time.Now()
	tick := expect[ws.TimerTickPayload](t, conn, ws.TypeTimerTick)
	assert.Equal(t, 59, tick.RemainingSeconds)
	assert.Equal(t, "0:59", tick.Clock)
	assert.Equal(t, started.AttemptID, tick.AttemptID)

	send(t, conn, ws.TypeNextQuestion, nil)
	errPayload := expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeNoSelection, errPayload.Code)

	send(t, conn, ws.TypeSelectOption, ws.SelectOptionPayload{Option: 7})
	errPayload = expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeInvalidOption, errPayload.Code)

	send(t, conn, ws.TypeSelectOption, ws.SelectOptionPayload{Option: 2})
	state = expect[ws.QuestionStatePayload](t, conn, ws.TypeQuestionState)
	assert.Equal(t, 2, state.Selected)

	send(t, conn, ws.TypeReturnToDashboard, nil)
	errPayload = expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeQuizInProgress, errPayload.Code)

	send(t, conn, ws.TypeNextQuestion, nil)
	state = expect[ws.QuestionStatePayload](t, conn, ws.TypeQuestionState)
	assert.Equal(t, 1, state.QuestionIndex)
	assert.Equal(t, 1, state.Score)

	send(t, conn, ws.TypeSelectOption, ws.SelectOptionPayload{Option: 1})
	expect[ws.QuestionStatePayload](t, conn, ws.TypeQuestionState)
	send(t, conn, ws.TypeNextQuestion, nil)

	done := expect[ws.QuizCompletePayload](t, conn, ws.TypeQuizComplete)
	assert.Equal(t, 1, done.Score)
	assert.Equal(t, 50, done.Percentage)
	assert.False(t, done.TimedOut)
	require.Len(t, done.Reviews, 2)
	assert.Equal(t, "c", done.Reviews[0].YourAnswer)
	assert.Equal(t, "b", done.Reviews[1].YourAnswer)
	assert.Equal(t, "a", done.Reviews[1].CorrectAnswer)

	send(t, conn, ws.TypeSelectOption, ws.SelectOptionPayload{Option: 0})
	errPayload = expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeQuizCompleted, errPayload.Code)

	send(t, conn, ws.TypeReturnToDashboard, nil)
	returned := expect[ws.ReturnedPayload](t, conn, ws.TypeReturned)
	assert.Equal(t, started.AttemptID, returned.AttemptID)
	assert.Equal(t, 0, f.manager.Active())

	send(t, conn, ws.TypeNextQuestion, nil)
	errPayload = expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeNoActiveAttempt, errPayload.Code)
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "good")

	send(t, conn, "dance", nil)
	errPayload := expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeUnknownMessageType, errPayload.Code)

	send(t, conn, ws.TypeStartQuiz, nil)
	errPayload = expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeInvalidPayload, errPayload.Code)

	send(t, conn, ws.TypeStartQuiz, ws.StartQuizPayload{QuizID: "missing"})
	errPayload = expect[ws.ErrorPayload](t, conn, ws.TypeError)
	assert.Equal(t, httperrors.ErrCodeQuizNotFound, errPayload.Code)

	send(t, conn, ws.TypePing, nil)
	expect[struct{}](t, conn, ws.TypePong)
}

func TestWebSocketAbandon(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "good")

	send(t, conn, ws.TypeStartQuiz, ws.StartQuizPayload{QuizID: "sample"})
	started := expect[ws.QuizStartedPayload](t, conn, ws.TypeQuizStarted)
	expect[ws.QuestionStatePayload](t, conn, ws.TypeQuestionState)

	send(t, conn, ws.TypeAbandonQuiz, nil)
	abandoned := expect[ws.ReturnedPayload](t, conn, ws.TypeAbandoned)
	assert.Equal(t, started.AttemptID, abandoned.AttemptID)
	assert.Equal(t, 0, f.manager.Active())
}

func TestWebSocketDisconnectAbandonsAttempt(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "good")

	send(t, conn, ws.TypeStartQuiz, ws.StartQuizPayload{QuizID: "sample"})
	expect[ws.QuizStartedPayload](t, conn, ws.TypeQuizStarted)
	expect[ws.QuestionStatePayload](t, conn, ws.TypeQuestionState)
	r, err := f.manager.Get(f.userID)
	require.NoError(t, err)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return f.manager.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, r.Closed())
	_, err = f.manager.Get(f.userID)
	assert.True(t, errors.Is(err, ErrNoActiveAttempt))
}
