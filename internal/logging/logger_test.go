package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "smartquiz", "production")

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "smartquiz", line["app"])
	assert.Equal(t, "production", line["env"])
}

func TestFromContextFallsBackToNop(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotPanics(t, func() { logger.Info().Msg("dropped") })
}

func TestMiddlewareInjectsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(&buf, "smartquiz", "production")

	handler := Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := FromContext(r.Context())
		reqLogger.Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/quizzes", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inside, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inside))
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "req-1", inside["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), access["status"])
	assert.Equal(t, "/v1/quizzes", access["path"])
}
