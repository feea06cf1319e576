package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/auth"
	"github.com/gokatarajesh/smartquiz/internal/config"
	"github.com/gokatarajesh/smartquiz/internal/dashboard"
	"github.com/gokatarajesh/smartquiz/internal/logging"
	httperrors "github.com/gokatarajesh/smartquiz/pkg/http/errors"
)

// WSUpgrader handles WebSocket upgrades. NewHTTPServer restricts its origins.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handlers are the feature endpoints mounted by NewHTTPServer. Nil fields are
// left unmounted.
type Handlers struct {
	Validator auth.TokenValidator
	Auth      *auth.HTTPHandlers
	Dashboard *dashboard.HTTPHandler
	WebSocket http.HandlerFunc
}

// Dependencies are pinged by /v1/ping. Pool may be nil.
type Dependencies struct {
	Pool  *pgxpool.Pool
	Redis redis.UniversalClient
}

// NewHTTPServer wires health, metrics, auth, dashboard and live quiz routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Dependencies, h Handlers) *http.Server {
	WSUpgrader.CheckOrigin = originChecker(cfg.CORS.AllowedOrigins)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), deps); err != nil {
			reqLogger := logging.FromContext(r.Context())
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if a := h.Auth; a != nil {
		mux.HandleFunc("POST /v1/auth/signup", a.Signup)
		mux.HandleFunc("POST /v1/auth/verify", a.VerifyEmail)
		mux.HandleFunc("POST /v1/auth/resend-verification", a.ResendVerification)
		mux.HandleFunc("POST /v1/auth/login", a.Login)
		mux.HandleFunc("POST /v1/auth/refresh", a.RefreshToken)
		mux.HandleFunc("POST /v1/auth/forgot-password", a.ForgotPassword)
		mux.HandleFunc("POST /v1/auth/reset-password", a.ResetPassword)
		mux.HandleFunc("GET /v1/auth/username-available", a.UsernameAvailable)
		mux.Handle("POST /v1/auth/logout", auth.RequireAuth(http.HandlerFunc(a.Logout)))
		mux.Handle("GET /v1/auth/me", auth.RequireAuth(http.HandlerFunc(a.GetMe)))
	}

	if d := h.Dashboard; d != nil {
		protect := func(pattern string, fn http.HandlerFunc) {
			mux.Handle(pattern, auth.RequireAuth(fn))
		}
		protect("GET /v1/quizzes", d.ListQuizzes)
		protect("GET /v1/quizzes/{id}", d.GetQuiz)
		protect("POST /v1/quizzes/join", d.Feature(dashboard.FeatureJoinByCode, nil))
		protect("GET /v1/quizzes/explore", d.Feature(dashboard.FeatureExplore, nil))
		protect("GET /v1/quizzes/daily", d.Feature(dashboard.FeatureQuizOfTheDay, nil))
		protect("POST /v1/quizzes", d.Feature(dashboard.FeatureCreateQuiz, nil))
		protect("PUT /v1/users/me/profile", d.Feature(dashboard.FeatureProfileSettings, nil))
		protect("GET /v1/users/me/stats", d.Feature(dashboard.FeatureStats, nil))
	}

	if h.WebSocket != nil {
		mux.HandleFunc("GET /v1/ws", h.WebSocket)
	} else {
		mux.HandleFunc("GET /v1/ws", func(w http.ResponseWriter, r *http.Request) {
			httperrors.RespondError(w, http.StatusNotImplemented, httperrors.ErrCodeFeatureNotAvailable, "WebSocket handler not configured")
		})
	}

	var handler http.Handler = mux
	if h.Validator != nil {
		handler = auth.AuthMiddleware(h.Validator, logger)(handler)
	}
	handler = CORS(cfg.CORS)(handler)
	handler = logging.Middleware(logger)(handler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, deps Dependencies) error {
	if deps.Pool != nil {
		if err := deps.Pool.Ping(ctx); err != nil {
			return err
		}
	}
	if deps.Redis != nil {
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
