package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/attempt"
	"github.com/gokatarajesh/smartquiz/internal/auth"
	"github.com/gokatarajesh/smartquiz/internal/auth/jwt"
	"github.com/gokatarajesh/smartquiz/internal/catalog"
	"github.com/gokatarajesh/smartquiz/internal/config"
	"github.com/gokatarajesh/smartquiz/internal/dashboard"
	"github.com/gokatarajesh/smartquiz/internal/logging"
	"github.com/gokatarajesh/smartquiz/internal/quiz"
	"github.com/gokatarajesh/smartquiz/internal/server"
	ws "github.com/gokatarajesh/smartquiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	attempts *attempt.Manager
	hub      *ws.Hub
}

// New bootstraps logger, Redis, the optional Postgres catalog and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	var (
		pool   *pgxpool.Pool
		loader catalog.Loader
	)
	if cfg.Postgres.Enabled() {
		poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("parse postgres config: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		loader = catalog.NewPostgresLoader(pool)
		logger.Info().Str("host", cfg.Postgres.Host).Msg("serving catalog from postgres")
	} else {
		quizzes, err := catalog.PracticeQuizzes()
		if err != nil {
			return nil, fmt.Errorf("load practice catalog: %w", err)
		}
		loader = catalog.NewStaticLoader(quizzes)
		logger.Info().Int("quizzes", len(quizzes)).Msg("serving embedded practice catalog")
	}
	quizzes := catalog.NewRepository(loader, catalog.NewRedisCache(redisClient, cfg.Quiz.CatalogCacheTTL), logger)

	authSvc := auth.NewService(
		auth.NewRedisUserStore(redisClient),
		auth.NewTokenStore(redisClient),
		auth.NewMailer(auth.EmailConfig{
			SMTPHost:     cfg.SMTP.Host,
			SMTPPort:     cfg.SMTP.Port,
			SMTPUsername: cfg.SMTP.Username,
			SMTPPassword: cfg.SMTP.Password,
			FromEmail:    cfg.SMTP.FromEmail,
		}, logger),
		auth.ServiceOptions{
			TokenConfig: jwt.TokenConfig{
				AccessSecret:  []byte(cfg.Security.JWTSecret),
				RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
				AccessTTL:     cfg.Security.AccessTokenTTL,
				RefreshTTL:    cfg.Security.RefreshTokenTTL,
				Issuer:        cfg.Name,
			},
			PublicURL:       cfg.PublicURL,
			VerificationTTL: cfg.Security.EmailVerificationTTL,
			ResetTTL:        cfg.Security.PasswordResetTokenTTL,
		},
		logger,
	)

	engine := quiz.NewEngine(quiz.Config{Duration: cfg.Quiz.Duration})
	attempts := attempt.NewManager(engine, attempt.ManagerOptions{
		TickInterval: cfg.Quiz.TickInterval,
	}, attempt.NewMetrics(prometheus.DefaultRegisterer), logger)
	hub := ws.NewHub(logger)

	attemptHandler := attempt.NewHandler(attempts, quizzes, hub, authSvc, logger)
	dashboardHandler := dashboard.NewHTTPHandler(quizzes, dashboard.Unavailable{}, logger)

	apiServer := server.NewHTTPServer(cfg, logger,
		server.Dependencies{Pool: pool, Redis: redisClient},
		server.Handlers{
			Validator: authSvc,
			Auth:      auth.NewHTTPHandlers(authSvc, logger),
			Dashboard: dashboardHandler,
			WebSocket: attemptHandler.HandleWebSocket,
		},
	)

	return &Application{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		redis:    redisClient,
		http:     apiServer,
		attempts: attempts,
		hub:      hub,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.attempts.Shutdown()
	a.hub.CloseAll()

	if a.pool != nil {
		a.pool.Close()
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
