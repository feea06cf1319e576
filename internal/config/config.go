package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"smartquiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	PublicURL               string        `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	Quiz     Quiz
	SMTP     SMTP
	CORS     CORS
}

// Postgres captures connection info for the catalog database. An empty host
// serves the embedded practice catalog instead.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:""`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// Enabled reports whether a database is configured.
func (p Postgres) Enabled() bool { return p.Host != "" }

// DSN returns the key/value connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds user, token and cache storage configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets and token lifetimes.
type Security struct {
	JWTSecret             string        `env:"JWT_SECRET,notEmpty"`
	AccessTokenTTL        time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
	RefreshTokenTTL       time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	EmailVerificationTTL  time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"24h"`
	PasswordResetTokenTTL time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`
}

// Quiz groups attempt and catalog settings.
type Quiz struct {
	Duration        time.Duration `env:"QUIZ_DURATION" envDefault:"20m"`
	TickInterval    time.Duration `env:"QUIZ_TICK_INTERVAL" envDefault:"1s"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
}

// SMTP holds email server configuration. An empty host logs emails instead.
type SMTP struct {
	Host      string `env:"SMTP_HOST" envDefault:""`
	Port      int    `env:"SMTP_PORT" envDefault:"587"`
	Username  string `env:"SMTP_USERNAME" envDefault:""`
	Password  string `env:"SMTP_PASSWORD" envDefault:""`
	FromEmail string `env:"SMTP_FROM_EMAIL" envDefault:"no-reply@smartquiz.local"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Quiz.Duration < time.Second {
		return nil, fmt.Errorf("parse config: QUIZ_DURATION must be at least 1s, got %s", cfg.Quiz.Duration)
	}
	if cfg.Quiz.TickInterval <= 0 {
		return nil, fmt.Errorf("parse config: QUIZ_TICK_INTERVAL must be positive, got %s", cfg.Quiz.TickInterval)
	}
	return cfg, nil
}
