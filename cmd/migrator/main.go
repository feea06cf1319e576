package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/smartquiz/internal/db/migrations"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply catalog database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		migrateCmd("up", "Apply all pending migrations", goose.UpContext),
		migrateCmd("down", "Roll back the latest migration", goose.DownContext),
		migrateCmd("status", "Print migration status", goose.StatusContext),
	)
	return cmd
}

func migrateCmd(use, short string, run func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			goose.SetTableName("goose_db_version")
			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("set dialect: %w", err)
			}

			if err := run(cmd.Context(), db, "."); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			log.Info().Str("command", use).Msg("migration command finished")
			return nil
		},
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	pgHost := getEnv("PG_HOST", "localhost")
	pgPort := getEnv("PG_PORT", "5432")
	pgUser := os.Getenv("PG_USER")
	pgPassword := os.Getenv("PG_PASSWORD")
	pgDatabase := os.Getenv("PG_DATABASE")
	pgSSLMode := getEnv("PG_SSL_MODE", "disable")

	for name, value := range map[string]string{"PG_USER": pgUser, "PG_PASSWORD": pgPassword, "PG_DATABASE": pgDatabase} {
		if value == "" {
			return nil, fmt.Errorf("%s environment variable is required", name)
		}
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pgHost, pgPort, pgUser, pgPassword, pgDatabase, pgSSLMode)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", pgHost).
		Str("port", pgPort).
		Str("database", pgDatabase).
		Msg("connected to database")
	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
