package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/smartquiz/internal/app"
	"github.com/gokatarajesh/smartquiz/internal/config"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("app", "smartquiz").Logger()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("smartquiz api stopped")
	}
}

func run() error {
	if os.Getenv("APP_ENV") != "production" {
		path := os.Getenv("DOTENV_PATH")
		if path == "" {
			path = "configs/.env"
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("could not load .env file")
		}
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load(bootCtx)
	if err != nil {
		return err
	}

	instance, err := app.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	return instance.Run(context.Background())
}
