package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"clocktower/internal/config"
	"clocktower/internal/logger"
)

func main() {
	// .env is optional; the token may come from the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	closer, err := logger.Setup(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("bot stopped")
		closer.Close()
		os.Exit(1)
	}
	log.Info().Msg("bot gracefully stopped")
}
