package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"neondraw/internal/app"
	"neondraw/internal/config"
	httpTransport "neondraw/internal/transport/http"
)

func main() {
	// Load configuration
	dotenvErr := config.LoadDotEnv(".env")
	cfg := config.Load()

	// Set up logger
	logger := newLogger(cfg.Logging, os.Stdout)
	if dotenvErr != nil {
		logger.Warn().Err(dotenvErr).Msg("failed to load .env")
	}

	logger.Info().
		Str("env", cfg.Server.Env).
		Str("port", cfg.Server.Port).
		Msg("starting neondraw server")

	words := app.LoadWordBank(cfg.Game.WordsFile, logger)

	// Create game hub
	hub := app.NewGameHub(logger, app.HubOptions{
		DefaultMaxPlayers: cfg.Game.MaxPlayers,
		MaxRounds:         cfg.Game.MaxRounds,
		RoundTime:         cfg.Game.RoundTime,
		Intermission:      cfg.Game.Intermission,
		TickInterval:      cfg.Game.TickInterval,
		SeatGrace:         cfg.Game.SeatGrace,
		Words:             words,
	})
	defer hub.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// newLogger builds the process logger: human-readable for "text", JSON otherwise
func newLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
