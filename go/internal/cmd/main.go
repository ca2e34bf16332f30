package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &Config{}
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if loaded, err := loadConfig(configPath); err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("running without config file")
	} else {
		config = loaded
	}
	oracle := setupOracle(config)

	pool, err := setupPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	relayDB, err := setupRelayDB()
	if err != nil {
		return err
	}
	defer relayDB.Close()

	services, err := setupServices(pool, relayDB, config, oracle)
	if err != nil {
		return err
	}

	if err := services.OutboxWorker.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := services.OutboxWorker.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop outbox worker")
		}
	}()

	go func() {
		if err := services.Orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("deadline scheduler failed")
		}
	}()

	go func() {
		if err := services.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway failed")
		}
	}()

	server := setupServer(services)
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	return nil
}
