// Package main runs the NYRA development backend
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/nyra-ai/nyra/internal/llm"
	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/server"
	"github.com/nyra-ai/nyra/internal/store"
)

const (
	defaultAddr       = ":5000"
	defaultDBPath     = "nyra.db"
	defaultRateLimit  = 60
	defaultRateWindow = 60
	shutdownTimeout   = 10 * time.Second
)

// Version is set at build time
var Version = "dev"

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	nlog.Configure(nlog.Config{Service: "nyra-server"})
	logger := nlog.WithComponent("main")
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file loaded")
	}

	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	logger := nlog.WithComponent("main")

	addr := envOrDefault("NYRA_SERVER_ADDR", defaultAddr)
	dbPath := envOrDefault("NYRA_DB_PATH", defaultDBPath)

	primary, err := llm.NewChatFromEnv()
	if err != nil {
		logger.Warn().Err(err).Msg("chat provider init failed, using echo")
	}
	chat := llm.NewFallbackChat(primary, llm.NewEchoChat())
	if primary != nil {
		logger.Info().Str("provider", primary.Name()).Msg("chat provider ready")
	}

	db, err := store.Open(dbPath, store.DefaultConfig())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info().Str("path", dbPath).Msg("document store opened")

	srv := server.New(server.Config{
		Chat:       chat,
		Store:      db,
		Version:    Version,
		RateLimit:  envIntOrDefault("NYRA_RATE_LIMIT", defaultRateLimit),
		RateWindow: time.Duration(envIntOrDefault("NYRA_RATE_WINDOW_SECONDS", defaultRateWindow)) * time.Second,
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
