package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coffeeshop/internal/config"
	"coffeeshop/internal/domain"
	"coffeeshop/internal/infra/auth/oidc"
	"coffeeshop/internal/infra/auth/rbac"
	"coffeeshop/internal/infra/db"
	httpinfra "coffeeshop/internal/infra/http"
	"coffeeshop/internal/infra/ratelimit"

	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("coffeeshop", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var resetDB bool
	fs.BoolVar(&resetDB, "reset-db", false, "drop and recreate the drinks table before serving")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger := newLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("load config")
		return 1
	}
	logger = newLogger(cfg.LogLevel)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("open database")
		return 1
	}
	if resetDB || cfg.DBReset {
		logger.Warn().Msg("resetting drinks table, all records dropped")
		if err := db.Reset(conn); err != nil {
			logger.Error().Err(err).Msg("reset database")
			return 1
		}
	} else if err := db.Migrate(conn); err != nil {
		logger.Error().Err(err).Msg("migrate database")
		return 1
	}

	limiter, err := buildLimiter(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("build rate limiter")
		return 1
	}

	authenticator, err := oidc.NewAuthenticator(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("build authenticator")
		return 1
	}

	server := httpinfra.NewServerWithDeps(cfg, httpinfra.ServerDeps{
		Drinks:        db.NewDrinkRepository(conn),
		Authenticator: authenticator,
		Authorizer:    rbac.NewAuthorizer(),
		RateLimiter:   limiter,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("serving")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("serve")
			return 1
		}
	case <-shutdownCtx.Done():
		logger.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
			return 1
		}
	}
	return 0
}

func buildLimiter(cfg config.Config) (domain.RateLimiter, error) {
	if cfg.RateLimitRequests <= 0 {
		return nil, nil
	}
	if cfg.RedisAddr != "" {
		return ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
	}
	return ratelimit.NewMemoryLimiter(nil), nil
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(parsed).With().Timestamp().Logger()
}
