package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/webauth/authd/internal/api"
	"github.com/webauth/authd/internal/api/handler"
	"github.com/webauth/authd/internal/api/metrics"
	"github.com/webauth/authd/internal/core/ports"
	"github.com/webauth/authd/internal/core/service"
	"github.com/webauth/authd/internal/infrastructure/config"
	mongostore "github.com/webauth/authd/internal/infrastructure/db/mongo"
	redisstore "github.com/webauth/authd/internal/infrastructure/db/redis"
	"github.com/webauth/authd/internal/infrastructure/revocation"
	"github.com/webauth/authd/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. JWT_SECRET must be set; the process refuses
to start without it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "authd",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting authd")

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	}, log)
	if err != nil {
		log.Error().Err(err).Msg("database connection error")
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongostore.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}

	readiness := map[string]handler.Pinger{"mongodb": handler.MongoPinger{DB: db}}

	registry, closeRegistry, err := buildRegistry(ctx, cfg, log, readiness)
	if err != nil {
		return err
	}
	defer closeRegistry()

	hasher, err := service.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}
	issuer, err := service.NewTokenIssuer([]byte(cfg.JWTSecret.Reveal()))
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	if cfg.AdminPassword.Reveal() == "" {
		log.Warn().Msg("ADMIN_PASSWORD is not set; administrator login is disabled")
	}

	authService := service.NewAuthService(
		service.NewCredentialStore(users, hasher),
		issuer,
		registry,
		cfg.AdminPassword.Reveal(),
		log.With().Str("component", "auth").Logger(),
	)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Cookies:     handler.CookieOptions{Secure: cfg.IsProduction()},
		Readiness:   readiness,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ":"+cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildRegistry selects the revocation backend. The in-memory registry gets
// a background sweeper that stops with ctx; the Redis one relies on key TTLs
// and joins the readiness probe.
func buildRegistry(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	readiness map[string]handler.Pinger,
) (ports.RevocationRegistry, func(), error) {
	switch cfg.Revocation.Backend {
	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		readiness["redis"] = handler.RedisPinger{Client: client}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("revocation registry: redis")
		return redisstore.NewRevocationRegistry(client), func() { _ = client.Close() }, nil

	default:
		registry := revocation.New(revocation.WithSizeObserver(func(live int) {
			metrics.RevocationEntries.Set(float64(live))
		}))
		sweepCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			registry.Run(sweepCtx, cfg.Revocation.SweepInterval, func(removed, live int) {
				metrics.RevocationsSweptTotal.Add(float64(removed))
				if removed > 0 {
					log.Debug().Int("removed", removed).Int("live", live).Msg("revocation sweep")
				}
			})
		}()
		log.Info().Dur("sweep_interval", cfg.Revocation.SweepInterval).Msg("revocation registry: memory")
		return registry, func() {
			cancel()
			<-done
		}, nil
	}
}
