package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prudhvinik1/deviceregistry/internal/config"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/handlers"
	"github.com/prudhvinik1/deviceregistry/internal/logger"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/repositories"
	"github.com/prudhvinik1/deviceregistry/internal/services"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zlog.Fatal().Err(err).Msg("Server error")
	}
	zlog.Info().Msg("Server stopped gracefully")
}

type storage struct {
	sessions handlers.Sessions
	users    repositories.Store[models.User]
	devices  repositories.Store[models.Device]
	close    func()
}

func run(ctx context.Context, cfg *config.Config) error {
	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTExpiry)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	var revocations repositories.RevocationRepository = repositories.NopRevocationRepository{}
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer redisClient.Close()
		revocations = repositories.NewRedisRevocationRepository(redisClient, cfg.JWTExpiry)
	} else {
		zlog.Warn().Msg("REDIS_URL not set, token revocation disabled")
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	users := services.NewUserService(store.users, revocations, cfg.BcryptCost)
	if cfg.FirstSuperuserEmail != "" {
		err := store.sessions.WithSession(ctx, func(ctx context.Context, db database.DBTX) error {
			_, err := users.EnsureSuperuser(ctx, db, cfg.FirstSuperuserEmail, cfg.FirstSuperuserPassword)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to bootstrap superuser: %w", err)
		}
	}

	h := handlers.NewHandler(
		store.sessions,
		services.NewAccessGate(tokens, store.users, revocations),
		users,
		services.NewAuthService(store.users, tokens, cfg.BcryptCost),
		services.NewDeviceService(store.devices),
	)

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: handlers.NewRouter(h, handlers.RouterOptions{
			APIPrefix:       cfg.APIV1Prefix,
			LoginRateLimit:  cfg.LoginRateLimit,
			LoginRateWindow: cfg.LoginRateWindow,
			CORSOrigins:     cfg.BackendCORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info().Str("addr", server.Addr).Str("storage", cfg.StorageBackend).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.StorageBackend == config.StorageBackendMemory {
		zlog.Warn().Msg("Using in-memory storage, data is lost on exit")
		return &storage{
			sessions: database.NopSessions{},
			users:    repositories.NewMemoryUserStore(),
			devices:  repositories.NewMemoryDeviceStore(),
			close:    func() {},
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &storage{
		sessions: database.NewSessionManager(pool),
		users:    repositories.NewPostgresUserStore(),
		devices:  repositories.NewPostgresDeviceStore(),
		close:    pool.Close,
	}, nil
}
