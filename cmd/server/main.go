// Command server runs the auth HTTP API.
//
// @title                      Auth System API
// @version                    1.0
// @description                Email and password authentication with JWT access and refresh tokens.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/auth-system/internal/api"
	"github.com/99minutos/auth-system/internal/core/ports"
	"github.com/99minutos/auth-system/internal/core/service"
	"github.com/99minutos/auth-system/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/auth-system/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/auth-system/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/auth-system/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-system/internal/infrastructure/password"
	"github.com/99minutos/auth-system/internal/infrastructure/sweeper"
	"github.com/99minutos/auth-system/internal/pkg/config"
	"github.com/99minutos/auth-system/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auth-system: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-system",
	})

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redisstore.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis ready")
	}

	mode := ports.TokenModeAccessOnly
	if cfg.Token.RefreshEnabled {
		mode = ports.TokenModeAccessWithRefresh
	}
	opts := []service.TokenOption{service.WithSessions(st.sessions)}
	if rdb != nil {
		opts = append(opts, service.WithRefreshGuard(redisstore.NewRefreshGuard(rdb, cfg.Redis.GuardTTL)))
	}
	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:         cfg.Token.AccessSecret,
		Expires:        cfg.Token.AccessExpires,
		RefreshSecret:  cfg.Token.RefreshSecret,
		RefreshExpires: cfg.Token.RefreshExpires,
		Mode:           mode,
		RequireSession: cfg.Token.RequireSession,
	}, log, opts...)
	if err != nil {
		return err
	}
	log.Info().Stringer("mode", mode).Msg("token service ready")

	authService := service.NewAuthService(st.users, st.sessions, tokens, password.NewBcryptHasher(cfg.BcryptCost), log)
	userService := service.NewUserService(st.users, log)

	sw := sweeper.New(st.sessions, cfg.SessionSweepEvery, log)
	sw.Start(ctx)

	ipExtractor, err := api.NewIPExtractor(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Auth:        authService,
		Users:       userService,
		UserStore:   st.users,
		Tokens:      tokens,
		Store:       st,
		Redis:       rdb,
		RateLimit:   cfg.RateLimit,
		IPExtractor: ipExtractor,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	stop()
	<-sw.Done()
	return nil
}

// store is the persistence backend selected by STORE_DRIVER.
type store struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	pinger   ports.Pinger
	close    func(context.Context) error
}

func (s *store) Ping(ctx context.Context) error {
	return s.pinger.Ping(ctx)
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := pgstore.Connect(ctx, pgstore.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		pg := pgstore.NewStore(db)
		return &store{
			users:    pg.Users(),
			sessions: pg.Sessions(),
			pinger:   pg,
			close:    func(context.Context) error { return pg.Close() },
		}, nil

	case config.DriverMongo:
		_, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		mg := mongostore.NewStore(db)
		return &store{
			users:    mg.Users(),
			sessions: mg.Sessions(),
			pinger:   mg,
			close:    mg.Close,
		}, nil

	default:
		mem := memory.NewStore()
		return &store{
			users:    mem.Users(),
			sessions: mem.Sessions(),
			pinger:   mem,
			close:    func(context.Context) error { return nil },
		}, nil
	}
}
