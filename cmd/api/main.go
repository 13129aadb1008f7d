// Package main is the entry point of the delivery API server.
//
// @title        Last-mile Delivery API
// @version      1.0
// @description  Account signup, cookie sessions and role dashboards for customers, drivers and retailers.
// @BasePath     /
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

	_ "github.com/lastmile/delivery-api/docs"
	"github.com/lastmile/delivery-api/internal/api"
	"github.com/lastmile/delivery-api/internal/api/cookie"
	"github.com/lastmile/delivery-api/internal/api/handler"
	"github.com/lastmile/delivery-api/internal/core/service"
	mongodb "github.com/lastmile/delivery-api/internal/infrastructure/db/mongo"
	redisdb "github.com/lastmile/delivery-api/internal/infrastructure/db/redis"
	"github.com/lastmile/delivery-api/internal/infrastructure/queue"
	"github.com/lastmile/delivery-api/internal/pkg/config"
	"github.com/lastmile/delivery-api/internal/pkg/password"
	"github.com/lastmile/delivery-api/internal/pkg/token"
	"github.com/lastmile/delivery-api/pkg/logger"
)

const (
	serviceName     = "delivery-api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger settings come from config, so fall back to a bare logger.
		boot := bootLogger(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsLocal(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

// bootLogger is used before configuration is available.
func bootLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger()
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, auditRepo); err != nil {
		return err
	}

	health := map[string]handler.Pinger{"mongodb": mongodb.Pinger{Client: mongoClient}}

	// --- Credentials ---
	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		return err
	}
	opts := []service.AuthOption{service.WithLogger(logger.Component("auth"))}

	if cfg.Session.Revocation {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, service.WithDenylist(redisdb.NewDenylist(rdb)))
		health["redis"] = redisdb.Pinger{Client: rdb}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("session revocation enabled")
	}

	authService := service.NewAuthService(userRepo, password.NewHasher(cfg.BcryptCost), codec, cfg.Session.TTL, opts...)

	// --- Audit trail ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, service.NewAuditService(auditRepo, logger.Component("audit")), logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		AuthService: authService,
		Cookies:     cookie.NewStore(cfg.Session.CookieName, !cfg.IsLocal(), cfg.Session.SameSite),
		Audit:       dispatcher,
		Health:      health,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
