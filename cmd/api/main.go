package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wisdomhub/filekeep/internal/accounts"
	"github.com/wisdomhub/filekeep/internal/auth"
	"github.com/wisdomhub/filekeep/internal/config"
	"github.com/wisdomhub/filekeep/internal/db"
	httpx "github.com/wisdomhub/filekeep/internal/http"
	"github.com/wisdomhub/filekeep/internal/http/middlewares"
	"github.com/wisdomhub/filekeep/internal/observability"
	"github.com/wisdomhub/filekeep/internal/redisclient"
	"github.com/wisdomhub/filekeep/internal/repo/memory"
	"github.com/wisdomhub/filekeep/internal/repo/postgres"
	"github.com/wisdomhub/filekeep/internal/security"
	"github.com/wisdomhub/filekeep/internal/storage"
)

const serviceName = "filekeep"

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: serviceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTLPSampleRatio,
	})

	if err != nil {
		return err
	}

	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	var (
		users accounts.UserStore
		pings []func(context.Context) error
	)

	if cfg.DBURL != "" {
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)

		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}

		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}

		users = postgres.NewUsersRepo(pool, prom)
		pings = append(pings, pool.Ping)
	} else {
		log.Warn("DATABASE_URL not set, users are kept in memory")
		users = memory.NewUsersRepo()
	}

	var limiter middlewares.Limiter = middlewares.NewMemoryLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)

	if cfg.RedisAddr != "" {
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}

		defer rc.Close()

		limiter = middlewares.NewRedisLimiter(rc.Raw(), cfg.AuthRateLimit, cfg.AuthRateWindow)
		pings = append(pings, rc.Ping)
	}

	store, err := newStore(ctx, cfg)

	if err != nil {
		return err
	}

	hasher, err := security.NewHasher(cfg.BcryptCost)

	if err != nil {
		return err
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	if err != nil {
		return err
	}

	svc := accounts.NewService(users, hasher, tokens, log, prom)

	err = svc.EnsureUser(ctx, accounts.RegisterInput{
		Username: cfg.SeedUsername,
		Email:    cfg.SeedEmail,
		Password: cfg.SeedPassword,
	})

	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	router := httpx.NewRouter(httpx.Deps{
		Log:            log,
		Accounts:       svc,
		Store:          store,
		Limiter:        limiter,
		Prom:           prom,
		Gatherer:       reg,
		Ping:           pingAll(pings),
		Env:            cfg.Env,
		Secure:         cfg.IsProd(),
		ServiceName:    serviceName,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		// uploads can be large
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageDriver)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")

	return nil
}

func newStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.StorageDriver == "minio" {
		return storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
	}

	return storage.NewDiskStore(cfg.UploadDir)
}

func pingAll(pings []func(context.Context) error) func(context.Context) error {
	if len(pings) == 0 {
		return nil
	}

	return func(ctx context.Context) error {
		for _, ping := range pings {
			if err := ping(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
