package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/YujeongSon/AccountSystem/internal/account"
	"github.com/YujeongSon/AccountSystem/internal/app"
	"github.com/YujeongSon/AccountSystem/internal/observability"
	"github.com/YujeongSon/AccountSystem/internal/platform/cache"
	"github.com/YujeongSon/AccountSystem/internal/platform/db"
	"github.com/YujeongSon/AccountSystem/internal/platform/lock"
	"github.com/YujeongSon/AccountSystem/internal/transaction"
	"github.com/YujeongSon/AccountSystem/internal/users"
	"github.com/YujeongSon/AccountSystem/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	userRepo := users.NewRepository(pool)
	accountRepo := account.NewRepository(pool)
	ledgerRepo := transaction.NewRepository(pool)
	locker := lock.NewRedisLocker(redisClient)

	accountService := account.NewService(userRepo, accountRepo)
	engine := transaction.NewService(logger, userRepo, accountRepo, ledgerRepo, locker)
	engine.WithLockTimeouts(cfg.LockWait, cfg.LockLease)
	engine.WithIntegrityScheduler(jobClient)

	validate := validator.New()
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Config:             cfg,
		AccountHandler:     account.NewHandler(logger, accountService, validate),
		TransactionHandler: transaction.NewHandler(logger, engine, validate, metrics),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("account api listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
