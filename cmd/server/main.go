package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/post-batch/config"
	"github.com/d60-Lab/post-batch/internal/api/handler"
	"github.com/d60-Lab/post-batch/internal/api/middleware"
	"github.com/d60-Lab/post-batch/internal/api/router"
	"github.com/d60-Lab/post-batch/internal/model"
	"github.com/d60-Lab/post-batch/internal/repository"
	"github.com/d60-Lab/post-batch/internal/service"
	"github.com/d60-Lab/post-batch/internal/upstream"
	"github.com/d60-Lab/post-batch/pkg/database"
	"github.com/d60-Lab/post-batch/pkg/logger"
	"github.com/d60-Lab/post-batch/pkg/tracing"
)

// @title Post Batch API
// @version 1.0
// @description 拉取 jsonplaceholder 帖子入库并分页查询
// @BasePath /
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(c); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Ping(db, 5*time.Second); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	postRepo := repository.NewPostRepository(db)
	if cfg.Seed.Enabled {
		seedSample(ctx, postRepo)
	}

	fetcher := upstream.NewHTTPClient(cfg.Upstream.URL, cfg.Upstream.Timeout,
		upstream.WithMaxBodyBytes(cfg.Upstream.MaxBodyBytes))
	h := handler.NewHandler(service.NewBatchService(postRepo, fetcher))

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(cfg, h, router.Options{Limiter: limiter, SentryEnabled: sentryEnabled}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	}

	logger.Info("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	return nil
}

// seedSample 写入示例帖子并回读，失败只记录日志
func seedSample(ctx context.Context, repo repository.PostRepository) {
	sample := &model.Post{ID: 999, UserID: 1, Title: "Test Title", Body: "Test Body"}
	if err := repo.Save(ctx, sample); err != nil {
		logger.Warn("seed sample post", zap.Error(err))
		return
	}
	total, err := repo.Count(ctx)
	if err != nil {
		logger.Warn("count posts", zap.Error(err))
		return
	}
	got, err := repo.FindByID(ctx, sample.ID)
	if err != nil {
		logger.Warn("read sample post", zap.Error(err))
		return
	}
	logger.Info("sample post saved",
		zap.Int64("total", total),
		zap.Int("id", got.ID),
		zap.String("title", got.Title),
	)
}

// newLimiter 按配置构造限流器，返回 nil 表示不限流
func newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, func(), error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil, func() {}, nil
	}
	if rl.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("rate limit enabled", zap.String("backend", "redis"), zap.Int("requests", rl.Requests), zap.Duration("window", rl.Window))
		return middleware.NewRedisLimiter(rdb, rl.Requests, rl.Window), func() { _ = rdb.Close() }, nil
	}

	ml := middleware.NewMemoryLimiter(rl.Requests, rl.Window, rl.Burst)
	stopSweep := ml.StartSweeper(rl.Window)
	logger.Info("rate limit enabled", zap.String("backend", "memory"), zap.Int("requests", rl.Requests), zap.Duration("window", rl.Window))
	return ml, stopSweep, nil
}
