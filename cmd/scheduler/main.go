package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"couples-daily-backend/internal/adapters/repo"
	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/cache"
	"couples-daily-backend/internal/infra/config"
	"couples-daily-backend/internal/infra/db"
	applog "couples-daily-backend/internal/infra/log"
	"couples-daily-backend/internal/infra/metrics"
	contentusecase "couples-daily-backend/internal/usecase/content"
	scheduleusecase "couples-daily-backend/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()

	var locks domain.Cache
	if cfg.RedisAddr != "" {
		locks = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		logger.Warn().Msg("scheduler: Redis не настроен, проход не защищён от параллельных реплик")
	}

	repoAdapter := repo.NewPostgres(pool)
	contentService := contentusecase.NewService(repoAdapter, repoAdapter, repoAdapter, cfg.Schedule.DefaultTimezone, logger.With().Str("component", "content").Logger())
	scheduler := scheduleusecase.NewService(repoAdapter, contentService, locks, logger.With().Str("component", "scheduler").Logger())

	// Первый проход сразу после запуска, дальше по тикам.
	scheduler.Run(ctx, time.Now().UTC())

	ticker := time.NewTicker(cfg.Schedule.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановлен")
			return
		case now := <-ticker.C:
			scheduler.Run(ctx, now.UTC())
		}
	}
}
