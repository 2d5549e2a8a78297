package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"couples-daily-backend/internal/adapters/push"
	"couples-daily-backend/internal/adapters/repo"
	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/config"
	"couples-daily-backend/internal/infra/db"
	applog "couples-daily-backend/internal/infra/log"
	"couples-daily-backend/internal/infra/metrics"
	"couples-daily-backend/internal/infra/queue"
	notifyusecase "couples-daily-backend/internal/usecase/notify"
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
		logger.Fatal().Err(err).Msg("notifier: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	var notifications domain.NotificationQueue
	if cfg.RabbitURL != "" {
		rabbit, err := queue.NewRabbitNotificationQueue(cfg.RabbitURL, cfg.Queues.Notifications)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: не удалось инициализировать очередь RabbitMQ")
		}
		defer rabbit.Close()
		notifications = rabbit
	} else if cfg.RedisAddr != "" {
		logger.Warn().Msg("notifier: RabbitMQ не настроен, очередь уведомлений работает через Redis")
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		notifications = queue.NewRedisNotificationQueue(redisClient, cfg.Queues.Notifications)
	} else {
		logger.Fatal().Msg("notifier: не настроена очередь (RABBITMQ_URL или REDIS_ADDR)")
	}

	sender, err := push.NewFCMSender(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: не удалось создать FCM клиент")
	}

	notifyService := notifyusecase.NewService(repoAdapter, sender, repoAdapter, logger.With().Str("component", "notify").Logger())

	worker := &jobWorker{
		log:      logger.With().Str("component", "worker").Logger(),
		queue:    notifications,
		statuses: repoAdapter,
		service:  notifyService,
	}

	logger.Info().Msg("notifier: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("notifier: остановлен")
}

type jobWorker struct {
	log      zerolog.Logger
	queue    domain.NotificationQueue
	statuses domain.NotificationStatusRepo
	service  *notifyusecase.Service
}

const maxDeliveryAttempts = 5

type jobOutcome int

const (
	jobOutcomeCompleted jobOutcome = iota
	jobOutcomeRetry
)

func (w *jobWorker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.log.Error().Err(err).Msg("notifier: ошибка чтения очереди")
			time.Sleep(time.Second)
			continue
		}

		jobLog := w.log.With().
			Str("job_id", job.ID).
			Str("couple_id", job.CoupleID).
			Str("content_id", job.ContentID).
			Logger()

		if job.ID == "" {
			jobLog.Error().Msg("notifier: получена задача без идентификатора, подтверждаем и пропускаем")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("notifier: не удалось подтвердить задачу без идентификатора")
			}
			continue
		}

		delivered, attempt, err := w.statuses.EnsureNotificationJob(ctx, job.ID)
		if err != nil {
			jobLog.Error().Err(err).Msg("notifier: не удалось зарегистрировать задачу")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("notifier: не удалось вернуть задачу в очередь")
			}
			time.Sleep(time.Second)
			continue
		}

		jobLog = jobLog.With().Int("attempt", attempt).Logger()

		if delivered {
			jobLog.Info().Msg("notifier: задача уже была доставлена, подтверждаем")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("notifier: не удалось подтвердить ранее доставленную задачу")
			}
			continue
		}

		outcome := w.handleJob(ctx, job, jobLog)

		if outcome == jobOutcomeRetry && attempt < maxDeliveryAttempts {
			jobLog.Warn().Msg("notifier: задача завершилась ошибкой, повторим позже")
			if err := ack(false); err != nil {
				jobLog.Error().Err(err).Msg("notifier: не удалось вернуть задачу после ошибки")
			}
			continue
		}

		if outcome == jobOutcomeRetry {
			jobLog.Error().Msg("notifier: достигнут предел попыток, помечаем задачу как завершённую")
		}

		if err := w.statuses.MarkNotificationDelivered(ctx, job.ID); err != nil {
			jobLog.Error().Err(err).Msg("notifier: не удалось пометить задачу доставленной")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("notifier: не удалось вернуть задачу после ошибки статуса")
			}
			time.Sleep(time.Second)
			continue
		}

		if err := ack(true); err != nil {
			jobLog.Error().Err(err).Msg("notifier: не удалось подтвердить задачу")
		}
	}
}

func (w *jobWorker) handleJob(ctx context.Context, job domain.NotificationJob, jobLog zerolog.Logger) jobOutcome {
	err := w.service.ProcessJob(ctx, job)
	switch {
	case err == nil:
		return jobOutcomeCompleted
	case errors.Is(err, notifyusecase.ErrNoPushToken):
		// Без токена повтор не поможет: партнёр ещё не зарегистрировал устройство.
		jobLog.Info().Msg("notifier: у партнёра нет push-токена, задача завершена")
		return jobOutcomeCompleted
	case errors.Is(err, domain.ErrNotFound):
		jobLog.Warn().Msg("notifier: партнёр не найден, задача завершена")
		return jobOutcomeCompleted
	default:
		jobLog.Error().Err(err).Msg("notifier: не удалось доставить уведомление")
		return jobOutcomeRetry
	}
}
