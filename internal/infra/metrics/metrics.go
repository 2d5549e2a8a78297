package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ContentGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "daily_content_generated_total",
		Help: "Сгенерированный ежедневный контент по типам",
	}, []string{"content_type"})
	ContentDuplicates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "daily_content_duplicates_total",
		Help: "Повторные запросы генерации, вернувшие существующий контент",
	}, []string{"content_type"})
	CleanupErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retention_cleanup_errors_total",
		Help: "Ошибки удаления вчерашнего контента",
	})
	SchedulerRunSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_run_seconds",
		Help:    "Длительность почасового прохода планировщика",
		Buckets: prometheus.DefBuckets,
	})
	SchedulerCouples = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_couples_total",
		Help: "Результаты обработки пар планировщиком",
	}, []string{"outcome"})
	PushSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_send_errors_total",
		Help: "Ошибки отправки push-уведомлений",
	})
	PushTokensPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_tokens_pruned_total",
		Help: "Удалённые недействительные push-токены",
	})
	ResponsesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "responses_submitted_total",
		Help: "Принятые ответы участников",
	})
	ReportsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_reports_total",
		Help: "Жалобы на контент по серьёзности",
	}, []string{"severity"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ContentGenerated,
		ContentDuplicates,
		CleanupErrors,
		SchedulerRunSeconds,
		SchedulerCouples,
		PushSendErrors,
		PushTokensPruned,
		ResponsesSubmitted,
		ReportsCreated,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
