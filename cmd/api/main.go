package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"couples-daily-backend/internal/adapters/repo"
	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/cache"
	"couples-daily-backend/internal/infra/config"
	"couples-daily-backend/internal/infra/db"
	httpinfra "couples-daily-backend/internal/infra/http"
	applog "couples-daily-backend/internal/infra/log"
	"couples-daily-backend/internal/infra/metrics"
	"couples-daily-backend/internal/infra/queue"
	contentusecase "couples-daily-backend/internal/usecase/content"
	moderationusecase "couples-daily-backend/internal/usecase/moderation"
	responseusecase "couples-daily-backend/internal/usecase/response"
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
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("api: не указан адрес Redis (REDIS_ADDR)")
	}
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	rateCache := cache.NewRedis(redisClient)

	var notifications domain.NotificationQueue
	if cfg.RabbitURL != "" {
		rabbit, err := queue.NewRabbitNotificationQueue(cfg.RabbitURL, cfg.Queues.Notifications)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось инициализировать очередь RabbitMQ")
		}
		defer rabbit.Close()
		notifications = rabbit
	} else {
		logger.Warn().Msg("api: RabbitMQ не настроен, очередь уведомлений работает через Redis")
		notifications = queue.NewRedisNotificationQueue(redisClient, cfg.Queues.Notifications)
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось инициализировать Firebase")
	}
	authClient, err := fbApp.Auth(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось создать клиент Firebase Auth")
	}

	contentService := contentusecase.NewService(repoAdapter, repoAdapter, repoAdapter, cfg.Schedule.DefaultTimezone, logger.With().Str("component", "content").Logger())
	responseService := responseusecase.NewService(repoAdapter, repoAdapter, notifications, repoAdapter, logger.With().Str("component", "response").Logger())
	moderationService := moderationusecase.NewService(repoAdapter, repoAdapter, cfg.Limits.ReportsMax, logger.With().Str("component", "moderation").Logger())

	h := &handlers{
		users:      repoAdapter,
		content:    contentService,
		responses:  responseService,
		moderation: moderationService,
		limiter:    httpinfra.NewGenerateLimiter(rateCache, cfg.Limits.GenerateWindow),
	}

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	server.Router.Group(func(protected chi.Router) {
		protected.Use(httpinfra.FirebaseAuthMiddleware(authClient))

		protected.Post("/api/v1/daily/{type}/generate", h.generateDaily)
		protected.Get("/api/v1/daily/{type}/settings", h.getSettings)
		protected.Post("/api/v1/content/{id}/responses", h.submitResponse)
		protected.Get("/api/v1/content/{id}/responses", h.listResponses)
		protected.Post("/api/v1/content/{id}/responses/read", h.markResponsesRead)
		protected.Post("/api/v1/content/{id}/responses/migrate", h.migrateResponses)
		protected.Post("/api/v1/reports", h.createReport)
		protected.Get("/api/v1/reports", h.listReports)
		protected.Put("/api/v1/users/me", h.upsertProfile)
	})

	go func() {
		<-ctx.Done()
		logger.Info().Msg("api: получен сигнал остановки")
	}()

	if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("api: сервер остановлен с ошибкой")
	}
}

type handlers struct {
	users      domain.UserRepo
	content    *contentusecase.Service
	responses  *responseusecase.Service
	moderation *moderationusecase.Service
	limiter    *httpinfra.GenerateLimiter
}

func contentTypeFromPath(r *http.Request) (domain.ContentType, bool) {
	switch chi.URLParam(r, "type") {
	case "question":
		return domain.ContentTypeQuestion, true
	case "challenge":
		return domain.ContentTypeChallenge, true
	}
	return "", false
}

// writeUsecaseError транслирует ошибки бизнес-логики в коды HTTP,
// не раскрывая внутренних деталей.
func writeUsecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpinfra.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, responseusecase.ErrNotMember):
		httpinfra.WriteError(w, http.StatusForbidden, "not a couple member")
	case errors.Is(err, contentusecase.ErrInvalidCoupleID),
		errors.Is(err, responseusecase.ErrEmptyText),
		errors.Is(err, moderationusecase.ErrSelfReport),
		errors.Is(err, moderationusecase.ErrMissingField):
		httpinfra.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		httpinfra.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

type generateRequest struct {
	CoupleID string `json:"couple_id"`
	Timezone string `json:"timezone"`
	Day      int    `json:"day"`
}

func (h *handlers) generateDaily(w http.ResponseWriter, r *http.Request) {
	contentType, ok := contentTypeFromPath(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusBadRequest, "unknown content type")
		return
	}
	defer r.Body.Close()
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.IsCoupleMember(req.CoupleID, httpinfra.UserID(r)) {
		httpinfra.WriteError(w, http.StatusForbidden, "not a couple member")
		return
	}
	now := nowUTC()
	if !h.limiter.Allow(req.CoupleID, contentType, domain.DateString(now)) {
		httpinfra.WriteError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	result, err := h.content.Generate(r.Context(), req.CoupleID, contentType, req.Timezone, req.Day, now)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
		"content":        contentPayload(result.Content),
		"already_exists": result.AlreadyExists,
	})
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	contentType, ok := contentTypeFromPath(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusBadRequest, "unknown content type")
		return
	}
	coupleID := r.URL.Query().Get("couple_id")
	if !domain.IsCoupleMember(coupleID, httpinfra.UserID(r)) {
		httpinfra.WriteError(w, http.StatusForbidden, "not a couple member")
		return
	}
	settings, err := h.content.GetOrCreateSettings(r.Context(), coupleID, contentType, r.URL.Query().Get("tz"), nowUTC())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
		"couple_id":           settings.CoupleID,
		"content_type":        settings.ContentType,
		"start_date":          domain.DateString(settings.StartDate),
		"timezone":            settings.Timezone,
		"current_day":         settings.CurrentDay,
		"next_scheduled_date": settings.NextScheduledDate,
	})
}

type submitRequest struct {
	UserName string `json:"user_name"`
	Text     string `json:"text"`
}

func (h *handlers) submitResponse(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := h.responses.Submit(r.Context(), httpinfra.UserID(r), req.UserName, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, responsePayload(saved))
}

func (h *handlers) listResponses(w http.ResponseWriter, r *http.Request) {
	list, err := h.responses.List(r.Context(), httpinfra.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(list))
	for _, item := range list {
		payload = append(payload, responsePayload(item))
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"responses": payload})
}

func (h *handlers) markResponsesRead(w http.ResponseWriter, r *http.Request) {
	if err := h.responses.MarkRead(r.Context(), httpinfra.UserID(r), chi.URLParam(r, "id")); err != nil {
		writeUsecaseError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type migrateRequest struct {
	Responses map[string]responseusecase.LegacyResponse `json:"responses"`
}

func (h *handlers) migrateResponses(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	migrated, err := h.responses.MigrateLegacy(r.Context(), httpinfra.UserID(r), chi.URLParam(r, "id"), req.Responses)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]int{"migrated": migrated})
}

type reportRequest struct {
	MessageID      string `json:"message_id"`
	ReportedUserID string `json:"reported_user_id"`
	MessageText    string `json:"message_text"`
	Reason         string `json:"reason"`
}

func (h *handlers) createReport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report, err := h.moderation.Report(r.Context(), httpinfra.UserID(r), moderationusecase.ReportInput{
		MessageID:      req.MessageID,
		ReportedUserID: req.ReportedUserID,
		MessageText:    req.MessageText,
		Reason:         req.Reason,
	})
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, map[string]any{
		"report_id": report.ID,
		"status":    report.Status,
		"severity":  report.Severity,
	})
}

func (h *handlers) listReports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := domain.ReportStatus(r.URL.Query().Get("status"))
	reports, err := h.moderation.ListReports(r.Context(), status, limit)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(reports))
	for _, report := range reports {
		payload = append(payload, map[string]any{
			"report_id":         report.ID,
			"message_id":        report.MessageID,
			"reported_user_id":  report.ReportedUserID,
			"reporter_id":       report.ReporterID,
			"reason":            report.Reason,
			"status":            report.Status,
			"severity":          report.Severity,
			"moderation_action": report.ModerationAction,
			"created_at":        report.CreatedAt,
		})
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"reports": payload})
}

type profileRequest struct {
	Name      string `json:"name"`
	CoupleID  string `json:"couple_id"`
	PushToken string `json:"push_token"`
}

func (h *handlers) upsertProfile(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	uid := httpinfra.UserID(r)
	if req.CoupleID != "" && !domain.IsCoupleMember(req.CoupleID, uid) {
		httpinfra.WriteError(w, http.StatusForbidden, "not a couple member")
		return
	}
	user, err := h.users.UpsertUser(r.Context(), domain.User{
		ID:       uid,
		Name:     req.Name,
		CoupleID: req.CoupleID,
	})
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	if req.PushToken != "" {
		if err := h.users.UpdatePushToken(r.Context(), uid, req.PushToken); err != nil {
			writeUsecaseError(w, err)
			return
		}
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":   user.ID,
		"name":      user.Name,
		"couple_id": user.CoupleID,
	})
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func contentPayload(content domain.DailyContent) map[string]any {
	return map[string]any{
		"id":             content.ID,
		"couple_id":      content.CoupleID,
		"content_type":   content.ContentType,
		"content_key":    content.ContentKey,
		"content_day":    content.ContentDay,
		"scheduled_date": content.ScheduledDate,
		"status":         content.Status,
	}
}

func responsePayload(response domain.Response) map[string]any {
	return map[string]any{
		"id":                 response.ID,
		"content_id":         response.ContentID,
		"user_id":            response.UserID,
		"user_name":          response.UserName,
		"text":               response.Text,
		"status":             response.Status,
		"is_read_by_partner": response.IsReadByPartner,
		"responded_at":       response.RespondedAt,
	}
}
