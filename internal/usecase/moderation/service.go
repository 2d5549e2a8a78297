package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
)

// ErrSelfReport возвращается при попытке пожаловаться на самого себя.
var ErrSelfReport = errors.New("жалоба на самого себя запрещена")

// ErrMissingField возвращается, если в жалобе не заполнено обязательное поле.
var ErrMissingField = errors.New("не заполнено обязательное поле жалобы")

// criticalKeywords помечают жалобу критической: по ней дополнительно
// создаётся сигнал администраторам.
var criticalKeywords = []string{
	"suicide",
	"self-harm",
	"kill",
	"abuse",
	"violence",
	"threat",
}

const defaultReportsLimit = 50

// Service реализует жалобы на контент и модерацию.
type Service struct {
	reports    domain.ReportRepo
	analytics  domain.AnalyticsRepo
	maxReports int
	log        zerolog.Logger
}

// NewService создаёт сервис модерации.
func NewService(reports domain.ReportRepo, analytics domain.AnalyticsRepo, maxReports int, log zerolog.Logger) *Service {
	if maxReports <= 0 {
		maxReports = defaultReportsLimit
	}
	return &Service{reports: reports, analytics: analytics, maxReports: maxReports, log: log}
}

// ReportInput — данные жалобы от клиента.
type ReportInput struct {
	MessageID      string
	ReportedUserID string
	MessageText    string
	Reason         string
}

// Report сохраняет жалобу, обновляет счётчик жалоб на пользователя и при
// критических ключевых словах создаёт сигнал администраторам.
func (s *Service) Report(ctx context.Context, reporterID string, in ReportInput) (domain.ContentReport, error) {
	if in.MessageID == "" || in.ReportedUserID == "" || strings.TrimSpace(in.Reason) == "" {
		return domain.ContentReport{}, ErrMissingField
	}
	if reporterID == in.ReportedUserID {
		return domain.ContentReport{}, ErrSelfReport
	}

	severity := domain.ReportSeverityNormal
	if isCritical(in.MessageText) || isCritical(in.Reason) {
		severity = domain.ReportSeverityCritical
	}

	report := domain.ContentReport{
		ID:             uuid.NewString(),
		MessageID:      in.MessageID,
		ReportedUserID: in.ReportedUserID,
		ReporterID:     reporterID,
		MessageText:    in.MessageText,
		Reason:         strings.TrimSpace(in.Reason),
		Status:         domain.ReportStatusPending,
		Severity:       severity,
	}
	saved, err := s.reports.CreateReport(ctx, report)
	if err != nil {
		return domain.ContentReport{}, fmt.Errorf("сохранение жалобы: %w", err)
	}
	metrics.ReportsCreated.WithLabelValues(string(severity)).Inc()

	if err := s.reports.IncrementModerationStats(ctx, in.ReportedUserID); err != nil {
		s.log.Warn().Err(err).Str("user_id", in.ReportedUserID).Msg("moderation: счётчик жалоб не обновлён")
	}

	if severity == domain.ReportSeverityCritical {
		_, err := s.reports.CreateAdminAlert(ctx, domain.AdminAlert{
			ID:       uuid.NewString(),
			ReportID: saved.ID,
			UserID:   in.ReportedUserID,
			Message:  fmt.Sprintf("критическая жалоба на пользователя %s: %s", in.ReportedUserID, saved.Reason),
		})
		if err != nil {
			s.log.Error().Err(err).Str("report_id", saved.ID).Msg("moderation: сигнал администраторам не создан")
		}
	}

	if s.analytics != nil {
		err := s.analytics.RecordAnalyticsEvent(ctx, domain.AnalyticsEvent{
			Event:      domain.AnalyticsEventReportCreated,
			UserID:     reporterID,
			Metadata:   map[string]any{"report_id": saved.ID, "severity": string(severity)},
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("moderation: событие аналитики не записано")
		}
	}
	return saved, nil
}

// ListReports возвращает жалобы в указанном статусе. Пустой статус означает
// необработанные жалобы; лимит сверху ограничен настройкой сервиса.
func (s *Service) ListReports(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.ContentReport, error) {
	if status == "" {
		status = domain.ReportStatusPending
	}
	if limit <= 0 || limit > s.maxReports {
		limit = s.maxReports
	}
	return s.reports.ListReports(ctx, status, limit)
}

func isCritical(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range criticalKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
