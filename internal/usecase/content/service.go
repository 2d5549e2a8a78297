package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
)

// ErrInvalidCoupleID возвращается, если идентификатор пары не составлен из двух uid.
var ErrInvalidCoupleID = errors.New("некорректный идентификатор пары")

// Service реализует расписание пары и генерацию ежедневного контента.
type Service struct {
	settings  domain.SettingsRepo
	contents  domain.ContentRepo
	analytics domain.AnalyticsRepo

	defaultTimezone string
	log             zerolog.Logger
}

// NewService создаёт сервис ежедневного контента.
func NewService(settings domain.SettingsRepo, contents domain.ContentRepo, analytics domain.AnalyticsRepo, defaultTimezone string, log zerolog.Logger) *Service {
	return &Service{settings: settings, contents: contents, analytics: analytics, defaultTimezone: defaultTimezone, log: log}
}

// Result описывает исход генерации.
type Result struct {
	Content       domain.DailyContent
	AlreadyExists bool
}

// GetOrCreateSettings возвращает расписание пары, создавая запись при первом
// обращении. Отсутствующая следующая дата генерации дозаполняется завтрашним днём.
func (s *Service) GetOrCreateSettings(ctx context.Context, coupleID string, contentType domain.ContentType, timezone string, now time.Time) (domain.CoupleSettings, error) {
	if _, _, ok := domain.CoupleMembers(coupleID); !ok {
		return domain.CoupleSettings{}, ErrInvalidCoupleID
	}

	existing, err := s.settings.GetSettings(ctx, coupleID, contentType)
	if err == nil {
		if existing.NextScheduledDate == "" {
			next := domain.DateString(now.AddDate(0, 0, 1))
			if err := s.settings.UpdateNextScheduledDate(ctx, coupleID, contentType, next); err != nil {
				return domain.CoupleSettings{}, fmt.Errorf("дозаполнение следующей даты: %w", err)
			}
			existing.NextScheduledDate = next
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.CoupleSettings{}, fmt.Errorf("чтение расписания: %w", err)
	}

	if timezone == "" {
		timezone = s.defaultTimezone
	}
	settings := domain.CoupleSettings{
		CoupleID:          coupleID,
		ContentType:       contentType,
		StartDate:         domain.UTCMidnight(now),
		Timezone:          timezone,
		CurrentDay:        1,
		NextScheduledDate: domain.DateString(now.AddDate(0, 0, 1)),
	}
	saved, created, err := s.settings.CreateSettings(ctx, settings)
	if err != nil {
		return domain.CoupleSettings{}, fmt.Errorf("создание расписания: %w", err)
	}
	if created {
		s.recordEvent(ctx, domain.AnalyticsEventCoupleRegistered, coupleID, "", map[string]any{
			"content_type": string(contentType),
			"timezone":     timezone,
		}, now)
	}
	return saved, nil
}

// Generate создаёт контент пары на сегодняшнюю дату. Операция идемпотентна:
// повторный вызов возвращает существующую запись с признаком AlreadyExists.
// Если explicitDay больше нуля, он имеет приоритет над расчётом по дате старта.
func (s *Service) Generate(ctx context.Context, coupleID string, contentType domain.ContentType, timezone string, explicitDay int, now time.Time) (Result, error) {
	settings, err := s.GetOrCreateSettings(ctx, coupleID, contentType, timezone, now)
	if err != nil {
		return Result{}, err
	}

	s.cleanupPrevious(ctx, coupleID, contentType, now)

	day := explicitDay
	if day <= 0 {
		day = domain.ContentDay(settings.StartDate, now)
	}
	date := domain.DateString(now)
	content := domain.DailyContent{
		ID:            domain.ContentID(coupleID, contentType, date),
		CoupleID:      coupleID,
		ContentType:   contentType,
		ContentKey:    domain.ContentKey(contentType, day),
		ContentDay:    domain.CycleDay(day, domain.CatalogSize(contentType)),
		ScheduledDate: date,
		Status:        domain.ContentStatusPending,
	}
	saved, created, err := s.contents.CreateContent(ctx, content)
	if err != nil {
		return Result{}, fmt.Errorf("создание контента: %w", err)
	}
	if !created {
		metrics.ContentDuplicates.WithLabelValues(string(contentType)).Inc()
		return Result{Content: saved, AlreadyExists: true}, nil
	}
	metrics.ContentGenerated.WithLabelValues(string(contentType)).Inc()
	s.recordEvent(ctx, domain.AnalyticsEventContentGenerated, coupleID, "", map[string]any{
		"content_type": string(contentType),
		"content_key":  saved.ContentKey,
		"content_day":  saved.ContentDay,
		"date":         date,
	}, now)
	return Result{Content: saved}, nil
}

// cleanupPrevious удаляет вчерашний контент пары вместе с ответами. Ошибки
// удаления логируются и не прерывают генерацию.
func (s *Service) cleanupPrevious(ctx context.Context, coupleID string, contentType domain.ContentType, now time.Time) {
	yesterdayID := domain.ContentID(coupleID, contentType, domain.DateString(now.AddDate(0, 0, -1)))
	err := s.contents.DeleteContentWithResponses(ctx, yesterdayID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		metrics.CleanupErrors.Inc()
		s.log.Error().Err(err).Str("content_id", yesterdayID).Msg("content: не удалось удалить вчерашний контент")
	}
}

func (s *Service) recordEvent(ctx context.Context, event, coupleID, userID string, metadata map[string]any, now time.Time) {
	if s.analytics == nil {
		return
	}
	err := s.analytics.RecordAnalyticsEvent(ctx, domain.AnalyticsEvent{
		Event:      event,
		CoupleID:   coupleID,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: now,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("content: событие аналитики не записано")
	}
}
