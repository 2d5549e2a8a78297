package response

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

// ErrNotMember возвращается, если пользователь не состоит в паре контента.
var ErrNotMember = errors.New("пользователь не состоит в паре")

// ErrEmptyText возвращается при пустом тексте ответа.
var ErrEmptyText = errors.New("текст ответа пуст")

// Service реализует приём и чтение ответов на ежедневный контент.
type Service struct {
	contents  domain.ContentRepo
	responses domain.ResponseRepo
	queue     domain.NotificationQueue
	analytics domain.AnalyticsRepo
	log       zerolog.Logger
}

// NewService создаёт сервис ответов.
func NewService(contents domain.ContentRepo, responses domain.ResponseRepo, queue domain.NotificationQueue, analytics domain.AnalyticsRepo, log zerolog.Logger) *Service {
	return &Service{contents: contents, responses: responses, queue: queue, analytics: analytics, log: log}
}

// Submit сохраняет ответ участника, активирует контент и ставит в очередь
// уведомление партнёру. Сбой очереди не отменяет уже принятый ответ.
func (s *Service) Submit(ctx context.Context, userID, userName, contentID, text string) (domain.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Response{}, ErrEmptyText
	}

	content, err := s.contents.GetContent(ctx, contentID)
	if err != nil {
		return domain.Response{}, fmt.Errorf("чтение контента: %w", err)
	}
	if !domain.IsCoupleMember(content.CoupleID, userID) {
		return domain.Response{}, ErrNotMember
	}

	now := time.Now().UTC()
	saved, _, err := s.responses.CreateResponse(ctx, domain.Response{
		ID:          uuid.NewString(),
		ContentID:   contentID,
		UserID:      userID,
		UserName:    userName,
		Text:        text,
		Status:      domain.ResponseStatusAnswered,
		RespondedAt: now,
	})
	if err != nil {
		return domain.Response{}, fmt.Errorf("сохранение ответа: %w", err)
	}
	metrics.ResponsesSubmitted.Inc()

	// Контент активирует первый ответ; повторные ответы статус не трогают.
	count, err := s.responses.CountResponses(ctx, contentID)
	if err != nil || count <= 1 {
		if err := s.contents.MarkContentActive(ctx, contentID); err != nil {
			s.log.Warn().Err(err).Str("content_id", contentID).Msg("response: не удалось активировать контент")
		}
	}

	if s.queue != nil {
		job := domain.NotificationJob{
			ID:          uuid.NewString(),
			ContentID:   contentID,
			CoupleID:    content.CoupleID,
			SenderID:    userID,
			SenderName:  userName,
			Text:        text,
			RequestedAt: now,
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.log.Error().Err(err).Str("content_id", contentID).Msg("response: уведомление не поставлено в очередь")
		}
	}

	s.recordEvent(ctx, domain.AnalyticsEvent{
		Event:      domain.AnalyticsEventResponseSubmitted,
		CoupleID:   content.CoupleID,
		UserID:     userID,
		Metadata:   map[string]any{"content_id": contentID, "content_type": string(content.ContentType)},
		OccurredAt: now,
	})
	return saved, nil
}

// List возвращает ответы по контенту. Доступ только участникам пары.
func (s *Service) List(ctx context.Context, userID, contentID string) ([]domain.Response, error) {
	content, err := s.contents.GetContent(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("чтение контента: %w", err)
	}
	if !domain.IsCoupleMember(content.CoupleID, userID) {
		return nil, ErrNotMember
	}
	return s.responses.ListResponses(ctx, contentID)
}

// MarkRead помечает прочитанными ответы партнёра читающего.
func (s *Service) MarkRead(ctx context.Context, userID, contentID string) error {
	content, err := s.contents.GetContent(ctx, contentID)
	if err != nil {
		return fmt.Errorf("чтение контента: %w", err)
	}
	if !domain.IsCoupleMember(content.CoupleID, userID) {
		return ErrNotMember
	}
	return s.responses.MarkResponsesRead(ctx, contentID, userID)
}

// LegacyResponse — ответ в унаследованном формате: вложенная карта
// user_id -> ответ внутри документа контента.
type LegacyResponse struct {
	UserName    string    `json:"user_name"`
	Text        string    `json:"text"`
	RespondedAt time.Time `json:"responded_at"`
}

// MigrateLegacy переносит ответы из унаследованного формата в отдельные
// записи. Доступ только участникам пары; записи за пользователей вне пары
// пропускаются. Идентификатор строится детерминированно из contentID и
// userID, поэтому повторный запуск миграции не создаёт дубликатов.
func (s *Service) MigrateLegacy(ctx context.Context, callerID, contentID string, legacy map[string]LegacyResponse) (int, error) {
	content, err := s.contents.GetContent(ctx, contentID)
	if err != nil {
		return 0, fmt.Errorf("чтение контента: %w", err)
	}
	if !domain.IsCoupleMember(content.CoupleID, callerID) {
		return 0, ErrNotMember
	}

	migrated := 0
	for userID, old := range legacy {
		text := strings.TrimSpace(old.Text)
		if userID == "" || text == "" {
			continue
		}
		if !domain.IsCoupleMember(content.CoupleID, userID) {
			s.log.Warn().Str("content_id", contentID).Str("user_id", userID).Msg("response: ответ пользователя вне пары пропущен при миграции")
			continue
		}
		respondedAt := old.RespondedAt
		if respondedAt.IsZero() {
			respondedAt = time.Now().UTC()
		}
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(contentID+"/"+userID)).String()
		_, created, err := s.responses.CreateResponse(ctx, domain.Response{
			ID:          id,
			ContentID:   contentID,
			UserID:      userID,
			UserName:    old.UserName,
			Text:        text,
			Status:      domain.ResponseStatusAnswered,
			RespondedAt: respondedAt,
		})
		if err != nil {
			return migrated, fmt.Errorf("перенос ответа %s: %w", userID, err)
		}
		if created {
			migrated++
		}
	}
	return migrated, nil
}

func (s *Service) recordEvent(ctx context.Context, event domain.AnalyticsEvent) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.RecordAnalyticsEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", event.Event).Msg("response: событие аналитики не записано")
	}
}
