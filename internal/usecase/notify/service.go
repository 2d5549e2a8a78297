package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
)

// ErrNoPushToken возвращается, если у партнёра нет push-токена.
var ErrNoPushToken = errors.New("у партнёра нет push-токена")

const (
	notificationTitle = "💬 Nouvelle réponse"
	previewLimit      = 80
)

// Service доставляет партнёру push-уведомление о новом ответе.
type Service struct {
	users     domain.UserRepo
	sender    domain.PushSender
	analytics domain.AnalyticsRepo
	log       zerolog.Logger
}

// NewService создаёт сервис уведомлений.
func NewService(users domain.UserRepo, sender domain.PushSender, analytics domain.AnalyticsRepo, log zerolog.Logger) *Service {
	return &Service{users: users, sender: sender, analytics: analytics, log: log}
}

// ProcessJob находит партнёра отправителя и шлёт ему уведомление.
// Недействительный токен удаляется у пользователя, задача при этом
// считается обработанной.
func (s *Service) ProcessJob(ctx context.Context, job domain.NotificationJob) error {
	partnerID, ok := domain.PartnerOf(job.CoupleID, job.SenderID)
	if !ok {
		return fmt.Errorf("отправитель %s не состоит в паре %s", job.SenderID, job.CoupleID)
	}

	partner, err := s.users.GetUser(ctx, partnerID)
	if err != nil {
		return fmt.Errorf("чтение партнёра: %w", err)
	}
	if partner.PushToken == "" {
		return ErrNoPushToken
	}

	body := fmt.Sprintf("%s a répondu", job.SenderName)
	err = s.sender.Send(ctx, partner.PushToken, notificationTitle, body, map[string]string{
		"type":       "partner_response",
		"content_id": job.ContentID,
		"sender_id":  job.SenderID,
		"preview":    preview(job.Text),
	})
	if errors.Is(err, domain.ErrPushTokenInvalid) {
		if clearErr := s.users.ClearPushToken(ctx, partnerID); clearErr != nil {
			s.log.Error().Err(clearErr).Str("user_id", partnerID).Msg("notify: не удалось удалить недействительный токен")
		} else {
			metrics.PushTokensPruned.Inc()
		}
		// Повтор с тем же токеном бессмыслен.
		return nil
	}
	if err != nil {
		metrics.PushSendErrors.Inc()
		return fmt.Errorf("отправка уведомления: %w", err)
	}

	if s.analytics != nil {
		recErr := s.analytics.RecordAnalyticsEvent(ctx, domain.AnalyticsEvent{
			Event:      domain.AnalyticsEventNotificationDelivered,
			CoupleID:   job.CoupleID,
			UserID:     partnerID,
			Metadata:   map[string]any{"content_id": job.ContentID, "job_id": job.ID},
			OccurredAt: time.Now().UTC(),
		})
		if recErr != nil {
			s.log.Warn().Err(recErr).Msg("notify: событие аналитики не записано")
		}
	}
	return nil
}

// preview усечённый текст ответа для полезной нагрузки уведомления.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "…"
}
