package push

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
)

// FCMSender отправляет push-уведомления через Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

var _ domain.PushSender = (*FCMSender)(nil)

// NewFCMSender инициализирует Firebase-приложение и messaging-клиент.
func NewFCMSender(ctx context.Context, projectID, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

// Send доставляет уведомление на токен. Недействительный токен транслируется
// в domain.ErrPushTokenInvalid, чтобы вызывающий мог удалить его у пользователя.
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return domain.ErrPushTokenInvalid
	}
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	start := time.Now()
	_, err := s.client.Send(ctx, msg)
	metrics.ObserveNetworkRequest("fcm", "send", "messaging", start, err)
	if err == nil {
		return nil
	}
	if messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err) {
		return fmt.Errorf("%w: %v", domain.ErrPushTokenInvalid, err)
	}
	return fmt.Errorf("send push: %w", err)
}
