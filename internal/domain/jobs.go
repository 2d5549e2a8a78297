package domain

import (
	"context"
	"time"
)

// NotificationJob описывает задачу на уведомление партнёра о новом ответе.
type NotificationJob struct {
	ID          string    `json:"job_id"`
	ContentID   string    `json:"content_id"`
	CoupleID    string    `json:"couple_id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	Text        string    `json:"text"`
	RequestedAt time.Time `json:"requested_at"`
}

// NotificationQueue описывает очередь задач на уведомления.
type NotificationQueue interface {
	Enqueue(ctx context.Context, job NotificationJob) error
	Receive(ctx context.Context) (NotificationJob, NotificationAckFunc, error)
}

// NotificationAckFunc подтверждает обработку или возвращает задачу в очередь.
type NotificationAckFunc func(success bool) error

// NotificationStatusRepo отслеживает статус доставки задач уведомлений.
type NotificationStatusRepo interface {
	// EnsureNotificationJob регистрирует попытку обработки и возвращает признак
	// доставленности и номер текущей попытки.
	EnsureNotificationJob(ctx context.Context, jobID string) (delivered bool, attempt int, err error)
	// MarkNotificationDelivered помечает задачу как окончательно доставленную.
	MarkNotificationDelivered(ctx context.Context, jobID string) error
}
