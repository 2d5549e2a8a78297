package domain

import (
	"context"
	"time"
)

// AnalyticsEvent описывает продуктовое событие, сохраняемое для последующего анализа.
type AnalyticsEvent struct {
	Event      string
	CoupleID   string
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

const (
	// AnalyticsEventCoupleRegistered фиксирует первое обращение пары к расписанию.
	AnalyticsEventCoupleRegistered = "couple_registered"
	// AnalyticsEventContentGenerated фиксирует генерацию ежедневного контента.
	AnalyticsEventContentGenerated = "content_generated"
	// AnalyticsEventResponseSubmitted фиксирует ответ участника.
	AnalyticsEventResponseSubmitted = "response_submitted"
	// AnalyticsEventReportCreated фиксирует жалобу на контент.
	AnalyticsEventReportCreated = "report_created"
	// AnalyticsEventNotificationDelivered фиксирует доставленное push-уведомление.
	AnalyticsEventNotificationDelivered = "notification_delivered"
)

// AnalyticsRepo сохраняет продуктовые события.
type AnalyticsRepo interface {
	RecordAnalyticsEvent(ctx context.Context, event AnalyticsEvent) error
}
