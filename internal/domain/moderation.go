package domain

import (
	"context"
	"time"
)

// ReportStatus описывает состояние жалобы.
type ReportStatus string

const (
	// ReportStatusPending — жалоба ожидает разбора.
	ReportStatusPending ReportStatus = "pending"
	// ReportStatusReviewed — жалоба просмотрена модератором.
	ReportStatusReviewed ReportStatus = "reviewed"
	// ReportStatusResolved — по жалобе приняты меры.
	ReportStatusResolved ReportStatus = "resolved"
	// ReportStatusDismissed — жалоба отклонена.
	ReportStatusDismissed ReportStatus = "dismissed"
)

// ReportSeverity описывает серьёзность жалобы.
type ReportSeverity string

const (
	// ReportSeverityNormal — обычная жалоба.
	ReportSeverityNormal ReportSeverity = "normal"
	// ReportSeverityCritical — текст содержит критическое ключевое слово.
	ReportSeverityCritical ReportSeverity = "critical"
)

// ContentReport — жалоба на сообщение участника.
type ContentReport struct {
	ID               string
	MessageID        string
	ReportedUserID   string
	ReporterID       string
	MessageText      string
	Reason           string
	Status           ReportStatus
	Severity         ReportSeverity
	ModerationAction string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AdminAlert — сигнал для администраторов по критической жалобе.
type AdminAlert struct {
	ID        string
	ReportID  string
	UserID    string
	Message   string
	CreatedAt time.Time
}

// ReportRepo управляет жалобами и счётчиками модерации.
type ReportRepo interface {
	CreateReport(ctx context.Context, report ContentReport) (ContentReport, error)
	ListReports(ctx context.Context, status ReportStatus, limit int) ([]ContentReport, error)
	// IncrementModerationStats увеличивает счётчик жалоб на пользователя.
	IncrementModerationStats(ctx context.Context, userID string) error
	CreateAdminAlert(ctx context.Context, alert AdminAlert) (AdminAlert, error)
}
