package repo

import (
	"context"
	"time"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
)

// CreateReport сохраняет жалобу на контент.
func (p *Postgres) CreateReport(ctx context.Context, report domain.ContentReport) (domain.ContentReport, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var saved domain.ContentReport
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO content_reports (id, message_id, reported_user_id, reporter_id, message_text, reason, status, severity, moderation_action)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, message_id, reported_user_id, reporter_id, message_text, reason, status, severity, moderation_action, created_at, updated_at
`, report.ID, report.MessageID, report.ReportedUserID, report.ReporterID, report.MessageText, report.Reason, report.Status, report.Severity, report.ModerationAction).
		Scan(&saved.ID, &saved.MessageID, &saved.ReportedUserID, &saved.ReporterID, &saved.MessageText, &saved.Reason, &saved.Status, &saved.Severity, &saved.ModerationAction, &saved.CreatedAt, &saved.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "reports_create", "content_reports", start, err)
	if err != nil {
		return domain.ContentReport{}, err
	}
	return saved, nil
}

// ListReports возвращает жалобы в указанном статусе, свежие первыми.
func (p *Postgres) ListReports(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.ContentReport, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, message_id, reported_user_id, reporter_id, message_text, reason, status, severity, moderation_action, created_at, updated_at
FROM content_reports
WHERE status=$1
ORDER BY created_at DESC
LIMIT $2
`, status, limit)
	metrics.ObserveNetworkRequest("postgres", "reports_list", "content_reports", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []domain.ContentReport
	for rows.Next() {
		var r domain.ContentReport
		if err := rows.Scan(&r.ID, &r.MessageID, &r.ReportedUserID, &r.ReporterID, &r.MessageText, &r.Reason, &r.Status, &r.Severity, &r.ModerationAction, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// IncrementModerationStats увеличивает счётчик жалоб на пользователя.
func (p *Postgres) IncrementModerationStats(ctx context.Context, userID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO user_moderation_stats (user_id, reports_count, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (user_id) DO UPDATE
    SET reports_count = user_moderation_stats.reports_count + 1,
        updated_at = now()
`, userID)
	metrics.ObserveNetworkRequest("postgres", "moderation_stats_increment", "user_moderation_stats", start, err)
	return err
}

// CreateAdminAlert сохраняет сигнал администраторам по критической жалобе.
func (p *Postgres) CreateAdminAlert(ctx context.Context, alert domain.AdminAlert) (domain.AdminAlert, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var saved domain.AdminAlert
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO admin_alerts (id, report_id, user_id, message)
VALUES ($1, $2, $3, $4)
RETURNING id, report_id, user_id, message, created_at
`, alert.ID, alert.ReportID, alert.UserID, alert.Message).
		Scan(&saved.ID, &saved.ReportID, &saved.UserID, &saved.Message, &saved.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "admin_alerts_create", "admin_alerts", start, err)
	if err != nil {
		return domain.AdminAlert{}, err
	}
	return saved, nil
}
