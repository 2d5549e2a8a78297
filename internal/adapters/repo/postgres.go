package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
)

const dateLayout = "2006-01-02"

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.SettingsRepo           = (*Postgres)(nil)
	_ domain.ContentRepo            = (*Postgres)(nil)
	_ domain.ResponseRepo           = (*Postgres)(nil)
	_ domain.UserRepo               = (*Postgres)(nil)
	_ domain.ReportRepo             = (*Postgres)(nil)
	_ domain.AnalyticsRepo          = (*Postgres)(nil)
	_ domain.NotificationStatusRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// GetSettings возвращает запись расписания пары.
func (p *Postgres) GetSettings(ctx context.Context, coupleID string, contentType domain.ContentType) (domain.CoupleSettings, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		s        domain.CoupleSettings
		nextDate sql.NullTime
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT couple_id, content_type, start_date, tz, current_day, next_scheduled_date, created_at, updated_at
FROM couple_content_settings WHERE couple_id=$1 AND content_type=$2
`, coupleID, contentType).Scan(&s.CoupleID, &s.ContentType, &s.StartDate, &s.Timezone, &s.CurrentDay, &nextDate, &s.CreatedAt, &s.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "settings_get", "couple_content_settings", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CoupleSettings{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CoupleSettings{}, err
	}
	if nextDate.Valid {
		s.NextScheduledDate = nextDate.Time.Format(dateLayout)
	}
	return s, nil
}

// CreateSettings вставляет запись расписания, если её ещё нет.
// Возвращает актуальную версию и признак фактической вставки.
func (p *Postgres) CreateSettings(ctx context.Context, settings domain.CoupleSettings) (domain.CoupleSettings, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var nextDateArg any
	if settings.NextScheduledDate != "" {
		nextDateArg = settings.NextScheduledDate
	}

	var (
		saved    domain.CoupleSettings
		nextDate sql.NullTime
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO couple_content_settings (couple_id, content_type, start_date, tz, current_day, next_scheduled_date)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (couple_id, content_type) DO NOTHING
RETURNING couple_id, content_type, start_date, tz, current_day, next_scheduled_date, created_at, updated_at
`, settings.CoupleID, settings.ContentType, settings.StartDate, settings.Timezone, settings.CurrentDay, nextDateArg).
		Scan(&saved.CoupleID, &saved.ContentType, &saved.StartDate, &saved.Timezone, &saved.CurrentDay, &nextDate, &saved.CreatedAt, &saved.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "settings_create", "couple_content_settings", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := p.GetSettings(ctx, settings.CoupleID, settings.ContentType)
		return existing, false, getErr
	}
	if err != nil {
		return domain.CoupleSettings{}, false, err
	}
	if nextDate.Valid {
		saved.NextScheduledDate = nextDate.Time.Format(dateLayout)
	}
	return saved, true, nil
}

// UpdateNextScheduledDate дозаполняет дату следующей генерации у легаси-записей.
func (p *Postgres) UpdateNextScheduledDate(ctx context.Context, coupleID string, contentType domain.ContentType, nextDate string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE couple_content_settings SET next_scheduled_date=$3, updated_at=now()
WHERE couple_id=$1 AND content_type=$2
`, coupleID, contentType, nextDate)
	metrics.ObserveNetworkRequest("postgres", "settings_backfill_next_date", "couple_content_settings", start, err)
	return err
}

// AdvanceSettings фиксирует сгенерированный день и следующую дату генерации.
func (p *Postgres) AdvanceSettings(ctx context.Context, coupleID string, contentType domain.ContentType, currentDay int, nextDate string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE couple_content_settings SET current_day=$3, next_scheduled_date=$4, updated_at=now()
WHERE couple_id=$1 AND content_type=$2
`, coupleID, contentType, currentDay, nextDate)
	metrics.ObserveNetworkRequest("postgres", "settings_advance", "couple_content_settings", start, err)
	return err
}

// ListDueSettings возвращает пары из указанных часовых поясов, ожидающие генерации.
func (p *Postgres) ListDueSettings(ctx context.Context, contentType domain.ContentType, timezones []string, dueDate string) ([]domain.CoupleSettings, error) {
	if len(timezones) == 0 {
		return nil, nil
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT couple_id, content_type, start_date, tz, current_day, next_scheduled_date, created_at, updated_at
FROM couple_content_settings
WHERE content_type=$1 AND tz = ANY($2) AND (next_scheduled_date IS NULL OR next_scheduled_date <= $3)
`, contentType, timezones, dueDate)
	metrics.ObserveNetworkRequest("postgres", "settings_list_due", "couple_content_settings", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.CoupleSettings
	for rows.Next() {
		var (
			s        domain.CoupleSettings
			nextDate sql.NullTime
		)
		if err := rows.Scan(&s.CoupleID, &s.ContentType, &s.StartDate, &s.Timezone, &s.CurrentDay, &nextDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if nextDate.Valid {
			s.NextScheduledDate = nextDate.Time.Format(dateLayout)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// CreateContent вставляет контент, если его ещё нет: идемпотентность обеспечивает
// естественный ключ и ON CONFLICT DO NOTHING вместо проверки перед записью.
func (p *Postgres) CreateContent(ctx context.Context, content domain.DailyContent) (domain.DailyContent, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var saved domain.DailyContent
	var scheduled time.Time
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO daily_content (id, couple_id, content_type, content_key, content_day, scheduled_date, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING
RETURNING id, couple_id, content_type, content_key, content_day, scheduled_date, status, created_at, updated_at
`, content.ID, content.CoupleID, content.ContentType, content.ContentKey, content.ContentDay, content.ScheduledDate, content.Status).
		Scan(&saved.ID, &saved.CoupleID, &saved.ContentType, &saved.ContentKey, &saved.ContentDay, &scheduled, &saved.Status, &saved.CreatedAt, &saved.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "content_create", "daily_content", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := p.GetContent(ctx, content.ID)
		return existing, false, getErr
	}
	if err != nil {
		return domain.DailyContent{}, false, err
	}
	saved.ScheduledDate = scheduled.Format(dateLayout)
	return saved, true, nil
}

// GetContent возвращает контент по id.
func (p *Postgres) GetContent(ctx context.Context, contentID string) (domain.DailyContent, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var c domain.DailyContent
	var scheduled time.Time
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, couple_id, content_type, content_key, content_day, scheduled_date, status, created_at, updated_at
FROM daily_content WHERE id=$1
`, contentID).Scan(&c.ID, &c.CoupleID, &c.ContentType, &c.ContentKey, &c.ContentDay, &scheduled, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "content_get", "daily_content", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DailyContent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DailyContent{}, err
	}
	c.ScheduledDate = scheduled.Format(dateLayout)
	return c, nil
}

// DeleteContentWithResponses удаляет контент и его ответы одной транзакцией.
func (p *Postgres) DeleteContentWithResponses(ctx context.Context, contentID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "daily_content", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM content_responses WHERE content_id=$1`, contentID)
	metrics.ObserveNetworkRequest("postgres", "responses_delete_by_content", "content_responses", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM daily_content WHERE id=$1`, contentID)
	metrics.ObserveNetworkRequest("postgres", "content_delete", "daily_content", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "daily_content", start, err)
	return err
}

// MarkContentActive переводит контент в статус active после первого ответа.
func (p *Postgres) MarkContentActive(ctx context.Context, contentID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE daily_content SET status=$2, updated_at=now() WHERE id=$1
`, contentID, domain.ContentStatusActive)
	metrics.ObserveNetworkRequest("postgres", "content_mark_active", "daily_content", start, err)
	return err
}

// GetUser возвращает участника пары.
func (p *Postgres) GetUser(ctx context.Context, userID string) (domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		u     domain.User
		token sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, name, couple_id, push_token, created_at, updated_at FROM users WHERE id=$1
`, userID).Scan(&u.ID, &u.Name, &u.CoupleID, &token, &u.CreatedAt, &u.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if token.Valid {
		u.PushToken = token.String
	}
	return u, nil
}

// UpsertUser сохраняет участника пары.
func (p *Postgres) UpsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var tokenArg any
	if user.PushToken != "" {
		tokenArg = user.PushToken
	}

	var (
		saved domain.User
		token sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO users (id, name, couple_id, push_token)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, couple_id=EXCLUDED.couple_id,
    push_token=COALESCE(EXCLUDED.push_token, users.push_token), updated_at=now()
RETURNING id, name, couple_id, push_token, created_at, updated_at
`, user.ID, user.Name, user.CoupleID, tokenArg).Scan(&saved.ID, &saved.Name, &saved.CoupleID, &token, &saved.CreatedAt, &saved.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	if err != nil {
		return domain.User{}, err
	}
	if token.Valid {
		saved.PushToken = token.String
	}
	return saved, nil
}

// UpdatePushToken обновляет push-токен участника.
func (p *Postgres) UpdatePushToken(ctx context.Context, userID, token string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE users SET push_token=$2, updated_at=now() WHERE id=$1`, userID, token)
	metrics.ObserveNetworkRequest("postgres", "users_update_push_token", "users", start, err)
	return err
}

// ClearPushToken удаляет недействительный push-токен.
func (p *Postgres) ClearPushToken(ctx context.Context, userID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE users SET push_token=NULL, updated_at=now() WHERE id=$1`, userID)
	metrics.ObserveNetworkRequest("postgres", "users_clear_push_token", "users", start, err)
	return err
}

// RecordAnalyticsEvent сохраняет продуктовое событие.
func (p *Postgres) RecordAnalyticsEvent(ctx context.Context, event domain.AnalyticsEvent) error {
	if event.Event == "" {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var payload []byte
	if event.Metadata != nil {
		if data, err := json.Marshal(event.Metadata); err == nil {
			payload = data
		}
	}

	var coupleID, userID any
	if event.CoupleID != "" {
		coupleID = event.CoupleID
	}
	if event.UserID != "" {
		userID = event.UserID
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO analytics_events (event, couple_id, user_id, metadata, occurred_at)
VALUES ($1, $2, $3, $4, $5)
`, event.Event, coupleID, userID, payload, event.OccurredAt)
	metrics.ObserveNetworkRequest("postgres", "analytics_events_insert", "analytics_events", start, err)
	return err
}

// EnsureNotificationJob регистрирует попытку обработки задачи уведомления.
func (p *Postgres) EnsureNotificationJob(ctx context.Context, jobID string) (bool, int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		delivered sql.NullTime
		attempts  int
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO notification_job_statuses (job_id, attempts, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (job_id) DO UPDATE
    SET attempts = notification_job_statuses.attempts + 1,
        updated_at = now()
RETURNING delivered_at, attempts
`, jobID).Scan(&delivered, &attempts)
	metrics.ObserveNetworkRequest("postgres", "notification_statuses_upsert", "notification_job_statuses", start, err)
	if err != nil {
		return false, 0, err
	}
	return delivered.Valid, attempts, nil
}

// MarkNotificationDelivered помечает задачу уведомления доставленной.
func (p *Postgres) MarkNotificationDelivered(ctx context.Context, jobID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE notification_job_statuses
SET delivered_at = COALESCE(delivered_at, now()),
    updated_at = now()
WHERE job_id = $1
`, jobID)
	metrics.ObserveNetworkRequest("postgres", "notification_statuses_mark_delivered", "notification_job_statuses", start, err)
	return err
}
