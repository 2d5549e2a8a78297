package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
)

// CreateResponse сохраняет ответ участника. При повторной вставке с тем же
// id возвращает переданный ответ и false.
func (p *Postgres) CreateResponse(ctx context.Context, response domain.Response) (domain.Response, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var saved domain.Response
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO content_responses (id, content_id, user_id, user_name, text, status, is_read_by_partner, responded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING
RETURNING id, content_id, user_id, user_name, text, status, is_read_by_partner, responded_at
`, response.ID, response.ContentID, response.UserID, response.UserName, response.Text, response.Status, response.IsReadByPartner, response.RespondedAt).
		Scan(&saved.ID, &saved.ContentID, &saved.UserID, &saved.UserName, &saved.Text, &saved.Status, &saved.IsReadByPartner, &saved.RespondedAt)
	metrics.ObserveNetworkRequest("postgres", "responses_create", "content_responses", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return response, false, nil
	}
	if err != nil {
		return domain.Response{}, false, err
	}
	return saved, true, nil
}

// ListResponses возвращает ответы по контенту в порядке поступления.
func (p *Postgres) ListResponses(ctx context.Context, contentID string) ([]domain.Response, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, content_id, user_id, user_name, text, status, is_read_by_partner, responded_at
FROM content_responses WHERE content_id=$1
ORDER BY responded_at
`, contentID)
	metrics.ObserveNetworkRequest("postgres", "responses_list", "content_responses", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var responses []domain.Response
	for rows.Next() {
		var r domain.Response
		if err := rows.Scan(&r.ID, &r.ContentID, &r.UserID, &r.UserName, &r.Text, &r.Status, &r.IsReadByPartner, &r.RespondedAt); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// MarkResponsesRead помечает прочитанными ответы всех, кроме читающего.
func (p *Postgres) MarkResponsesRead(ctx context.Context, contentID, readerID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE content_responses SET is_read_by_partner=true
WHERE content_id=$1 AND user_id<>$2 AND NOT is_read_by_partner
`, contentID, readerID)
	metrics.ObserveNetworkRequest("postgres", "responses_mark_read", "content_responses", start, err)
	return err
}

// CountResponses считает ответы по контенту.
func (p *Postgres) CountResponses(ctx context.Context, contentID string) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content_responses WHERE content_id=$1`, contentID).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "responses_count", "content_responses", start, err)
	return count, err
}
