package http

import (
	"time"

	"couples-daily-backend/internal/domain"
)

// GenerateLimiter ограничивает ручную генерацию: одна попытка на пару, тип
// контента и календарную дату в пределах окна. Хранилище — Redis SetNX.
type GenerateLimiter struct {
	cache  domain.Cache
	window time.Duration
}

// NewGenerateLimiter создаёт лимитер генерации.
func NewGenerateLimiter(cache domain.Cache, window time.Duration) *GenerateLimiter {
	return &GenerateLimiter{cache: cache, window: window}
}

// Allow сообщает, разрешена ли попытка генерации для пары на указанную дату.
// Недоступность лимитера не блокирует запросы.
func (l *GenerateLimiter) Allow(coupleID string, contentType domain.ContentType, date string) bool {
	key := "ratelimit:generate:" + coupleID + ":" + string(contentType) + ":" + date
	ok, err := l.cache.Acquire(key, l.window)
	if err != nil {
		return true
	}
	return ok
}
