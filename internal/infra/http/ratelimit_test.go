package http

import (
	"errors"
	"testing"
	"time"

	"couples-daily-backend/internal/domain"
)

type stubCache struct {
	held map[string]bool
	err  error
	keys []string
}

func (c *stubCache) Acquire(key string, _ time.Duration) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = map[string]bool{}
	}
	c.keys = append(c.keys, key)
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *stubCache) Once(key string, ttl time.Duration, fn func() error) error {
	ok, err := c.Acquire(key, ttl)
	if err != nil || !ok {
		return err
	}
	return fn()
}

func TestGenerateLimiterPerCoupleAndDate(t *testing.T) {
	cache := &stubCache{}
	limiter := NewGenerateLimiter(cache, time.Minute)

	if !limiter.Allow("alice_bob", domain.ContentTypeQuestion, "2024-03-01") {
		t.Fatalf("первая попытка должна быть разрешена")
	}
	// Второй участник той же пары попадает под общий лимит.
	if limiter.Allow("alice_bob", domain.ContentTypeQuestion, "2024-03-01") {
		t.Fatalf("повторная попытка в окне должна быть запрещена")
	}
	// Другой тип контента и другая дата лимитируются отдельно.
	if !limiter.Allow("alice_bob", domain.ContentTypeChallenge, "2024-03-01") {
		t.Fatalf("лимит не должен распространяться на другой тип контента")
	}
	if !limiter.Allow("alice_bob", domain.ContentTypeQuestion, "2024-03-02") {
		t.Fatalf("лимит не должен распространяться на другую дату")
	}
	if !limiter.Allow("carol_dave", domain.ContentTypeQuestion, "2024-03-01") {
		t.Fatalf("лимит не должен распространяться на другую пару")
	}
}

func TestGenerateLimiterUnavailableDoesNotBlock(t *testing.T) {
	cache := &stubCache{err: errors.New("редис недоступен")}
	limiter := NewGenerateLimiter(cache, time.Minute)

	if !limiter.Allow("alice_bob", domain.ContentTypeQuestion, "2024-03-01") {
		t.Fatalf("недоступность лимитера не должна блокировать запрос")
	}
}
