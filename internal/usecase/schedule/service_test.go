package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/usecase/content"
)

type stubSettings struct {
	due      []domain.CoupleSettings
	advanced map[string]string
	days     map[string]int

	// ignoreZoneFilter отключает фильтр по зонам, имитируя запись с зоной,
	// которой нет в tzdata обработчика.
	ignoreZoneFilter bool
}

func (s *stubSettings) GetSettings(context.Context, string, domain.ContentType) (domain.CoupleSettings, error) {
	return domain.CoupleSettings{}, domain.ErrNotFound
}

func (s *stubSettings) CreateSettings(_ context.Context, settings domain.CoupleSettings) (domain.CoupleSettings, bool, error) {
	return settings, true, nil
}

func (s *stubSettings) UpdateNextScheduledDate(context.Context, string, domain.ContentType, string) error {
	return nil
}

func (s *stubSettings) AdvanceSettings(_ context.Context, coupleID string, _ domain.ContentType, currentDay int, nextDate string) error {
	if s.advanced == nil {
		s.advanced = map[string]string{}
		s.days = map[string]int{}
	}
	s.advanced[coupleID] = nextDate
	s.days[coupleID] = currentDay
	return nil
}

func (s *stubSettings) ListDueSettings(_ context.Context, contentType domain.ContentType, timezones []string, _ string) ([]domain.CoupleSettings, error) {
	zones := map[string]bool{}
	for _, tz := range timezones {
		zones[tz] = true
	}
	var due []domain.CoupleSettings
	for _, settings := range s.due {
		if settings.ContentType != contentType {
			continue
		}
		if !s.ignoreZoneFilter && !zones[settings.Timezone] {
			continue
		}
		due = append(due, settings)
	}
	return due, nil
}

type stubGenerator struct {
	calls   []string
	failFor string
}

func (g *stubGenerator) Generate(_ context.Context, coupleID string, contentType domain.ContentType, _ string, _ int, now time.Time) (content.Result, error) {
	g.calls = append(g.calls, coupleID)
	if coupleID == g.failFor {
		return content.Result{}, errors.New("постгрес недоступен")
	}
	date := domain.DateString(now)
	return content.Result{Content: domain.DailyContent{
		ID:         domain.ContentID(coupleID, contentType, date),
		CoupleID:   coupleID,
		ContentDay: 5,
	}}, nil
}

func TestRunGeneratesAtLocalMidnight(t *testing.T) {
	// В январе в Париже действует зимнее смещение +1: полночь в 23:00 UTC.
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	settings := &stubSettings{due: []domain.CoupleSettings{
		{CoupleID: "alice_bob", ContentType: domain.ContentTypeQuestion, Timezone: "Europe/Paris"},
	}}
	generator := &stubGenerator{}
	service := NewService(settings, generator, nil, zerolog.Nop())

	stats := service.Run(context.Background(), now)
	if stats.Generated != 1 || stats.Failed != 0 {
		t.Fatalf("ожидали одну генерацию, получили %+v", stats)
	}
	if settings.advanced["alice_bob"] != "2024-01-16" {
		t.Fatalf("расписание должно продвинуться на завтра, получили %s", settings.advanced["alice_bob"])
	}
	if settings.days["alice_bob"] != 5 {
		t.Fatalf("текущий день должен взяться из сгенерированного контента, получили %d", settings.days["alice_bob"])
	}
}

func TestRunSkipsWhenNotLocalMidnight(t *testing.T) {
	// В январе Париж попадает в ведро летнего смещения в 22:00 UTC,
	// но локальный час там 23 — пара должна быть пропущена.
	now := time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC)
	settings := &stubSettings{due: []domain.CoupleSettings{
		{CoupleID: "alice_bob", ContentType: domain.ContentTypeQuestion, Timezone: "Europe/Paris"},
	}}
	generator := &stubGenerator{}
	service := NewService(settings, generator, nil, zerolog.Nop())

	stats := service.Run(context.Background(), now)
	if stats.Skipped != 1 || stats.Generated != 0 {
		t.Fatalf("ожидали пропуск без генерации, получили %+v", stats)
	}
	if len(generator.calls) != 0 {
		t.Fatalf("генератор не должен вызываться вне локальной полуночи")
	}
}

func TestRunIsolatesCoupleFailures(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	settings := &stubSettings{due: []domain.CoupleSettings{
		{CoupleID: "alice_bob", ContentType: domain.ContentTypeQuestion, Timezone: "Europe/Paris"},
		{CoupleID: "carol_dave", ContentType: domain.ContentTypeQuestion, Timezone: "Europe/Paris"},
	}}
	generator := &stubGenerator{failFor: "alice_bob"}
	service := NewService(settings, generator, nil, zerolog.Nop())

	stats := service.Run(context.Background(), now)
	if stats.Failed != 1 || stats.Generated != 1 {
		t.Fatalf("ошибка одной пары не должна мешать остальным: %+v", stats)
	}
	if len(generator.calls) != 2 {
		t.Fatalf("ожидали вызов генератора для обеих пар, получили %d", len(generator.calls))
	}
}

type stubLocks struct {
	held map[string]bool
	err  error
}

func (c *stubLocks) Acquire(key string, _ time.Duration) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = map[string]bool{}
	}
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *stubLocks) Once(key string, ttl time.Duration, fn func() error) error {
	ok, err := c.Acquire(key, ttl)
	if err != nil || !ok {
		return err
	}
	return fn()
}

func TestRunLockedPerHour(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	settings := &stubSettings{due: []domain.CoupleSettings{
		{CoupleID: "alice_bob", ContentType: domain.ContentTypeQuestion, Timezone: "Europe/Paris"},
	}}
	generator := &stubGenerator{}
	locks := &stubLocks{}
	service := NewService(settings, generator, locks, zerolog.Nop())

	first := service.Run(context.Background(), now)
	if first.Generated != 1 {
		t.Fatalf("первый проход должен генерировать, получили %+v", first)
	}
	second := service.Run(context.Background(), now)
	if second.Generated != 0 || len(generator.calls) != 1 {
		t.Fatalf("повторный проход того же часа должен быть пропущен: %+v, вызовов %d", second, len(generator.calls))
	}
}

func TestRunProceedsWhenLockUnavailable(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	settings := &stubSettings{due: []domain.CoupleSettings{
		{CoupleID: "alice_bob", ContentType: domain.ContentTypeQuestion, Timezone: "Europe/Paris"},
	}}
	generator := &stubGenerator{}
	locks := &stubLocks{err: errors.New("редис недоступен")}
	service := NewService(settings, generator, locks, zerolog.Nop())

	stats := service.Run(context.Background(), now)
	if stats.Generated != 1 {
		t.Fatalf("недоступность блокировки не должна отменять проход: %+v", stats)
	}
}

func TestRunHandlesUnknownTimezone(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	settings := &stubSettings{
		due: []domain.CoupleSettings{
			{CoupleID: "alice_bob", ContentType: domain.ContentTypeQuestion, Timezone: "Mars/Olympus"},
		},
		ignoreZoneFilter: true,
	}
	generator := &stubGenerator{}
	service := NewService(settings, generator, nil, zerolog.Nop())

	stats := service.Run(context.Background(), now)
	if stats.Failed != 1 {
		t.Fatalf("неизвестная зона должна учитываться как ошибка, получили %+v", stats)
	}
}
