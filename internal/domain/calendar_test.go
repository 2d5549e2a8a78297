package domain

import (
	"testing"
	"time"
)

func TestContentDayFirstDay(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := ContentDay(start, start); got != 1 {
		t.Fatalf("день старта должен быть первым, получили %d", got)
	}
	sameDayLater := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	if got := ContentDay(start, sameDayLater); got != 1 {
		t.Fatalf("время суток не должно влиять на номер дня, получили %d", got)
	}
}

func TestContentDayMonotone(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	prev := 0
	for i := 0; i < 120; i++ {
		now := start.AddDate(0, 0, i)
		got := ContentDay(start, now)
		if got != prev+1 {
			t.Fatalf("день %d: ожидали %d, получили %d", i, prev+1, got)
		}
		prev = got
	}
}

func TestContentDayBeforeStart(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := ContentDay(start, now); got != 1 {
		t.Fatalf("до старта ожидали день 1, получили %d", got)
	}
	if got := ContentDay(time.Time{}, now); got != 1 {
		t.Fatalf("без даты старта ожидали день 1, получили %d", got)
	}
}

func TestDateString(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2024, 3, 2, 1, 0, 0, 0, loc)
	// 2024-03-02 01:00 +05:00 — это ещё 2024-03-01 по UTC.
	if got := DateString(local); got != "2024-03-01" {
		t.Fatalf("дата должна считаться по UTC, получили %s", got)
	}
}
