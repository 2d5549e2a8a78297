package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"couples-daily-backend/internal/domain"
)

type stubReports struct {
	reports []domain.ContentReport
	alerts  []domain.AdminAlert
	counts  map[string]int

	listStatus domain.ReportStatus
	listLimit  int
}

func (s *stubReports) CreateReport(_ context.Context, report domain.ContentReport) (domain.ContentReport, error) {
	s.reports = append(s.reports, report)
	return report, nil
}

func (s *stubReports) ListReports(_ context.Context, status domain.ReportStatus, limit int) ([]domain.ContentReport, error) {
	s.listStatus = status
	s.listLimit = limit
	return s.reports, nil
}

func (s *stubReports) IncrementModerationStats(_ context.Context, userID string) error {
	if s.counts == nil {
		s.counts = map[string]int{}
	}
	s.counts[userID]++
	return nil
}

func (s *stubReports) CreateAdminAlert(_ context.Context, alert domain.AdminAlert) (domain.AdminAlert, error) {
	s.alerts = append(s.alerts, alert)
	return alert, nil
}

func newTestService(store *stubReports) *Service {
	return NewService(store, nil, 100, zerolog.Nop())
}

func TestReportNormal(t *testing.T) {
	store := &stubReports{}
	service := newTestService(store)

	report, err := service.Report(context.Background(), "alice", ReportInput{
		MessageID:      "msg-1",
		ReportedUserID: "bob",
		MessageText:    "обычное сообщение",
		Reason:         "спам",
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.Status != domain.ReportStatusPending {
		t.Fatalf("новая жалоба должна быть pending, получили %s", report.Status)
	}
	if report.Severity != domain.ReportSeverityNormal {
		t.Fatalf("ожидали обычную серьёзность, получили %s", report.Severity)
	}
	if store.counts["bob"] != 1 {
		t.Fatalf("счётчик жалоб на пользователя должен увеличиться")
	}
	if len(store.alerts) != 0 {
		t.Fatalf("обычная жалоба не должна создавать сигнал администраторам")
	}
}

func TestReportCriticalCreatesAlert(t *testing.T) {
	store := &stubReports{}
	service := newTestService(store)

	report, err := service.Report(context.Background(), "alice", ReportInput{
		MessageID:      "msg-2",
		ReportedUserID: "bob",
		MessageText:    "I will KILL you",
		Reason:         "угрозы",
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.Severity != domain.ReportSeverityCritical {
		t.Fatalf("ключевое слово должно поднимать серьёзность, получили %s", report.Severity)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("ожидали сигнал администраторам, получили %d", len(store.alerts))
	}
	if store.alerts[0].ReportID != report.ID || store.alerts[0].UserID != "bob" {
		t.Fatalf("неверный сигнал: %+v", store.alerts[0])
	}
}

func TestReportRejectsSelfReport(t *testing.T) {
	store := &stubReports{}
	service := newTestService(store)

	_, err := service.Report(context.Background(), "alice", ReportInput{
		MessageID:      "msg-3",
		ReportedUserID: "alice",
		Reason:         "спам",
	})
	if !errors.Is(err, ErrSelfReport) {
		t.Fatalf("ожидали ErrSelfReport, получили %v", err)
	}
	if len(store.reports) != 0 {
		t.Fatalf("жалоба на себя не должна сохраняться")
	}
}

func TestReportRejectsMissingFields(t *testing.T) {
	store := &stubReports{}
	service := newTestService(store)

	cases := []ReportInput{
		{ReportedUserID: "bob", Reason: "спам"},
		{MessageID: "msg-4", Reason: "спам"},
		{MessageID: "msg-4", ReportedUserID: "bob", Reason: "  "},
	}
	for i, in := range cases {
		if _, err := service.Report(context.Background(), "alice", in); !errors.Is(err, ErrMissingField) {
			t.Fatalf("случай %d: ожидали ErrMissingField, получили %v", i, err)
		}
	}
}

func TestListReportsDefaults(t *testing.T) {
	store := &stubReports{}
	service := newTestService(store)

	if _, err := service.ListReports(context.Background(), "", 0); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if store.listStatus != domain.ReportStatusPending {
		t.Fatalf("пустой статус должен означать pending, получили %s", store.listStatus)
	}
	if store.listLimit != 100 {
		t.Fatalf("нулевой лимит должен заменяться максимальным, получили %d", store.listLimit)
	}

	if _, err := service.ListReports(context.Background(), domain.ReportStatusResolved, 500); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if store.listLimit != 100 {
		t.Fatalf("лимит должен ограничиваться сверху, получили %d", store.listLimit)
	}
}
