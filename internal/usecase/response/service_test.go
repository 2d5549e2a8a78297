package response

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"couples-daily-backend/internal/domain"
)

type stubStore struct {
	contents  map[string]domain.DailyContent
	responses map[string]domain.Response
	jobs      []domain.NotificationJob
	activated int

	enqueueErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		contents:  map[string]domain.DailyContent{},
		responses: map[string]domain.Response{},
	}
}

func (s *stubStore) CreateContent(_ context.Context, content domain.DailyContent) (domain.DailyContent, bool, error) {
	s.contents[content.ID] = content
	return content, true, nil
}

func (s *stubStore) GetContent(_ context.Context, contentID string) (domain.DailyContent, error) {
	content, ok := s.contents[contentID]
	if !ok {
		return domain.DailyContent{}, domain.ErrNotFound
	}
	return content, nil
}

func (s *stubStore) DeleteContentWithResponses(_ context.Context, contentID string) error {
	delete(s.contents, contentID)
	return nil
}

func (s *stubStore) MarkContentActive(_ context.Context, contentID string) error {
	content, ok := s.contents[contentID]
	if !ok {
		return domain.ErrNotFound
	}
	s.activated++
	content.Status = domain.ContentStatusActive
	s.contents[contentID] = content
	return nil
}

func (s *stubStore) CreateResponse(_ context.Context, response domain.Response) (domain.Response, bool, error) {
	if existing, ok := s.responses[response.ID]; ok {
		return existing, false, nil
	}
	s.responses[response.ID] = response
	return response, true, nil
}

func (s *stubStore) ListResponses(_ context.Context, contentID string) ([]domain.Response, error) {
	var list []domain.Response
	for _, r := range s.responses {
		if r.ContentID == contentID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (s *stubStore) MarkResponsesRead(_ context.Context, contentID, readerID string) error {
	for id, r := range s.responses {
		if r.ContentID == contentID && r.UserID != readerID {
			r.IsReadByPartner = true
			s.responses[id] = r
		}
	}
	return nil
}

func (s *stubStore) CountResponses(_ context.Context, contentID string) (int, error) {
	list, _ := s.ListResponses(context.Background(), contentID)
	return len(list), nil
}

func (s *stubStore) Enqueue(_ context.Context, job domain.NotificationJob) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubStore) Receive(context.Context) (domain.NotificationJob, domain.NotificationAckFunc, error) {
	return domain.NotificationJob{}, nil, errors.New("не используется в тестах")
}

func seedContent(store *stubStore) domain.DailyContent {
	content := domain.DailyContent{
		ID:          "alice_bob_2024-03-01",
		CoupleID:    "alice_bob",
		ContentType: domain.ContentTypeQuestion,
		Status:      domain.ContentStatusPending,
	}
	store.contents[content.ID] = content
	return content
}

func newTestService(store *stubStore) *Service {
	return NewService(store, store, store, nil, zerolog.Nop())
}

func TestSubmitStoresResponseAndNotifies(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	saved, err := service.Submit(context.Background(), "alice", "Алиса", content.ID, "мой ответ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if saved.Status != domain.ResponseStatusAnswered {
		t.Fatalf("ответ должен иметь статус answered, получили %s", saved.Status)
	}
	if store.contents[content.ID].Status != domain.ContentStatusActive {
		t.Fatalf("контент должен стать active после первого ответа")
	}
	if len(store.jobs) != 1 {
		t.Fatalf("ожидали одну задачу уведомления, получили %d", len(store.jobs))
	}
	job := store.jobs[0]
	if job.SenderID != "alice" || job.CoupleID != "alice_bob" || job.ContentID != content.ID {
		t.Fatalf("неверная задача уведомления: %+v", job)
	}
}

func TestSubmitRejectsOutsider(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	_, err := service.Submit(context.Background(), "mallory", "Мэллори", content.ID, "чужой ответ")
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("ожидали ErrNotMember, получили %v", err)
	}
	if len(store.responses) != 0 {
		t.Fatalf("ответ постороннего не должен сохраняться")
	}
	if len(store.jobs) != 0 {
		t.Fatalf("уведомление постороннего не должно ставиться в очередь")
	}
}

func TestSubmitRejectsPrefixImpostor(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	// "ali" — подстрока "alice_bob", но не участник пары.
	if _, err := service.Submit(context.Background(), "ali", "Али", content.ID, "ответ"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("подстрочное совпадение не должно давать доступ: %v", err)
	}
}

func TestSubmitSurvivesQueueFailure(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	store.enqueueErr = errors.New("брокер недоступен")
	service := newTestService(store)

	if _, err := service.Submit(context.Background(), "bob", "Боб", content.ID, "ответ"); err != nil {
		t.Fatalf("сбой очереди не должен отменять ответ: %v", err)
	}
	if len(store.responses) != 1 {
		t.Fatalf("ответ должен сохраниться несмотря на сбой очереди")
	}
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	if _, err := service.Submit(context.Background(), "alice", "Алиса", content.ID, "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("ожидали ErrEmptyText, получили %v", err)
	}
}

func TestMarkReadChecksMembership(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	store.responses["r1"] = domain.Response{ID: "r1", ContentID: content.ID, UserID: "alice"}
	service := newTestService(store)

	if err := service.MarkRead(context.Background(), "mallory", content.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("ожидали ErrNotMember, получили %v", err)
	}
	if err := service.MarkRead(context.Background(), "bob", content.ID); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !store.responses["r1"].IsReadByPartner {
		t.Fatalf("ответ партнёра должен быть помечен прочитанным")
	}
}

func TestMigrateLegacyIdempotent(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	legacy := map[string]LegacyResponse{
		"alice": {UserName: "Алиса", Text: "ответ алисы", RespondedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		"bob":   {UserName: "Боб", Text: "ответ боба"},
		"":      {Text: "без автора"},
	}
	migrated, err := service.MigrateLegacy(context.Background(), "alice", content.ID, legacy)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if migrated != 2 {
		t.Fatalf("ожидали перенос двух ответов, получили %d", migrated)
	}

	again, err := service.MigrateLegacy(context.Background(), "alice", content.ID, legacy)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if again != 0 {
		t.Fatalf("повторная миграция не должна создавать записи, получили %d", again)
	}
	if len(store.responses) != 2 {
		t.Fatalf("ожидали две записи ответов, получили %d", len(store.responses))
	}
}

func TestMigrateLegacyRejectsOutsiderCaller(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	legacy := map[string]LegacyResponse{
		"mallory": {UserName: "Мэллори", Text: "чужой ответ"},
	}
	if _, err := service.MigrateLegacy(context.Background(), "mallory", content.ID, legacy); !errors.Is(err, ErrNotMember) {
		t.Fatalf("ожидали ErrNotMember, получили %v", err)
	}
	if len(store.responses) != 0 {
		t.Fatalf("миграция постороннего не должна создавать записи")
	}
}

func TestMigrateLegacySkipsOutsiderEntries(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	legacy := map[string]LegacyResponse{
		"alice":   {UserName: "Алиса", Text: "ответ алисы"},
		"mallory": {UserName: "Мэллори", Text: "внедрённый ответ"},
	}
	migrated, err := service.MigrateLegacy(context.Background(), "bob", content.ID, legacy)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if migrated != 1 {
		t.Fatalf("ответ вне пары должен быть пропущен, перенесли %d", migrated)
	}
	for _, r := range store.responses {
		if r.UserID == "mallory" {
			t.Fatalf("ответ пользователя вне пары не должен сохраняться")
		}
	}
}

func TestSubmitActivatesContentOnce(t *testing.T) {
	store := newStubStore()
	content := seedContent(store)
	service := newTestService(store)

	if _, err := service.Submit(context.Background(), "alice", "Алиса", content.ID, "первый"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := service.Submit(context.Background(), "bob", "Боб", content.ID, "второй"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if store.activated != 1 {
		t.Fatalf("контент должен активироваться только первым ответом, активаций %d", store.activated)
	}
	if store.contents[content.ID].Status != domain.ContentStatusActive {
		t.Fatalf("контент должен остаться active")
	}
}
