package domain

import (
	"context"
	"time"
)

// SettingsRepo управляет записями расписания пар.
type SettingsRepo interface {
	GetSettings(ctx context.Context, coupleID string, contentType ContentType) (CoupleSettings, error)
	// CreateSettings вставляет запись, если её ещё нет, и возвращает актуальную версию.
	CreateSettings(ctx context.Context, settings CoupleSettings) (CoupleSettings, bool, error)
	UpdateNextScheduledDate(ctx context.Context, coupleID string, contentType ContentType, nextDate string) error
	// AdvanceSettings фиксирует сгенерированный день и следующую дату генерации.
	AdvanceSettings(ctx context.Context, coupleID string, contentType ContentType, currentDay int, nextDate string) error
	// ListDueSettings возвращает пары из указанных часовых поясов, ожидающие генерации.
	ListDueSettings(ctx context.Context, contentType ContentType, timezones []string, dueDate string) ([]CoupleSettings, error)
}

// ContentRepo управляет ежедневным контентом.
type ContentRepo interface {
	// CreateContent вставляет контент, если его ещё нет. Возвращает сохранённую
	// запись и true, когда вставка произошла; при конфликте — существующую и false.
	CreateContent(ctx context.Context, content DailyContent) (DailyContent, bool, error)
	GetContent(ctx context.Context, contentID string) (DailyContent, error)
	// DeleteContentWithResponses удаляет контент и его ответы одной транзакцией.
	DeleteContentWithResponses(ctx context.Context, contentID string) error
	MarkContentActive(ctx context.Context, contentID string) error
}

// ResponseRepo управляет ответами участников.
type ResponseRepo interface {
	// CreateResponse вставляет ответ, если его ещё нет. Возвращает true,
	// когда вставка произошла.
	CreateResponse(ctx context.Context, response Response) (Response, bool, error)
	ListResponses(ctx context.Context, contentID string) ([]Response, error)
	// MarkResponsesRead помечает прочитанными ответы всех, кроме читающего.
	MarkResponsesRead(ctx context.Context, contentID, readerID string) error
	CountResponses(ctx context.Context, contentID string) (int, error)
}

// UserRepo управляет участниками пар.
type UserRepo interface {
	GetUser(ctx context.Context, userID string) (User, error)
	UpsertUser(ctx context.Context, user User) (User, error)
	UpdatePushToken(ctx context.Context, userID, token string) error
	// ClearPushToken удаляет недействительный push-токен.
	ClearPushToken(ctx context.Context, userID string) error
}

// PushSender отправляет push-уведомления.
type PushSender interface {
	// Send доставляет уведомление на токен. Возвращает ErrPushTokenInvalid,
	// если провайдер сообщил о недействительном токене.
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Cache используется для захвата TTL-ключей: ограничение частоты и
// блокировка прохода планировщика.
type Cache interface {
	// Once выполняет fn, только если ключ ещё не захвачен; при ошибке fn
	// ключ освобождается.
	Once(key string, ttl time.Duration, fn func() error) error
	// Acquire атомарно захватывает ключ на ttl; false — ключ уже занят.
	Acquire(key string, ttl time.Duration) (bool, error)
}
