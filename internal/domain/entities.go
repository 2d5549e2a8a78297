package domain

import "time"

// ContentType различает ежедневные вопросы и задания.
type ContentType string

const (
	// ContentTypeQuestion — ежедневный вопрос пары.
	ContentTypeQuestion ContentType = "question"
	// ContentTypeChallenge — ежедневное задание пары.
	ContentTypeChallenge ContentType = "challenge"
)

// ContentStatus описывает состояние ежедневного контента.
type ContentStatus string

const (
	// ContentStatusPending — контент создан, ответов ещё нет.
	ContentStatusPending ContentStatus = "pending"
	// ContentStatusActive — получен хотя бы один ответ.
	ContentStatusActive ContentStatus = "active"
)

// User описывает участника пары.
type User struct {
	ID        string
	Name      string
	CoupleID  string
	PushToken string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoupleSettings хранит состояние расписания пары по одному типу контента.
type CoupleSettings struct {
	CoupleID          string
	ContentType       ContentType
	StartDate         time.Time
	Timezone          string
	CurrentDay        int
	NextScheduledDate string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DailyContent представляет вопрос или задание пары на конкретную дату.
type DailyContent struct {
	ID            string
	CoupleID      string
	ContentType   ContentType
	ContentKey    string
	ContentDay    int
	ScheduledDate string
	Status        ContentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Response — ответ участника на ежедневный контент.
type Response struct {
	ID              string
	ContentID       string
	UserID          string
	UserName        string
	Text            string
	Status          string
	IsReadByPartner bool
	RespondedAt     time.Time
}

// ResponseStatusAnswered — единственный статус ответа, ответы не мутируются.
const ResponseStatusAnswered = "answered"
