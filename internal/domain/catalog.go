package domain

import "fmt"

// Размеры каталогов соответствуют числу локализованных текстов на клиенте.
const (
	// QuestionCatalogSize — число ключей в каталоге ежедневных вопросов.
	QuestionCatalogSize = 51
	// ChallengeCatalogSize — число ключей в каталоге ежедневных заданий.
	ChallengeCatalogSize = 53
)

// CatalogSize возвращает размер каталога для типа контента.
func CatalogSize(contentType ContentType) int {
	if contentType == ContentTypeChallenge {
		return ChallengeCatalogSize
	}
	return QuestionCatalogSize
}

// CycleDay сворачивает номер дня в границы каталога: [1, size].
func CycleDay(day, size int) int {
	if size <= 0 {
		return 1
	}
	if day < 1 {
		day = 1
	}
	return (day-1)%size + 1
}

// ContentKey строит ключ каталога для дня. День предварительно сворачивается в цикл.
func ContentKey(contentType ContentType, day int) string {
	cycled := CycleDay(day, CatalogSize(contentType))
	if contentType == ContentTypeChallenge {
		return fmt.Sprintf("daily_challenge_%d", cycled)
	}
	return fmt.Sprintf("daily_question_%d", cycled)
}

// ContentID строит естественный ключ контента: не более одной записи на пару и дату.
func ContentID(coupleID string, contentType ContentType, date string) string {
	if contentType == ContentTypeChallenge {
		return coupleID + "_challenge_" + date
	}
	return coupleID + "_" + date
}
