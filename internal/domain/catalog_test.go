package domain

import "testing"

func TestCycleDayWithinCatalog(t *testing.T) {
	for day := 1; day <= QuestionCatalogSize*3; day++ {
		got := CycleDay(day, QuestionCatalogSize)
		if got < 1 || got > QuestionCatalogSize {
			t.Fatalf("день %d вышел за границы каталога: %d", day, got)
		}
	}
}

func TestCycleDayWraps(t *testing.T) {
	if got := CycleDay(QuestionCatalogSize, QuestionCatalogSize); got != QuestionCatalogSize {
		t.Fatalf("ожидали последний день каталога, получили %d", got)
	}
	if got := CycleDay(QuestionCatalogSize+1, QuestionCatalogSize); got != 1 {
		t.Fatalf("ожидали возврат к первому дню, получили %d", got)
	}
}

func TestContentKey(t *testing.T) {
	if got := ContentKey(ContentTypeQuestion, 1); got != "daily_question_1" {
		t.Fatalf("неверный ключ вопроса: %s", got)
	}
	if got := ContentKey(ContentTypeChallenge, ChallengeCatalogSize+2); got != "daily_challenge_2" {
		t.Fatalf("неверный ключ задания после цикла: %s", got)
	}
}

func TestContentID(t *testing.T) {
	if got := ContentID("alice_bob", ContentTypeQuestion, "2024-03-01"); got != "alice_bob_2024-03-01" {
		t.Fatalf("неверный id вопроса: %s", got)
	}
	if got := ContentID("alice_bob", ContentTypeChallenge, "2024-03-01"); got != "alice_bob_challenge_2024-03-01" {
		t.Fatalf("неверный id задания: %s", got)
	}
}
