package domain

import "strings"

const coupleIDSeparator = "_"

// MakeCoupleID собирает составной идентификатор пары из двух идентификаторов пользователей.
// Порядок участников фиксируется лексикографически, чтобы пара имела единственный id.
func MakeCoupleID(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + coupleIDSeparator + userB
}

// CoupleMembers возвращает идентификаторы участников пары.
func CoupleMembers(coupleID string) (string, string, bool) {
	parts := strings.SplitN(coupleID, coupleIDSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// IsCoupleMember проверяет точное членство пользователя в паре.
// Подстрочная проверка исходного формата заменена точным сравнением участников.
func IsCoupleMember(coupleID, userID string) bool {
	a, b, ok := CoupleMembers(coupleID)
	if !ok {
		return false
	}
	return userID == a || userID == b
}

// PartnerOf возвращает идентификатор второго участника пары.
func PartnerOf(coupleID, userID string) (string, bool) {
	a, b, ok := CoupleMembers(coupleID)
	if !ok {
		return "", false
	}
	switch userID {
	case a:
		return b, true
	case b:
		return a, true
	}
	return "", false
}
