package domain

import "time"

// DateLayout — формат календарной даты в идентификаторах и расписании.
const DateLayout = "2006-01-02"

// UTCMidnight обрезает момент времени до полуночи UTC.
func UTCMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateString форматирует календарную дату момента времени в UTC.
func DateString(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ContentDay возвращает порядковый день контента для пары, начавшей startDate.
// День старта считается первым; до старта и при нулевой дате возвращается 1.
func ContentDay(startDate, now time.Time) int {
	if startDate.IsZero() {
		return 1
	}
	days := int(UTCMidnight(now).Sub(UTCMidnight(startDate)) / (24 * time.Hour))
	if days < 0 {
		return 1
	}
	return days + 1
}
