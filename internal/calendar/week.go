package calendar

import "time"

// DateIn возвращает полночь календарной даты t (год/месяц/день как есть) в поясе loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// StartOfDay возвращает полночь того дня, в который instant попадает в поясе loc.
func StartOfDay(instant time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateIn(instant.In(loc), loc)
}

// WeekStart возвращает понедельник (полночь) недели, содержащей instant, в поясе loc.
func WeekStart(instant time.Time, loc *time.Location) time.Time {
	day := StartOfDay(instant, loc)
	return day.AddDate(0, 0, -MondayOffset(day.Weekday()))
}

// MondayOffset считает смещение дня недели от понедельника: Monday=0 … Sunday=6.
func MondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ISOWeek возвращает номер ISO-недели для даты.
func ISOWeek(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// AtMinute прибавляет к полуночи day minute минут в том же поясе.
// Через time.Date, чтобы переход на летнее время не сдвигал час.
func AtMinute(day time.Time, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, day.Location())
}

// FormatDate форматирует ключ дня как YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
