package calendar

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidRange    = errors.New("invalid date range")
)

// Interval — закрытый интервал [Start, End], обе границы включительно.
// Один и тот же тип используется для сезонов маршрутов и отсутствий техников.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval создаёт интервал и проверяет, что Start <= End.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// DayInterval строит интервал из двух календарных дат в часовом поясе loc:
// от полуночи startDate до последнего мгновения endDate.
// Время суток у аргументов игнорируется, берутся только год/месяц/день.
func DayInterval(startDate, endDate time.Time, loc *time.Location) (Interval, error) {
	if loc == nil {
		loc = time.UTC
	}
	start := DateIn(startDate, loc)
	end := DateIn(endDate, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return NewInterval(start, end)
}

// Covers проверяет, что instant лежит в интервале (включительно с обеих сторон).
func (iv Interval) Covers(instant time.Time) bool {
	return !instant.Before(iv.Start) && !instant.After(iv.End)
}

// Covers это функциональная форма Interval.Covers.
func Covers(iv Interval, instant time.Time) bool {
	return iv.Covers(instant)
}

// AnyCovers проверяет, покрывает ли instant хотя бы один из интервалов.
func AnyCovers(intervals []Interval, instant time.Time) bool {
	for _, iv := range intervals {
		if iv.Covers(instant) {
			return true
		}
	}
	return false
}

// NormalizeRange нормализует диапазон дат для выборок:
//   - меняет местами границы, если они перепутаны;
//   - переводит в часовой пояс loc;
//   - при превышении maxDays обрезает диапазон до from+maxDays.
//
// Если maxDays <= 0, ограничение не применяется.
func NormalizeRange(from, to time.Time, loc *time.Location, maxDays int) (Interval, error) {
	if from.IsZero() || to.IsZero() {
		return Interval{}, ErrInvalidRange
	}

	if to.Before(from) {
		from, to = to, from
	}

	if loc != nil {
		from = from.In(loc)
		to = to.In(loc)
	}

	if maxDays > 0 {
		if limit := from.AddDate(0, 0, maxDays); to.After(limit) {
			to = limit
		}
	}

	return Interval{Start: from, End: to}, nil
}
