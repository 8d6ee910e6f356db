package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Leganyst/route-planner/internal/calendar"
)

// Frequency — частота сезона маршрута.
type Frequency string

const (
	Weekly    Frequency = "WEEKLY"
	Biweekly  Frequency = "BIWEEKLY"
	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
)

var (
	ErrInvalidWeekday   = errors.New("recurrence: invalid day of week")
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	ErrInvalidSeason    = errors.New("recurrence: season start is after end")
)

// Season — частота, действующая внутри закрытого интервала дат.
type Season struct {
	ID        string
	Frequency Frequency
	StartDate time.Time
	EndDate   time.Time
}

// Template описывает маршрут так, как его видит вычислитель.
type Template struct {
	ID        string
	DayOfWeek string // MONDAY … SUNDAY
	Seasons   []Season
}

type Outcome int

const (
	// В этой неделе есть вхождение, Result.Date заполнена.
	OutcomeDue Outcome = iota
	// Ни один сезон не покрывает начало недели.
	OutcomeNoActiveSeason
	// Сезон активен, но частота пропускает эту неделю.
	OutcomeNotThisWeek
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDue:
		return "due"
	case OutcomeNoActiveSeason:
		return "no_active_season"
	case OutcomeNotThisWeek:
		return "no_occurrence"
	default:
		return "unknown"
	}
}

// Result — вхождение маршрута в неделе.
type Result struct {
	Outcome Outcome

	// Полночь дня визита в поясе недели; нулевая, если вхождения нет.
	Date time.Time

	// nil при OutcomeNoActiveSeason.
	Season *Season

	// Ambiguous: начало недели покрыто несколькими сезонами, их ID в Covering.
	Ambiguous bool
	Covering  []string

	// Сезоны с началом позже конца; в выборе не участвуют.
	InvalidSeasons []string
}

var weekdays = map[string]time.Weekday{
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}

// ParseWeekday переводит MONDAY … SUNDAY в time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return d, nil
}

// Evaluate вычисляет вхождение шаблона в неделе, начинающейся с weekStart.
// weekStart приводится к понедельнику в своём часовом поясе.
//
// Если начало недели покрыто несколькими сезонами, побеждает сезон с самой
// ранней датой начала, при равенстве — первый по входному порядку.
// BIWEEKLY считается по чётности абсолютного ISO-номера недели, а не от начала сезона.
// Некорректные сезоны пропускаются и перечисляются в Result.InvalidSeasons;
// ErrInvalidSeason возвращается, только если корректных сезонов нет вовсе.
func Evaluate(tpl Template, weekStart time.Time) (Result, error) {
	loc := weekStart.Location()
	weekStart = calendar.WeekStart(weekStart, loc)

	day, err := ParseWeekday(tpl.DayOfWeek)
	if err != nil {
		return Result{}, err
	}

	covering, invalid := coveringSeasons(tpl.Seasons, weekStart, loc)
	if len(invalid) > 0 && len(invalid) == len(tpl.Seasons) {
		return Result{}, fmt.Errorf("%w: seasons %s", ErrInvalidSeason, strings.Join(invalid, ", "))
	}
	if len(covering) == 0 {
		return Result{Outcome: OutcomeNoActiveSeason, InvalidSeasons: invalid}, nil
	}

	selected := covering[0]
	res := Result{
		Season:         &selected,
		Ambiguous:      len(covering) > 1,
		InvalidSeasons: invalid,
	}
	if res.Ambiguous {
		res.Covering = make([]string, 0, len(covering))
		for _, s := range covering {
			res.Covering = append(res.Covering, s.ID)
		}
	}

	due, err := IsOccurrenceWeek(selected.Frequency, weekStart)
	if err != nil {
		return Result{}, err
	}
	if !due {
		res.Outcome = OutcomeNotThisWeek
		return res, nil
	}

	res.Outcome = OutcomeDue
	res.Date = weekStart.AddDate(0, 0, calendar.MondayOffset(day))
	return res, nil
}

// IsOccurrenceWeek применяет правило частоты к понедельнику недели.
func IsOccurrenceWeek(freq Frequency, weekStart time.Time) (bool, error) {
	switch freq {
	case Weekly:
		return true, nil
	case Biweekly:
		return calendar.ISOWeek(weekStart)%2 == 0, nil
	case Monthly:
		return inFirstWeekOfMonth(weekStart), nil
	case Quarterly:
		return inFirstWeekOfMonth(weekStart) && isQuarterStart(weekStart.Month()), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
	}
}

func inFirstWeekOfMonth(t time.Time) bool {
	return t.Day() <= 7
}

func isQuarterStart(m time.Month) bool {
	return (m-time.January)%3 == 0
}

// coveringSeasons отбирает сезоны, покрывающие weekStart, в порядке выбора,
// и отдельно ID некорректных сезонов.
func coveringSeasons(seasons []Season, weekStart time.Time, loc *time.Location) ([]Season, []string) {
	var (
		out     []Season
		invalid []string
	)
	for _, s := range seasons {
		iv, err := calendar.DayInterval(s.StartDate, s.EndDate, loc)
		if err != nil {
			invalid = append(invalid, s.ID)
			continue
		}
		if iv.Covers(weekStart) {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return calendar.DateIn(out[i].StartDate, loc).Before(calendar.DateIn(out[j].StartDate, loc))
	})
	return out, invalid
}
