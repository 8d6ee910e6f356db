package calendar

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func mustDayInterval(t *testing.T, start, end time.Time) Interval {
	t.Helper()
	iv, err := DayInterval(start, end, time.UTC)
	if err != nil {
		t.Fatalf("DayInterval: %v", err)
	}
	return iv
}

//
// Covers
//

func TestCovers_InclusiveBounds(t *testing.T) {
	iv := Interval{
		Start: mustTime(t, 2024, 5, 1, 0, 0),
		End:   mustTime(t, 2024, 5, 10, 0, 0),
	}

	if !iv.Covers(iv.Start) {
		t.Fatalf("expected start to be covered")
	}
	if !iv.Covers(iv.End) {
		t.Fatalf("expected end to be covered")
	}
	if iv.Covers(iv.End.Add(time.Nanosecond)) {
		t.Fatalf("expected instant after end to be outside")
	}
	if iv.Covers(iv.Start.Add(-time.Nanosecond)) {
		t.Fatalf("expected instant before start to be outside")
	}
}

func TestDayInterval_CoversWholeLastDay(t *testing.T) {
	iv := mustDayInterval(t, mustTime(t, 2024, 5, 1, 0, 0), mustTime(t, 2024, 5, 10, 0, 0))

	if !Covers(iv, mustTime(t, 2024, 5, 10, 9, 0)) {
		t.Fatalf("expected visit on 2024-05-10 09:00 to be covered")
	}
	if Covers(iv, mustTime(t, 2024, 5, 11, 9, 0)) {
		t.Fatalf("expected visit on 2024-05-11 to be outside")
	}
}

func TestDayInterval_UsesCalendarDateInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// Дата, прочитанная из БД в UTC, должна трактоваться как та же календарная дата в loc.
	iv, err := DayInterval(mustTime(t, 2024, 5, 1, 0, 0), mustTime(t, 2024, 5, 1, 0, 0), loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !iv.Covers(time.Date(2024, 5, 1, 0, 30, 0, 0, loc)) {
		t.Fatalf("expected local early morning to be covered")
	}
	if iv.Covers(time.Date(2024, 4, 30, 23, 0, 0, 0, loc)) {
		t.Fatalf("expected previous local day to be outside")
	}
}

func TestDayInterval_RejectsReversedDates(t *testing.T) {
	_, err := DayInterval(mustTime(t, 2024, 5, 10, 0, 0), mustTime(t, 2024, 5, 1, 0, 0), time.UTC)
	if err != ErrInvalidInterval {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestAnyCovers(t *testing.T) {
	intervals := []Interval{
		mustDayInterval(t, mustTime(t, 2024, 1, 1, 0, 0), mustTime(t, 2024, 1, 3, 0, 0)),
		mustDayInterval(t, mustTime(t, 2024, 1, 2, 0, 0), mustTime(t, 2024, 1, 5, 0, 0)),
	}

	if !AnyCovers(intervals, mustTime(t, 2024, 1, 4, 12, 0)) {
		t.Fatalf("expected overlapping intervals to cover 2024-01-04")
	}
	if AnyCovers(intervals, mustTime(t, 2024, 1, 6, 0, 0)) {
		t.Fatalf("expected 2024-01-06 to be uncovered")
	}
	if AnyCovers(nil, mustTime(t, 2024, 1, 1, 0, 0)) {
		t.Fatalf("expected no intervals to cover nothing")
	}
}

//
// NormalizeRange
//

func TestNormalizeRange_SwappedBounds(t *testing.T) {
	from := mustTime(t, 2025, 1, 10, 0, 0)
	to := mustTime(t, 2025, 1, 1, 0, 0)

	r, err := NormalizeRange(from, to, time.UTC, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !r.Start.Equal(to) || !r.End.Equal(from) {
		t.Fatalf("expected Start=%v End=%v, got %v", to, from, r)
	}
}

func TestNormalizeRange_MaxDays(t *testing.T) {
	from := mustTime(t, 2025, 1, 1, 0, 0)
	to := mustTime(t, 2025, 6, 1, 0, 0)

	r, err := NormalizeRange(from, to, time.UTC, 31)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if want := mustTime(t, 2025, 2, 1, 0, 0); !r.End.Equal(want) {
		t.Fatalf("expected End=%v, got %v", want, r.End)
	}
}

func TestNormalizeRange_InvalidZero(t *testing.T) {
	if _, err := NormalizeRange(time.Time{}, time.Time{}, time.UTC, 0); err == nil {
		t.Fatalf("expected error for zero times, got nil")
	}
}

//
// Недели
//

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{mustTime(t, 2024, 3, 4, 0, 0), mustTime(t, 2024, 3, 4, 0, 0)},   // понедельник
		{mustTime(t, 2024, 3, 6, 15, 0), mustTime(t, 2024, 3, 4, 0, 0)},  // среда
		{mustTime(t, 2024, 3, 10, 23, 0), mustTime(t, 2024, 3, 4, 0, 0)}, // воскресенье
		{mustTime(t, 2024, 1, 1, 0, 0), mustTime(t, 2024, 1, 1, 0, 0)},
		{mustTime(t, 2023, 1, 1, 0, 0), mustTime(t, 2022, 12, 26, 0, 0)},
	}

	for _, c := range cases {
		if got := WeekStart(c.in, time.UTC); !got.Equal(c.want) {
			t.Fatalf("WeekStart(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestWeekStart_RespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// Понедельник 02:00 UTC — это ещё воскресенье в UTC-5.
	got := WeekStart(mustTime(t, 2024, 3, 11, 2, 0), loc)
	want := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("WeekStart = %v, want %v", got, want)
	}
}

func TestMondayOffset(t *testing.T) {
	if MondayOffset(time.Monday) != 0 || MondayOffset(time.Wednesday) != 2 || MondayOffset(time.Sunday) != 6 {
		t.Fatalf("unexpected offsets")
	}
}

func TestAtMinute(t *testing.T) {
	day := mustTime(t, 2024, 3, 6, 0, 0)
	got := AtMinute(day, 8*60+30)
	if want := mustTime(t, 2024, 3, 6, 8, 30); !got.Equal(want) {
		t.Fatalf("AtMinute = %v, want %v", got, want)
	}
}
