package planner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Leganyst/route-planner/internal/calendar"
	"github.com/Leganyst/route-planner/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func visit(tech *uuid.UUID, ts time.Time) model.Visit {
	return model.Visit{
		ID:           uuid.New(),
		PoolID:       uuid.New(),
		ScheduledAt:  ts,
		TechnicianID: tech,
		Status:       model.VisitStatusPending,
	}
}

func absentTech(t *testing.T, from, to time.Time) Technician {
	t.Helper()
	iv, err := calendar.DayInterval(from, to, time.UTC)
	require.NoError(t, err)
	return Technician{ID: uuid.New(), IsAvailable: true, Absences: []calendar.Interval{iv}}
}

func TestConflictFlags_AbsenceInterval(t *testing.T) {
	tech := absentTech(t, day(2024, 5, 1), day(2024, 5, 10))

	inside := visit(&tech.ID, at(2024, 5, 10, 8))
	after := visit(&tech.ID, at(2024, 5, 11, 8))

	flags := ConflictFlags([]model.Visit{inside, after}, []Technician{tech})

	assert.True(t, flags[inside.ID].IsOverlappingAbsence)
	assert.True(t, flags[inside.ID].IsOrphaned)
	assert.False(t, flags[after.ID].IsOverlappingAbsence)
	assert.False(t, flags[after.ID].IsOrphaned)
}

func TestConflictFlags_Unassigned(t *testing.T) {
	v := visit(nil, at(2024, 5, 2, 8))

	flags := ConflictFlags([]model.Visit{v}, nil)

	assert.True(t, flags[v.ID].IsOrphaned)
	assert.False(t, flags[v.ID].IsOverlappingAbsence)
}

func TestIsOrphaned_UnavailableFlag(t *testing.T) {
	tech := Technician{ID: uuid.New(), IsAvailable: false}
	v := visit(&tech.ID, at(2024, 5, 2, 8))
	idx := NewTechnicianIndex([]Technician{tech})

	assert.True(t, IsOrphaned(v, idx))
	assert.False(t, IsOverlappingAbsence(v, idx))
}

func TestIsOrphaned_UnknownTechnician(t *testing.T) {
	id := uuid.New()
	v := visit(&id, at(2024, 5, 2, 8))

	assert.True(t, IsOrphaned(v, TechnicianIndex{}))
	assert.False(t, IsOverlappingAbsence(v, TechnicianIndex{}))
}

func TestClassifyPending(t *testing.T) {
	today := day(2024, 6, 15)

	available := Technician{ID: uuid.New(), IsAvailable: true}
	away := absentTech(t, day(2024, 6, 16), day(2024, 6, 20))

	overdueAssigned := visit(&available.ID, at(2024, 6, 14, 9))
	overdueUnassigned := visit(nil, at(2024, 6, 14, 9))
	orphanUnassigned := visit(nil, at(2024, 6, 16, 9))
	orphanAbsent := visit(&away.ID, at(2024, 6, 17, 9))
	normal := visit(&available.ID, at(2024, 6, 16, 9))
	earlierToday := visit(&available.ID, at(2024, 6, 15, 7))

	completed := visit(nil, at(2024, 6, 1, 9))
	completed.Status = model.VisitStatusCompleted

	work := ClassifyPending(
		[]model.Visit{overdueAssigned, overdueUnassigned, orphanUnassigned, orphanAbsent, normal, earlierToday, completed},
		[]Technician{available, away},
		today,
	)

	assert.ElementsMatch(t, []uuid.UUID{overdueAssigned.ID, overdueUnassigned.ID}, ids(work.Overdue))
	assert.ElementsMatch(t, []uuid.UUID{orphanUnassigned.ID, orphanAbsent.ID}, ids(work.Orphaned))
}

func TestClassifyPending_Empty(t *testing.T) {
	work := ClassifyPending(nil, nil, day(2024, 6, 15))
	assert.NotNil(t, work.Overdue)
	assert.NotNil(t, work.Orphaned)
	assert.Empty(t, work.Overdue)
	assert.Empty(t, work.Orphaned)
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	got := Today(at(2024, 6, 15, 20), loc)
	assert.True(t, got.Equal(time.Date(2024, 6, 16, 0, 0, 0, 0, loc)))
}

func TestWorkload(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	cancelled := visit(&a, at(2024, 6, 3, 9))
	cancelled.Status = model.VisitStatusCancelled
	completed := visit(&a, at(2024, 6, 3, 13))
	completed.Status = model.VisitStatusCompleted

	visits := []model.Visit{
		visit(&a, at(2024, 6, 3, 8)),
		visit(&a, at(2024, 6, 3, 10)),
		completed,
		cancelled,
		visit(&a, at(2024, 6, 4, 8)),
		visit(&b, at(2024, 6, 3, 8)),
		visit(nil, at(2024, 6, 3, 8)),
	}

	got := Workload(visits, time.UTC)

	assert.Equal(t, map[WorkloadKey]int{
		{TechnicianID: a, Date: "2024-06-03"}: 3,
		{TechnicianID: a, Date: "2024-06-04"}: 1,
		{TechnicianID: b, Date: "2024-06-03"}: 1,
	}, got)

	entries := SortedWorkload(got)
	require.Len(t, entries, 3)
	assert.Equal(t, "2024-06-03", entries[0].Date)
	assert.Equal(t, "2024-06-04", entries[2].Date)
}

func TestWorkload_GroupsByLocalDate(t *testing.T) {
	a := uuid.New()
	loc := time.FixedZone("UTC-7", -7*60*60)

	// 2024-06-04 03:00 UTC — ещё 3 июня по местному времени.
	got := Workload([]model.Visit{visit(&a, at(2024, 6, 4, 3))}, loc)

	assert.Equal(t, 1, got[WorkloadKey{TechnicianID: a, Date: "2024-06-03"}])
}

func TestTechniciansFromModel(t *testing.T) {
	u := model.User{
		ID:          uuid.New(),
		IsAvailable: true,
		Availabilities: []model.UserAvailability{
			{StartDate: datatypes.Date(day(2024, 5, 1)), EndDate: datatypes.Date(day(2024, 5, 10))},
			{StartDate: datatypes.Date(day(2024, 5, 10)), EndDate: datatypes.Date(day(2024, 5, 1))},
		},
	}

	techs := TechniciansFromModel([]model.User{u}, time.UTC)

	require.Len(t, techs, 1)
	assert.Equal(t, u.ID, techs[0].ID)
	assert.Len(t, techs[0].Absences, 1)
	assert.True(t, calendar.AnyCovers(techs[0].Absences, at(2024, 5, 10, 18)))
}

func ids(visits []model.Visit) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(visits))
	for _, v := range visits {
		out = append(out, v.ID)
	}
	return out
}
