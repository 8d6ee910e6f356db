package planner

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/route-planner/internal/calendar"
	"github.com/Leganyst/route-planner/internal/model"
)

// Technician — доступность техника для проверок конфликтов.
type Technician struct {
	ID          uuid.UUID
	IsAvailable bool
	Absences    []calendar.Interval
}

// Flags — сигналы конфликта для одного визита.
type Flags struct {
	IsOrphaned           bool `json:"is_orphaned"`
	IsOverlappingAbsence bool `json:"is_overlapping_absence"`
}

// TechnicianIndex индексирует техников по идентификатору.
type TechnicianIndex map[uuid.UUID]Technician

// NewTechnicianIndex строит индекс по срезу техников.
func NewTechnicianIndex(techs []Technician) TechnicianIndex {
	idx := make(TechnicianIndex, len(techs))
	for _, t := range techs {
		idx[t.ID] = t
	}
	return idx
}

// TechniciansFromModel переводит пользователей с их отсутствиями в Technician.
// Даты отсутствий трактуются как календарные дни в поясе loc.
// Отсутствие с перепутанными датами пропускается, а не ломает выборку.
func TechniciansFromModel(users []model.User, loc *time.Location) []Technician {
	out := make([]Technician, 0, len(users))
	for _, u := range users {
		t := Technician{ID: u.ID, IsAvailable: u.IsAvailable}
		for _, a := range u.Availabilities {
			iv, err := calendar.DayInterval(time.Time(a.StartDate), time.Time(a.EndDate), loc)
			if err != nil {
				continue
			}
			t.Absences = append(t.Absences, iv)
		}
		out = append(out, t)
	}
	return out
}

// IsOrphaned сообщает, что у визита нет пригодного техника: не назначен, неизвестен,
// выключен флагом доступности или отсутствует в момент визита.
func IsOrphaned(v model.Visit, techs TechnicianIndex) bool {
	if v.TechnicianID == nil {
		return true
	}
	t, ok := techs[*v.TechnicianID]
	if !ok || !t.IsAvailable {
		return true
	}
	return calendar.AnyCovers(t.Absences, v.ScheduledAt)
}

// IsOverlappingAbsence сообщает, что назначенный техник в момент визита отсутствует.
func IsOverlappingAbsence(v model.Visit, techs TechnicianIndex) bool {
	if v.TechnicianID == nil {
		return false
	}
	t, ok := techs[*v.TechnicianID]
	if !ok {
		return false
	}
	return calendar.AnyCovers(t.Absences, v.ScheduledAt)
}

// ConflictFlags считает оба сигнала для каждого визита.
func ConflictFlags(visits []model.Visit, techs []Technician) map[uuid.UUID]Flags {
	idx := NewTechnicianIndex(techs)
	out := make(map[uuid.UUID]Flags, len(visits))
	for _, v := range visits {
		out[v.ID] = Flags{
			IsOrphaned:           IsOrphaned(v, idx),
			IsOverlappingAbsence: IsOverlappingAbsence(v, idx),
		}
	}
	return out
}
