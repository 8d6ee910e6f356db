package planner

import (
	"time"

	"github.com/Leganyst/route-planner/internal/calendar"
	"github.com/Leganyst/route-planner/internal/model"
)

// PendingWork — незакрытая работа, требующая внимания.
type PendingWork struct {
	Overdue  []model.Visit
	Orphaned []model.Visit
}

// ClassifyPending раскладывает PENDING-визиты на просроченные и осиротевшие.
// today — начало текущего дня; просрочен визит строго раньше today.
// Просрочка проверяется первой, такой визит в осиротевшие уже не попадает.
// Визиты в других статусах игнорируются.
func ClassifyPending(visits []model.Visit, techs []Technician, today time.Time) PendingWork {
	idx := NewTechnicianIndex(techs)
	work := PendingWork{
		Overdue:  []model.Visit{},
		Orphaned: []model.Visit{},
	}
	for _, v := range visits {
		if v.Status != model.VisitStatusPending {
			continue
		}
		switch {
		case v.ScheduledAt.Before(today):
			work.Overdue = append(work.Overdue, v)
		case IsOrphaned(v, idx):
			work.Orphaned = append(work.Orphaned, v)
		}
	}
	return work
}

// Today возвращает начало дня now в поясе loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return calendar.StartOfDay(now, loc)
}
