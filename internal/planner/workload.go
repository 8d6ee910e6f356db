package planner

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/route-planner/internal/calendar"
	"github.com/Leganyst/route-planner/internal/model"
)

// WorkloadKey — техник и локальный день (YYYY-MM-DD).
type WorkloadKey struct {
	TechnicianID uuid.UUID
	Date         string
}

// WorkloadEntry — строка нагрузки для отображения.
type WorkloadEntry struct {
	TechnicianID uuid.UUID
	Date         string
	Visits       int
}

// Workload считает визиты по (техник, день). Отменённые и неназначенные
// визиты не учитываются; длительность визитов не моделируется.
func Workload(visits []model.Visit, loc *time.Location) map[WorkloadKey]int {
	if loc == nil {
		loc = time.UTC
	}
	out := make(map[WorkloadKey]int)
	for _, v := range visits {
		if v.Status == model.VisitStatusCancelled || v.TechnicianID == nil {
			continue
		}
		key := WorkloadKey{
			TechnicianID: *v.TechnicianID,
			Date:         calendar.FormatDate(v.ScheduledAt.In(loc)),
		}
		out[key]++
	}
	return out
}

// SortedWorkload разворачивает карту в стабильно упорядоченный срез.
func SortedWorkload(m map[WorkloadKey]int) []WorkloadEntry {
	out := make([]WorkloadEntry, 0, len(m))
	for k, n := range m {
		out = append(out, WorkloadEntry{TechnicianID: k.TechnicianID, Date: k.Date, Visits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TechnicianID.String() < out[j].TechnicianID.String()
	})
	return out
}
