package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/route-planner/internal/calendar"
	"github.com/Leganyst/route-planner/internal/model"
	"github.com/Leganyst/route-planner/internal/planner"
	"github.com/Leganyst/route-planner/internal/repository"
)

// Максимальная длина диапазона выборок нагрузки и конфликтов.
const maxRangeDays = 366

// VisitWithFlags — визит вместе с сигналами конфликта на момент чтения.
type VisitWithFlags struct {
	Visit model.Visit
	Flags planner.Flags
}

// PlanningService — чтения для экранов планирования. Всё считается на лету.
type PlanningService struct {
	visits      repository.VisitRepository
	technicians repository.TechnicianRepository

	loc *time.Location
	now func() time.Time
}

func NewPlanningService(
	visits repository.VisitRepository,
	technicians repository.TechnicianRepository,
	loc *time.Location,
) *PlanningService {
	if loc == nil {
		loc = time.UTC
	}
	return &PlanningService{
		visits:      visits,
		technicians: technicians,
		loc:         loc,
		now:         time.Now,
	}
}

// GetPendingWork собирает просроченные и осиротевшие PENDING-визиты арендатора.
func (s *PlanningService) GetPendingWork(ctx context.Context, tenantID uuid.UUID) (planner.PendingWork, error) {
	visits, _, err := s.visits.List(ctx, repository.VisitFilter{
		TenantID: tenantID,
		Statuses: []model.VisitStatus{model.VisitStatusPending},
	})
	if err != nil {
		return planner.PendingWork{}, fmt.Errorf("list pending visits: %w", err)
	}
	techs, err := s.loadTechnicians(ctx, tenantID)
	if err != nil {
		return planner.PendingWork{}, err
	}
	return planner.ClassifyPending(visits, techs, planner.Today(s.now(), s.loc)), nil
}

// GetWorkload считает неотменённые визиты по (техник, день) в диапазоне дат.
// Обе даты включительно; перепутанные границы меняются местами.
func (s *PlanningService) GetWorkload(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]planner.WorkloadEntry, error) {
	start, end, err := s.dayRange(from, to)
	if err != nil {
		return nil, err
	}
	visits, _, err := s.visits.List(ctx, repository.VisitFilter{
		TenantID:        tenantID,
		From:            start,
		To:              end,
		ExcludeStatuses: []model.VisitStatus{model.VisitStatusCancelled},
	})
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return planner.SortedWorkload(planner.Workload(visits, s.loc)), nil
}

// GetConflictFlags считает сигналы конфликта для неотменённых визитов диапазона дат.
func (s *PlanningService) GetConflictFlags(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[uuid.UUID]planner.Flags, error) {
	start, end, err := s.dayRange(from, to)
	if err != nil {
		return nil, err
	}
	visits, _, err := s.visits.List(ctx, repository.VisitFilter{
		TenantID:        tenantID,
		From:            start,
		To:              end,
		ExcludeStatuses: []model.VisitStatus{model.VisitStatusCancelled},
	})
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	techs, err := s.loadTechnicians(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return planner.ConflictFlags(visits, techs), nil
}

// ListVisits отдаёт страницу визитов по фильтру с сигналами конфликта.
func (s *PlanningService) ListVisits(ctx context.Context, filter repository.VisitFilter) ([]VisitWithFlags, int64, error) {
	visits, total, err := s.visits.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	techs, err := s.loadTechnicians(ctx, filter.TenantID)
	if err != nil {
		return nil, 0, err
	}
	flags := planner.ConflictFlags(visits, techs)

	out := make([]VisitWithFlags, 0, len(visits))
	for _, v := range visits {
		out = append(out, VisitWithFlags{Visit: v, Flags: flags[v.ID]})
	}
	return out, total, nil
}

func (s *PlanningService) loadTechnicians(ctx context.Context, tenantID uuid.UUID) ([]planner.Technician, error) {
	users, err := s.technicians.ListWithAvailability(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	return planner.TechniciansFromModel(users, s.loc), nil
}

// dayRange переводит даты [from, to] в полуоткрытый интервал моментов
// [полночь from, полночь дня после to) в поясе сервиса.
func (s *PlanningService) dayRange(from, to time.Time) (time.Time, time.Time, error) {
	iv, err := calendar.NormalizeRange(from, to, s.loc, maxRangeDays)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := calendar.DateIn(iv.Start, s.loc)
	end := calendar.DateIn(iv.End, s.loc).AddDate(0, 0, 1)
	return start, end, nil
}
