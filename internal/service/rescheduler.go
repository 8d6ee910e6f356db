package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Leganyst/route-planner/internal/logger"
	"github.com/Leganyst/route-planner/internal/metrics"
	"github.com/Leganyst/route-planner/internal/model"
	"github.com/Leganyst/route-planner/internal/repository"
)

var (
	ErrEmptyChange      = errors.New("nothing to change: timestamp or technician required")
	ErrInvalidTimestamp = errors.New("timestamp is required")
)

const defaultBatchConcurrency = 8

// TechnicianChange — новое назначение. TechnicianID == nil снимает техника.
type TechnicianChange struct {
	TechnicianID *uuid.UUID
}

// BatchChange — что применить к каждому визиту пакета. Хотя бы одно поле обязательно.
type BatchChange struct {
	ScheduledAt *time.Time
	Technician  *TechnicianChange
}

// BatchResult — исход для одного визита пакета. При Err == nil визит обновлён.
type BatchResult struct {
	VisitID uuid.UUID
	Err     error
}

// Rescheduler переносит и переназначает визиты и закрывает их.
type Rescheduler struct {
	visits repository.VisitRepository

	log     logger.Logger
	metrics *metrics.Metrics

	concurrency int
	now         func() time.Time
}

func NewRescheduler(
	visits repository.VisitRepository,
	log logger.Logger,
	m *metrics.Metrics,
	concurrency int,
) *Rescheduler {
	if concurrency < 1 {
		concurrency = defaultBatchConcurrency
	}
	return &Rescheduler{
		visits:      visits,
		log:         log,
		metrics:     m,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// RescheduleVisit перезаписывает время и техника визита одним UPDATE.
// technicianID == nil снимает назначение.
func (r *Rescheduler) RescheduleVisit(ctx context.Context, visitID uuid.UUID, at time.Time, technicianID *uuid.UUID) error {
	if at.IsZero() {
		return ErrInvalidTimestamp
	}
	err := r.visits.UpdateSchedule(ctx, visitID, repository.VisitChange{
		ScheduledAt:   &at,
		SetTechnician: true,
		TechnicianID:  technicianID,
	})
	r.record(visitID, err)
	return err
}

// BatchReschedule применяет change к каждому визиту независимо и параллельно.
// Отката нет: результаты возвращаются по одному на id, в порядке входа.
func (r *Rescheduler) BatchReschedule(ctx context.Context, ids []uuid.UUID, change BatchChange) ([]BatchResult, error) {
	if change.ScheduledAt == nil && change.Technician == nil {
		return nil, ErrEmptyChange
	}
	if change.ScheduledAt != nil && change.ScheduledAt.IsZero() {
		return nil, ErrInvalidTimestamp
	}

	vc := repository.VisitChange{ScheduledAt: change.ScheduledAt}
	if change.Technician != nil {
		vc.SetTechnician = true
		vc.TechnicianID = change.Technician.TechnicianID
	}

	results := make([]BatchResult, len(ids))
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			err := r.visits.UpdateSchedule(ctx, id, vc)
			r.record(id, err)
			results[i] = BatchResult{VisitID: id, Err: err}
			// Ошибка одного визита не должна останавливать остальные.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.log.Info("batch reschedule finished",
		logger.Int("visits", len(ids)),
		logger.Int("failed", failed),
	)
	return results, nil
}

// CompleteVisit переводит PENDING-визит в COMPLETED.
func (r *Rescheduler) CompleteVisit(ctx context.Context, visitID uuid.UUID) error {
	return r.transition(ctx, visitID, model.VisitStatusCompleted)
}

// CancelVisit переводит PENDING-визит в CANCELLED.
func (r *Rescheduler) CancelVisit(ctx context.Context, visitID uuid.UUID) error {
	return r.transition(ctx, visitID, model.VisitStatusCancelled)
}

func (r *Rescheduler) transition(ctx context.Context, visitID uuid.UUID, to model.VisitStatus) error {
	if err := r.visits.TransitionStatus(ctx, visitID, to, r.now()); err != nil {
		return err
	}
	r.log.Info("visit status changed",
		logger.String("visit_id", visitID.String()),
		logger.String("status", string(to)),
	)
	return nil
}

func (r *Rescheduler) record(visitID uuid.UUID, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrVisitNotFound):
		result = "not_found"
	case errors.Is(err, repository.ErrVisitConflict):
		result = "conflict"
	default:
		result = "error"
		r.log.Error("reschedule visit",
			logger.String("visit_id", visitID.String()),
			logger.Error(err),
		)
	}
	r.metrics.RescheduleResults.WithLabelValues(result).Inc()
}
