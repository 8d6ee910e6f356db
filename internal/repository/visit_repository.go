package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/route-planner/internal/model"
)

// VisitFilter задаёт условия выборки визитов. Нулевые поля не фильтруют.
type VisitFilter struct {
	TenantID uuid.UUID
	// Полуоткрытый диапазон [From, To) по scheduled_at.
	From time.Time
	To   time.Time

	TechnicianID *uuid.UUID
	// Unassigned — только визиты без техника; игнорируется при заданном TechnicianID.
	Unassigned bool
	PoolID     *uuid.UUID
	Statuses   []model.VisitStatus
	// ExcludeStatuses — статусы, которые нужно отбросить (например, CANCELLED для нагрузки).
	ExcludeStatuses []model.VisitStatus

	Limit  int
	Offset int
}

// VisitChange — изменение расписания визита. Nil-поля не трогаются;
// SetTechnician=true с TechnicianID=nil снимает назначение.
type VisitChange struct {
	ScheduledAt   *time.Time
	SetTechnician bool
	TechnicianID  *uuid.UUID
}

// IsEmpty сообщает, что в изменении нет ни одного поля.
func (c VisitChange) IsEmpty() bool {
	return c.ScheduledAt == nil && !c.SetTechnician
}

type VisitRepository interface {
	// Найти визит по ключу идемпотентности (бассейн, момент).
	FindByPoolAndTime(ctx context.Context, poolID uuid.UUID, at time.Time) (*model.Visit, error)
	// Создать визит. Нарушение уникальности (pool_id, scheduled_at) даёт ErrVisitConflict.
	Create(ctx context.Context, visit *model.Visit) error
	// Найти визит по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	// Визиты по фильтру с пагинацией, плюс общее количество.
	List(ctx context.Context, filter VisitFilter) ([]model.Visit, int64, error)
	// Атомарно перезаписать время и/или техника одного визита.
	UpdateSchedule(ctx context.Context, id uuid.UUID, change VisitChange) error
	// Перевести визит из PENDING в терминальный статус.
	TransitionStatus(ctx context.Context, id uuid.UUID, to model.VisitStatus, at time.Time) error
}

type GormVisitRepository struct {
	db *gorm.DB
}

func NewGormVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db}
}

func (r *GormVisitRepository) FindByPoolAndTime(ctx context.Context, poolID uuid.UUID, at time.Time) (*model.Visit, error) {
	var v model.Visit
	tx := r.db.WithContext(ctx).
		Where("pool_id = ? AND scheduled_at = ?", poolID, at.UTC()).
		Limit(1).
		Find(&v)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrVisitNotFound
	}
	return &v, nil
}

func (r *GormVisitRepository) Create(ctx context.Context, visit *model.Visit) error {
	if err := r.db.WithContext(ctx).Create(visit).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrVisitConflict
		}
		return err
	}
	return nil
}

func (r *GormVisitRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var v model.Visit
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *GormVisitRepository) List(ctx context.Context, f VisitFilter) ([]model.Visit, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("tenant_id = ?", f.TenantID)

	if !f.From.IsZero() {
		q = q.Where("scheduled_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("scheduled_at < ?", f.To.UTC())
	}
	switch {
	case f.TechnicianID != nil:
		q = q.Where("technician_id = ?", *f.TechnicianID)
	case f.Unassigned:
		q = q.Where("technician_id IS NULL")
	}
	if f.PoolID != nil {
		q = q.Where("pool_id = ?", *f.PoolID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", f.ExcludeStatuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var visits []model.Visit
	if err := q.Order("scheduled_at ASC").Order("id ASC").Find(&visits).Error; err != nil {
		return nil, 0, err
	}

	return visits, total, nil
}

func (r *GormVisitRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, change VisitChange) error {
	update := map[string]any{}
	if change.ScheduledAt != nil {
		update["scheduled_at"] = change.ScheduledAt.UTC()
	}
	if change.SetTechnician {
		if change.TechnicianID != nil {
			update["technician_id"] = *change.TechnicianID
		} else {
			update["technician_id"] = nil
		}
	}
	if len(update) == 0 {
		// Нечего менять, только убеждаемся, что визит существует.
		_, err := r.GetByID(ctx, id)
		return err
	}

	// Одно UPDATE-выражение: изменения визита атомарны относительно его же полей.
	tx := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("id = ?", id).
		Updates(update)
	if tx.Error != nil {
		if isDuplicateKey(tx.Error) {
			return ErrVisitConflict
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func (r *GormVisitRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to model.VisitStatus, at time.Time) error {
	update := map[string]any{"status": to}
	switch to {
	case model.VisitStatusCompleted:
		update["completed_at"] = at.UTC()
	case model.VisitStatusCancelled:
		update["cancelled_at"] = at.UTC()
	default:
		return ErrInvalidTransition
	}

	tx := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("id = ? AND status = ?", id, model.VisitStatusPending).
		Updates(update)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected > 0 {
		return nil
	}

	// Ничего не обновилось: визита нет либо он уже в терминальном статусе.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// На случай, если TranslateError не включён в конфиге GORM.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
