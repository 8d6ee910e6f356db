package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/route-planner/internal/model"
)

type RunRepository interface {
	// Сохранить отчёт запуска материализации.
	Save(ctx context.Context, run *model.MaterializationRun) error
	// Последние запуски арендатора, новые первыми.
	ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.MaterializationRun, error)
}

type GormRunRepository struct {
	db *gorm.DB
}

func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

func (r *GormRunRepository) Save(ctx context.Context, run *model.MaterializationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *GormRunRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.MaterializationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []model.MaterializationRun
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
