package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/route-planner/internal/model"
)

type PoolRepository interface {
	// ListByZoneIDs отдаёт бассейны всех перечисленных зон.
	ListByZoneIDs(ctx context.Context, zoneIDs []uuid.UUID) ([]model.Pool, error)
}

type GormPoolRepository struct {
	db *gorm.DB
}

func NewGormPoolRepository(db *gorm.DB) *GormPoolRepository {
	return &GormPoolRepository{db: db}
}

func (r *GormPoolRepository) ListByZoneIDs(ctx context.Context, zoneIDs []uuid.UUID) ([]model.Pool, error) {
	if len(zoneIDs) == 0 {
		return []model.Pool{}, nil
	}
	var pools []model.Pool
	err := r.db.WithContext(ctx).
		Where("zone_id IN ?", zoneIDs).
		Order("id ASC").
		Find(&pools).Error
	if err != nil {
		return nil, err
	}
	return pools, nil
}
