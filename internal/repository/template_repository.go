package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/route-planner/internal/model"
)

type TemplateRepository interface {
	// ListByTenant возвращает активные маршруты арендатора с сезонами и зонами.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.RouteTemplate, error)
	// ListTenantIDs возвращает арендаторов, у которых есть хотя бы один активный маршрут.
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

type GormTemplateRepository struct {
	db *gorm.DB
}

func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

func (r *GormTemplateRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.RouteTemplate, error) {
	var templates []model.RouteTemplate
	err := r.db.WithContext(ctx).
		Preload("Seasons", func(db *gorm.DB) *gorm.DB {
			// Порядок сезонов детерминирован независимо от бэкенда.
			return db.Order("start_date ASC").Order("id ASC")
		}).
		Preload("Zones").
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("name ASC").
		Order("id ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *GormTemplateRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.RouteTemplate{}).
		Where("active = ?", true).
		Distinct().
		Order("tenant_id ASC").
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
