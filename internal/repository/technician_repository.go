package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/route-planner/internal/model"
)

type TechnicianRepository interface {
	// ListWithAvailability отдаёт техников и менеджеров арендатора вместе с отсутствиями.
	ListWithAvailability(ctx context.Context, tenantID uuid.UUID) ([]model.User, error)
}

type GormTechnicianRepository struct {
	db *gorm.DB
}

func NewGormTechnicianRepository(db *gorm.DB) *GormTechnicianRepository {
	return &GormTechnicianRepository{db: db}
}

func (r *GormTechnicianRepository) ListWithAvailability(ctx context.Context, tenantID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("Availabilities", "tenant_id = ?", tenantID).
		Where("tenant_id = ?", tenantID).
		Where("role IN ?", []model.Role{model.RoleTechnician, model.RoleManager}).
		Order("display_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
