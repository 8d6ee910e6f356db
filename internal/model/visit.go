package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Статус визита. PENDING -> COMPLETED | CANCELLED, последние два терминальные.
type VisitStatus string

const (
	VisitStatusPending   VisitStatus = "PENDING"
	VisitStatusCompleted VisitStatus = "COMPLETED"
	VisitStatusCancelled VisitStatus = "CANCELLED"
)

// IsTerminal сообщает, что из статуса нет переходов.
func (s VisitStatus) IsTerminal() bool {
	return s == VisitStatusCompleted || s == VisitStatusCancelled
}

// visits — конкретный датированный визит на бассейн.
// Пара (pool_id, scheduled_at) уникальна: это ключ идемпотентности материализации.
type Visit struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	PoolID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_visits_pool_scheduled,priority:1"`
	ScheduledAt time.Time `gorm:"not null;index;uniqueIndex:idx_visits_pool_scheduled,priority:2"`

	TechnicianID *uuid.UUID `gorm:"type:uuid;index"`

	Status VisitStatus `gorm:"type:varchar(16);not null;index"`

	// Маршрут, из которого визит был материализован; nil для разовых визитов.
	RouteTemplateID *uuid.UUID `gorm:"type:uuid;index"`

	Notes string `gorm:"type:text"`

	CompletedAt *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Pool *Pool `gorm:"foreignKey:PoolID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = VisitStatusPending
	}
	v.ScheduledAt = v.ScheduledAt.UTC()
	return nil
}
