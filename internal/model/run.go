package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// materialization_runs — журнал запусков материализации недели.
type MaterializationRun struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	WeekStart datatypes.Date `gorm:"type:date;not null;index"`

	Created  int `gorm:"not null"`
	Existing int `gorm:"not null"`
	Skipped  int `gorm:"not null"`
	Failed   int `gorm:"not null"`

	// Полный отчёт запуска (пропуски, предупреждения, ошибки) в JSON.
	Report datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (r *MaterializationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
