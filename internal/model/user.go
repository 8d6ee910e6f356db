package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Роль сотрудника.
type Role string

const (
	RoleTechnician Role = "TECHNICIAN"
	RoleManager    Role = "MANAGER"
)

// users — техники и менеджеры арендатора.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	DisplayName string `gorm:"type:varchar(255)"`
	Role        Role   `gorm:"type:varchar(16);not null;index"`

	// Мгновенный выключатель доступности. Без default в БД:
	// GORM пропускает нулевые значения у полей с default, и false не сохранился бы.
	IsAvailable bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Availabilities []UserAvailability `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// user_availabilities — плановое отсутствие техника, обе даты включительно.
// Пересечения интервалов одного техника допустимы.
type UserAvailability struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index"`

	StartDate datatypes.Date `gorm:"type:date;not null"`
	EndDate   datatypes.Date `gorm:"type:date;not null"`

	Reason string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (a *UserAvailability) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
