package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// День недели маршрута.
type Weekday string

const (
	WeekdayMonday    Weekday = "MONDAY"
	WeekdayTuesday   Weekday = "TUESDAY"
	WeekdayWednesday Weekday = "WEDNESDAY"
	WeekdayThursday  Weekday = "THURSDAY"
	WeekdayFriday    Weekday = "FRIDAY"
	WeekdaySaturday  Weekday = "SATURDAY"
	WeekdaySunday    Weekday = "SUNDAY"
)

// Частота сезона.
type Frequency string

const (
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyBiweekly  Frequency = "BIWEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
)

// route_templates — декларативный повторяющийся маршрут техника.
type RouteTemplate struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name      string  `gorm:"type:varchar(255);not null"`
	DayOfWeek Weekday `gorm:"type:varchar(16);not null"`

	// nil — маршрут без назначенного техника, это допустимо.
	TechnicianID *uuid.UUID `gorm:"type:uuid;index"`

	// Время начала работ в минутах от полуночи (локальное время арендатора).
	// nil — используется значение по умолчанию из конфигурации.
	StartMinute *int `gorm:"type:integer"`

	Active bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Technician *User    `gorm:"foreignKey:TechnicianID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Seasons    []Season `gorm:"foreignKey:RouteTemplateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Zones      []Zone   `gorm:"many2many:route_template_zones;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (t *RouteTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ZoneIDs возвращает идентификаторы зон маршрута.
func (t *RouteTemplate) ZoneIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Zones))
	for _, z := range t.Zones {
		ids = append(ids, z.ID)
	}
	return ids
}

// seasons — сезон с частотой внутри закрытого интервала дат.
type Season struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	RouteTemplateID uuid.UUID `gorm:"type:uuid;not null;index"`

	Frequency Frequency `gorm:"type:varchar(16);not null"`

	// Чистые даты без времени, обе границы включительно.
	StartDate datatypes.Date `gorm:"type:date;not null"`
	EndDate   datatypes.Date `gorm:"type:date;not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (s *Season) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// zones — географическая группа бассейнов.
type Zone struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(255);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

// clients — владельцы бассейнов.
type Client struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(255);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// pools — единица материализации: один визит на бассейн на вхождение маршрута.
type Pool struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ZoneID   *uuid.UUID `gorm:"type:uuid;index"`
	Name     string     `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Client *Client `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Zone   *Zone   `gorm:"foreignKey:ZoneID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (p *Pool) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
