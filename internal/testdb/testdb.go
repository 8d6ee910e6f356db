package testdb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/route-planner/internal/model"
)

// Open возвращает GORM поверх in-memory SQLite с применёнными миграциями.
// Одно соединение: каждое новое ":memory:"-соединение открыло бы пустую базу.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// Date возвращает календарную дату в UTC.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixture наполняет базу данными одного арендатора.
type Fixture struct {
	t        *testing.T
	db       *gorm.DB
	TenantID uuid.UUID
	client   *model.Client
}

func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{t: t, db: db, TenantID: uuid.New()}
	f.client = &model.Client{TenantID: f.TenantID, Name: "client"}
	f.create(f.client)
	return f
}

func (f *Fixture) create(v any) {
	f.t.Helper()
	if err := f.db.Create(v).Error; err != nil {
		f.t.Fatalf("seed %T: %v", v, err)
	}
}

// Zone создаёт зону с n бассейнами.
func (f *Fixture) Zone(name string, pools int) (model.Zone, []model.Pool) {
	f.t.Helper()
	z := model.Zone{TenantID: f.TenantID, Name: name}
	f.create(&z)

	out := make([]model.Pool, 0, pools)
	for i := 0; i < pools; i++ {
		p := model.Pool{TenantID: f.TenantID, ClientID: f.client.ID, ZoneID: &z.ID, Name: name}
		f.create(&p)
		out = append(out, p)
	}
	return z, out
}

// Technician создаёт техника; absences — пары дат [начало, конец].
func (f *Fixture) Technician(name string, available bool, absences ...[2]time.Time) model.User {
	f.t.Helper()
	u := model.User{TenantID: f.TenantID, DisplayName: name, Role: model.RoleTechnician, IsAvailable: available}
	f.create(&u)
	for _, a := range absences {
		f.create(&model.UserAvailability{
			TenantID:  f.TenantID,
			UserID:    u.ID,
			StartDate: datatypes.Date(a[0]),
			EndDate:   datatypes.Date(a[1]),
			Reason:    "leave",
		})
	}
	return u
}

// Template создаёт активный маршрут в указанных зонах.
func (f *Fixture) Template(
	name string,
	day model.Weekday,
	technicianID *uuid.UUID,
	zones []model.Zone,
	seasons ...model.Season,
) model.RouteTemplate {
	f.t.Helper()
	tpl := model.RouteTemplate{
		TenantID:     f.TenantID,
		Name:         name,
		DayOfWeek:    day,
		TechnicianID: technicianID,
		Active:       true,
		Seasons:      seasons,
		Zones:        zones,
	}
	f.create(&tpl)
	return tpl
}

// Season собирает сезон для Template.
func Season(freq model.Frequency, start, end time.Time) model.Season {
	return model.Season{
		Frequency: freq,
		StartDate: datatypes.Date(start),
		EndDate:   datatypes.Date(end),
	}
}

// Visit создаёт визит напрямую, минуя материализацию.
func (f *Fixture) Visit(poolID uuid.UUID, at time.Time, technicianID *uuid.UUID, status model.VisitStatus) model.Visit {
	f.t.Helper()
	v := model.Visit{
		TenantID:     f.TenantID,
		PoolID:       poolID,
		ScheduledAt:  at,
		TechnicianID: technicianID,
		Status:       status,
	}
	f.create(&v)
	return v
}
