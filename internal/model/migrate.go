package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей планировщика маршрутов.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserAvailability{},
		&Zone{},
		&Client{},
		&Pool{},
		&RouteTemplate{},
		&Season{},
		&Visit{},
		&MaterializationRun{},
	)
}
