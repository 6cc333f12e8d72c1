package models

import "gorm.io/gorm"

// AutoMigrate migrates every table this engine owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Game{},
		&Pick{},
		&AnonymousPick{},
		&ApiCall{},
		&SettlementEvent{},
		&ErrorLog{},
		&Migration{},
	)
}
