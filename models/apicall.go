package models

import "gorm.io/gorm"

// ApiCall is one row per external feed request. The quota governor sums
// Cost over a rolling window to enforce the monthly call budget.
type ApiCall struct {
	gorm.Model
	ID       uint   `gorm:"primaryKey"`
	Endpoint string `gorm:"size:255"`
	Cost     int    `gorm:"default:1"`
}
