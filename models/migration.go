package models

import (
	"gorm.io/gorm"
	"time"
)

// Migration records one-shot data migrations so re-running the binary
// never repeats them.
type Migration struct {
	gorm.Model
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"uniqueIndex; size:255"`
	ExecutedAt time.Time
}
