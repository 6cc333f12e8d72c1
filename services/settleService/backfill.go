package settleService

import (
	"fmt"
	"log"
	"time"

	"pickemEngine/models"

	"gorm.io/gorm"
)

// RunBasePointsBackfill stamps base_points on games settled before the
// column existed. Guarded by a migration row so it executes once.
func RunBasePointsBackfill(db *gorm.DB) error {
	var existingMigration models.Migration
	result := db.Where("name = ?", "settled_base_points_backfill").First(&existingMigration)
	if result.Error == nil && existingMigration.ID != 0 {
		return nil
	}

	log.Println("Starting base points backfill...")

	update := db.Model(&models.Game{}).
		Where("winner_ats IS NOT NULL AND base_points IS NULL").
		Update("base_points", 20)
	if update.Error != nil {
		return fmt.Errorf("error backfilling base points: %v", update.Error)
	}

	migration := models.Migration{
		Name:       "settled_base_points_backfill",
		ExecutedAt: time.Now(),
	}
	if err := db.Create(&migration).Error; err != nil {
		return fmt.Errorf("error marking migration as complete: %v", err)
	}

	log.Printf("Base points backfill completed. Updated %d games.", update.RowsAffected)
	return nil
}
