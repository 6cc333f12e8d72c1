package syncService

import (
	"pickemEngine/models"

	"gorm.io/gorm"
)

// ActiveWeek returns the earliest (season, week) that still has games
// without a final outcome. Derived from local data so a feed outage cannot
// stall a known week. gorm.ErrRecordNotFound means everything is settled.
func ActiveWeek(db *gorm.DB) (season, week int, err error) {
	var game models.Game
	err = db.Where("status <> ? OR winner_ats IS NULL", models.GameCompleted).
		Order("season ASC, week ASC").
		First(&game).Error
	if err != nil {
		return 0, 0, err
	}
	return game.Season, game.Week, nil
}
