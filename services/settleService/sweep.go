package settleService

import (
	"fmt"
	"log"
	"runtime/debug"

	"pickemEngine/models"
	"pickemEngine/services/common"

	"gorm.io/gorm"
)

// SweepUnsettled re-enters settlement for any completed game with scores
// that still has a missing outcome or unsettled picks. This runs on its
// own timer so a slow or rationed feed never starves settlement.
func SweepUnsettled(db *gorm.DB) (gamesSettled int, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in SweepUnsettled", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in SweepUnsettled: %v", r)
		}
	}()

	var games []models.Game
	result := db.Where("status = ? AND home_score IS NOT NULL AND away_score IS NOT NULL",
		models.GameCompleted).Find(&games)
	if result.Error != nil {
		return 0, result.Error
	}

	for _, game := range games {
		needsWork := !game.IsFinal()

		if !needsWork {
			var unsettled int64
			if countErr := db.Model(&models.Pick{}).
				Where("game_id = ? AND result IS NULL", game.ID).
				Count(&unsettled).Error; countErr != nil {
				common.LogError(db, "settleService", fmt.Errorf("counting unsettled picks for game %d: %v", game.ID, countErr))
				continue
			}
			needsWork = unsettled > 0
		}
		if !needsWork {
			var unsettled int64
			if countErr := db.Model(&models.AnonymousPick{}).
				Where("game_id = ? AND result IS NULL", game.ID).
				Count(&unsettled).Error; countErr != nil {
				common.LogError(db, "settleService", fmt.Errorf("counting unsettled anonymous picks for game %d: %v", game.ID, countErr))
				continue
			}
			needsWork = unsettled > 0
		}
		if !needsWork {
			continue
		}

		picks, anon, settleErr := SettleGame(db, game.ID)
		if settleErr != nil {
			common.LogError(db, "settleService", settleErr)
			continue
		}
		if picks+anon > 0 || !game.IsFinal() {
			gamesSettled++
		}
	}

	return gamesSettled, nil
}
