package scheduler_jobs

import (
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"pickemEngine/models"

	"gorm.io/gorm"
)

// CheckStuckGames looks for games still marked in_progress long after
// kickoff, usually a feed that went quiet before reporting the final.
// It pokes the poller so the score fetch happens even when the adaptive
// loop has gone idle.
func CheckStuckGames(db *gorm.DB, liveWindow time.Duration, pollNow func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in CheckStuckGames", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in CheckStuckGames: %v", r)
		}
	}()

	cutoff := time.Now().Add(-liveWindow)

	var stuck []models.Game
	result := db.Where("status = ? AND kickoff < ?", models.GameInProgress, cutoff).Find(&stuck)
	if result.Error != nil {
		return result.Error
	}
	if len(stuck) == 0 {
		return nil
	}

	for _, game := range stuck {
		log.Printf("[scheduler_jobs] game %d (%s vs %s) still in_progress %s after kickoff",
			game.ID, game.HomeTeam, game.AwayTeam, time.Since(game.Kickoff).Round(time.Minute))
	}

	if pollNow != nil {
		pollNow()
	}
	return nil
}
