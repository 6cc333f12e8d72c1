package settleService

import (
	"fmt"
	"log"
	"runtime/debug"

	"pickemEngine/models"
	"pickemEngine/services/common"
	"pickemEngine/services/scoreService"

	"gorm.io/gorm"
)

// pickPageSize bounds how many unsettled picks are loaded per round trip.
const pickPageSize = 5

// SettleGame writes the game's against-the-spread outcome (at most once)
// and settles every pick referencing it exactly once. Safe to re-invoke:
// an already-recorded outcome is never recomputed and already-settled
// picks are never touched, so a crash anywhere in here is repaired by the
// next call.
func SettleGame(db *gorm.DB, gameID uint) (picksUpdated, anonUpdated int, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in SettleGame", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in SettleGame: %v", r)
		}
	}()

	var game models.Game
	if err = db.First(&game, gameID).Error; err != nil {
		return 0, 0, fmt.Errorf("loading game %d: %v", gameID, err)
	}

	if game.Status != models.GameCompleted {
		return 0, 0, fmt.Errorf("game %d is %q, refusing to settle a non-final game", gameID, game.Status)
	}
	if game.HomeScore == nil || game.AwayScore == nil {
		return 0, 0, fmt.Errorf("game %d is completed but missing scores, refusing to settle", gameID)
	}

	if game.WinnerATS == nil {
		winnerATS, coverMargin := scoreService.EvaluateGame(
			game.HomeTeam, game.AwayTeam, *game.HomeScore, *game.AwayScore, game.Spread)
		bonus := scoreService.MarginBonus(coverMargin)
		base := 20

		outcome := map[string]interface{}{
			"winner_ats":   winnerATS,
			"margin_bonus": bonus,
			"base_points":  base,
		}
		if err = db.Model(&game).Updates(outcome).Error; err != nil {
			return 0, 0, fmt.Errorf("writing outcome for game %d: %v", gameID, err)
		}
		game.WinnerATS = &winnerATS
	}
	// else: retry path, the recorded outcome stands.

	picksUpdated = settlePickPages(db, &game)
	anonUpdated = settleAnonymousPages(db, &game)

	if picksUpdated+anonUpdated > 0 {
		event := models.SettlementEvent{
			GameID:       game.ID,
			PicksSettled: picksUpdated,
			AnonSettled:  anonUpdated,
		}
		if createErr := db.Create(&event).Error; createErr != nil {
			common.LogError(db, "settleService", fmt.Errorf("writing settlement event for game %d: %v", game.ID, createErr))
		}
	}

	return picksUpdated, anonUpdated, nil
}

// settlePickPages walks unsettled picks in fixed-size pages. A failed
// write is logged and skipped rather than retried inline; its result stays
// NULL so the next sweep finds it again.
func settlePickPages(db *gorm.DB, game *models.Game) int {
	settled := 0
	var failed []uint

	for {
		var page []models.Pick
		query := db.Where("game_id = ? AND result IS NULL", game.ID)
		if len(failed) > 0 {
			query = query.Where("id NOT IN ?", failed)
		}
		if err := query.Limit(pickPageSize).Find(&page).Error; err != nil {
			common.LogError(db, "settleService", fmt.Errorf("paging picks for game %d: %v", game.ID, err))
			return settled
		}
		if len(page) == 0 {
			return settled
		}

		for _, pick := range page {
			outcome := scoreService.EvaluatePick(
				pick.SelectedTeam, game.HomeTeam, game.AwayTeam,
				*game.HomeScore, *game.AwayScore, game.Spread, pick.IsLock)

			updates := map[string]interface{}{
				"result":        outcome.Result,
				"points_earned": outcome.Points,
			}
			if err := db.Model(&models.Pick{}).Where("id = ?", pick.ID).Updates(updates).Error; err != nil {
				common.LogError(db, "settleService", fmt.Errorf("settling pick %d: %v", pick.ID, err))
				failed = append(failed, pick.ID)
				continue
			}
			settled++
		}
	}
}

func settleAnonymousPages(db *gorm.DB, game *models.Game) int {
	settled := 0
	var failed []uint

	for {
		var page []models.AnonymousPick
		query := db.Where("game_id = ? AND result IS NULL", game.ID)
		if len(failed) > 0 {
			query = query.Where("id NOT IN ?", failed)
		}
		if err := query.Limit(pickPageSize).Find(&page).Error; err != nil {
			common.LogError(db, "settleService", fmt.Errorf("paging anonymous picks for game %d: %v", game.ID, err))
			return settled
		}
		if len(page) == 0 {
			return settled
		}

		for _, pick := range page {
			outcome := scoreService.EvaluatePick(
				pick.SelectedTeam, game.HomeTeam, game.AwayTeam,
				*game.HomeScore, *game.AwayScore, game.Spread, pick.IsLock)

			updates := map[string]interface{}{
				"result":        outcome.Result,
				"points_earned": outcome.Points,
			}
			if err := db.Model(&models.AnonymousPick{}).Where("id = ?", pick.ID).Updates(updates).Error; err != nil {
				common.LogError(db, "settleService", fmt.Errorf("settling anonymous pick %d: %v", pick.ID, err))
				failed = append(failed, pick.ID)
				continue
			}
			settled++
		}
	}
}
