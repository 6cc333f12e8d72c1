package syncService

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"pickemEngine/models"
	"pickemEngine/models/external"
	"pickemEngine/services/common"
	"pickemEngine/services/settleService"

	"gorm.io/gorm"
)

// ScoreboardProvider is the external feed surface the reconciler needs.
// extService.Client implements it; tests substitute a fixture.
type ScoreboardProvider interface {
	GetScoreboard(ctx context.Context, season, week int) ([]external.ScoreboardGame, error)
}

// Result summarizes one reconciliation pass. Failures are local to a
// single game and accumulate in Errors; the pass itself never aborts for
// one bad row.
type Result struct {
	GamesChecked int
	GamesUpdated int
	// NewlyCompleted holds games that transitioned to completed in this
	// pass; only these get announced. Resumed holds games whose settlement
	// was finished here but that completed in an earlier pass.
	NewlyCompleted []uint
	Resumed        []uint
	Errors         []string
}

// Reconcile merges the feed's snapshot for (season, week) into the locally
// stored games and settles any game that just went final. Completed games
// with a recorded outcome are never touched again.
func Reconcile(ctx context.Context, db *gorm.DB, provider ScoreboardProvider, season, week int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in Reconcile", r)
			debug.PrintStack()
			res.Errors = append(res.Errors, fmt.Sprintf("panic recovered in Reconcile: %v", r))
		}
	}()

	var games []models.Game
	result := db.Where("season = ? AND week = ? AND (status <> ? OR winner_ats IS NULL)",
		season, week, models.GameCompleted).Find(&games)
	if result.Error != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("loading games: %v", result.Error))
		return res
	}
	res.GamesChecked = len(games)
	if len(games) == 0 {
		return res
	}

	snapshot, err := provider.GetScoreboard(ctx, season, week)
	if err != nil {
		// No data is not zero-zero scores. Record the failure and let the
		// next tick retry.
		common.LogError(db, "syncService", err)
		res.Errors = append(res.Errors, fmt.Sprintf("fetching scoreboard: %v", err))
		return res
	}

	for i := range games {
		game := &games[i]

		// A completed game missing its outcome means a previous pass died
		// between the status write and settlement. Resume settlement, but
		// never re-apply feed data to it.
		if game.Status == models.GameCompleted {
			if game.HomeScore != nil && game.AwayScore != nil {
				picks, anon, settleErr := settleService.SettleGame(db, game.ID)
				if settleErr != nil {
					res.Errors = append(res.Errors, fmt.Sprintf("resuming settlement for game %d: %v", game.ID, settleErr))
				} else if picks+anon > 0 {
					// The completion was already announced (or never will
					// be); a resumed pass must not announce it again.
					res.Resumed = append(res.Resumed, game.ID)
				}
			}
			continue
		}

		ext, found := matchExternal(game, snapshot)
		if !found {
			continue
		}

		changed, nowComplete, applyErr := applySnapshot(db, game, ext)
		if applyErr != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("updating game %d: %v", game.ID, applyErr))
			continue
		}
		if changed {
			res.GamesUpdated++
		}
		if nowComplete {
			if _, _, settleErr := settleService.SettleGame(db, game.ID); settleErr != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("settling game %d: %v", game.ID, settleErr))
			}
			res.NewlyCompleted = append(res.NewlyCompleted, game.ID)
		}
	}

	return res
}

// matchExternal finds the feed record for a local game by team names.
// Exact normalized comparison across the whole snapshot first, then the
// fuzzy fallback. Unmatched feed records are simply not ours.
func matchExternal(game *models.Game, snapshot []external.ScoreboardGame) (*external.ScoreboardGame, bool) {
	homeNorm := common.NormalizeTeamName(game.HomeTeam)
	awayNorm := common.NormalizeTeamName(game.AwayTeam)

	for i := range snapshot {
		ext := &snapshot[i]
		if common.NormalizeTeamName(ext.HomeTeam.Name) == homeNorm &&
			common.NormalizeTeamName(ext.AwayTeam.Name) == awayNorm {
			return ext, true
		}
	}

	for i := range snapshot {
		ext := &snapshot[i]
		if common.MatchTeamName(ext.HomeTeam.Name, game.HomeTeam) &&
			common.MatchTeamName(ext.AwayTeam.Name, game.AwayTeam) {
			return ext, true
		}
	}

	return nil, false
}

// applySnapshot validates the feed record against the local game and
// writes the resulting change set. Returns whether anything was written
// and whether the game transitioned to completed in this pass.
func applySnapshot(db *gorm.DB, game *models.Game, ext *external.ScoreboardGame) (changed bool, nowComplete bool, err error) {
	candidate, distrusted := candidateStatus(game, ext)
	if distrusted {
		// The whole record disagrees with known kickoff timing; none of it
		// gets applied.
		return false, false, nil
	}

	hasScores := ext.HomeTeam.Points != nil && ext.AwayTeam.Points != nil

	// A completion claim without final scores is not trustworthy enough to
	// settle points against. Hold the previous status until scores arrive.
	if candidate == models.GameCompleted && !hasScores {
		log.Printf("[syncService] game %d (%s vs %s): feed says completed but omitted scores, keeping status %q",
			game.ID, game.HomeTeam, game.AwayTeam, game.Status)
		candidate = game.Status
	}

	updates := map[string]interface{}{}

	if candidate != game.Status {
		updates["status"] = candidate
	}
	if hasScores {
		if game.HomeScore == nil || *game.HomeScore != *ext.HomeTeam.Points {
			updates["home_score"] = *ext.HomeTeam.Points
		}
		if game.AwayScore == nil || *game.AwayScore != *ext.AwayTeam.Points {
			updates["away_score"] = *ext.AwayTeam.Points
		}
	}
	if ext.Period != nil && (game.Period == nil || *game.Period != *ext.Period) {
		updates["period"] = *ext.Period
	}
	if ext.Clock != nil && (game.Clock == nil || *game.Clock != *ext.Clock) {
		updates["clock"] = *ext.Clock
	}

	if len(updates) == 0 {
		return false, false, nil
	}

	// Shadow copy of the raw feed values rides along with any real change.
	now := time.Now()
	updates["feed_status"] = ext.Status
	updates["feed_seen_at"] = now
	if ext.HomeTeam.Points != nil {
		updates["feed_home_score"] = *ext.HomeTeam.Points
	}
	if ext.AwayTeam.Points != nil {
		updates["feed_away_score"] = *ext.AwayTeam.Points
	}

	if err = db.Model(game).Updates(updates).Error; err != nil {
		return false, false, err
	}

	nowComplete = candidate == models.GameCompleted && game.Status != models.GameCompleted
	game.Status = candidate
	return true, nowComplete, nil
}

// candidateStatus derives the status the feed implies, clamped so it can
// never regress (completed games are filtered before this point) and never
// outrun the local kickoff time. A record claiming progress before kickoff
// is reported as distrusted and must not be applied at all.
func candidateStatus(game *models.Game, ext *external.ScoreboardGame) (status string, distrusted bool) {
	candidate := models.GameScheduled
	if ext.IsComplete() {
		candidate = models.GameCompleted
	} else if ext.IsLive() {
		candidate = models.GameInProgress
	}

	// A feed that claims progress on a game that has not kicked off yet is
	// wrong; the local kickoff time is authoritative.
	if candidate != models.GameScheduled && game.Kickoff.After(time.Now()) {
		log.Printf("[syncService] game %d (%s vs %s): feed reports %q before kickoff %s, forcing scheduled",
			game.ID, game.HomeTeam, game.AwayTeam, ext.Status, game.Kickoff.Format(time.RFC3339))
		return models.GameScheduled, true
	}

	// Status only moves forward.
	if models.StatusRank(candidate) < models.StatusRank(game.Status) {
		return game.Status, false
	}
	return candidate, false
}
