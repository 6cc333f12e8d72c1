package scoreService

import (
	"pickemEngine/models"
	"pickemEngine/services/common"
)

// Push is the WinnerATS value recorded when neither team covers.
const Push = "push"

const (
	basePointsWin  = 20
	basePointsPush = 10
)

// Outcome is the settled result of one pick.
type Outcome struct {
	Result      string
	Points      int
	BonusPoints int
}

// EvaluateGame determines the against-the-spread winner of a final game.
//
// Spread is stored from the home team's perspective: negative = home
// favored, positive = away favored (same convention as the stored line).
// The adjusted home margin (homeScore - awayScore + spread) is positive
// when the home side covers, negative when the away side covers, and zero
// on a push. This sign-aware form handles away favorites correctly; the
// historical abs-spread variant did not.
//
// coverMargin is how far the covering side cleared the spread; zero on a
// push.
func EvaluateGame(homeTeam, awayTeam string, homeScore, awayScore int, spread float64) (winnerATS string, coverMargin float64) {
	margin := float64(homeScore - awayScore)
	adjusted := margin + spread

	switch {
	case adjusted > 0:
		return homeTeam, adjusted
	case adjusted < 0:
		return awayTeam, -adjusted
	default:
		return Push, 0
	}
}

// EvaluatePick computes the result and point total for a single pick on a
// final game. Pure and deterministic: identical inputs always produce the
// identical Outcome.
//
// Scoring: win = 20, push = 10, loss = 0. Cover-margin bonus (wins only):
// >= 29 pays 5, >= 20 pays 3, >= 11 pays 1, single highest tier only. A
// lock doubles the bonus, never the base.
func EvaluatePick(selectedTeam, homeTeam, awayTeam string, homeScore, awayScore int, spread float64, isLock bool) Outcome {
	winnerATS, coverMargin := EvaluateGame(homeTeam, awayTeam, homeScore, awayScore, spread)

	if winnerATS == Push {
		return Outcome{Result: models.PickPush, Points: basePointsPush}
	}

	if common.NormalizeTeamName(selectedTeam) != common.NormalizeTeamName(winnerATS) {
		return Outcome{Result: models.PickLoss}
	}

	bonus := MarginBonus(coverMargin)
	if isLock {
		bonus *= 2
	}

	return Outcome{
		Result:      models.PickWin,
		Points:      basePointsWin + bonus,
		BonusPoints: bonus,
	}
}

// MarginBonus maps a cover margin to its bonus tier.
func MarginBonus(coverMargin float64) int {
	switch {
	case coverMargin >= 29:
		return 5
	case coverMargin >= 20:
		return 3
	case coverMargin >= 11:
		return 1
	default:
		return 0
	}
}
