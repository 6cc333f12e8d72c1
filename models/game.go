package models

import (
	"gorm.io/gorm"
	"time"
)

const (
	GameScheduled  = "scheduled"
	GameInProgress = "in_progress"
	GameCompleted  = "completed"
)

// StatusRank orders game statuses so transitions can be checked for
// monotonicity. A game never moves to a lower-ranked status.
func StatusRank(status string) int {
	switch status {
	case GameScheduled:
		return 0
	case GameInProgress:
		return 1
	case GameCompleted:
		return 2
	}
	return -1
}

type Game struct {
	gorm.Model
	ID        uint `gorm:"primaryKey"`
	Season    int  `gorm:"index:game_week_idx"`
	Week      int  `gorm:"index:game_week_idx"`
	HomeTeam  string
	AwayTeam  string
	HomeScore *int
	AwayScore *int
	// Spread is stored from the home team's perspective:
	// negative = home favored, positive = away favored.
	Spread  float64
	Status  string `gorm:"size:20;default:'scheduled'"`
	Period  *int
	Clock   *string
	Kickoff time.Time

	// Outcome fields, written exactly once when the game settles.
	WinnerATS   *string
	MarginBonus *int
	BasePoints  *int

	// Shadow copy of the last raw feed values. Diagnostics only,
	// never used to drive settlement.
	FeedStatus    *string
	FeedHomeScore *int
	FeedAwayScore *int
	FeedSeenAt    *time.Time
}

// IsFinal reports whether the game is completed with an outcome already
// recorded, i.e. nothing about it may change anymore.
func (g *Game) IsFinal() bool {
	return g.Status == GameCompleted && g.WinnerATS != nil
}
