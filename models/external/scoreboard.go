package external

import (
	"encoding/json"
	"time"
)

// ScoreboardGame is one game in the feed's weekly scoreboard snapshot.
// The feed's ID differs between endpoints, so it is never used as a join
// key; team names are matched against local games instead.
type ScoreboardGame struct {
	ID           int          `json:"id"`
	Season       int          `json:"season"`
	Week         int          `json:"week"`
	StartDate    time.Time    `json:"startDate"`
	StartTimeTBD bool         `json:"startTimeTBD"`
	Status       string       `json:"status"`
	Completed    *bool        `json:"completed"`
	Period       *int         `json:"period"`
	Clock        *string      `json:"clock"`
	HomeTeam     ScoreboardTeam `json:"homeTeam"`
	AwayTeam     ScoreboardTeam `json:"awayTeam"`
	Betting      *struct {
		Spread    json.Number `json:"spread"`
		OverUnder json.Number `json:"overUnder"`
	} `json:"betting"`
}

type ScoreboardTeam struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Conference string `json:"conference"`
	Points     *int   `json:"points"`
}

// IsComplete reports whether the feed considers the game over, tolerating
// feeds that express it as a status string or as a boolean flag.
func (g *ScoreboardGame) IsComplete() bool {
	if g.Completed != nil && *g.Completed {
		return true
	}
	return g.Status == "completed" || g.Status == "final" || g.Status == "STATUS_FINAL"
}

// IsLive reports whether the feed considers the game in progress.
func (g *ScoreboardGame) IsLive() bool {
	return g.Status == "in_progress" || g.Status == "active" || g.Status == "STATUS_IN_PROGRESS"
}
