package external

import "time"

// CalendarData is the feed's season-calendar response. Used for
// diagnostics only; the active week is derived from local games so a
// calendar outage cannot stall settlement.
type CalendarData struct {
	Week       *CalendarWeek   `json:"curWeek"`
	Season     *CalendarSeason `json:"curSeason"`
	MaxRegWeek uint            `json:"maxRegSeasonWeekNum"`
}

type CalendarWeek struct {
	WeekNum   uint      `json:"weekNum"`
	WeekType  string    `json:"weekType"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type CalendarSeason struct {
	Year      uint      `json:"year"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}
