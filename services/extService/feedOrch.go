package extService

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"pickemEngine/config"
	"pickemEngine/models/external"
	"pickemEngine/services/common"
	"pickemEngine/services/quotaService"

	"gorm.io/gorm"
)

// Client fetches weekly scoreboard snapshots from the external feed. Every
// network attempt is quota-gated; on quota denial or feed failure the
// client falls through an ordered list of strategies (primary endpoint,
// backup endpoint, last cached snapshot) and only errors when all of them
// come up empty. It never invents data.
type Client struct {
	db    *gorm.DB
	quota *quotaService.Governor
	cfg   config.FeedConfig

	mu     sync.Mutex
	cached map[string][]external.ScoreboardGame
}

func NewClient(db *gorm.DB, quota *quotaService.Governor, cfg config.FeedConfig) *Client {
	return &Client{
		db:     db,
		quota:  quota,
		cfg:    cfg,
		cached: make(map[string][]external.ScoreboardGame),
	}
}

type scoreboardAttempt struct {
	name string
	run  func(ctx context.Context) ([]external.ScoreboardGame, error)
}

// GetScoreboard returns the feed's snapshot for (season, week).
func (c *Client) GetScoreboard(ctx context.Context, season, week int) (_ []external.ScoreboardGame, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in GetScoreboard", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in GetScoreboard: %v", r)
		}
	}()

	attempts := []scoreboardAttempt{
		{name: "primary", run: func(ctx context.Context) ([]external.ScoreboardGame, error) {
			return c.fetch(ctx, c.cfg.BaseURL, season, week)
		}},
	}
	if c.cfg.BackupURL != "" {
		attempts = append(attempts, scoreboardAttempt{name: "backup", run: func(ctx context.Context) ([]external.ScoreboardGame, error) {
			return c.fetch(ctx, c.cfg.BackupURL, season, week)
		}})
	}
	attempts = append(attempts, scoreboardAttempt{name: "cached", run: func(ctx context.Context) ([]external.ScoreboardGame, error) {
		return c.lastSnapshot(season, week)
	}})

	var failures []string
	for _, attempt := range attempts {
		games, attemptErr := attempt.run(ctx)
		if attemptErr == nil {
			return games, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", attempt.name, attemptErr))
		common.LogError(c.db, "extService", fmt.Errorf("scoreboard %s attempt failed: %v", attempt.name, attemptErr))
	}

	return nil, fmt.Errorf("all scoreboard attempts failed for season %d week %d: %s",
		season, week, strings.Join(failures, "; "))
}

func (c *Client) fetch(ctx context.Context, baseURL string, season, week int) ([]external.ScoreboardGame, error) {
	if ok, reason := c.quota.CanCall(1); !ok {
		return nil, fmt.Errorf("call not permitted: %s", reason)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	requestUrl := fmt.Sprintf("%s?year=%d&week=%d", baseURL, season, week)
	resp, err := common.FeedGet(ctx, requestUrl)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var games []external.ScoreboardGame
	if err = json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, err
	}

	// Count the call only after the body decoded: a broken response should
	// not burn budget.
	if err = c.quota.RecordCall(baseURL, 1); err != nil {
		common.LogError(c.db, "extService", fmt.Errorf("recording api call: %v", err))
	}

	c.mu.Lock()
	c.cached[cacheKey(season, week)] = games
	c.mu.Unlock()

	return games, nil
}

func (c *Client) lastSnapshot(season, week int) ([]external.ScoreboardGame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	games, found := c.cached[cacheKey(season, week)]
	if !found {
		return nil, fmt.Errorf("no cached snapshot for season %d week %d", season, week)
	}
	log.Printf("[extService] serving cached scoreboard for season %d week %d", season, week)
	return games, nil
}

// CurrentWeek fetches the feed's season calendar. Diagnostics only; the
// active week is derived from local games, not from this endpoint.
func (c *Client) CurrentWeek(ctx context.Context) (*external.CalendarData, error) {
	if ok, reason := c.quota.CanCall(1); !ok {
		return nil, fmt.Errorf("call not permitted: %s", reason)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	resp, err := common.FeedGet(ctx, c.cfg.CalendarURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var calendar external.CalendarData
	if err = json.NewDecoder(resp.Body).Decode(&calendar); err != nil {
		return nil, err
	}

	if err = c.quota.RecordCall(c.cfg.CalendarURL, 1); err != nil {
		common.LogError(c.db, "extService", fmt.Errorf("recording api call: %v", err))
	}

	return &calendar, nil
}

func (c *Client) timeout() time.Duration {
	if c.cfg.Timeout > 0 {
		return c.cfg.Timeout
	}
	return 8 * time.Second
}

func cacheKey(season, week int) string {
	return fmt.Sprintf("%d-%d", season, week)
}
