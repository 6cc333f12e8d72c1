package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"pickemEngine/config"
	"pickemEngine/models"
	"pickemEngine/models/external"
	"pickemEngine/scheduler/scheduler_jobs"
	"pickemEngine/services/common"
	"pickemEngine/services/messageService"
	"pickemEngine/services/syncService"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Polling states, in decreasing urgency.
const (
	StateLive        = "live"
	StateApproaching = "approaching"
	StateGameDay     = "game_day"
	StateIdle        = "idle"
	StateStopped     = "stopped"
)

// Scheduler owns the polling timers. A single isPolling flag guards
// re-entrancy; there is no cross-process coordination, so running two
// instances against one database is unsupported.
type Scheduler struct {
	db       *gorm.DB
	cfg      *config.Config
	provider syncService.ScoreboardProvider
	session  *discordgo.Session
	clock    clockwork.Clock
	cron     *cron.Cron

	mu         sync.Mutex
	running    bool
	isPolling  bool
	state      string
	lastPoll   time.Time
	lastResult syncService.Result
	stopCh     chan struct{}
	pollNowCh  chan struct{}
}

// CalendarProvider is the optional calendar surface of a feed client.
type CalendarProvider interface {
	CurrentWeek(ctx context.Context) (*external.CalendarData, error)
}

type Status struct {
	Running    bool
	Polling    bool
	State      string
	LastPoll   time.Time
	LastResult syncService.Result
}

func New(db *gorm.DB, cfg *config.Config, provider syncService.ScoreboardProvider, session *discordgo.Session) *Scheduler {
	return NewWithClock(db, cfg, provider, session, clockwork.NewRealClock())
}

// NewWithClock injects the clock so interval behavior is testable without
// real sleeps.
func NewWithClock(db *gorm.DB, cfg *config.Config, provider syncService.ScoreboardProvider, session *discordgo.Session, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		db:       db,
		cfg:      cfg,
		provider: provider,
		session:  session,
		clock:    clock,
		state:    StateStopped,
	}
}

// Start launches the adaptive poll loop and the independent settlement
// sweep cron. Starting an already-running scheduler is an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}
	s.running = true
	s.state = StateIdle
	s.stopCh = make(chan struct{})
	s.pollNowCh = make(chan struct{}, 1)

	s.cron = cron.New(cron.WithSeconds())
	_, err := s.cron.AddFunc(s.cfg.Poll.SettlementSweepCron, func() {
		// Settlement must not be starved by a slow feed; this runs on its
		// own cadence regardless of the poll loop.
		if jobErr := scheduler_jobs.CheckUnsettledPicks(s.db); jobErr != nil {
			common.LogError(s.db, "scheduler", jobErr)
		}
		if jobErr := scheduler_jobs.CheckStuckGames(s.db, s.cfg.Poll.LiveWindow, s.PollNow); jobErr != nil {
			common.LogError(s.db, "scheduler", jobErr)
		}
	})
	if err != nil {
		s.running = false
		s.state = StateStopped
		return fmt.Errorf("registering settlement sweep: %v", err)
	}
	s.cron.Start()

	if cal, ok := s.provider.(CalendarProvider); ok {
		go logFeedWeek(s.db, cal)
	}

	go s.loop(s.stopCh, s.pollNowCh)
	return nil
}

// logFeedWeek logs the feed's view of the current week once at startup so
// a drifted local schedule is visible in the logs. The active week itself
// always comes from local games.
func logFeedWeek(db *gorm.DB, provider CalendarProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	calendar, err := provider.CurrentWeek(ctx)
	if err != nil {
		common.LogError(db, "scheduler", fmt.Errorf("fetching feed calendar: %v", err))
		return
	}
	if calendar.Season == nil || calendar.Week == nil {
		return
	}
	log.Printf("[scheduler] feed reports season %d week %d (%s)",
		calendar.Season.Year, calendar.Week.WeekNum, calendar.Week.WeekType)
}

// Stop clears any pending timer and halts the cron. An in-flight
// reconciliation pass is allowed to finish; nothing is cancelled mid-write.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.state = StateStopped
	close(s.stopCh)
	if s.cron != nil {
		s.cron.Stop()
	}
}

// PollNow requests an immediate reconciliation pass. Non-blocking; if a
// request is already pending this is a no-op.
func (s *Scheduler) PollNow() {
	s.mu.Lock()
	ch := s.pollNowCh
	running := s.running
	s.mu.Unlock()

	if !running || ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:    s.running,
		Polling:    s.isPolling,
		State:      s.state,
		LastPoll:   s.lastPoll,
		LastResult: s.lastResult,
	}
}

// loop takes its channels as arguments: Start hands over the ones it just
// created under the lock, so a stale loop from a previous Start/Stop cycle
// never races a restart over the struct fields.
func (s *Scheduler) loop(stopCh, pollNowCh chan struct{}) {
	for {
		done := s.tick()
		if done {
			s.Stop()
			return
		}

		interval, auto := s.nextInterval()
		if !auto {
			// Idle: no automatic polling. Wake for a manual trigger or for
			// the next known kickoff so a new game day is never missed.
			wake := s.idleWake()
			select {
			case <-stopCh:
				wake.Stop()
				return
			case <-pollNowCh:
				wake.Stop()
				continue
			case <-wake.Chan():
				continue
			}
		}

		timer := s.clock.NewTimer(interval)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-pollNowCh:
			timer.Stop()
		case <-timer.Chan():
		}
	}
}

// tick runs one reconciliation pass. Returns true when every game of the
// active week is settled and polling can stop.
func (s *Scheduler) tick() (done bool) {
	s.mu.Lock()
	if s.isPolling {
		// Overlapping passes against the same week are not allowed.
		s.mu.Unlock()
		return false
	}
	s.isPolling = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isPolling = false
		s.mu.Unlock()
	}()

	season, week, err := syncService.ActiveWeek(s.db)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Println("[scheduler] every game is settled, stopping poller")
			return true
		}
		common.LogError(s.db, "scheduler", err)
		return false
	}

	res := syncService.Reconcile(context.Background(), s.db, s.provider, season, week)

	s.mu.Lock()
	s.lastPoll = s.clock.Now()
	s.lastResult = res
	s.state = s.classifyLocked()
	s.mu.Unlock()

	log.Printf("[scheduler] reconciled season %d week %d: %d checked, %d updated, %d newly completed, %d errors",
		season, week, res.GamesChecked, res.GamesUpdated, len(res.NewlyCompleted), len(res.Errors))

	for _, gameID := range res.NewlyCompleted {
		messageService.AnnounceSettlement(s.session, s.db, s.cfg.Discord.ChannelID, gameID)
	}

	return false
}

// classifyLocked buckets the current situation. Caller holds s.mu.
func (s *Scheduler) classifyLocked() string {
	now := s.clock.Now()

	var games []models.Game
	if err := s.db.Where("status <> ?", models.GameCompleted).Find(&games).Error; err != nil {
		log.Printf("[scheduler] classify: %v", err)
		return StateIdle
	}

	state := StateIdle
	for _, game := range games {
		if game.Status == models.GameInProgress {
			return StateLive
		}

		untilKickoff := game.Kickoff.Sub(now)
		if untilKickoff <= s.cfg.Poll.KickoffLead && untilKickoff > -s.cfg.Poll.LiveWindow {
			state = StateApproaching
			continue
		}

		if state == StateIdle && sameDay(game.Kickoff, now) {
			state = StateGameDay
		}
	}
	return state
}

// nextInterval maps the current state to a poll cadence. The second return
// is false when polling should pause until a trigger (idle).
func (s *Scheduler) nextInterval() (time.Duration, bool) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateLive:
		return s.cfg.Poll.LiveInterval, true
	case StateApproaching:
		return s.cfg.Poll.ApproachingInterval, true
	case StateGameDay:
		return s.cfg.Poll.GameDayInterval, true
	default:
		return 0, false
	}
}

// idleWake returns a timer for the next moment polling could matter again:
// the earliest future kickoff minus the approach lead. With no future
// games it sits a day out; the settlement sweep keeps running regardless.
func (s *Scheduler) idleWake() clockwork.Timer {
	now := s.clock.Now()
	wait := 24 * time.Hour

	var game models.Game
	err := s.db.Where("status = ? AND kickoff > ?", models.GameScheduled, now).
		Order("kickoff ASC").
		First(&game).Error
	if err == nil {
		until := game.Kickoff.Sub(now) - s.cfg.Poll.KickoffLead
		if until < time.Minute {
			until = time.Minute
		}
		if until < wait {
			wait = until
		}
	}

	return s.clock.NewTimer(wait)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
