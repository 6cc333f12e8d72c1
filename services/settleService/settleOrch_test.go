package settleService

import (
	"fmt"
	"testing"
	"time"

	"pickemEngine/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func intPtr(i int) *int { return &i }

func createCompletedGame(t *testing.T, db *gorm.DB) *models.Game {
	t.Helper()

	game := models.Game{
		Season:    2025,
		Week:      3,
		HomeTeam:  "Nebraska",
		AwayTeam:  "Cincinnati",
		HomeScore: intPtr(35),
		AwayScore: intPtr(17),
		Spread:    -5,
		Status:    models.GameCompleted,
		Kickoff:   time.Now().Add(-4 * time.Hour),
	}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("creating game: %v", err)
	}
	return &game
}

func TestSettleGame(t *testing.T) {
	db := newTestDB(t)
	game := createCompletedGame(t, db)

	user := models.User{ExternalID: "u1"}
	db.Create(&user)

	picks := []models.Pick{
		{UserID: user.ID, GameID: game.ID, SelectedTeam: "Nebraska"},
		{UserID: user.ID, GameID: game.ID, SelectedTeam: "Nebraska", IsLock: true},
		{UserID: user.ID, GameID: game.ID, SelectedTeam: "Cincinnati"},
	}
	for i := range picks {
		if err := db.Create(&picks[i]).Error; err != nil {
			t.Fatalf("creating pick: %v", err)
		}
	}
	anon := models.AnonymousPick{SubmissionKey: "anon1", GameID: game.ID, SelectedTeam: "Nebraska"}
	db.Create(&anon)

	picksUpdated, anonUpdated, err := SettleGame(db, game.ID)
	if err != nil {
		t.Fatalf("SettleGame: %v", err)
	}
	if picksUpdated != 3 {
		t.Errorf("picksUpdated = %d, want 3", picksUpdated)
	}
	if anonUpdated != 1 {
		t.Errorf("anonUpdated = %d, want 1", anonUpdated)
	}

	var settled models.Game
	db.First(&settled, game.ID)
	if settled.WinnerATS == nil || *settled.WinnerATS != "Nebraska" {
		t.Fatalf("winner_ats = %v, want Nebraska", settled.WinnerATS)
	}
	if settled.MarginBonus == nil || *settled.MarginBonus != 1 {
		t.Errorf("margin_bonus = %v, want 1 (cover margin 13)", settled.MarginBonus)
	}
	if settled.BasePoints == nil || *settled.BasePoints != 20 {
		t.Errorf("base_points = %v, want 20", settled.BasePoints)
	}

	expectations := []struct {
		id     uint
		result string
		points int
	}{
		{picks[0].ID, models.PickWin, 21},  // cover margin 13, bonus 1
		{picks[1].ID, models.PickWin, 22},  // lock doubles the bonus
		{picks[2].ID, models.PickLoss, 0},
	}
	for _, want := range expectations {
		var pick models.Pick
		db.First(&pick, want.id)
		if pick.Result == nil || *pick.Result != want.result {
			t.Errorf("pick %d result = %v, want %s", want.id, pick.Result, want.result)
		}
		if pick.PointsEarned == nil || *pick.PointsEarned != want.points {
			t.Errorf("pick %d points = %v, want %d", want.id, pick.PointsEarned, want.points)
		}
	}

	var settledAnon models.AnonymousPick
	db.First(&settledAnon, anon.ID)
	if settledAnon.Result == nil || *settledAnon.Result != models.PickWin {
		t.Errorf("anonymous pick result = %v, want win", settledAnon.Result)
	}
	if settledAnon.PointsEarned == nil || *settledAnon.PointsEarned != 21 {
		t.Errorf("anonymous pick points = %v, want 21", settledAnon.PointsEarned)
	}

	var event models.SettlementEvent
	if err := db.Where("game_id = ?", game.ID).First(&event).Error; err != nil {
		t.Errorf("expected a settlement event row: %v", err)
	}
}

func TestSettleGameIdempotent(t *testing.T) {
	db := newTestDB(t)
	game := createCompletedGame(t, db)

	user := models.User{ExternalID: "u1"}
	db.Create(&user)
	pick := models.Pick{UserID: user.ID, GameID: game.ID, SelectedTeam: "Nebraska", IsLock: true}
	db.Create(&pick)

	if _, _, err := SettleGame(db, game.ID); err != nil {
		t.Fatalf("first SettleGame: %v", err)
	}

	var afterFirst models.Pick
	db.First(&afterFirst, pick.ID)

	picksUpdated, anonUpdated, err := SettleGame(db, game.ID)
	if err != nil {
		t.Fatalf("second SettleGame: %v", err)
	}
	if picksUpdated != 0 || anonUpdated != 0 {
		t.Errorf("second settle updated %d/%d rows, want 0/0", picksUpdated, anonUpdated)
	}

	var afterSecond models.Pick
	db.First(&afterSecond, pick.ID)
	if *afterFirst.Result != *afterSecond.Result || *afterFirst.PointsEarned != *afterSecond.PointsEarned {
		t.Errorf("second settle changed the pick: %v/%v -> %v/%v",
			*afterFirst.Result, *afterFirst.PointsEarned, *afterSecond.Result, *afterSecond.PointsEarned)
	}
}

func TestSettleGameResumesAfterCrash(t *testing.T) {
	db := newTestDB(t)
	game := createCompletedGame(t, db)

	// Simulate a crash after the outcome write but before pick settlement.
	winner := "Nebraska"
	db.Model(game).Updates(map[string]interface{}{
		"winner_ats":   winner,
		"margin_bonus": 1,
		"base_points":  20,
	})

	user := models.User{ExternalID: "u1"}
	db.Create(&user)
	pick := models.Pick{UserID: user.ID, GameID: game.ID, SelectedTeam: "Cincinnati"}
	db.Create(&pick)

	picksUpdated, _, err := SettleGame(db, game.ID)
	if err != nil {
		t.Fatalf("SettleGame: %v", err)
	}
	if picksUpdated != 1 {
		t.Errorf("picksUpdated = %d, want 1 (resume must settle the leftover pick)", picksUpdated)
	}

	var settled models.Game
	db.First(&settled, game.ID)
	if *settled.WinnerATS != winner {
		t.Errorf("winner_ats recomputed to %q, must stay %q", *settled.WinnerATS, winner)
	}
}

func TestSettleGameRefusesNonFinal(t *testing.T) {
	db := newTestDB(t)

	game := models.Game{
		Season:    2025,
		Week:      3,
		HomeTeam:  "Nebraska",
		AwayTeam:  "Cincinnati",
		HomeScore: intPtr(14),
		AwayScore: intPtr(7),
		Spread:    -5,
		Status:    models.GameInProgress,
		Kickoff:   time.Now().Add(-1 * time.Hour),
	}
	db.Create(&game)

	if _, _, err := SettleGame(db, game.ID); err == nil {
		t.Error("expected error settling an in-progress game")
	}
}

func TestSettleGameRefusesMissingScores(t *testing.T) {
	db := newTestDB(t)

	game := models.Game{
		Season:   2025,
		Week:     3,
		HomeTeam: "Nebraska",
		AwayTeam: "Cincinnati",
		Spread:   -5,
		Status:   models.GameCompleted,
		Kickoff:  time.Now().Add(-4 * time.Hour),
	}
	db.Create(&game)

	if _, _, err := SettleGame(db, game.ID); err == nil {
		t.Error("expected error settling a completed game without scores")
	}
}

func TestSweepUnsettled(t *testing.T) {
	db := newTestDB(t)
	game := createCompletedGame(t, db)

	user := models.User{ExternalID: "u1"}
	db.Create(&user)
	pick := models.Pick{UserID: user.ID, GameID: game.ID, SelectedTeam: "Nebraska"}
	db.Create(&pick)

	settled, err := SweepUnsettled(db)
	if err != nil {
		t.Fatalf("SweepUnsettled: %v", err)
	}
	if settled != 1 {
		t.Errorf("sweep settled %d games, want 1", settled)
	}

	// A second sweep finds nothing to do.
	settled, err = SweepUnsettled(db)
	if err != nil {
		t.Fatalf("second SweepUnsettled: %v", err)
	}
	if settled != 0 {
		t.Errorf("second sweep settled %d games, want 0", settled)
	}
}

func TestRunBasePointsBackfill(t *testing.T) {
	db := newTestDB(t)

	winner := "Nebraska"
	game := models.Game{
		Season:    2024,
		Week:      10,
		HomeTeam:  "Nebraska",
		AwayTeam:  "Cincinnati",
		HomeScore: intPtr(28),
		AwayScore: intPtr(10),
		Spread:    -3,
		Status:    models.GameCompleted,
		Kickoff:   time.Now().Add(-30 * 24 * time.Hour),
		WinnerATS: &winner,
	}
	db.Create(&game)

	if err := RunBasePointsBackfill(db); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	var updated models.Game
	db.First(&updated, game.ID)
	if updated.BasePoints == nil || *updated.BasePoints != 20 {
		t.Errorf("base_points = %v, want 20", updated.BasePoints)
	}

	// Guard row makes the second run a no-op.
	if err := RunBasePointsBackfill(db); err != nil {
		t.Fatalf("second backfill: %v", err)
	}
	var count int64
	db.Model(&models.Migration{}).Where("name = ?", "settled_base_points_backfill").Count(&count)
	if count != 1 {
		t.Errorf("migration rows = %d, want 1", count)
	}
}
