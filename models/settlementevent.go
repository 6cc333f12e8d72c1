package models

import "gorm.io/gorm"

// SettlementEvent is the outbound trigger row written after a game's picks
// settle. The leaderboard materializer consumes these; this core only
// produces them.
type SettlementEvent struct {
	gorm.Model
	ID           uint `gorm:"primaryKey"`
	GameID       uint `gorm:"index"`
	PicksSettled int
	AnonSettled  int
	Processed    bool `gorm:"default:false"`
}
