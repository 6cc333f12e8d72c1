package models

import "gorm.io/gorm"

const (
	PickWin  = "win"
	PickLoss = "loss"
	PickPush = "push"
)

type Pick struct {
	gorm.Model
	ID           uint `gorm:"primaryKey"`
	UserID       uint `gorm:"index:pick_user_game_idx"`
	User         User `gorm:"foreignKey:UserID"`
	GameID       uint `gorm:"index:pick_user_game_idx"`
	Game         Game `gorm:"foreignKey:GameID"`
	SelectedTeam string
	IsLock       bool
	Result       *string `gorm:"size:10"`
	PointsEarned *int
}

// AnonymousPick is a submission made before the participant registered.
// It settles exactly like a Pick; ClaimedByUserID is filled in later when
// the submission is attributed.
type AnonymousPick struct {
	gorm.Model
	ID              uint   `gorm:"primaryKey"`
	SubmissionKey   string `gorm:"size:64;index"`
	GameID          uint   `gorm:"index"`
	Game            Game   `gorm:"foreignKey:GameID"`
	SelectedTeam    string
	IsLock          bool
	Result          *string `gorm:"size:10"`
	PointsEarned    *int
	ClaimedByUserID *uint
}
