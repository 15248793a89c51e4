package db

import "time"

type VoteResult struct {
	ID                 uint      `gorm:"primaryKey"`
	RoomID             string    `gorm:"size:36;not null;uniqueIndex:idx_vote_results_room_round"`
	Round              int       `gorm:"not null;uniqueIndex:idx_vote_results_room_round"`
	EliminatedPlayerID *string   `gorm:"size:36"`
	EliminatedRole     *string   `gorm:"size:16"`
	EliminatedWord     *string   `gorm:"size:128"`
	GameOver           bool      `gorm:"not null;default:false"`
	Winner             *string   `gorm:"size:16"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}
