package db

import "time"

type Vote struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoomID    string    `gorm:"size:36;index;not null;uniqueIndex:idx_votes_room_round_voter"`
	Round     int       `gorm:"not null;uniqueIndex:idx_votes_room_round_voter"`
	VoterID   string    `gorm:"size:36;not null;uniqueIndex:idx_votes_room_round_voter"`
	TargetID  string    `gorm:"size:36;index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
