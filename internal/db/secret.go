package db

import "time"

// Secret is a player's role and word for the current game of a room.
type Secret struct {
	ID          uint      `gorm:"primaryKey"`
	RoomID      string    `gorm:"size:36;index;not null"`
	PlayerID    string    `gorm:"size:36;uniqueIndex;not null"`
	Identity    string    `gorm:"size:64;index;not null"`
	Role        string    `gorm:"size:16;not null"`
	Word        *string   `gorm:"size:128"`
	GuessAnswer *string   `gorm:"size:128"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
