package db

import "time"

type Player struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoomID    string    `gorm:"size:36;index;not null;uniqueIndex:idx_players_room_name;uniqueIndex:idx_players_room_identity"`
	Identity  string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_identity"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_name"`
	IsReady   bool      `gorm:"not null;default:false"`
	IsAlive   bool      `gorm:"not null;default:true"`
	JoinedAt  time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
