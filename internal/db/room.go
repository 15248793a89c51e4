package db

import "time"

type Room struct {
	ID              string    `gorm:"primaryKey;size:36"`
	Code            string    `gorm:"size:12;uniqueIndex;not null"`
	Status          string    `gorm:"size:16;not null"`
	CurrentRound    int       `gorm:"not null;default:0"`
	HostID          string    `gorm:"size:64;index;not null"`
	UndercoverCount int       `gorm:"not null;default:1"`
	MrWhiteCount    int       `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
	Players         []Player
	Events          []Event
}
