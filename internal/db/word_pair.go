package db

import "time"

type WordPair struct {
	ID         uint      `gorm:"primaryKey"`
	Civilian   string    `gorm:"size:128;not null;uniqueIndex:idx_word_pairs_pair"`
	Undercover string    `gorm:"size:128;not null;uniqueIndex:idx_word_pairs_pair"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
