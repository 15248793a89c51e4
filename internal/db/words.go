package db

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"undercover/internal/game"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WordPairs returns the word library. An empty table yields no pairs and
// the game falls back to its built-in list.
func (s *Store) WordPairs(ctx context.Context) ([]game.WordPair, error) {
	var records []WordPair
	if err := s.conn.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	pairs := make([]game.WordPair, 0, len(records))
	for _, record := range records {
		pairs = append(pairs, game.WordPair{Civilian: record.Civilian, Undercover: record.Undercover})
	}
	return pairs, nil
}

// ReadWordPairs parses "civilian,undercover" rows. A header row and rows
// with blank or identical words are skipped.
func ReadWordPairs(r io.Reader) ([]game.WordPair, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var pairs []game.WordPair
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		civilian := strings.TrimSpace(row[0])
		undercover := strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(civilian, "civilian") {
			continue
		}
		if civilian == "" || undercover == "" || civilian == undercover {
			continue
		}
		pairs = append(pairs, game.WordPair{Civilian: civilian, Undercover: undercover})
	}
	return pairs, nil
}

// LoadWordPairs inserts pairs that are not in the library yet and reports
// how many were added.
func LoadWordPairs(ctx context.Context, conn *gorm.DB, pairs []game.WordPair) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	records := make([]WordPair, 0, len(pairs))
	for _, pair := range pairs {
		records = append(records, WordPair{Civilian: pair.Civilian, Undercover: pair.Undercover})
	}
	result := conn.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&records, 100)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}
