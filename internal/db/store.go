package db

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"undercover/internal/apperr"
	"undercover/internal/game"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists game state with gorm. Each Atomic call is one database
// transaction.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx game.Tx) error) error {
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	if isConcurrentUpdate(err) {
		return apperr.Wrap(apperr.CodeConcurrentUpdate, "room was updated concurrently, retry", err)
	}
	return err
}

type gormTx struct {
	db *gorm.DB
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.ErrNotFound
	}
	return err
}

// insertOnce inserts record unless a unique key is already taken.
func (tx *gormTx) insertOnce(record any) error {
	result := tx.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return game.ErrDuplicate
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrDuplicate
	}
	return nil
}

func (tx *gormTx) CreateRoom(room *game.Room) error {
	record := Room{
		ID:              room.ID,
		Code:            room.Code,
		Status:          string(room.Status),
		CurrentRound:    room.CurrentRound,
		HostID:          room.HostID,
		UndercoverCount: room.Settings.UndercoverCount,
		MrWhiteCount:    room.Settings.MrWhiteCount,
	}
	if err := tx.insertOnce(&record); err != nil {
		return err
	}
	room.CreatedAt = record.CreatedAt
	return nil
}

func (tx *gormTx) Room(id string) (*game.Room, error) {
	var record Room
	if err := tx.db.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	room := toRoom(record)
	return &room, nil
}

func (tx *gormTx) RoomForUpdate(id string) (*game.Room, error) {
	query := tx.db
	if tx.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record Room
	if err := query.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	room := toRoom(record)
	return &room, nil
}

func (tx *gormTx) RoomByCode(code string) (*game.Room, error) {
	var record Room
	if err := tx.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	room := toRoom(record)
	return &room, nil
}

func (tx *gormTx) UpdateRoom(room *game.Room) error {
	result := tx.db.Model(&Room{}).Where("id = ?", room.ID).Updates(map[string]any{
		"status":           string(room.Status),
		"current_round":    room.CurrentRound,
		"host_id":          room.HostID,
		"undercover_count": room.Settings.UndercoverCount,
		"mr_white_count":   room.Settings.MrWhiteCount,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (tx *gormTx) CreatePlayer(player *game.Player) error {
	record := Player{
		ID:       player.ID,
		RoomID:   player.RoomID,
		Identity: player.Identity,
		Name:     player.Name,
		IsReady:  player.IsReady,
		IsAlive:  player.IsAlive,
		JoinedAt: player.JoinedAt,
	}
	if record.JoinedAt.IsZero() {
		record.JoinedAt = tx.db.NowFunc()
	}
	if err := tx.insertOnce(&record); err != nil {
		return err
	}
	player.JoinedAt = record.JoinedAt
	return nil
}

func (tx *gormTx) Player(id string) (*game.Player, error) {
	var record Player
	if err := tx.db.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	player := toPlayer(record)
	return &player, nil
}

func (tx *gormTx) Players(roomID string) ([]game.Player, error) {
	var records []Player
	if err := tx.db.Where("room_id = ?", roomID).Order("joined_at ASC, created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	players := make([]game.Player, 0, len(records))
	for _, record := range records {
		players = append(players, toPlayer(record))
	}
	return players, nil
}

func (tx *gormTx) UpdatePlayer(player *game.Player) error {
	result := tx.db.Model(&Player{}).Where("id = ?", player.ID).Updates(map[string]any{
		"is_ready": player.IsReady,
		"is_alive": player.IsAlive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (tx *gormTx) ResetPlayers(roomID string) error {
	return tx.db.Model(&Player{}).Where("room_id = ?", roomID).Updates(map[string]any{
		"is_ready": false,
		"is_alive": true,
	}).Error
}

func (tx *gormTx) CreateSecrets(secrets []game.Secret) error {
	if len(secrets) == 0 {
		return nil
	}
	records := make([]Secret, 0, len(secrets))
	for _, secret := range secrets {
		records = append(records, Secret{
			RoomID:      secret.RoomID,
			PlayerID:    secret.PlayerID,
			Identity:    secret.Identity,
			Role:        string(secret.Role),
			Word:        nullable(secret.Word),
			GuessAnswer: nullable(secret.GuessAnswer),
		})
	}
	return tx.db.Create(&records).Error
}

func (tx *gormTx) Secrets(roomID string) ([]game.Secret, error) {
	var records []Secret
	if err := tx.db.Where("room_id = ?", roomID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	secrets := make([]game.Secret, 0, len(records))
	for _, record := range records {
		secrets = append(secrets, toSecret(record))
	}
	return secrets, nil
}

func (tx *gormTx) UpdateSecret(secret *game.Secret) error {
	result := tx.db.Model(&Secret{}).Where("player_id = ?", secret.PlayerID).Updates(map[string]any{
		"role":         string(secret.Role),
		"word":         nullable(secret.Word),
		"guess_answer": nullable(secret.GuessAnswer),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (tx *gormTx) CreateVote(vote *game.Vote) error {
	record := Vote{
		ID:       vote.ID,
		RoomID:   vote.RoomID,
		Round:    vote.Round,
		VoterID:  vote.VoterID,
		TargetID: vote.TargetID,
	}
	if err := tx.insertOnce(&record); err != nil {
		return err
	}
	vote.CreatedAt = record.CreatedAt
	return nil
}

func (tx *gormTx) Votes(roomID string, round int) ([]game.Vote, error) {
	var records []Vote
	if err := tx.db.Where("room_id = ? AND round = ?", roomID, round).Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	votes := make([]game.Vote, 0, len(records))
	for _, record := range records {
		votes = append(votes, game.Vote{
			ID:        record.ID,
			RoomID:    record.RoomID,
			Round:     record.Round,
			VoterID:   record.VoterID,
			TargetID:  record.TargetID,
			CreatedAt: record.CreatedAt,
		})
	}
	return votes, nil
}

func (tx *gormTx) UpsertVoteResult(result *game.VoteResult) error {
	record := VoteResult{
		RoomID:             result.RoomID,
		Round:              result.Round,
		EliminatedPlayerID: nullable(result.EliminatedPlayerID),
		EliminatedRole:     nullable(string(result.EliminatedRole)),
		EliminatedWord:     nullable(result.EliminatedWord),
		GameOver:           result.GameOver,
		Winner:             nullable(string(result.Winner)),
	}
	err := tx.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}, {Name: "round"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"eliminated_player_id",
			"eliminated_role",
			"eliminated_word",
			"game_over",
			"winner",
			"updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		return err
	}
	stored, err := tx.VoteResult(result.RoomID, result.Round)
	if err != nil {
		return err
	}
	result.CreatedAt = stored.CreatedAt
	return nil
}

func (tx *gormTx) VoteResult(roomID string, round int) (*game.VoteResult, error) {
	var record VoteResult
	if err := tx.db.Where("room_id = ? AND round = ?", roomID, round).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	result := toVoteResult(record)
	return &result, nil
}

func (tx *gormTx) VoteResults(roomID string) ([]game.VoteResult, error) {
	var records []VoteResult
	if err := tx.db.Where("room_id = ?", roomID).Order("round ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	results := make([]game.VoteResult, 0, len(records))
	for _, record := range records {
		results = append(results, toVoteResult(record))
	}
	return results, nil
}

func (tx *gormTx) ClearGame(roomID string) error {
	for _, model := range []any{&Secret{}, &Vote{}, &VoteResult{}} {
		if err := tx.db.Where("room_id = ?", roomID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (tx *gormTx) AppendEvent(event game.Event) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return tx.db.Create(&Event{
		RoomID:   event.RoomID,
		Round:    event.Round,
		PlayerID: nullable(event.PlayerID),
		Type:     event.Type,
		Payload:  datatypes.JSON(data),
	}).Error
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func toRoom(record Room) game.Room {
	return game.Room{
		ID:           record.ID,
		Code:         record.Code,
		Status:       game.Status(record.Status),
		CurrentRound: record.CurrentRound,
		HostID:       record.HostID,
		Settings: game.Settings{
			UndercoverCount: record.UndercoverCount,
			MrWhiteCount:    record.MrWhiteCount,
		},
		CreatedAt: record.CreatedAt,
	}
}

func toPlayer(record Player) game.Player {
	return game.Player{
		ID:       record.ID,
		RoomID:   record.RoomID,
		Identity: record.Identity,
		Name:     record.Name,
		IsReady:  record.IsReady,
		IsAlive:  record.IsAlive,
		JoinedAt: record.JoinedAt,
	}
}

func toSecret(record Secret) game.Secret {
	return game.Secret{
		PlayerID:    record.PlayerID,
		RoomID:      record.RoomID,
		Identity:    record.Identity,
		Role:        game.Role(record.Role),
		Word:        deref(record.Word),
		GuessAnswer: deref(record.GuessAnswer),
	}
}

func toVoteResult(record VoteResult) game.VoteResult {
	return game.VoteResult{
		RoomID:             record.RoomID,
		Round:              record.Round,
		EliminatedPlayerID: deref(record.EliminatedPlayerID),
		EliminatedRole:     game.Role(deref(record.EliminatedRole)),
		EliminatedWord:     deref(record.EliminatedWord),
		GameOver:           record.GameOver,
		Winner:             game.Winner(deref(record.Winner)),
		CreatedAt:          record.CreatedAt,
	}
}
