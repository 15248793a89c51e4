package game

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"undercover/internal/apperr"
)

var errCodeTaken = apperr.New(apperr.CodeRoomCodeExhausted, "room code already in use")

// CreateRoom opens a lobby hosted by hostIdentity with default settings.
func (m *Manager) CreateRoom(ctx context.Context, hostIdentity string) (Room, error) {
	if err := requireIdentity(hostIdentity); err != nil {
		return Room{}, err
	}
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		room := Room{
			ID:       m.newID(),
			Code:     NormalizeRoomCode(m.newCode()),
			Status:   StatusLobby,
			HostID:   hostIdentity,
			Settings: DefaultSettings(),
		}
		err := m.mutate(ctx, "CreateRoom", "", func(tx Tx) (*Room, error) {
			if err := tx.CreateRoom(&room); err != nil {
				if errors.Is(err, ErrDuplicate) {
					return nil, errCodeTaken
				}
				return nil, err
			}
			return &room, tx.AppendEvent(Event{
				RoomID:  room.ID,
				Type:    eventRoomCreated,
				Payload: map[string]any{"room_code": room.Code, "host_id": hostIdentity},
			})
		})
		if errors.Is(err, errCodeTaken) {
			continue
		}
		if err != nil {
			return Room{}, err
		}
		return room, nil
	}
	return Room{}, apperr.New(apperr.CodeRoomCodeExhausted, "could not allocate a room code, try again")
}

// JoinRoom adds identity to the lobby identified by code under name.
func (m *Manager) JoinRoom(ctx context.Context, code, identity, name string) (Room, Player, error) {
	if err := requireIdentity(identity); err != nil {
		return Room{}, Player{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Room{}, Player{}, apperr.New(apperr.CodeMissingField, "name is required")
	}
	code = NormalizeRoomCode(code)
	if code == "" {
		return Room{}, Player{}, apperr.New(apperr.CodeMissingField, "room code is required")
	}

	var roomID string
	err := m.view(ctx, "JoinRoom", "", func(tx Tx) error {
		room, err := tx.RoomByCode(code)
		if errors.Is(err, ErrNotFound) {
			return apperr.New(apperr.CodeRoomNotFound, "room not found")
		}
		if err != nil {
			return err
		}
		roomID = room.ID
		return nil
	})
	if err != nil {
		return Room{}, Player{}, err
	}

	var (
		joined Room
		player Player
	)
	// The status is checked under the room lock so a concurrent StartGame
	// either sees the new player or rejects the join.
	err = m.mutate(ctx, "JoinRoom", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		if room.Status != StatusLobby {
			return nil, apperr.New(apperr.CodeGameAlreadyStarted, "game already started")
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return nil, err
		}
		if err := checkJoin(players, identity, name); err != nil {
			return nil, err
		}
		player = Player{
			ID:       m.newID(),
			RoomID:   room.ID,
			Identity: identity,
			Name:     name,
			IsAlive:  true,
		}
		if err := tx.CreatePlayer(&player); err != nil {
			if !errors.Is(err, ErrDuplicate) {
				return nil, err
			}
			players, lookupErr := tx.Players(room.ID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if err := checkJoin(players, identity, name); err != nil {
				return nil, err
			}
			return nil, apperr.New(apperr.CodeDuplicateName, "name already taken in this room")
		}
		joined = *room
		return room, tx.AppendEvent(Event{
			RoomID:   room.ID,
			PlayerID: player.ID,
			Type:     eventPlayerJoined,
			Payload:  map[string]any{"name": name},
		})
	})
	if err != nil {
		return Room{}, Player{}, err
	}
	return joined, player, nil
}

func checkJoin(players []Player, identity, name string) error {
	if _, ok := playerByIdentity(players, identity); ok {
		return apperr.New(apperr.CodeAlreadyJoined, "already joined this room")
	}
	for _, existing := range players {
		if existing.Name == name {
			return apperr.New(apperr.CodeDuplicateName, "name already taken in this room")
		}
	}
	return nil
}

// UpdateSettings stores the role counts verbatim; bounds are checked when
// the game starts.
func (m *Manager) UpdateSettings(ctx context.Context, roomID, identity string, settings Settings) (Room, error) {
	var updated Room
	err := m.mutate(ctx, "UpdateSettings", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		if err := requireHost(room, identity); err != nil {
			return nil, err
		}
		room.Settings = settings
		if err := tx.UpdateRoom(room); err != nil {
			return nil, err
		}
		updated = *room
		return room, tx.AppendEvent(Event{
			RoomID: room.ID,
			Round:  room.CurrentRound,
			Type:   eventSettingsUpdated,
			Payload: map[string]any{
				"undercoverCount": settings.UndercoverCount,
				"mrWhiteCount":    settings.MrWhiteCount,
			},
		})
	})
	return updated, err
}

// ToggleReady flips the ready flag of the caller's own player.
func (m *Manager) ToggleReady(ctx context.Context, playerID, identity string) (Player, error) {
	var updated Player
	err := m.mutate(ctx, "ToggleReady", "", func(tx Tx) (*Room, error) {
		player, err := tx.Player(playerID)
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.CodePlayerNotFound, "player not found")
		}
		if err != nil {
			return nil, err
		}
		if player.Identity != identity {
			return nil, apperr.New(apperr.CodeNotPlayerOwner, "cannot change another player's ready state")
		}
		room, err := loadRoom(tx, player.RoomID, true)
		if err != nil {
			return nil, err
		}
		if room.Status != StatusLobby && room.Status != StatusResult {
			return nil, apperr.New(apperr.CodeWrongPhase, "ready state can only change between games")
		}
		player.IsReady = !player.IsReady
		if err := tx.UpdatePlayer(player); err != nil {
			return nil, err
		}
		updated = *player
		return room, nil
	})
	return updated, err
}

// StartGame deals roles and moves the room to round 1. Nothing is written
// unless every precondition holds and all secrets are stored.
func (m *Manager) StartGame(ctx context.Context, roomID, identity string) (Room, error) {
	pairs, err := m.wordPairs(ctx)
	if err != nil {
		return Room{}, err
	}
	var started Room
	err = m.mutate(ctx, "StartGame", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		if err := requireHost(room, identity); err != nil {
			return nil, err
		}
		if room.Status != StatusLobby && room.Status != StatusResult {
			return nil, apperr.New(apperr.CodeAlreadyStarted, "game already started")
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return nil, err
		}
		if err := startPreconditions(players, room.Settings); err != nil {
			return nil, err
		}
		secrets, err := m.roles.Assign(players, room.Settings, pairs)
		if err != nil {
			return nil, err
		}
		if err := tx.ClearGame(room.ID); err != nil {
			return nil, err
		}
		if err := tx.ResetPlayers(room.ID); err != nil {
			return nil, err
		}
		if err := tx.CreateSecrets(secrets); err != nil {
			return nil, err
		}
		room.Status = StatusPlaying
		room.CurrentRound = 1
		if err := tx.UpdateRoom(room); err != nil {
			return nil, err
		}
		started = *room
		return room, tx.AppendEvent(Event{
			RoomID: room.ID,
			Round:  room.CurrentRound,
			Type:   eventGameStarted,
			Payload: map[string]any{
				"players":         len(players),
				"undercoverCount": room.Settings.UndercoverCount,
				"mrWhiteCount":    room.Settings.MrWhiteCount,
			},
		})
	})
	return started, err
}

func startPreconditions(players []Player, settings Settings) error {
	if len(players) < MinPlayers {
		return apperr.WithMetadata(apperr.CodeNotEnoughPlayers, "need at least 3 players", map[string]string{
			"players": strconv.Itoa(len(players)),
			"minimum": strconv.Itoa(MinPlayers),
		})
	}
	for _, player := range players {
		if !player.IsReady {
			return apperr.New(apperr.CodeNotAllReady, "not all players are ready")
		}
	}
	switch err := checkRoleCounts(len(players), settings); {
	case errors.Is(err, errInvalidSettings):
		return apperr.New(apperr.CodeInvalidSettings, "need at least one undercover and no negative role counts")
	case errors.Is(err, errTooManySpecial):
		return apperr.New(apperr.CodeTooManySpecialRoles, "too many special roles for player count")
	case err != nil:
		return apperr.Internal("role count check failed", err)
	}
	return nil
}

func (m *Manager) wordPairs(ctx context.Context) ([]WordPair, error) {
	pairs, err := m.words.WordPairs(ctx)
	if err != nil {
		return nil, apperr.Internal("load word pairs failed", err)
	}
	if len(usablePairs(pairs)) == 0 {
		return builtinWordPairs, nil
	}
	return pairs, nil
}

// StartVoting closes discussion for the current round.
func (m *Manager) StartVoting(ctx context.Context, roomID, identity string) (Room, error) {
	var updated Room
	err := m.mutate(ctx, "StartVoting", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		if err := requireHost(room, identity); err != nil {
			return nil, err
		}
		if room.Status != StatusPlaying {
			return nil, apperr.New(apperr.CodeWrongPhase, "voting can only start while playing")
		}
		room.Status = StatusVoting
		if err := tx.UpdateRoom(room); err != nil {
			return nil, err
		}
		updated = *room
		return room, tx.AppendEvent(Event{RoomID: room.ID, Round: room.CurrentRound, Type: eventVotingStarted})
	})
	return updated, err
}

// ResetToLobby prepares the room for another game with the same players and
// discards the finished game's secrets, votes and results.
func (m *Manager) ResetToLobby(ctx context.Context, roomID, identity string) (Room, error) {
	var updated Room
	err := m.mutate(ctx, "ResetToLobby", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		if err := requireHost(room, identity); err != nil {
			return nil, err
		}
		room.Status = StatusLobby
		room.CurrentRound = 0
		if err := tx.UpdateRoom(room); err != nil {
			return nil, err
		}
		if err := tx.ResetPlayers(room.ID); err != nil {
			return nil, err
		}
		if err := tx.ClearGame(room.ID); err != nil {
			return nil, err
		}
		updated = *room
		return room, tx.AppendEvent(Event{RoomID: room.ID, Type: eventRoomReset})
	})
	return updated, err
}

func advanceRound(tx Tx, room *Room) error {
	room.Status = StatusPlaying
	room.CurrentRound++
	return tx.UpdateRoom(room)
}

func endGame(tx Tx, room *Room) error {
	room.Status = StatusResult
	return tx.UpdateRoom(room)
}
