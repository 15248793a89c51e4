package game

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

type voteKey struct {
	roomID  string
	round   int
	voterID string
}

type resultKey struct {
	roomID string
	round  int
}

type memoryState struct {
	rooms   map[string]Room
	players map[string]Player
	secrets map[string]Secret
	votes   map[voteKey]Vote
	results map[resultKey]VoteResult
	events  []Event
	joinSeq map[string]int
}

func (st *memoryState) clone() *memoryState {
	return &memoryState{
		rooms:   maps.Clone(st.rooms),
		players: maps.Clone(st.players),
		secrets: maps.Clone(st.secrets),
		votes:   maps.Clone(st.votes),
		results: maps.Clone(st.results),
		events:  slices.Clone(st.events),
		joinSeq: maps.Clone(st.joinSeq),
	}
}

// MemoryStore keeps all entities in process memory. Transactions are
// serialized and applied copy-on-write.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			rooms:   make(map[string]Room),
			players: make(map[string]Player),
			secrets: make(map[string]Secret),
			votes:   make(map[voteKey]Vote),
			results: make(map[resultKey]VoteResult),
			joinSeq: make(map[string]int),
		},
	}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.clone()
	if err := fn(&memoryTx{st: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// Events returns the audit log for a room.
func (s *MemoryStore) Events(roomID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, event := range s.state.events {
		if event.RoomID == roomID {
			out = append(out, event)
		}
	}
	return out
}

type memoryTx struct {
	st *memoryState
}

func (tx *memoryTx) CreateRoom(room *Room) error {
	for _, existing := range tx.st.rooms {
		if existing.Code == room.Code {
			return ErrDuplicate
		}
	}
	if _, ok := tx.st.rooms[room.ID]; ok {
		return ErrDuplicate
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = timeNowUTC()
	}
	tx.st.rooms[room.ID] = *room
	return nil
}

func (tx *memoryTx) Room(id string) (*Room, error) {
	room, ok := tx.st.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (tx *memoryTx) RoomForUpdate(id string) (*Room, error) {
	return tx.Room(id)
}

func (tx *memoryTx) RoomByCode(code string) (*Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, room := range tx.st.rooms {
		if room.Code == code {
			return &room, nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memoryTx) UpdateRoom(room *Room) error {
	if _, ok := tx.st.rooms[room.ID]; !ok {
		return ErrNotFound
	}
	tx.st.rooms[room.ID] = *room
	return nil
}

func (tx *memoryTx) CreatePlayer(player *Player) error {
	for _, existing := range tx.st.players {
		if existing.RoomID != player.RoomID {
			continue
		}
		if existing.Name == player.Name || existing.Identity == player.Identity {
			return ErrDuplicate
		}
	}
	if player.JoinedAt.IsZero() {
		player.JoinedAt = timeNowUTC()
	}
	tx.st.players[player.ID] = *player
	tx.st.joinSeq[player.ID] = len(tx.st.joinSeq)
	return nil
}

func (tx *memoryTx) Player(id string) (*Player, error) {
	player, ok := tx.st.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &player, nil
}

func (tx *memoryTx) Players(roomID string) ([]Player, error) {
	var players []Player
	for _, player := range tx.st.players {
		if player.RoomID == roomID {
			players = append(players, player)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return tx.st.joinSeq[players[i].ID] < tx.st.joinSeq[players[j].ID]
	})
	return players, nil
}

func (tx *memoryTx) UpdatePlayer(player *Player) error {
	if _, ok := tx.st.players[player.ID]; !ok {
		return ErrNotFound
	}
	tx.st.players[player.ID] = *player
	return nil
}

func (tx *memoryTx) ResetPlayers(roomID string) error {
	for id, player := range tx.st.players {
		if player.RoomID != roomID {
			continue
		}
		player.IsAlive = true
		player.IsReady = false
		tx.st.players[id] = player
	}
	return nil
}

func (tx *memoryTx) CreateSecrets(secrets []Secret) error {
	for _, secret := range secrets {
		if _, ok := tx.st.secrets[secret.PlayerID]; ok {
			return ErrDuplicate
		}
	}
	for _, secret := range secrets {
		tx.st.secrets[secret.PlayerID] = secret
	}
	return nil
}

func (tx *memoryTx) Secrets(roomID string) ([]Secret, error) {
	var secrets []Secret
	for _, secret := range tx.st.secrets {
		if secret.RoomID == roomID {
			secrets = append(secrets, secret)
		}
	}
	sort.Slice(secrets, func(i, j int) bool {
		return secrets[i].PlayerID < secrets[j].PlayerID
	})
	return secrets, nil
}

func (tx *memoryTx) UpdateSecret(secret *Secret) error {
	if _, ok := tx.st.secrets[secret.PlayerID]; !ok {
		return ErrNotFound
	}
	tx.st.secrets[secret.PlayerID] = *secret
	return nil
}

func (tx *memoryTx) CreateVote(vote *Vote) error {
	key := voteKey{roomID: vote.RoomID, round: vote.Round, voterID: vote.VoterID}
	if _, ok := tx.st.votes[key]; ok {
		return ErrDuplicate
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = timeNowUTC()
	}
	tx.st.votes[key] = *vote
	return nil
}

func (tx *memoryTx) Votes(roomID string, round int) ([]Vote, error) {
	var votes []Vote
	for key, vote := range tx.st.votes {
		if key.roomID == roomID && key.round == round {
			votes = append(votes, vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].CreatedAt.Before(votes[j].CreatedAt)
	})
	return votes, nil
}

func (tx *memoryTx) UpsertVoteResult(result *VoteResult) error {
	key := resultKey{roomID: result.RoomID, round: result.Round}
	if existing, ok := tx.st.results[key]; ok {
		result.CreatedAt = existing.CreatedAt
	} else if result.CreatedAt.IsZero() {
		result.CreatedAt = timeNowUTC()
	}
	tx.st.results[key] = *result
	return nil
}

func (tx *memoryTx) VoteResult(roomID string, round int) (*VoteResult, error) {
	result, ok := tx.st.results[resultKey{roomID: roomID, round: round}]
	if !ok {
		return nil, ErrNotFound
	}
	return &result, nil
}

func (tx *memoryTx) VoteResults(roomID string) ([]VoteResult, error) {
	var results []VoteResult
	for key, result := range tx.st.results {
		if key.roomID == roomID {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Round < results[j].Round
	})
	return results, nil
}

func (tx *memoryTx) ClearGame(roomID string) error {
	for id, secret := range tx.st.secrets {
		if secret.RoomID == roomID {
			delete(tx.st.secrets, id)
		}
	}
	for key := range tx.st.votes {
		if key.roomID == roomID {
			delete(tx.st.votes, key)
		}
	}
	for key := range tx.st.results {
		if key.roomID == roomID {
			delete(tx.st.results, key)
		}
	}
	return nil
}

func (tx *memoryTx) AppendEvent(event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = timeNowUTC()
	}
	tx.st.events = append(tx.st.events, event)
	return nil
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
