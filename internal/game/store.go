package game

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Tx when a keyed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by conditional inserts when a unique key is taken.
	ErrDuplicate = errors.New("duplicate key")
)

// Store runs fn inside one transaction. A non-nil error from fn discards
// every write fn made.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the entity access available inside a transaction.
type Tx interface {
	// CreateRoom inserts unless the join code is taken (ErrDuplicate).
	CreateRoom(room *Room) error
	Room(id string) (*Room, error)
	// RoomForUpdate reads the room and holds it until the transaction ends.
	RoomForUpdate(id string) (*Room, error)
	RoomByCode(code string) (*Room, error)
	UpdateRoom(room *Room) error

	// CreatePlayer inserts unless (room, name) or (room, identity) is taken.
	CreatePlayer(player *Player) error
	Player(id string) (*Player, error)
	// Players lists a room's players in join order.
	Players(roomID string) ([]Player, error)
	UpdatePlayer(player *Player) error
	ResetPlayers(roomID string) error

	CreateSecrets(secrets []Secret) error
	Secrets(roomID string) ([]Secret, error)
	UpdateSecret(secret *Secret) error

	// CreateVote inserts unless (room, round, voter) is taken.
	CreateVote(vote *Vote) error
	Votes(roomID string, round int) ([]Vote, error)

	// UpsertVoteResult writes the single result row for (room, round).
	UpsertVoteResult(result *VoteResult) error
	VoteResult(roomID string, round int) (*VoteResult, error)
	VoteResults(roomID string) ([]VoteResult, error)

	// ClearGame deletes the room's secrets, votes and vote results.
	ClearGame(roomID string) error
	AppendEvent(event Event) error
}

// WordSource supplies the word-pair library used by role assignment.
type WordSource interface {
	WordPairs(ctx context.Context) ([]WordPair, error)
}
