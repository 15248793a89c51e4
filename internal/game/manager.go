// Package game is the authoritative room and game lifecycle engine: role
// assignment, vote tallying, the Mr. White guess and win evaluation.
package game

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"undercover/internal/apperr"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Manager owns every room state transition. All operations run inside one
// store transaction; mutating ones also hold the room's in-process lock.
type Manager struct {
	store   Store
	words   WordSource
	roles   *RoleAssigner
	feed    *Feed
	locks   *roomLocks
	tracer  trace.Tracer
	newCode func() string
	newID   func() string
}

type Option func(*Manager)

func WithWordSource(words WordSource) Option {
	return func(m *Manager) {
		if words != nil {
			m.words = words
		}
	}
}

func WithRoleAssigner(roles *RoleAssigner) Option {
	return func(m *Manager) {
		if roles != nil {
			m.roles = roles
		}
	}
}

// WithCodeGenerator replaces the join code generator.
func WithCodeGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newCode = fn
		}
	}
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		words:   builtinWords{},
		roles:   NewRoleAssigner(nil),
		feed:    NewFeed(),
		locks:   newRoomLocks(),
		tracer:  otel.Tracer("undercover/internal/game"),
		newCode: NewRoomCode,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Subscribe streams room snapshots after each committed change to the room.
func (m *Manager) Subscribe(roomID string) (<-chan Room, func()) {
	return m.feed.Subscribe(roomID)
}

// NewRoomCode draws a join code from the unambiguous alphabet.
func NewRoomCode() string {
	code := make([]byte, RoomCodeLength)
	max := big.NewInt(int64(len(RoomCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return strings.Repeat("A", RoomCodeLength)
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}

// NormalizeRoomCode upper-cases and trims a user-entered code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// mutate runs fn in a transaction under the room lock. When fn returns a
// room, that room is published to subscribers after commit.
func (m *Manager) mutate(ctx context.Context, op, roomID string, fn func(tx Tx) (*Room, error)) error {
	ctx, span := m.tracer.Start(ctx, "game."+op, trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	if roomID != "" {
		unlock := m.locks.Lock(roomID)
		defer unlock()
	}
	var published *Room
	err := m.store.Atomic(ctx, func(tx Tx) error {
		room, err := fn(tx)
		if err != nil {
			return err
		}
		published = room
		return nil
	})
	if err != nil {
		err = normalize(op, err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}
	if published != nil {
		m.feed.Publish(*published)
	}
	return nil
}

func (m *Manager) view(ctx context.Context, op, roomID string, fn func(tx Tx) error) error {
	ctx, span := m.tracer.Start(ctx, "game."+op, trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()
	if err := m.store.Atomic(ctx, fn); err != nil {
		err = normalize(op, err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}
	return nil
}

func normalize(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(op+" failed", err)
}

func requireIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return apperr.New(apperr.CodeUnauthenticated, "identity is required")
	}
	return nil
}

func requireHost(room *Room, identity string) error {
	if room.HostID != identity {
		return apperr.New(apperr.CodeNotHost, "only the host can perform this action")
	}
	return nil
}

func loadRoom(tx Tx, roomID string, forUpdate bool) (*Room, error) {
	var (
		room *Room
		err  error
	)
	if forUpdate {
		room, err = tx.RoomForUpdate(roomID)
	} else {
		room, err = tx.Room(roomID)
	}
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.CodeRoomNotFound, "room not found")
	}
	return room, err
}

func findPlayer(players []Player, id string) (Player, bool) {
	for _, player := range players {
		if player.ID == id {
			return player, true
		}
	}
	return Player{}, false
}

func playerByIdentity(players []Player, identity string) (Player, bool) {
	for _, player := range players {
		if player.Identity == identity {
			return player, true
		}
	}
	return Player{}, false
}
