package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"undercover/internal/apperr"
)

const (
	testCivilianWord   = "Coffee"
	testUndercoverWord = "Tea"
)

type staticWords []WordPair

func (w staticWords) WordPairs(context.Context) ([]WordPair, error) {
	return w, nil
}

// table is a room with n joined players; user-0 is the host.
type table struct {
	m       *Manager
	store   *MemoryStore
	room    Room
	players []Player
}

func newTestManager(store *MemoryStore, opts ...Option) *Manager {
	base := []Option{
		WithRoleAssigner(NewRoleAssigner(rand.New(rand.NewPCG(7, 11)))),
		WithWordSource(staticWords{{Civilian: testCivilianWord, Undercover: testUndercoverWord}}),
	}
	return NewManager(store, append(base, opts...)...)
}

func newTable(t *testing.T, n int, settings Settings) *table {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestManager(store)
	room, err := m.CreateRoom(ctx, "user-0")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	tb := &table{m: m, store: store, room: room}
	for i := 0; i < n; i++ {
		_, player, err := m.JoinRoom(ctx, room.Code, fmt.Sprintf("user-%d", i), fmt.Sprintf("Player %d", i))
		if err != nil {
			t.Fatalf("join player %d: %v", i, err)
		}
		tb.players = append(tb.players, player)
	}
	if settings != DefaultSettings() {
		if _, err := m.UpdateSettings(ctx, room.ID, "user-0", settings); err != nil {
			t.Fatalf("update settings: %v", err)
		}
	}
	return tb
}

func (tb *table) host() string {
	return "user-0"
}

func (tb *table) readyAll(t *testing.T) {
	t.Helper()
	for _, player := range tb.players {
		updated, err := tb.m.ToggleReady(context.Background(), player.ID, player.Identity)
		if err != nil {
			t.Fatalf("toggle ready %s: %v", player.Name, err)
		}
		if !updated.IsReady {
			t.Fatalf("expected %s to be ready", player.Name)
		}
	}
}

func (tb *table) start(t *testing.T) {
	t.Helper()
	tb.readyAll(t)
	room, err := tb.m.StartGame(context.Background(), tb.room.ID, tb.host())
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	tb.room = room
}

func (tb *table) startVoting(t *testing.T) {
	t.Helper()
	room, err := tb.m.StartVoting(context.Background(), tb.room.ID, tb.host())
	if err != nil {
		t.Fatalf("start voting: %v", err)
	}
	tb.room = room
}

func (tb *table) secret(t *testing.T, player Player) Secret {
	t.Helper()
	secret, err := tb.m.GetSecret(context.Background(), tb.room.ID, player.Identity)
	if err != nil {
		t.Fatalf("get secret for %s: %v", player.Name, err)
	}
	return secret
}

func (tb *table) byRole(t *testing.T) map[Role][]Player {
	t.Helper()
	out := make(map[Role][]Player)
	for _, player := range tb.players {
		role := tb.secret(t, player).Role
		out[role] = append(out[role], player)
	}
	return out
}

func (tb *table) snapshot(t *testing.T) RoomSnapshot {
	t.Helper()
	snap, err := tb.m.Snapshot(context.Background(), tb.room.ID, tb.host())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func (tb *table) alive(t *testing.T) []Player {
	t.Helper()
	snap := tb.snapshot(t)
	var out []Player
	for _, view := range snap.Players {
		if !view.IsAlive {
			continue
		}
		for _, player := range tb.players {
			if player.ID == view.ID {
				out = append(out, player)
			}
		}
	}
	return out
}

func (tb *table) vote(t *testing.T, voter, target Player) {
	t.Helper()
	round := tb.snapshot(t).Room.CurrentRound
	if _, err := tb.m.CastVote(context.Background(), tb.room.ID, round, voter.Identity, voter.ID, target.ID); err != nil {
		t.Fatalf("%s votes %s: %v", voter.Name, target.Name, err)
	}
}

// voteOut has every alive player vote for target; target votes for the
// first other alive player.
func (tb *table) voteOut(t *testing.T, target Player) {
	t.Helper()
	alive := tb.alive(t)
	for _, voter := range alive {
		if voter.ID != target.ID {
			tb.vote(t, voter, target)
			continue
		}
		for _, other := range alive {
			if other.ID != target.ID {
				tb.vote(t, voter, other)
				break
			}
		}
	}
}

func (tb *table) tally(t *testing.T, guess string) TallyResult {
	t.Helper()
	result, err := tb.m.Tally(context.Background(), tb.room.ID, tb.host(), guess)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	return result
}

func expectCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !apperr.HasCode(err, code) {
		t.Fatalf("expected %s, got %s (%v)", code, apperr.CodeOf(err), err)
	}
}
