package game

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// RoleAssigner deals roles and words for a new game.
type RoleAssigner struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoleAssigner uses rng for pair selection and shuffling; nil seeds a
// fresh source.
func NewRoleAssigner(rng *rand.Rand) *RoleAssigner {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RoleAssigner{rng: rng}
}

// Assign returns exactly one secret per player. The first UndercoverCount
// shuffled players get the undercover word, the next MrWhiteCount get no word
// and everyone else gets the civilian word.
func (a *RoleAssigner) Assign(players []Player, settings Settings, pairs []WordPair) ([]Secret, error) {
	if err := checkRoleCounts(len(players), settings); err != nil {
		return nil, err
	}
	pairs = usablePairs(pairs)
	if len(pairs) == 0 {
		return nil, errors.New("no word pairs available")
	}

	a.mu.Lock()
	pair := pairs[a.rng.IntN(len(pairs))]
	order := make([]Player, len(players))
	copy(order, players)
	for i := len(order) - 1; i > 0; i-- {
		j := a.rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	a.mu.Unlock()

	secrets := make([]Secret, 0, len(order))
	for i, player := range order {
		secret := Secret{
			PlayerID: player.ID,
			RoomID:   player.RoomID,
			Identity: player.Identity,
			Role:     RoleCivilian,
			Word:     pair.Civilian,
		}
		switch {
		case i < settings.UndercoverCount:
			secret.Role = RoleUndercover
			secret.Word = pair.Undercover
		case i < settings.UndercoverCount+settings.MrWhiteCount:
			secret.Role = RoleMrWhite
			secret.Word = ""
		}
		secrets = append(secrets, secret)
	}
	return secrets, nil
}

var (
	errTooFewPlayers   = errors.New("not enough players")
	errInvalidSettings = errors.New("invalid role settings")
	errTooManySpecial  = errors.New("too many special roles for player count")
)

func checkRoleCounts(playerCount int, settings Settings) error {
	if playerCount < MinPlayers {
		return errTooFewPlayers
	}
	if settings.UndercoverCount < 1 || settings.MrWhiteCount < 0 {
		return errInvalidSettings
	}
	if settings.UndercoverCount+settings.MrWhiteCount >= playerCount {
		return errTooManySpecial
	}
	return nil
}
