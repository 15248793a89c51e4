package game

import (
	"context"
	"errors"

	"undercover/internal/apperr"
)

// RevealedPlayer is one line of the end-of-game reveal.
type RevealedPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsAlive     bool   `json:"is_alive"`
	Role        Role   `json:"role"`
	Word        string `json:"word,omitempty"`
	GuessAnswer string `json:"mr_white_answer,omitempty"`
}

type Results struct {
	RoomID  string           `json:"room_id"`
	Winner  Winner           `json:"winner"`
	Players []RevealedPlayer `json:"players"`
}

// PlayerView is the public state of a player.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsReady  bool   `json:"is_ready"`
	IsAlive  bool   `json:"is_alive"`
	HasVoted bool   `json:"has_voted"`
}

type RoomSnapshot struct {
	Room       Room         `json:"room"`
	Players    []PlayerView `json:"players"`
	VotesCast  int          `json:"votes_cast"`
	LastResult *VoteResult  `json:"last_result,omitempty"`
}

func notMember() error {
	return apperr.New(apperr.CodeNotMember, "not a member of this room")
}

// loadMembership reads the room and its players and checks that identity is
// the host or holds a player. Unknown rooms are reported as NOT_MEMBER.
func loadMembership(tx Tx, roomID, identity string) (*Room, []Player, error) {
	room, err := tx.Room(roomID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, notMember()
	}
	if err != nil {
		return nil, nil, err
	}
	players, err := tx.Players(room.ID)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := playerByIdentity(players, identity); !ok && room.HostID != identity {
		return nil, nil, notMember()
	}
	return room, players, nil
}

// GetSecret returns the caller's own role and word.
func (m *Manager) GetSecret(ctx context.Context, roomID, identity string) (Secret, error) {
	var secret Secret
	err := m.view(ctx, "GetSecret", roomID, func(tx Tx) error {
		_, players, err := loadMembership(tx, roomID, identity)
		if err != nil {
			return err
		}
		player, ok := playerByIdentity(players, identity)
		if !ok {
			return apperr.New(apperr.CodeSecretNotFound, "no secret assigned")
		}
		secrets, err := tx.Secrets(roomID)
		if err != nil {
			return err
		}
		found, ok := secretFor(secrets, player.ID)
		if !ok {
			return apperr.New(apperr.CodeSecretNotFound, "no secret assigned")
		}
		secret = found
		return nil
	})
	return secret, err
}

// GetResults reveals every role and word once the game has finished.
func (m *Manager) GetResults(ctx context.Context, roomID, identity string) (Results, error) {
	var results Results
	err := m.view(ctx, "GetResults", roomID, func(tx Tx) error {
		room, players, err := loadMembership(tx, roomID, identity)
		if err != nil {
			return err
		}
		if room.Status != StatusResult {
			return apperr.New(apperr.CodeGameNotFinished, "game is not finished")
		}
		secrets, err := tx.Secrets(room.ID)
		if err != nil {
			return err
		}
		history, err := tx.VoteResults(room.ID)
		if err != nil {
			return err
		}

		results = Results{RoomID: room.ID, Players: make([]RevealedPlayer, 0, len(players))}
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].GameOver {
				results.Winner = history[i].Winner
				break
			}
		}
		for _, player := range players {
			line := RevealedPlayer{ID: player.ID, Name: player.Name, IsAlive: player.IsAlive}
			if secret, ok := secretFor(secrets, player.ID); ok {
				line.Role = secret.Role
				line.Word = secret.Word
				if secret.Role == RoleMrWhite {
					line.GuessAnswer = secret.GuessAnswer
				}
			}
			results.Players = append(results.Players, line)
		}
		return nil
	})
	return results, err
}

// Snapshot is the public view of a room for its members.
func (m *Manager) Snapshot(ctx context.Context, roomID, identity string) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := m.view(ctx, "Snapshot", roomID, func(tx Tx) error {
		room, players, err := loadMembership(tx, roomID, identity)
		if err != nil {
			return err
		}
		snap = RoomSnapshot{Room: *room, Players: make([]PlayerView, 0, len(players))}

		voted := make(map[string]bool)
		if room.Status == StatusVoting {
			votes, err := tx.Votes(room.ID, room.CurrentRound)
			if err != nil {
				return err
			}
			for _, vote := range votes {
				voted[vote.VoterID] = true
			}
			snap.VotesCast = len(votes)
		}
		for _, player := range players {
			snap.Players = append(snap.Players, PlayerView{
				ID:       player.ID,
				Name:     player.Name,
				IsReady:  player.IsReady,
				IsAlive:  player.IsAlive,
				HasVoted: voted[player.ID],
			})
		}

		history, err := roomHistory(tx, room)
		if err != nil {
			return err
		}
		if len(history) > 0 {
			last := publicResult(history[len(history)-1], room.Status)
			snap.LastResult = &last
		}
		return nil
	})
	return snap, err
}

// History lists the resolved rounds of the current game.
func (m *Manager) History(ctx context.Context, roomID, identity string) ([]VoteResult, error) {
	var out []VoteResult
	err := m.view(ctx, "History", roomID, func(tx Tx) error {
		room, _, err := loadMembership(tx, roomID, identity)
		if err != nil {
			return err
		}
		history, err := roomHistory(tx, room)
		if err != nil {
			return err
		}
		out = make([]VoteResult, 0, len(history))
		for _, result := range history {
			out = append(out, publicResult(result, room.Status))
		}
		return nil
	})
	return out, err
}

// roomHistory lists the current game's results. A lobby has none, even when
// rows from the previous game are still stored.
func roomHistory(tx Tx, room *Room) ([]VoteResult, error) {
	if room.Status == StatusLobby {
		return nil, nil
	}
	return tx.VoteResults(room.ID)
}

// publicResult hides eliminated words until the room reaches result.
func publicResult(result VoteResult, status Status) VoteResult {
	if status != StatusResult {
		result.EliminatedWord = ""
	}
	return result
}
