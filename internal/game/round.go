package game

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"undercover/internal/apperr"
)

// TallyResult reports how a tally call resolved the current round.
type TallyResult struct {
	Outcome        Outcome     `json:"result"`
	Round          int         `json:"round"`
	EliminatedID   string      `json:"eliminatedPlayerId,omitempty"`
	EliminatedRole Role        `json:"eliminatedRole,omitempty"`
	EliminatedWord string      `json:"eliminatedWord,omitempty"`
	Winner         Winner      `json:"winner,omitempty"`
	VoteSummary    []VoteCount `json:"voteSummary"`
}

// CastVote records voterID's single vote for the round. identity must own
// the voter.
func (m *Manager) CastVote(ctx context.Context, roomID string, round int, identity, voterID, targetID string) (Vote, error) {
	if voterID == "" || targetID == "" {
		return Vote{}, apperr.New(apperr.CodeMissingField, "voter and target are required")
	}
	var cast Vote
	err := m.mutate(ctx, "CastVote", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return nil, err
		}
		voter, ok := findPlayer(players, voterID)
		if !ok {
			return nil, apperr.New(apperr.CodePlayerNotFound, "voter not found in room")
		}
		if voter.Identity != identity {
			return nil, apperr.New(apperr.CodeNotPlayerOwner, "cannot vote on behalf of another player")
		}
		if room.Status != StatusVoting {
			return nil, apperr.New(apperr.CodeWrongPhase, "room is not voting")
		}
		if round != room.CurrentRound {
			return nil, apperr.WithMetadata(apperr.CodeStaleRound, "vote is for a different round", map[string]string{
				"round":        strconv.Itoa(round),
				"currentRound": strconv.Itoa(room.CurrentRound),
			})
		}
		if _, err := tx.VoteResult(room.ID, room.CurrentRound); err == nil {
			return nil, apperr.New(apperr.CodeWrongPhase, "voting is closed for this round")
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if !voter.IsAlive {
			return nil, apperr.New(apperr.CodeInvalidVote, "eliminated players cannot vote")
		}
		target, ok := findPlayer(players, targetID)
		if !ok || !target.IsAlive {
			return nil, apperr.New(apperr.CodeInvalidVote, "target must be an alive player in this room")
		}
		if target.ID == voter.ID {
			return nil, apperr.New(apperr.CodeInvalidVote, "cannot vote for yourself")
		}

		cast = Vote{
			ID:       m.newID(),
			RoomID:   room.ID,
			Round:    room.CurrentRound,
			VoterID:  voter.ID,
			TargetID: target.ID,
		}
		if err := tx.CreateVote(&cast); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return nil, apperr.New(apperr.CodeDuplicateVote, "already voted this round")
			}
			return nil, err
		}
		return room, tx.AppendEvent(Event{
			RoomID:   room.ID,
			Round:    room.CurrentRound,
			PlayerID: voter.ID,
			Type:     eventVoteCast,
			Payload:  map[string]any{"target_player_id": target.ID},
		})
	})
	if err != nil {
		return Vote{}, err
	}
	return cast, nil
}

// Tally resolves the current round once every alive player has voted.
// guess, when non-blank, is used as Mr. White's answer if the round
// eliminates Mr. White. Calling Tally again on a resolved round returns the
// stored outcome without changing state.
func (m *Manager) Tally(ctx context.Context, roomID, identity, guess string) (TallyResult, error) {
	var result TallyResult
	err := m.mutate(ctx, "Tally", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		if err := requireHost(room, identity); err != nil {
			return nil, err
		}
		var changed bool
		result, changed, err = tallyRoom(tx, room, guess)
		if err != nil || !changed {
			return nil, err
		}
		return room, nil
	})
	if err != nil {
		return TallyResult{}, err
	}
	return result, nil
}

// SubmitGuess records the eliminated Mr. White's guess and finishes the round.
func (m *Manager) SubmitGuess(ctx context.Context, roomID, identity, guess string) (TallyResult, error) {
	if strings.TrimSpace(guess) == "" {
		return TallyResult{}, apperr.New(apperr.CodeMissingField, "guess is required")
	}
	var result TallyResult
	err := m.mutate(ctx, "SubmitGuess", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		pending, err := pendingGuess(tx, room)
		if err != nil {
			return nil, err
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return nil, err
		}
		guesser, ok := findPlayer(players, pending.EliminatedPlayerID)
		if !ok || guesser.Identity != identity {
			return nil, apperr.New(apperr.CodeNotPlayerOwner, "only the eliminated Mr. White can guess")
		}
		votes, err := tx.Votes(room.ID, room.CurrentRound)
		if err != nil {
			return nil, err
		}
		summary := roundSummary(players, votes, pending.EliminatedPlayerID)
		result, err = resolveGuess(tx, room, players, pending, guess, summary)
		if err != nil {
			return nil, err
		}
		return room, nil
	})
	if err != nil {
		return TallyResult{}, err
	}
	return result, nil
}

// SaveGuessAnswer stores an alive Mr. White's answer ahead of elimination. A
// tally that eliminates them without a guess of its own uses this answer.
func (m *Manager) SaveGuessAnswer(ctx context.Context, roomID, identity, answer string) (Secret, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Secret{}, apperr.New(apperr.CodeMissingField, "answer is required")
	}
	var saved Secret
	err := m.mutate(ctx, "SaveGuessAnswer", roomID, func(tx Tx) (*Room, error) {
		room, err := loadRoom(tx, roomID, true)
		if err != nil {
			return nil, err
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return nil, err
		}
		player, ok := playerByIdentity(players, identity)
		if !ok {
			return nil, notMember()
		}
		if room.Status != StatusPlaying && room.Status != StatusVoting {
			return nil, apperr.New(apperr.CodeWrongPhase, "answers can only be saved during a game")
		}
		secrets, err := tx.Secrets(room.ID)
		if err != nil {
			return nil, err
		}
		secret, ok := secretFor(secrets, player.ID)
		if !ok || secret.Role != RoleMrWhite || !player.IsAlive {
			return nil, apperr.New(apperr.CodeGuessNotExpected, "only an alive Mr. White can save an answer")
		}
		secret.GuessAnswer = answer
		if err := tx.UpdateSecret(&secret); err != nil {
			return nil, err
		}
		saved = secret
		return nil, tx.AppendEvent(Event{
			RoomID:   room.ID,
			Round:    room.CurrentRound,
			PlayerID: player.ID,
			Type:     eventGuessSaved,
		})
	})
	if err != nil {
		return Secret{}, err
	}
	return saved, nil
}

func pendingGuess(tx Tx, room *Room) (*VoteResult, error) {
	notExpected := apperr.New(apperr.CodeGuessNotExpected, "no Mr. White guess is pending")
	if room.Status != StatusVoting {
		return nil, notExpected
	}
	pending, err := tx.VoteResult(room.ID, room.CurrentRound)
	if errors.Is(err, ErrNotFound) {
		return nil, notExpected
	}
	if err != nil {
		return nil, err
	}
	if pending.GameOver || pending.EliminatedRole != RoleMrWhite {
		return nil, notExpected
	}
	return pending, nil
}

func tallyRoom(tx Tx, room *Room, guess string) (TallyResult, bool, error) {
	switch room.Status {
	case StatusVoting:
	case StatusPlaying, StatusResult:
		result, err := replayTally(tx, room)
		return result, false, err
	default:
		return TallyResult{}, false, apperr.New(apperr.CodeWrongPhase, "votes can only be tallied during voting")
	}

	players, err := tx.Players(room.ID)
	if err != nil {
		return TallyResult{}, false, err
	}
	votes, err := tx.Votes(room.ID, room.CurrentRound)
	if err != nil {
		return TallyResult{}, false, err
	}

	pending, err := pendingGuess(tx, room)
	if err == nil {
		summary := roundSummary(players, votes, pending.EliminatedPlayerID)
		if strings.TrimSpace(guess) == "" {
			return resultFrom(*pending, OutcomeAwaitingGuess, summary), false, nil
		}
		result, err := resolveGuess(tx, room, players, pending, guess, summary)
		return result, err == nil, err
	}
	if !apperr.HasCode(err, apperr.CodeGuessNotExpected) {
		return TallyResult{}, false, err
	}

	alive := alivePlayers(players)
	ballots := ballotsFrom(alive, votes)
	if len(ballots) != len(alive) {
		return TallyResult{}, false, apperr.WithMetadata(apperr.CodeVotesIncomplete, "not every alive player has voted", map[string]string{
			"cast":     strconv.Itoa(len(ballots)),
			"expected": strconv.Itoa(len(alive)),
		})
	}
	tally := CountVotes(alive, ballots)
	record := VoteResult{RoomID: room.ID, Round: room.CurrentRound}

	if tally.IsTie() {
		if err := tx.UpsertVoteResult(&record); err != nil {
			return TallyResult{}, false, err
		}
		if err := advanceRound(tx, room); err != nil {
			return TallyResult{}, false, err
		}
		if err := appendTallied(tx, record, OutcomeTie); err != nil {
			return TallyResult{}, false, err
		}
		return resultFrom(record, OutcomeTie, tally.Summary), true, nil
	}

	secrets, err := tx.Secrets(room.ID)
	if err != nil {
		return TallyResult{}, false, err
	}
	secret, ok := secretFor(secrets, tally.Eliminated)
	if !ok {
		return TallyResult{}, false, apperr.Internal("eliminated player has no secret", nil)
	}
	for i := range players {
		if players[i].ID != tally.Eliminated {
			continue
		}
		players[i].IsAlive = false
		if err := tx.UpdatePlayer(&players[i]); err != nil {
			return TallyResult{}, false, err
		}
	}
	record.EliminatedPlayerID = secret.PlayerID
	record.EliminatedRole = secret.Role
	record.EliminatedWord = secret.Word

	if secret.Role == RoleMrWhite {
		if strings.TrimSpace(guess) == "" {
			guess = secret.GuessAnswer
		}
		if err := tx.UpsertVoteResult(&record); err != nil {
			return TallyResult{}, false, err
		}
		if err := appendTallied(tx, record, OutcomeAwaitingGuess); err != nil {
			return TallyResult{}, false, err
		}
		if strings.TrimSpace(guess) == "" {
			return resultFrom(record, OutcomeAwaitingGuess, tally.Summary), true, nil
		}
		result, err := resolveGuess(tx, room, players, &record, guess, tally.Summary)
		return result, err == nil, err
	}

	result, err := finishRound(tx, room, players, secrets, record, tally.Summary)
	return result, err == nil, err
}

// finishRound evaluates the win condition after an elimination and either
// ends the game or advances to the next round.
func finishRound(tx Tx, room *Room, players []Player, secrets []Secret, record VoteResult, summary []VoteCount) (TallyResult, error) {
	record.GameOver, record.Winner = EvaluateWin(alivePlayers(players), rolesByPlayer(secrets))
	if err := tx.UpsertVoteResult(&record); err != nil {
		return TallyResult{}, err
	}
	outcome := OutcomeEliminated
	if record.GameOver {
		outcome = OutcomeGameOver
		if err := endGame(tx, room); err != nil {
			return TallyResult{}, err
		}
	} else if err := advanceRound(tx, room); err != nil {
		return TallyResult{}, err
	}
	if err := appendTallied(tx, record, outcome); err != nil {
		return TallyResult{}, err
	}
	return resultFrom(record, outcome, summary), nil
}

func resolveGuess(tx Tx, room *Room, players []Player, pending *VoteResult, guess string, summary []VoteCount) (TallyResult, error) {
	secrets, err := tx.Secrets(room.ID)
	if err != nil {
		return TallyResult{}, err
	}
	secret, ok := secretFor(secrets, pending.EliminatedPlayerID)
	if !ok {
		return TallyResult{}, apperr.Internal("eliminated player has no secret", nil)
	}
	secret.GuessAnswer = strings.TrimSpace(guess)
	if err := tx.UpdateSecret(&secret); err != nil {
		return TallyResult{}, err
	}

	correct := GuessMatches(guess, civilianWord(secrets))
	if err := tx.AppendEvent(Event{
		RoomID:   room.ID,
		Round:    room.CurrentRound,
		PlayerID: secret.PlayerID,
		Type:     eventGuessResolved,
		Payload:  map[string]any{"correct": correct},
	}); err != nil {
		return TallyResult{}, err
	}

	record := *pending
	if !correct {
		return finishRound(tx, room, players, secrets, record, summary)
	}
	record.GameOver = true
	record.Winner = WinnerMrWhite
	if err := tx.UpsertVoteResult(&record); err != nil {
		return TallyResult{}, err
	}
	if err := endGame(tx, room); err != nil {
		return TallyResult{}, err
	}
	if err := appendTallied(tx, record, OutcomeGameOver); err != nil {
		return TallyResult{}, err
	}
	return resultFrom(record, OutcomeGameOver, summary), nil
}

// replayTally returns the stored outcome of the most recently resolved round.
func replayTally(tx Tx, room *Room) (TallyResult, error) {
	round := room.CurrentRound
	if room.Status == StatusPlaying {
		round--
	}
	wrongPhase := apperr.New(apperr.CodeWrongPhase, "votes can only be tallied during voting")
	if round < 1 {
		return TallyResult{}, wrongPhase
	}
	record, err := tx.VoteResult(room.ID, round)
	if errors.Is(err, ErrNotFound) {
		return TallyResult{}, wrongPhase
	}
	if err != nil {
		return TallyResult{}, err
	}
	players, err := tx.Players(room.ID)
	if err != nil {
		return TallyResult{}, err
	}
	votes, err := tx.Votes(room.ID, round)
	if err != nil {
		return TallyResult{}, err
	}
	outcome := OutcomeEliminated
	switch {
	case record.GameOver:
		outcome = OutcomeGameOver
	case record.Tie():
		outcome = OutcomeTie
	}
	return resultFrom(*record, outcome, roundSummary(players, votes, record.EliminatedPlayerID)), nil
}

// roundSummary recounts a resolved round over the players who were alive
// when it was voted on.
func roundSummary(players []Player, votes []Vote, eliminatedID string) []VoteCount {
	candidates := make([]Player, 0, len(players))
	for _, player := range players {
		if player.IsAlive || player.ID == eliminatedID {
			candidates = append(candidates, player)
		}
	}
	return CountVotes(candidates, ballotsFrom(candidates, votes)).Summary
}

func resultFrom(record VoteResult, outcome Outcome, summary []VoteCount) TallyResult {
	return TallyResult{
		Outcome:        outcome,
		Round:          record.Round,
		EliminatedID:   record.EliminatedPlayerID,
		EliminatedRole: record.EliminatedRole,
		EliminatedWord: record.EliminatedWord,
		Winner:         record.Winner,
		VoteSummary:    summary,
	}
}

func appendTallied(tx Tx, record VoteResult, outcome Outcome) error {
	return tx.AppendEvent(Event{
		RoomID:   record.RoomID,
		Round:    record.Round,
		PlayerID: record.EliminatedPlayerID,
		Type:     eventRoundTallied,
		Payload: map[string]any{
			"outcome":   string(outcome),
			"game_over": record.GameOver,
			"winner":    string(record.Winner),
		},
	})
}
