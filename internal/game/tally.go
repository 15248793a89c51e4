package game

import "sort"

// Outcome names how a tally call resolved the round.
type Outcome string

const (
	OutcomeTie           Outcome = "tie"
	OutcomeEliminated    Outcome = "eliminated"
	OutcomeAwaitingGuess Outcome = "awaiting-guess"
	OutcomeGameOver      Outcome = "game-over"
)

// VoteCount is one candidate's line in a round's vote summary.
type VoteCount struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Votes    int    `json:"votes"`
}

// Tally is the pure outcome of counting one round's votes.
type Tally struct {
	Summary    []VoteCount
	Leaders    []string
	Eliminated string
}

// IsTie reports whether more than one player shares the top count.
func (t Tally) IsTie() bool {
	return len(t.Leaders) > 1
}

// CountVotes counts votes for alive candidates only. Every alive player
// appears in the summary, zero-vote players included, sorted by votes
// descending and then by the order of alive.
func CountVotes(alive []Player, votes []Vote) Tally {
	counts := make(map[string]int, len(alive))
	for _, player := range alive {
		counts[player.ID] = 0
	}
	for _, vote := range votes {
		if _, ok := counts[vote.TargetID]; ok {
			counts[vote.TargetID]++
		}
	}

	summary := make([]VoteCount, 0, len(alive))
	for _, player := range alive {
		summary = append(summary, VoteCount{
			PlayerID: player.ID,
			Name:     player.Name,
			Votes:    counts[player.ID],
		})
	}
	sort.SliceStable(summary, func(i, j int) bool {
		return summary[i].Votes > summary[j].Votes
	})

	tally := Tally{Summary: summary}
	if len(summary) == 0 {
		return tally
	}
	top := summary[0].Votes
	for _, entry := range summary {
		if entry.Votes != top {
			break
		}
		tally.Leaders = append(tally.Leaders, entry.PlayerID)
	}
	if len(tally.Leaders) == 1 {
		tally.Eliminated = tally.Leaders[0]
	}
	return tally
}

// ballotsFrom keeps the votes cast by alive players.
func ballotsFrom(alive []Player, votes []Vote) []Vote {
	voters := make(map[string]struct{}, len(alive))
	for _, player := range alive {
		voters[player.ID] = struct{}{}
	}
	out := make([]Vote, 0, len(votes))
	for _, vote := range votes {
		if _, ok := voters[vote.VoterID]; ok {
			out = append(out, vote)
		}
	}
	return out
}

func alivePlayers(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, player := range players {
		if player.IsAlive {
			out = append(out, player)
		}
	}
	return out
}
