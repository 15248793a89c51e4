package game

import "strings"

// EvaluateWin decides whether the game is over once alive holds the players
// still in play. Civilians win when no alive player holds a special role; the
// special roles win together once two or fewer players remain.
func EvaluateWin(alive []Player, roles map[string]Role) (bool, Winner) {
	special := 0
	for _, player := range alive {
		if role, ok := roles[player.ID]; ok && role != RoleCivilian {
			special++
		}
	}
	if special == 0 {
		return true, WinnerCivilian
	}
	if len(alive) <= 2 {
		return true, WinnerUndercover
	}
	return false, WinnerNone
}

// GuessMatches compares Mr. White's guess to the civilian word after trimming
// surrounding whitespace. Case and inner whitespace must match exactly.
func GuessMatches(guess, civilianWord string) bool {
	guess = strings.TrimSpace(guess)
	word := strings.TrimSpace(civilianWord)
	return guess != "" && word != "" && guess == word
}

func rolesByPlayer(secrets []Secret) map[string]Role {
	roles := make(map[string]Role, len(secrets))
	for _, secret := range secrets {
		roles[secret.PlayerID] = secret.Role
	}
	return roles
}

func civilianWord(secrets []Secret) string {
	for _, secret := range secrets {
		if secret.Role == RoleCivilian && secret.Word != "" {
			return secret.Word
		}
	}
	return ""
}

func secretFor(secrets []Secret, playerID string) (Secret, bool) {
	for _, secret := range secrets {
		if secret.PlayerID == playerID {
			return secret, true
		}
	}
	return Secret{}, false
}
