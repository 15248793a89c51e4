package game

import "time"

type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
	StatusVoting  Status = "voting"
	StatusResult  Status = "result"
)

type Role string

const (
	RoleCivilian   Role = "civilian"
	RoleUndercover Role = "undercover"
	RoleMrWhite    Role = "mrwhite"
)

// Winner names the winning faction; WinnerNone while a game is undecided.
type Winner string

const (
	WinnerNone       Winner = ""
	WinnerCivilian   Winner = "civilian"
	WinnerUndercover Winner = "undercover"
	WinnerMrWhite    Winner = "mrwhite"
)

const (
	MinPlayers      = 3
	RoomCodeLength  = 6
	RoomCodeChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts = 5
)

type Settings struct {
	UndercoverCount int `json:"undercoverCount"`
	MrWhiteCount    int `json:"mrWhiteCount"`
}

func DefaultSettings() Settings {
	return Settings{UndercoverCount: 1, MrWhiteCount: 0}
}

type Room struct {
	ID           string    `json:"id"`
	Code         string    `json:"room_code"`
	Status       Status    `json:"status"`
	CurrentRound int       `json:"current_round"`
	HostID       string    `json:"host_id"`
	Settings     Settings  `json:"settings"`
	CreatedAt    time.Time `json:"created_at"`
}

type Player struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"room_id"`
	Identity string    `json:"user_id"`
	Name     string    `json:"name"`
	IsReady  bool      `json:"is_ready"`
	IsAlive  bool      `json:"is_alive"`
	JoinedAt time.Time `json:"joined_at"`
}

// Secret is a player's hidden role for one game instance. Word is empty for
// Mr. White.
type Secret struct {
	PlayerID    string `json:"player_id"`
	RoomID      string `json:"room_id"`
	Identity    string `json:"-"`
	Role        Role   `json:"role"`
	Word        string `json:"word,omitempty"`
	GuessAnswer string `json:"mr_white_answer,omitempty"`
}

type Vote struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Round     int       `json:"round"`
	VoterID   string    `json:"voter_id"`
	TargetID  string    `json:"target_player_id"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteResult records how a round resolved. EliminatedPlayerID is empty on a tie.
type VoteResult struct {
	RoomID             string    `json:"room_id"`
	Round              int       `json:"round"`
	EliminatedPlayerID string    `json:"eliminated_player_id,omitempty"`
	EliminatedRole     Role      `json:"eliminated_role,omitempty"`
	EliminatedWord     string    `json:"eliminated_word,omitempty"`
	GameOver           bool      `json:"game_over"`
	Winner             Winner    `json:"winner,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Tie reports whether the round ended without an elimination.
func (r VoteResult) Tie() bool {
	return r.EliminatedPlayerID == ""
}

type Event struct {
	RoomID    string
	Round     int
	PlayerID  string
	Type      string
	Payload   map[string]any
	CreatedAt time.Time
}

const (
	eventRoomCreated     = "room_created"
	eventPlayerJoined    = "player_joined"
	eventSettingsUpdated = "settings_updated"
	eventGameStarted     = "game_started"
	eventVotingStarted   = "voting_started"
	eventVoteCast        = "vote_cast"
	eventRoundTallied    = "round_tallied"
	eventGuessSaved      = "guess_saved"
	eventGuessResolved   = "guess_resolved"
	eventRoomReset       = "room_reset"
)

type WordPair struct {
	Civilian   string `json:"civilian"`
	Undercover string `json:"undercover"`
}
