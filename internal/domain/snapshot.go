package domain

// TurnInfo is the public description of a freshly started turn
type TurnInfo struct {
	DrawerID   string `json:"drawerId"`
	DrawerName string `json:"drawer"`
	WordHint   string `json:"wordHint"`
	WordLength int    `json:"wordLength"`
	RoundTime  int    `json:"roundTime"`
	Round      int    `json:"round"`
	MaxRounds  int    `json:"maxRounds"`
}

// GuessResult is the outcome of a chat guess. Score and Word are only set
// when Correct is true.
type GuessResult struct {
	Correct  bool   `json:"correct"`
	PlayerID string `json:"playerId"`
	Player   string `json:"player"`
	Guess    string `json:"guess"`
	Score    int    `json:"score,omitempty"`
	Word     string `json:"word,omitempty"`
}

// LeaderboardEntry is one line of the standings
type LeaderboardEntry struct {
	Username    string `json:"username"`
	Score       int    `json:"score"`
	AvatarColor string `json:"avatarColor"`
}

// Snapshot is the full public state of a room. It never carries the secret word.
type Snapshot struct {
	RoomID        string             `json:"roomId"`
	HostID        string             `json:"hostId"`
	MaxPlayers    int                `json:"maxPlayers"`
	Players       []PlayerInfo       `json:"players"`
	GameState     GameState          `json:"gameState"`
	CurrentDrawer string             `json:"currentDrawer"`
	Round         int                `json:"round"`
	MaxRounds     int                `json:"maxRounds"`
	Scores        map[string]int     `json:"scores"`
	WordHint      string             `json:"wordHint"`
	RemainingTime int                `json:"remainingTime"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
}
