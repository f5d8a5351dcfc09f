package domain

import "time"

// Player is a member of a room. Identity fields never change after creation.
type Player struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	AvatarColor string    `json:"avatarColor"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player with the given identity
func NewPlayer(id, username, avatarColor string, joinedAt time.Time) *Player {
	return &Player{
		ID:          id,
		Username:    username,
		AvatarColor: avatarColor,
		JoinedAt:    joinedAt,
	}
}

// PlayerInfo is the public view of a player sent to clients
type PlayerInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AvatarColor string `json:"avatarColor"`
}

// ToInfo converts a Player to PlayerInfo
func (p *Player) ToInfo() PlayerInfo {
	return PlayerInfo{
		ID:          p.ID,
		Username:    p.Username,
		AvatarColor: p.AvatarColor,
	}
}

// seat pairs a player with their running score so the two never drift apart.
type seat struct {
	player *Player
	score  int
}
