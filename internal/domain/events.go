package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventRoomUpdated    EventType = "ROOM_UPDATE"
	EventGameStarted    EventType = "GAME_STARTED"
	EventTurnStarted    EventType = "TURN_STARTED"
	EventSecretWord     EventType = "SECRET_WORD"
	EventGuessResult    EventType = "GUESS_RESULT"
	EventChatMessage    EventType = "CHAT_MESSAGE"
	EventCanvasAppended EventType = "CANVAS_APPENDED"
	EventCanvasCleared  EventType = "CANVAS_CLEARED"
	EventRoundEnded     EventType = "ROUND_ENDED"
	EventGameFinished   EventType = "GAME_FINISHED"
)

// GameEvent represents an event that occurred in a room
type GameEvent struct {
	Type      EventType   `json:"type"`
	RoomID    string      `json:"roomId"`
	PlayerID  string      `json:"playerId,omitempty"` // Deliver only to this player
	SkipID    string      `json:"-"`                  // Deliver to everyone except this player
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new room-wide event
func NewEvent(eventType EventType, roomID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates an event delivered to a single player
func NewPlayerEvent(eventType EventType, roomID, playerID string, payload interface{}) *GameEvent {
	event := NewEvent(eventType, roomID, payload)
	event.PlayerID = playerID
	return event
}

// NewBroadcastExcept creates a room-wide event that skips one player
func NewBroadcastExcept(eventType EventType, roomID, skipID string, payload interface{}) *GameEvent {
	event := NewEvent(eventType, roomID, payload)
	event.SkipID = skipID
	return event
}

// Payload types for different events

// ChatKind classifies chat lines for rendering
type ChatKind string

const (
	ChatSystem       ChatKind = "system"
	ChatMessage      ChatKind = "message"
	ChatGuess        ChatKind = "guess"
	ChatCorrectGuess ChatKind = "correct_guess"
)

// ChatPayload is a line in the room chat
type ChatPayload struct {
	Kind    ChatKind `json:"kind"`
	Player  string   `json:"player,omitempty"`
	Message string   `json:"message"`
	Time    string   `json:"time"`
}

// SecretWordPayload is sent to the drawer only
type SecretWordPayload struct {
	Word string `json:"word"`
}

// RoundEndedPayload reveals the word when a turn ends
type RoundEndedPayload struct {
	Word     string             `json:"word"`
	Reason   string             `json:"reason"` // "guessed", "timeout" or "drawer_left"
	Round    int                `json:"round"`
	State    GameState          `json:"state"`
	Standing []LeaderboardEntry `json:"leaderboard"`
}

// GameFinishedPayload carries the final standings
type GameFinishedPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
