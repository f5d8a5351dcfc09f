package ws

import (
	"encoding/json"
	"errors"
	"time"

	"neondraw/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgStartGame   MessageType = "start_game"
	MsgDraw        MessageType = "draw"
	MsgClearCanvas MessageType = "clear_canvas"
	MsgChat        MessageType = "chat"
	MsgGetRoom     MessageType = "get_room"
	MsgLeave       MessageType = "leave"
	MsgPing        MessageType = "ping"
)

// Server → Client message types. Room events are sent as domain.GameEvent
// and carry their own upper-case type.
const (
	MsgConnected MessageType = "connected"
	MsgRoomState MessageType = "room_state"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// DrawPayload is the payload for draw message
type DrawPayload struct {
	Stroke domain.Stroke `json:"stroke"`
}

// ChatPayload is the payload for chat message
type ChatPayload struct {
	Message string `json:"message" validate:"required,max=200"`
}

// Server message payloads

// ConnectedPayload brings a (re)connecting client up to date
type ConnectedPayload struct {
	PlayerID   string          `json:"playerId"`
	RoomCode   string          `json:"roomCode"`
	Room       domain.Snapshot `json:"room"`
	Canvas     []domain.Stroke `json:"canvas"`
	SecretWord string          `json:"secretWord,omitempty"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeRoomNotFound     = "ROOM_NOT_FOUND"
	ErrCodeRoomFull         = "ROOM_FULL"
	ErrCodeGameStarted      = "GAME_ALREADY_STARTED"
	ErrCodeGameInProgress   = "GAME_IN_PROGRESS"
	ErrCodeNotEnoughPlayers = "NOT_ENOUGH_PLAYERS"
	ErrCodePlayerNotFound   = "PLAYER_NOT_FOUND"
	ErrCodeNotDrawer        = "NOT_DRAWER"
	ErrCodeNotDrawing       = "NOT_DRAWING"
	ErrCodeEmptyMessage     = "EMPTY_MESSAGE"
	ErrCodeWordRevealed     = "WORD_REVEALED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// errorInfo maps a domain error to the code and text sent to clients
func errorInfo(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return ErrCodeRoomNotFound, "Room not found"
	case errors.Is(err, domain.ErrRoomFull):
		return ErrCodeRoomFull, "Room is full"
	case errors.Is(err, domain.ErrGameAlreadyStarted):
		return ErrCodeGameStarted, "Game has already started"
	case errors.Is(err, domain.ErrGameInProgress):
		return ErrCodeGameInProgress, "A game is already running"
	case errors.Is(err, domain.ErrInsufficientPlayers):
		return ErrCodeNotEnoughPlayers, "Need at least 2 players to start"
	case errors.Is(err, domain.ErrPlayerNotFound):
		return ErrCodePlayerNotFound, "You are not in this room"
	case errors.Is(err, domain.ErrNotDrawer):
		return ErrCodeNotDrawer, "Only the drawer can do that"
	case errors.Is(err, domain.ErrNotDrawing):
		return ErrCodeNotDrawing, "No turn is running"
	case errors.Is(err, domain.ErrEmptyMessage):
		return ErrCodeEmptyMessage, "Message is empty"
	case errors.Is(err, domain.ErrWordRevealed):
		return ErrCodeWordRevealed, "You cannot say the word"
	default:
		return ErrCodeInternalError, "Internal server error"
	}
}
