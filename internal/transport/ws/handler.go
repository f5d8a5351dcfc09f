package ws

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"neondraw/internal/app"
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *app.GameHub
	upgrader websocket.Upgrader
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandler creates a new WebSocket handler. allowedOrigin "*" accepts
// any browser origin.
func NewHandler(hub *app.GameHub, validate *validator.Validate, allowedOrigin string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		validate: validate,
		logger:   logger,
	}
}

// ServeHTTP upgrades a seated player's connection. Players take their seat
// over HTTP first and connect with the id they were given.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode := app.NormalizeRoomCode(r.URL.Query().Get("roomCode"))
	if roomCode == "" {
		http.Error(w, "roomCode is required", http.StatusBadRequest)
		return
	}

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	session, err := h.hub.GetSession(roomCode)
	if err != nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	if !session.HasPlayer(playerID) {
		http.Error(w, "Player is not in this room", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, h.hub, session, playerID, h.validate, h.logger.With().Str("roomCode", roomCode).Logger())
	session.RegisterClient(playerID, client)

	h.logger.Info().
		Str("roomCode", roomCode).
		Str("playerID", playerID).
		Msg("websocket connected")

	client.sendConnected()
	client.Run()
}
