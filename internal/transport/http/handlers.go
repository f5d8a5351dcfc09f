package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"neondraw/internal/domain"
)

const (
	defaultUsername = "Player"
	maxBodyBytes    = 1 << 12
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body of POST /api/rooms
type CreateRoomRequest struct {
	Username   string `json:"username" validate:"max=20"`
	MaxPlayers int    `json:"maxPlayers" validate:"omitempty,min=2,max=16"`
}

// JoinRoomRequest is the body of POST /api/rooms/{roomCode}/join
type JoinRoomRequest struct {
	Username string `json:"username" validate:"max=20"`
}

// SeatResponse tells a player where they sit. PlayerID is used to open the
// websocket.
type SeatResponse struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	domain.Snapshot
	CanJoin bool `json:"canJoin"`
}

// RoomExistsResponse is the response for checking if room exists
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms  int `json:"activeRooms"`
	TotalPlayers int `json:"totalPlayers"`
}

// handleCreateRoom handles POST /api/rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !s.decode(w, r, &req) {
		return
	}

	playerID := uuid.NewString()
	username := normalizeUsername(req.Username)

	session, err := s.hub.CreateRoom(playerID, username, req.MaxPlayers)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create room")
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}

	s.sendSuccess(w, &SeatResponse{
		RoomCode: session.GetRoomCode(),
		PlayerID: playerID,
		Username: username,
	})
}

// handleJoinRoom handles POST /api/rooms/{roomCode}/join
func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if !s.decode(w, r, &req) {
		return
	}

	playerID := uuid.NewString()
	username := normalizeUsername(req.Username)

	session, err := s.hub.JoinRoom(chi.URLParam(r, "roomCode"), playerID, username)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &SeatResponse{
		RoomCode: session.GetRoomCode(),
		PlayerID: playerID,
		Username: username,
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	session, err := s.hub.GetSession(chi.URLParam(r, "roomCode"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &GetRoomResponse{
		Snapshot: session.Snapshot(),
		CanJoin:  session.CanJoin(),
	})
}

// handleRoomExists handles GET /api/rooms/{roomCode}/exists
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	_, err := s.hub.GetSession(chi.URLParam(r, "roomCode"))

	s.sendSuccess(w, &RoomExistsResponse{
		Exists: err == nil,
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveRooms:  s.hub.GetSessionCount(),
		TotalPlayers: s.hub.GetTotalPlayerCount(),
	})
}

// decode reads and validates a JSON body. An empty body is an empty request.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", validationMessage(err))
		return false
	}
	return true
}

// sendDomainError maps domain errors to HTTP statuses
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
	case errors.Is(err, domain.ErrGameAlreadyStarted):
		s.sendError(w, http.StatusConflict, "GAME_ALREADY_STARTED", "Game has already started")
	case errors.Is(err, domain.ErrRoomFull):
		s.sendError(w, http.StatusForbidden, "ROOM_FULL", "Room is full")
	default:
		s.logger.Error().Err(err).Msg("unexpected room error")
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

func normalizeUsername(username string) string {
	username = strings.Join(strings.Fields(username), " ")
	if username == "" {
		return defaultUsername
	}
	return username
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Username":
			return "Username must be 20 characters or fewer"
		case "MaxPlayers":
			return "maxPlayers must be between 2 and 16"
		}
	}
	return "Invalid request"
}
