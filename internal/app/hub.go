package app

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"neondraw/internal/domain"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 6

	// DefaultTickInterval is how often the round clock is checked
	DefaultTickInterval = time.Second

	// DefaultSeatGrace is how long a seat may go without a connected client
	DefaultSeatGrace = 2 * time.Minute

	// maxCodeAttempts bounds the search for a free room code
	maxCodeAttempts = 100
)

// RoomCodeChars are characters used for room codes
const RoomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AvatarColors is the palette new players are painted from
var AvatarColors = []string{
	"#FF6B6B", "#4ECDC4", "#FFD166", "#06D6A0",
	"#118AB2", "#EF476F", "#073B4C", "#7209B7",
	"#3A86FF", "#FB5607", "#8338EC", "#FF006E",
}

// HubOptions configures rooms created by the hub
type HubOptions struct {
	DefaultMaxPlayers int
	MaxRounds         int
	RoundTime         time.Duration
	Intermission      time.Duration
	TickInterval      time.Duration
	SeatGrace         time.Duration
	Words             domain.WordPicker
	Clock             func() time.Time
}

// GameHub manages all active game sessions
type GameHub struct {
	sessions map[string]*GameSession
	mu       sync.RWMutex
	opts     HubOptions
	codeGen  func() (string, error)
	logger   zerolog.Logger
	done     chan struct{}
	once     sync.Once
}

// NewGameHub creates a new game hub and starts its round clock and seat
// cleanup
func NewGameHub(logger zerolog.Logger, opts HubOptions) *GameHub {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.DefaultMaxPlayers <= 0 {
		opts.DefaultMaxPlayers = domain.DefaultMaxPlayers
	}
	if opts.SeatGrace <= 0 {
		opts.SeatGrace = DefaultSeatGrace
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	hub := &GameHub{
		sessions: make(map[string]*GameSession),
		opts:     opts,
		codeGen:  generateRoomCode,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go hub.tickLoop()

	return hub
}

// CreateRoom creates a new room with the host seated first
func (h *GameHub) CreateRoom(hostID, username string, maxPlayers int) (*GameSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomCode, err := h.uniqueRoomCode()
	if err != nil {
		return nil, err
	}

	if maxPlayers <= 0 {
		maxPlayers = h.opts.DefaultMaxPlayers
	}

	room := domain.NewRoom(roomCode, hostID, domain.RoomOptions{
		MaxPlayers: maxPlayers,
		MaxRounds:  h.opts.MaxRounds,
		RoundTime:  h.opts.RoundTime,
		Words:      h.opts.Words,
		Clock:      h.opts.Clock,
	})
	session := NewGameSession(room, h.opts.Intermission, h.logger)

	if _, err := session.AddPlayer(hostID, username, randomColor()); err != nil {
		session.Close()
		return nil, fmt.Errorf("seat host: %w", err)
	}

	h.sessions[roomCode] = session

	h.logger.Info().Str("roomCode", roomCode).Int("maxPlayers", maxPlayers).Msg("room created")

	return session, nil
}

// JoinRoom seats a player in a room that is still in its lobby
func (h *GameHub) JoinRoom(roomCode, playerID, username string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[NormalizeRoomCode(roomCode)]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	if _, err := session.AddPlayer(playerID, username, randomColor()); err != nil {
		return nil, err
	}

	return session, nil
}

// LeaveRoom removes a player and destroys the room once it is empty.
// Leaving an unknown room, or a room the player is not in, does nothing.
func (h *GameHub) LeaveRoom(roomCode, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomCode = NormalizeRoomCode(roomCode)
	session, ok := h.sessions[roomCode]
	if !ok {
		return
	}

	if remaining := session.RemovePlayer(playerID); remaining == 0 {
		session.Close()
		delete(h.sessions, roomCode)
		h.logger.Info().Str("roomCode", roomCode).Msg("room deleted")
	}
}

// GetSession returns a game session by room code
func (h *GameHub) GetSession(roomCode string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[NormalizeRoomCode(roomCode)]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return session, nil
}

// GetSessionCount returns the number of active sessions
func (h *GameHub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// GetTotalPlayerCount returns the total number of players across all sessions
func (h *GameHub) GetTotalPlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.sessions {
		total += session.GetPlayerCount()
	}
	return total
}

// Close shuts down the hub and all sessions
func (h *GameHub) Close() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		for _, session := range h.sessions {
			session.Close()
		}
		h.sessions = make(map[string]*GameSession)
	})
}

// NormalizeRoomCode upper-cases and trims user-entered codes
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// uniqueRoomCode draws codes until one is free (caller must hold lock)
func (h *GameHub) uniqueRoomCode() (string, error) {
	for attempts := 0; attempts < maxCodeAttempts; attempts++ {
		code, err := h.codeGen()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if _, exists := h.sessions[code]; !exists {
			return code, nil
		}
	}
	return "", domain.ErrRoomCodesExhausted
}

// generateRoomCode draws a uniform random room code
func generateRoomCode() (string, error) {
	limit := big.NewInt(int64(len(RoomCodeChars)))
	code := make([]byte, DefaultRoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code), nil
}

func randomColor() string {
	return AvatarColors[mathrand.Intn(len(AvatarColors))]
}

// tickLoop periodically advances every room's round clock and frees idle seats
func (h *GameHub) tickLoop() {
	ticker := time.NewTicker(h.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.tickSessions()
		}
	}
}

// tickSessions ticks each room outside the hub lock
func (h *GameHub) tickSessions() {
	h.mu.RLock()
	sessions := make([]*GameSession, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, session)
	}
	h.mu.RUnlock()

	for _, session := range sessions {
		session.Tick()
	}
	h.cleanupIdleSeats(sessions)
}

// cleanupIdleSeats removes players whose seat has had no client for longer
// than the grace period. Seats taken over HTTP that never connect end up here,
// and a room whose last seat goes is deleted by LeaveRoom.
func (h *GameHub) cleanupIdleSeats(sessions []*GameSession) {
	now := h.opts.Clock()
	for _, session := range sessions {
		roomCode := session.GetRoomCode()
		for _, playerID := range session.IdleSeats(now, h.opts.SeatGrace) {
			h.logger.Info().
				Str("roomCode", roomCode).
				Str("playerID", playerID).
				Dur("roomAge", now.Sub(session.GetCreatedAt())).
				Msg("idle seat cleaned up")
			h.LeaveRoom(roomCode, playerID)
		}
	}
}
