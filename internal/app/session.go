package app

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"neondraw/internal/domain"
)

const (
	eventBufferSize = 256

	reasonGuessed    = "guessed"
	reasonTimeout    = "timeout"
	reasonDrawerLeft = "drawer_left"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// GameSession wraps a room with a single mutation lock and client fan-out.
// Every domain call goes through s.mu, so two guesses, a leave and a turn
// change can never interleave.
type GameSession struct {
	room         *domain.Room
	mu           sync.Mutex
	intermission time.Duration
	clients      map[string]ClientConnection // playerID -> client
	idleSince    map[string]time.Time        // seated players without a client
	clientsMu    sync.RWMutex
	logger       zerolog.Logger

	// Event channel for broadcasting
	events    chan *domain.GameEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewGameSession creates a session around room and starts its broadcaster.
// intermission is the pause between a finished turn and the next one.
func NewGameSession(room *domain.Room, intermission time.Duration, logger zerolog.Logger) *GameSession {
	session := &GameSession{
		room:         room,
		intermission: intermission,
		clients:      make(map[string]ClientConnection),
		idleSince:    make(map[string]time.Time),
		logger:       logger.With().Str("roomCode", room.ID()).Logger(),
		events:       make(chan *domain.GameEvent, eventBufferSize),
		done:         make(chan struct{}),
	}

	go session.eventLoop()

	return session
}

// GetRoomCode returns the room code
func (s *GameSession) GetRoomCode() string {
	return s.room.ID()
}

// GetCreatedAt returns when the room was created
func (s *GameSession) GetCreatedAt() time.Time {
	return s.room.CreatedAt()
}

// GetPlayerCount returns the number of players
func (s *GameSession) GetPlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.PlayerCount()
}

// GetState returns the current game state
func (s *GameSession) GetState() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.State()
}

// CanJoin checks if a new player can join the room
func (s *GameSession) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.State() == domain.StateWaiting && s.room.PlayerCount() < s.room.MaxPlayers()
}

// HasPlayer reports whether playerID is seated in the room
func (s *GameSession) HasPlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.HasPlayer(playerID)
}

// Snapshot returns the public room state
func (s *GameSession) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Snapshot()
}

// Canvas returns the strokes of the running turn, for late joiners
func (s *GameSession) Canvas() []domain.Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Canvas()
}

// SecretWord returns the word if playerID is the current drawer
func (s *GameSession) SecretWord(playerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.SecretWord(playerID)
}

// RegisterClient registers a client connection for a player. A previous
// connection for the same player is closed.
func (s *GameSession) RegisterClient(playerID string, client ClientConnection) {
	s.clientsMu.Lock()
	previous := s.clients[playerID]
	s.clients[playerID] = client
	delete(s.idleSince, playerID)
	s.clientsMu.Unlock()

	if previous != nil && previous != client {
		if err := previous.Close(); err != nil {
			s.logger.Debug().Err(err).Str("playerID", playerID).Msg("failed to close replaced client")
		}
	}
}

// UnregisterClient removes a client connection if it is still the one
// registered for the player, and reports whether it was
func (s *GameSession) UnregisterClient(playerID string, client ClientConnection) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if current, ok := s.clients[playerID]; ok && current == client {
		delete(s.clients, playerID)
		s.idleSince[playerID] = s.room.Now()
		return true
	}
	return false
}

// IdleSeats returns the seated players that have had no client for longer
// than grace
func (s *GameSession) IdleSeats(now time.Time, grace time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	var idle []string
	for playerID, since := range s.idleSince {
		if !s.room.HasPlayer(playerID) {
			delete(s.idleSince, playerID)
			continue
		}
		if now.Sub(since) > grace {
			idle = append(idle, playerID)
		}
	}
	sort.Strings(idle)
	return idle
}

// AddPlayer seats a player while the room is still in its lobby
func (s *GameSession) AddPlayer(playerID, username, color string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room.State() != domain.StateWaiting {
		return nil, domain.ErrGameAlreadyStarted
	}

	player, err := s.room.AddPlayer(playerID, username, color)
	if err != nil {
		return nil, err
	}

	s.clientsMu.Lock()
	if _, connected := s.clients[playerID]; !connected {
		s.idleSince[playerID] = s.room.Now()
	}
	s.clientsMu.Unlock()

	s.queueChat(domain.ChatSystem, "", fmt.Sprintf("%s joined the room", username))
	s.queueSnapshot()

	return player, nil
}

// RemovePlayer removes a player and returns how many remain. Unknown players
// are ignored.
func (s *GameSession) RemovePlayer(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.Player(playerID)
	if err != nil {
		return s.room.PlayerCount()
	}

	wasDrawing := s.room.State() == domain.StateDrawing && s.room.IsDrawer(playerID)
	round := s.room.Round()
	s.room.RemovePlayer(playerID)

	s.clientsMu.Lock()
	delete(s.idleSince, playerID)
	s.clientsMu.Unlock()

	s.queueChat(domain.ChatSystem, "", fmt.Sprintf("%s left the room", player.Username))
	if wasDrawing && s.room.PlayerCount() > 1 {
		s.roundEnded(reasonDrawerLeft, round)
	}
	s.queueSnapshot()

	return s.room.PlayerCount()
}

// StartGame starts a new game. Any seated player may start it.
func (s *GameSession) StartGame(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.HasPlayer(playerID) {
		return domain.ErrPlayerNotFound
	}

	info, err := s.room.StartGame()
	if err != nil {
		return err
	}

	s.logger.Info().Int("players", s.room.PlayerCount()).Msg("game started")

	s.queueEvent(domain.NewEvent(domain.EventGameStarted, s.room.ID(), s.room.Snapshot()))
	s.queueChat(domain.ChatSystem, "", "Game started!")
	s.turnStarted(info)

	return nil
}

// SubmitDraw appends a stroke drawn by the current drawer
func (s *GameSession) SubmitDraw(playerID string, stroke domain.Stroke) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDrawer(playerID); err != nil {
		return err
	}

	s.room.AppendStroke(stroke)
	s.queueEvent(domain.NewBroadcastExcept(domain.EventCanvasAppended, s.room.ID(), playerID, stroke))

	return nil
}

// ClearCanvas wipes the canvas for the running turn
func (s *GameSession) ClearCanvas(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDrawer(playerID); err != nil {
		return err
	}

	s.room.ClearCanvas()
	s.queueEvent(domain.NewEvent(domain.EventCanvasCleared, s.room.ID(), nil))

	return nil
}

// SubmitChat posts a chat line. While a turn runs, lines from anyone but
// the drawer are evaluated as guesses, and the drawer may not type the word.
func (s *GameSession) SubmitChat(playerID, text string) (domain.GuessResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.GuessResult{}, domain.ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.Player(playerID)
	if err != nil {
		return domain.GuessResult{}, err
	}

	if s.room.RevealsWord(playerID, text) {
		return domain.GuessResult{}, domain.ErrWordRevealed
	}

	if s.room.State() != domain.StateDrawing || s.room.IsDrawer(playerID) {
		s.queueChat(domain.ChatMessage, player.Username, text)
		return domain.GuessResult{PlayerID: playerID, Player: player.Username, Guess: text}, nil
	}

	round := s.room.Round()
	result, err := s.room.SubmitGuess(playerID, text)
	if err != nil {
		return result, err
	}

	if !result.Correct {
		s.queueChat(domain.ChatGuess, player.Username, text)
		s.queueEvent(domain.NewEvent(domain.EventGuessResult, s.room.ID(), result))
		return result, nil
	}

	s.logger.Debug().
		Str("playerID", playerID).
		Int("score", result.Score).
		Msg("word guessed")

	s.queueChat(domain.ChatCorrectGuess, player.Username,
		fmt.Sprintf("guessed the word: %s! +%d points", result.Word, result.Score))
	s.queueEvent(domain.NewEvent(domain.EventGuessResult, s.room.ID(), result))
	s.roundEnded(reasonGuessed, round)
	s.queueSnapshot()

	return result, nil
}

// Tick drives the round clock: it ends turns that ran out of time and
// starts the next turn once the intermission is over.
func (s *GameSession) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.room.State() {
	case domain.StateDrawing:
		if !s.room.TimedOut() {
			return
		}
		round := s.room.Round()
		if err := s.room.EndRound(); err != nil {
			return
		}
		s.roundEnded(reasonTimeout, round)
		s.queueSnapshot()
	case domain.StateBetweenRounds:
		s.advance()
	}
}

// roundEnded announces the end of a round and, with no intermission,
// chains straight into the next turn (caller must hold lock)
func (s *GameSession) roundEnded(reason string, round int) {
	payload := &domain.RoundEndedPayload{
		Word:     s.room.RevealWord(),
		Reason:   reason,
		Round:    round,
		State:    s.room.State(),
		Standing: s.room.Leaderboard(),
	}
	s.queueEvent(domain.NewEvent(domain.EventRoundEnded, s.room.ID(), payload))

	if s.room.State() == domain.StateFinished {
		s.logger.Info().Msg("game finished")
		s.queueEvent(domain.NewEvent(domain.EventGameFinished, s.room.ID(), &domain.GameFinishedPayload{
			Leaderboard: s.room.Leaderboard(),
		}))
		s.queueChat(domain.ChatSystem, "", "Game over!")
		return
	}

	if s.intermission <= 0 {
		s.advance()
	}
}

// advance starts the next turn if the intermission has passed (caller must hold lock)
func (s *GameSession) advance() {
	if s.room.State() != domain.StateBetweenRounds || s.room.PlayerCount() < 2 {
		return
	}
	if s.room.SinceRoundEnded() < s.intermission {
		return
	}

	info, err := s.room.NextTurn()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to start next turn")
		return
	}
	s.turnStarted(info)
}

// turnStarted queues the public turn info plus the drawer's secret word (caller must hold lock)
func (s *GameSession) turnStarted(info domain.TurnInfo) {
	s.queueEvent(domain.NewEvent(domain.EventTurnStarted, s.room.ID(), info))
	if word, ok := s.room.SecretWord(info.DrawerID); ok {
		s.queueEvent(domain.NewPlayerEvent(domain.EventSecretWord, s.room.ID(), info.DrawerID,
			&domain.SecretWordPayload{Word: word}))
	}
	s.queueSnapshot()
}

func (s *GameSession) checkDrawer(playerID string) error {
	if !s.room.HasPlayer(playerID) {
		return domain.ErrPlayerNotFound
	}
	if s.room.State() != domain.StateDrawing {
		return domain.ErrNotDrawing
	}
	if !s.room.IsDrawer(playerID) {
		return domain.ErrNotDrawer
	}
	return nil
}

func (s *GameSession) queueSnapshot() {
	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID(), s.room.Snapshot()))
}

func (s *GameSession) queueChat(kind domain.ChatKind, player, message string) {
	s.queueEvent(domain.NewEvent(domain.EventChatMessage, s.room.ID(), &domain.ChatPayload{
		Kind:    kind,
		Player:  player,
		Message: message,
		Time:    time.Now().Format("15:04"),
	}))
}

// queueEvent adds an event to the broadcast queue
func (s *GameSession) queueEvent(event *domain.GameEvent) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn().Str("type", string(event.Type)).Msg("event queue full, dropping event")
	}
}

// eventLoop processes events and broadcasts to clients
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to appropriate clients
func (s *GameSession) broadcastEvent(event *domain.GameEvent) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	// If player-specific, send only to that player
	if event.PlayerID != "" {
		if client, ok := s.clients[event.PlayerID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug().Err(err).Str("playerID", event.PlayerID).Msg("failed to send to client")
			}
		}
		return
	}

	for playerID, client := range s.clients {
		if playerID == event.SkipID {
			continue
		}
		if err := client.Send(event); err != nil {
			s.logger.Debug().Err(err).Str("playerID", playerID).Msg("failed to send to client")
		}
	}
}

// Close shuts down the session
func (s *GameSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.clientsMu.Lock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clients = make(map[string]ClientConnection)
		s.clientsMu.Unlock()
	})
}
