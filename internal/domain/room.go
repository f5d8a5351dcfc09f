package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Room defaults and scoring constants
const (
	DefaultMaxPlayers = 8
	DefaultMaxRounds  = 3
	DefaultRoundTime  = 80 * time.Second

	BaseGuessScore = 100
	DrawerBonus    = 50

	hintPlaceholder = ".."
)

// RoomOptions configures a new room. Zero values fall back to defaults.
type RoomOptions struct {
	MaxPlayers int
	MaxRounds  int
	RoundTime  time.Duration
	Words      WordPicker
	Clock      func() time.Time
}

// Room is the state machine for a single game room. It is not safe for
// concurrent use; callers serialize access (see app.GameSession).
type Room struct {
	id         string
	hostID     string
	maxPlayers int
	maxRounds  int
	roundTime  time.Duration
	createdAt  time.Time

	seats []*seat // insertion order is rotation order
	state GameState

	currentDrawer string
	resumeIndex   int // seat to draw next after the drawer left, -1 if unset
	currentWord   string
	wordHint      string

	round          int
	roundStartTime time.Time
	roundEndedAt   time.Time
	canvas         []Stroke

	words WordPicker
	now   func() time.Time
}

// NewRoom creates an empty room in the waiting state
func NewRoom(id, hostID string, opts RoomOptions) *Room {
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.RoundTime <= 0 {
		opts.RoundTime = DefaultRoundTime
	}
	if opts.Words == nil {
		opts.Words = NewWordBank(nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Room{
		id:          id,
		hostID:      hostID,
		maxPlayers:  opts.MaxPlayers,
		maxRounds:   opts.MaxRounds,
		roundTime:   opts.RoundTime,
		createdAt:   opts.Clock(),
		seats:       make([]*seat, 0, opts.MaxPlayers),
		state:       StateWaiting,
		resumeIndex: -1,
		round:       1,
		canvas:      make([]Stroke, 0),
		words:       opts.Words,
		now:         opts.Clock,
	}
}

// ID returns the room code
func (r *Room) ID() string { return r.id }

// MaxPlayers returns the room capacity
func (r *Room) MaxPlayers() int { return r.maxPlayers }

// State returns the current game state
func (r *Room) State() GameState { return r.state }

// Round returns the current round number
func (r *Room) Round() int { return r.round }

// MaxRounds returns the number of rounds in a game
func (r *Room) MaxRounds() int { return r.maxRounds }

// CurrentDrawer returns the drawer's player id, or "" if nobody is drawing
func (r *Room) CurrentDrawer() string { return r.currentDrawer }

// CreatedAt returns when the room was created
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Now reads the room clock
func (r *Room) Now() time.Time { return r.now() }

// SinceRoundEnded returns how long ago the last turn ended
func (r *Room) SinceRoundEnded() time.Duration {
	if r.roundEndedAt.IsZero() {
		return 0
	}
	return r.now().Sub(r.roundEndedAt)
}

// PlayerCount returns the number of players in the room
func (r *Room) PlayerCount() int { return len(r.seats) }

// HasPlayer reports whether id is a member of the room
func (r *Room) HasPlayer(id string) bool { return r.seatIndex(id) >= 0 }

// IsDrawer reports whether id is the current drawer
func (r *Room) IsDrawer(id string) bool {
	return id != "" && id == r.currentDrawer
}

// Player returns a member by id
func (r *Room) Player(id string) (*Player, error) {
	idx := r.seatIndex(id)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	return r.seats[idx].player, nil
}

// Players returns members in rotation order
func (r *Room) Players() []PlayerInfo {
	players := make([]PlayerInfo, 0, len(r.seats))
	for _, s := range r.seats {
		players = append(players, s.player.ToInfo())
	}
	return players
}

// Scores returns a copy of the score table keyed by player id
func (r *Room) Scores() map[string]int {
	scores := make(map[string]int, len(r.seats))
	for _, s := range r.seats {
		scores[s.player.ID] = s.score
	}
	return scores
}

// AddPlayer seats a new player with a zero score
func (r *Room) AddPlayer(id, username, color string) (*Player, error) {
	if len(r.seats) >= r.maxPlayers {
		return nil, ErrRoomFull
	}
	if r.HasPlayer(id) {
		return nil, ErrPlayerExists
	}

	player := NewPlayer(id, username, color, r.now())
	r.seats = append(r.seats, &seat{player: player})
	return player, nil
}

// RemovePlayer removes a member and their score. It reports whether the
// player was present. Removing the drawer mid-turn ends the turn.
func (r *Room) RemovePlayer(id string) bool {
	idx := r.seatIndex(id)
	if idx < 0 {
		return false
	}

	r.seats = append(r.seats[:idx], r.seats[idx+1:]...)

	if r.resumeIndex > idx {
		r.resumeIndex--
	}

	if id == r.currentDrawer {
		// The player after the drawer slid into idx, so they draw next.
		r.currentDrawer = ""
		r.resumeIndex = idx
		if r.state == StateDrawing {
			r.endRound()
		}
	}

	if len(r.seats) <= 1 {
		r.setState(StateWaiting)
	}

	return true
}

// StartGame resets rounds and scores and starts the first turn
func (r *Room) StartGame() (TurnInfo, error) {
	if len(r.seats) < 2 {
		return TurnInfo{}, ErrInsufficientPlayers
	}
	if r.state == StateDrawing || r.state == StateBetweenRounds {
		return TurnInfo{}, ErrGameInProgress
	}

	r.round = 1
	for _, s := range r.seats {
		s.score = 0
	}
	r.currentDrawer = ""
	r.resumeIndex = -1
	r.roundEndedAt = time.Time{}
	r.setState(StateWaiting)

	return r.NextTurn()
}

// NextTurn hands the pencil to the next player in rotation, picks a new word
// and starts the turn clock.
func (r *Room) NextTurn() (TurnInfo, error) {
	if r.state == StateFinished {
		return TurnInfo{}, ErrGameFinished
	}
	if len(r.seats) == 0 {
		return TurnInfo{}, ErrInsufficientPlayers
	}

	next := 0
	if idx := r.seatIndex(r.currentDrawer); idx >= 0 {
		next = (idx + 1) % len(r.seats)
	} else if r.resumeIndex >= 0 {
		next = r.resumeIndex % len(r.seats)
	}
	r.resumeIndex = -1

	drawer := r.seats[next].player
	r.currentDrawer = drawer.ID
	r.currentWord = r.words.PickRandom()
	r.wordHint = buildHint(r.currentWord)
	r.roundStartTime = r.now()
	r.setState(StateDrawing)
	r.canvas = r.canvas[:0]

	return TurnInfo{
		DrawerID:   drawer.ID,
		DrawerName: drawer.Username,
		WordHint:   r.wordHint,
		WordLength: len([]rune(r.currentWord)),
		RoundTime:  r.roundTimeSeconds(),
		Round:      r.round,
		MaxRounds:  r.maxRounds,
	}, nil
}

// SubmitGuess checks a chat line against the secret word. A correct guess
// scores the guesser by speed, gives the drawer a flat bonus and ends the turn.
func (r *Room) SubmitGuess(playerID, text string) (GuessResult, error) {
	idx := r.seatIndex(playerID)
	if idx < 0 {
		return GuessResult{}, ErrPlayerNotFound
	}
	guesser := r.seats[idx]

	result := GuessResult{
		PlayerID: playerID,
		Player:   guesser.player.Username,
		Guess:    text,
	}

	if r.state != StateDrawing || playerID == r.currentDrawer {
		return result, nil
	}
	if !r.matchesWord(text) {
		return result, nil
	}

	elapsed := r.now().Sub(r.roundStartTime).Seconds()
	timeBonus := int(math.Floor((r.roundTime.Seconds() - elapsed) * 10))
	if timeBonus < 0 {
		timeBonus = 0
	}
	total := BaseGuessScore + timeBonus

	guesser.score += total
	if d := r.seatIndex(r.currentDrawer); d >= 0 {
		r.seats[d].score += DrawerBonus
	}

	result.Correct = true
	result.Score = total
	result.Word = r.currentWord

	r.endRound()

	return result, nil
}

// RevealsWord reports whether a chat line from the drawer would give the
// word away
func (r *Room) RevealsWord(playerID, text string) bool {
	return r.state == StateDrawing && playerID == r.currentDrawer && r.matchesWord(text)
}

func (r *Room) matchesWord(text string) bool {
	return r.currentWord != "" && strings.EqualFold(strings.TrimSpace(text), r.currentWord)
}

// EndRound closes the running turn. The game finishes after the last round,
// otherwise the round counter advances. It never starts the next turn.
func (r *Room) EndRound() error {
	if r.state != StateDrawing {
		return ErrNotDrawing
	}
	r.endRound()
	return nil
}

func (r *Room) endRound() {
	r.roundEndedAt = r.now()
	if r.round >= r.maxRounds {
		r.setState(StateFinished)
		return
	}
	r.setState(StateBetweenRounds)
	r.round++
}

// RemainingTime returns whole seconds left in the turn
func (r *Room) RemainingTime() int {
	if r.roundStartTime.IsZero() {
		return r.roundTimeSeconds()
	}
	elapsed := r.now().Sub(r.roundStartTime).Seconds()
	remaining := int(r.roundTime.Seconds() - elapsed)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimedOut reports whether the running turn has used up its time
func (r *Room) TimedOut() bool {
	return r.state == StateDrawing && r.now().Sub(r.roundStartTime) >= r.roundTime
}

// SecretWord returns the word only to the current drawer
func (r *Room) SecretWord(playerID string) (string, bool) {
	if !r.IsDrawer(playerID) || r.currentWord == "" {
		return "", false
	}
	return r.currentWord, true
}

// RevealWord returns the word of the last turn once it is over
func (r *Room) RevealWord() string {
	if r.state == StateDrawing {
		return ""
	}
	return r.currentWord
}

// AppendStroke adds a stroke to the current turn's canvas
func (r *Room) AppendStroke(s Stroke) {
	r.canvas = append(r.canvas, s)
}

// ClearCanvas drops every stroke of the current turn
func (r *Room) ClearCanvas() {
	r.canvas = r.canvas[:0]
}

// Canvas returns a copy of the current turn's strokes
func (r *Room) Canvas() []Stroke {
	out := make([]Stroke, len(r.canvas))
	copy(out, r.canvas)
	return out
}

// Leaderboard returns players by score, highest first, ties in seat order
func (r *Room) Leaderboard() []LeaderboardEntry {
	ranked := make([]*seat, len(r.seats))
	copy(ranked, r.seats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	board := make([]LeaderboardEntry, 0, len(ranked))
	for _, s := range ranked {
		board = append(board, LeaderboardEntry{
			Username:    s.player.Username,
			Score:       s.score,
			AvatarColor: s.player.AvatarColor,
		})
	}
	return board
}

// Snapshot returns the full public state of the room
func (r *Room) Snapshot() Snapshot {
	snap := Snapshot{
		RoomID:        r.id,
		HostID:        r.hostID,
		MaxPlayers:    r.maxPlayers,
		Players:       r.Players(),
		GameState:     r.state,
		Round:         r.round,
		MaxRounds:     r.maxRounds,
		Scores:        r.Scores(),
		RemainingTime: r.RemainingTime(),
		Leaderboard:   r.Leaderboard(),
	}
	if idx := r.seatIndex(r.currentDrawer); idx >= 0 {
		snap.CurrentDrawer = r.seats[idx].player.Username
	}
	if r.state == StateDrawing {
		snap.WordHint = r.wordHint
	}
	return snap
}

func (r *Room) setState(target GameState) {
	if r.state == target || !r.state.CanTransitionTo(target) {
		return
	}
	r.state = target
}

func (r *Room) seatIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range r.seats {
		if s.player.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) roundTimeSeconds() int {
	return int(r.roundTime / time.Second)
}

// buildHint masks a word down to its first and last letters
func buildHint(word string) string {
	runes := []rune(word)
	if len(runes) <= 2 {
		return hintPlaceholder
	}
	return string(runes[0]) + "..." + string(runes[len(runes)-1])
}
