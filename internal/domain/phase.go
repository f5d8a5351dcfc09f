package domain

// GameState represents where a room is in its lifecycle
type GameState string

const (
	StateWaiting       GameState = "waiting"        // Lobby, collecting players
	StateDrawing       GameState = "drawing"        // A turn is running
	StateBetweenRounds GameState = "between_rounds" // Turn over, next one not started yet
	StateFinished      GameState = "finished"       // Last round played
)

// String returns the string representation of the state
func (s GameState) String() string {
	return string(s)
}

// CanTransitionTo checks if moving from the current state to target is allowed
func (s GameState) CanTransitionTo(target GameState) bool {
	validTransitions := map[GameState][]GameState{
		StateWaiting:       {StateDrawing},
		StateDrawing:       {StateBetweenRounds, StateFinished, StateWaiting},
		StateBetweenRounds: {StateDrawing, StateWaiting},
		StateFinished:      {StateDrawing, StateWaiting}, // Restart or players left
	}

	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
