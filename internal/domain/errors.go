package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerExists        = errors.New("player already in room")
	ErrGameFinished        = errors.New("game is finished")
	ErrGameInProgress      = errors.New("a turn is already in progress")
	ErrNotDrawer           = errors.New("only the current drawer can do this")
	ErrNotDrawing          = errors.New("no turn is in progress")
	ErrEmptyMessage        = errors.New("message cannot be empty")
	ErrWordRevealed        = errors.New("the drawer cannot say the word")
	ErrRoomCodesExhausted  = errors.New("failed to generate unique room code")
)
