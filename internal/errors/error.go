package errors

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrCreateGameFailed = errors.New("create game failed")
	ErrJoinGameFailed   = errors.New("join game failed")
	ErrGameFull         = errors.New("game already has two players")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrWrongStatus      = errors.New("operation is not allowed in current game status")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrKoViolation      = errors.New("ko rule forbids immediate recapture")
	ErrSuicideMove      = errors.New("move would leave own group without liberties")
	ErrOutOfBoard       = errors.New("position is outside the board")
	ErrUndoAlreadyUsed  = errors.New("undo has already been used in this game")
	ErrNoPendingUndo    = errors.New("no undo request is pending")
	ErrUnknownPlayer    = errors.New("player is not part of this game")
	ErrEngineTimeout    = errors.New("ai engine did not answer in time")
	ErrEngineRestarted  = errors.New("ai engine was restarted, board state lost")
	ErrEngineStopped    = errors.New("ai engine process is not running")
	ErrEngineUnhealthy  = errors.New("ai engine unresponsive")
	ErrInternal         = errors.New("internal error")
)
