package session

import (
	"time"

	"goban/internal/domain/game"
	"goban/internal/engine"
	"goban/internal/timecontrol"
)

// Event types pushed to every peer of a session.
const (
	EventGameState        = "gameState"
	EventMoveMade         = "moveMade"
	EventTimeUpdate       = "timeUpdate"
	EventByoYomiReset     = "byoYomiReset"
	EventPlayerTimeout    = "playerTimeout"
	EventScoringStarted   = "scoringPhaseStarted"
	EventScoringCancelled = "scoringCancelled"
	EventScoreConfirm     = "scoreConfirmationUpdate"
	EventDeadStones       = "deadStonesUpdate"
	EventGameFinished     = "gameFinished"
	EventUndoRequested    = "undoRequested"
	EventUndoPerformed    = "undoPerformed"
	EventPlayAgain        = "playAgain"
)

// Event is one outbound message. Payload must be JSON-marshalable.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// EventSink receives every event a session broadcasts. The delivery layer
// fans events out to websocket peers; tests capture them directly. Send must
// not call back into the session.
type EventSink interface {
	Send(sessionID string, event Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(sessionID string, event Event)

func (f SinkFunc) Send(sessionID string, event Event) { f(sessionID, event) }

// Snapshot is the full gameState payload, also served over /getGameById.
type Snapshot struct {
	ID             string                              `json:"id"`
	Code           string                              `json:"code"`
	Status         string                              `json:"status"`
	BoardSize      int                                 `json:"board_size"`
	Komi           float64                             `json:"komi"`
	Ruleset        game.Ruleset                        `json:"ruleset"`
	Handicap       int                                 `json:"handicap"`
	Time           game.TimeSettings                   `json:"time"`
	Stones         []game.Stone                        `json:"stones"`
	CurrentTurn    game.Color                          `json:"current_turn"`
	Captured       map[game.Color]int                  `json:"captured"`
	KoPosition     *game.Position                      `json:"ko_position,omitempty"`
	MovesCount     int                                 `json:"moves_count"`
	History        []game.MoveRecord                   `json:"history"`
	DeadStones     []game.Position                     `json:"dead_stones,omitempty"`
	Confirmations  map[game.Color]bool                 `json:"score_confirmations,omitempty"`
	Clocks         map[game.Color]timecontrol.Snapshot `json:"clocks"`
	Players        map[game.Color]string               `json:"players"`
	Result         string                              `json:"result,omitempty"`
	Winner         game.Color                          `json:"winner,omitempty"`
	Score          *engine.ScoreResult                 `json:"score,omitempty"`
	StartedAt      time.Time                           `json:"started_at"`
	FinishedAt     time.Time                           `json:"finished_at"`
}

type movePayload struct {
	Color     game.Color           `json:"color"`
	Pass      bool                 `json:"pass"`
	Position  *game.Position       `json:"position,omitempty"`
	Captured  []game.Position      `json:"captured,omitempty"`
	Ko        *game.Position       `json:"ko,omitempty"`
	NextTurn  game.Color           `json:"next_turn"`
	MoveIndex int                  `json:"move_index"`
	Clock     timecontrol.Snapshot `json:"clock"`
}

type timeoutPayload struct {
	Color  game.Color `json:"color"`
	Winner game.Color `json:"winner"`
	Result string     `json:"result"`
}

type confirmPayload struct {
	Confirmations map[game.Color]bool `json:"confirmations"`
	Score         *engine.ScoreResult `json:"score,omitempty"`
}

type finishedPayload struct {
	Winner game.Color          `json:"winner,omitempty"`
	Result string              `json:"result"`
	Score  *engine.ScoreResult `json:"score,omitempty"`
}

type undoRequestPayload struct {
	RequestedBy game.Color `json:"requested_by"`
	MoveIndex   int        `json:"move_index"`
}

type playAgainPayload struct {
	NewGameID   string `json:"new_game_id,omitempty"`
	NewGameCode string `json:"new_game_code,omitempty"`
	AcceptedBy  string `json:"accepted_by,omitempty"`
}
