package game

import "time"

// ClockState is the mover's clock snapshot stored with each move. It is a
// display projection; the authoritative clock lives server-side.
type ClockState struct {
	MainTimeLeft    time.Duration `json:"main_time_left"`
	InByoYomi       bool          `json:"in_byo_yomi"`
	PeriodsLeft     int           `json:"periods_left"`
	PeriodTimeLeft  time.Duration `json:"period_time_left"`
	PerMoveTimeLeft time.Duration `json:"per_move_time_left"`
}

// MoveRecord — один элемент истории партии. History is append-only; the only
// rebuild path is the full undo replay.
type MoveRecord struct {
	Color     Color         `json:"color"`
	Pass      bool          `json:"pass"`
	Position  *Position     `json:"position,omitempty"`
	PlayedAt  time.Time     `json:"played_at"`
	TimeSpent time.Duration `json:"time_spent"`
	Clock     ClockState    `json:"clock"`
}
