package game

import "time"

// TimeSettings describes a player's time control. MainTime == 0 together with
// ByoYomiPeriods == 0 means unlimited time. Blitz overrides the main/byo-yomi
// family with a fixed per-move allotment.
type TimeSettings struct {
	MainTimeSec     int  `json:"main_time_sec" bson:"main_time_sec"`
	ByoYomiPeriods  int  `json:"byo_yomi_periods" bson:"byo_yomi_periods"`
	ByoYomiTimeSec  int  `json:"byo_yomi_time_sec" bson:"byo_yomi_time_sec"`
	Blitz           bool `json:"blitz" bson:"blitz"`
	TimePerMoveSec  int  `json:"time_per_move_sec" bson:"time_per_move_sec"`
	FischerBonusSec int  `json:"fischer_bonus_sec" bson:"fischer_bonus_sec"`
}

func (t TimeSettings) MainTime() time.Duration     { return time.Duration(t.MainTimeSec) * time.Second }
func (t TimeSettings) ByoYomiTime() time.Duration  { return time.Duration(t.ByoYomiTimeSec) * time.Second }
func (t TimeSettings) TimePerMove() time.Duration  { return time.Duration(t.TimePerMoveSec) * time.Second }
func (t TimeSettings) FischerBonus() time.Duration { return time.Duration(t.FischerBonusSec) * time.Second }

// CreateGameRequest — входной JSON на создание партии.
type CreateGameRequest struct {
	UserID         string       `json:"user_id"`
	BoardSize      int          `json:"board_size"`
	Komi           float64      `json:"komi"`
	Ruleset        Ruleset      `json:"ruleset"`
	Handicap       int          `json:"handicap"`
	IsCreatorBlack bool         `json:"is_creator_black"`
	VsBot          bool         `json:"vs_bot"`
	Time           TimeSettings `json:"time"`
}

type CreateGameResponse struct {
	GameID   string `json:"game_id"`
	GameCode string `json:"game_code"`
}

type JoinGameRequest struct {
	GameID   string `json:"game_id,omitempty"`
	GameCode string `json:"game_code,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// ArchiveRecord is the finished-game document stored in Mongo. Live sessions
// are never persisted; only completed games land here.
type ArchiveRecord struct {
	GameID      string       `json:"game_id" bson:"game_id"`
	GameCode    string       `json:"game_code" bson:"game_code"`
	BoardSize   int          `json:"board_size" bson:"board_size"`
	Komi        float64      `json:"komi" bson:"komi"`
	Ruleset     Ruleset      `json:"ruleset" bson:"ruleset"`
	Handicap    int          `json:"handicap" bson:"handicap"`
	PlayerBlack string       `json:"player_black" bson:"player_black"`
	PlayerWhite string       `json:"player_white" bson:"player_white"`
	Result      string       `json:"result" bson:"result"`
	Winner      string       `json:"winner" bson:"winner"`
	MovesCount  int          `json:"moves_count" bson:"moves_count"`
	SGF         string       `json:"sgf" bson:"sgf"`
	Time        TimeSettings `json:"time" bson:"time"`
	StartedAt   time.Time    `json:"started_at" bson:"started_at"`
	FinishedAt  time.Time    `json:"finished_at" bson:"finished_at"`
}
