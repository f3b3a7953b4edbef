// Package timecontrol implements the per-player clock state machine:
// main time -> byo-yomi -> timeout for standard games, a self-resetting
// per-move timer for blitz, and an optional Fischer increment.
package timecontrol

import "time"

type State int

const (
	StateUnlimited State = iota
	StateMainTime
	StateByoYomi
	StatePerMove
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateUnlimited:
		return "unlimited"
	case StateMainTime:
		return "main_time"
	case StateByoYomi:
		return "byo_yomi"
	case StatePerMove:
		return "per_move"
	default:
		return "timed_out"
	}
}

// Settings is the immutable time-control configuration for one player.
type Settings struct {
	MainTime       time.Duration
	ByoYomiPeriods int
	ByoYomiTime    time.Duration
	Blitz          bool
	TimePerMove    time.Duration
	FischerBonus   time.Duration
}

// Unlimited reports whether this configuration can never time out.
func (s Settings) Unlimited() bool {
	return !s.Blitz && s.MainTime == 0 && s.ByoYomiPeriods == 0
}

// Clock is one player's authoritative clock. Not safe for concurrent use;
// the owning session serializes access.
type Clock struct {
	settings    Settings
	state       State
	mainLeft    time.Duration
	periodsLeft int
	periodLeft  time.Duration
	perMoveLeft time.Duration
}

func NewClock(s Settings) *Clock {
	c := &Clock{settings: s}
	switch {
	case s.Blitz:
		c.state = StatePerMove
		c.perMoveLeft = s.TimePerMove
	case s.Unlimited():
		c.state = StateUnlimited
	case s.MainTime == 0 && s.ByoYomiPeriods > 0:
		// Byo-yomi only: start directly in overtime.
		c.state = StateByoYomi
		c.periodsLeft = s.ByoYomiPeriods
		c.periodLeft = s.ByoYomiTime
	default:
		c.state = StateMainTime
		c.mainLeft = s.MainTime
		c.periodsLeft = s.ByoYomiPeriods
	}
	return c
}

func (c *Clock) State() State       { return c.state }
func (c *Clock) Settings() Settings { return c.settings }

// ChargeResult reports what a committed charge did to the clock.
type ChargeResult struct {
	TimedOut       bool
	EnteredByoYomi bool
	PeriodReset    bool // a byo-yomi period was returned or consumed and the timer reset
	PeriodsLeft    int
}

// ChargeElapsed commits wall-clock time spent on a move. Remaining time
// clamps at zero; a timeout is never skipped except in the unlimited mode.
func (c *Clock) ChargeElapsed(elapsed time.Duration) ChargeResult {
	if elapsed < 0 {
		elapsed = 0
	}
	switch c.state {
	case StateUnlimited:
		return ChargeResult{}
	case StateTimedOut:
		return ChargeResult{TimedOut: true}
	case StatePerMove:
		if elapsed > c.settings.TimePerMove {
			return c.timeout()
		}
		c.perMoveLeft = c.settings.TimePerMove
		return ChargeResult{PeriodReset: true}
	case StateByoYomi:
		return c.chargeByoYomi(elapsed)
	default:
		return c.chargeMainTime(elapsed)
	}
}

func (c *Clock) chargeMainTime(elapsed time.Duration) ChargeResult {
	remainingBefore := c.mainLeft
	c.mainLeft -= elapsed
	if c.mainLeft > 0 {
		return ChargeResult{}
	}
	c.mainLeft = 0

	if c.settings.ByoYomiPeriods == 0 || c.settings.ByoYomiTime <= 0 {
		return c.timeout()
	}

	overage := elapsed - remainingBefore
	consumed := int(overage / c.settings.ByoYomiTime)
	left := c.settings.ByoYomiPeriods - consumed
	if left <= 0 {
		return c.timeout()
	}
	c.state = StateByoYomi
	c.periodsLeft = left
	c.periodLeft = c.settings.ByoYomiTime
	return ChargeResult{EnteredByoYomi: true, PeriodReset: true, PeriodsLeft: left}
}

func (c *Clock) chargeByoYomi(elapsed time.Duration) ChargeResult {
	if c.settings.ByoYomiTime <= 0 {
		return c.timeout()
	}
	if elapsed <= c.settings.ByoYomiTime {
		// Move fit inside the period: the period is returned, count unchanged.
		c.periodLeft = c.settings.ByoYomiTime
		return ChargeResult{PeriodReset: true, PeriodsLeft: c.periodsLeft}
	}
	consumed := int(elapsed / c.settings.ByoYomiTime)
	left := c.periodsLeft - consumed
	if left <= 0 {
		return c.timeout()
	}
	c.periodsLeft = left
	c.periodLeft = c.settings.ByoYomiTime
	return ChargeResult{PeriodReset: true, PeriodsLeft: left}
}

// WouldTimeOut reports whether charging elapsed would time the player out,
// without committing anything.
func (c *Clock) WouldTimeOut(elapsed time.Duration) bool {
	cp := *c
	return cp.ChargeElapsed(elapsed).TimedOut
}

func (c *Clock) timeout() ChargeResult {
	c.state = StateTimedOut
	c.mainLeft = 0
	c.periodLeft = 0
	c.perMoveLeft = 0
	c.periodsLeft = 0
	return ChargeResult{TimedOut: true}
}

// ApplyFischerBonus credits the increment after a completed move, before the
// next charge.
func (c *Clock) ApplyFischerBonus() {
	if c.settings.FischerBonus <= 0 {
		return
	}
	if c.state == StateMainTime {
		c.mainLeft += c.settings.FischerBonus
	}
}

// TickResult carries the 1 Hz broadcast projection. When Committed is set the
// consumption arithmetic ran against the real clock state and the caller must
// reset its elapsed-time baseline.
type TickResult struct {
	Snapshot       Snapshot
	Committed      bool
	TimedOut       bool
	PeriodConsumed bool
}

// Tick recomputes the live countdown for elapsed wall-clock time since the
// last baseline. It does not move the committed state unless a period
// boundary (or timeout) was crossed with no move made; in that case it runs
// the same arithmetic as ChargeElapsed so tick-driven and move-driven
// timeouts agree numerically.
func (c *Clock) Tick(elapsed time.Duration) TickResult {
	if elapsed < 0 {
		elapsed = 0
	}
	switch c.state {
	case StateUnlimited, StateTimedOut:
		return TickResult{Snapshot: c.Snapshot(), TimedOut: c.state == StateTimedOut}
	case StatePerMove:
		if elapsed > c.settings.TimePerMove {
			res := c.ChargeElapsed(elapsed)
			return TickResult{Snapshot: c.Snapshot(), Committed: true, TimedOut: res.TimedOut}
		}
		snap := c.Snapshot()
		snap.PerMoveTimeLeft = c.settings.TimePerMove - elapsed
		return TickResult{Snapshot: snap}
	case StateByoYomi:
		if elapsed < c.periodLeft {
			snap := c.Snapshot()
			snap.PeriodTimeLeft = c.periodLeft - elapsed
			return TickResult{Snapshot: snap}
		}
		// Без хода период на границе не возвращается, а сгорает. Поэтому
		// здесь своя арифметика вместо ChargeElapsed.
		consumed := 1
		if c.settings.ByoYomiTime > 0 {
			if n := int(elapsed / c.settings.ByoYomiTime); n > consumed {
				consumed = n
			}
		}
		if c.periodsLeft <= consumed {
			c.timeout()
			return TickResult{Snapshot: c.Snapshot(), Committed: true, TimedOut: true}
		}
		c.periodsLeft -= consumed
		c.periodLeft = c.settings.ByoYomiTime
		return TickResult{Snapshot: c.Snapshot(), Committed: true, PeriodConsumed: true}
	default: // main time
		if elapsed >= c.mainLeft {
			res := c.ChargeElapsed(elapsed)
			return TickResult{
				Snapshot:       c.Snapshot(),
				Committed:      true,
				TimedOut:       res.TimedOut,
				PeriodConsumed: res.EnteredByoYomi,
			}
		}
		snap := c.Snapshot()
		snap.MainTimeLeft = c.mainLeft - elapsed
		return TickResult{Snapshot: snap}
	}
}

// Snapshot is the display projection pushed to clients. Clients never feed it
// back; the server clock is the sole source of truth.
type Snapshot struct {
	State           string        `json:"state"`
	MainTimeLeft    time.Duration `json:"main_time_left"`
	InByoYomi       bool          `json:"in_byo_yomi"`
	PeriodsLeft     int           `json:"periods_left"`
	PeriodTimeLeft  time.Duration `json:"period_time_left"`
	PerMoveTimeLeft time.Duration `json:"per_move_time_left"`
	TimedOut        bool          `json:"timed_out"`
}

func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		State:           c.state.String(),
		MainTimeLeft:    c.mainLeft,
		InByoYomi:       c.state == StateByoYomi,
		PeriodsLeft:     c.periodsLeft,
		PeriodTimeLeft:  c.periodLeft,
		PerMoveTimeLeft: c.perMoveLeft,
		TimedOut:        c.state == StateTimedOut,
	}
}
