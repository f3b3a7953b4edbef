// Package session owns the live state of one game and the registry of all
// games. Every mutation of a session happens under its mutex; the websocket
// handlers, the 1 Hz registry ticker and the bot goroutine all funnel
// through it.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"goban/internal/domain/game"
	"goban/internal/engine"
	"goban/internal/errors"
	"goban/internal/gtp"
	"goban/internal/statuses"
	"goban/internal/timecontrol"
)

// BotEngine is what the session needs from the AI bridge. Implemented by
// *gtp.Client; tests substitute a fake.
type BotEngine interface {
	BoardSize(n int) error
	ClearBoard() error
	Komi(k float64) error
	Play(color game.Color, pos *game.Position, boardSize int) error
	GenMove(color game.Color, boardSize int) (gtp.GenMoveResult, error)
	FinalScore() (string, error)
	Close()
}

// Config is the immutable per-game configuration, reused verbatim by
// play-again.
type Config struct {
	BoardSize      int
	Komi           float64
	Ruleset        game.Ruleset
	Handicap       int
	VsBot          bool
	BotColor       game.Color
	Time           game.TimeSettings
	AutoDetectDead bool
}

type Player struct {
	ID           string
	Color        game.Color
	IsBot        bool
	Clock        *timecontrol.Clock
	Connected    bool
	LastSeen     time.Time
	WantsRematch bool
}

type undoRequest struct {
	requestedBy game.Color
	moveIndex   int
}

type Session struct {
	ID   string
	Code string

	cfg  Config
	log  *zap.SugaredLogger
	sink EventSink

	mu          sync.Mutex
	board       *engine.Board
	status      string
	currentTurn game.Color
	history     []game.MoveRecord
	captured    map[game.Color]int
	players     map[game.Color]*Player
	deadStones  map[game.Position]bool
	confirmed   map[game.Color]bool
	pendingUndo *undoRequest
	undoUsed    bool
	lastMoveAt  time.Time
	startedAt   time.Time
	finishedAt  time.Time
	result      string
	winner      game.Color
	score       *engine.ScoreResult

	bot          BotEngine
	botThinking  bool
	engineSynced int // history entries already replayed to the engine; -1 forces a full resync
	epoch        int // bumped by undo/finish so stale bot results are discarded

	// onFinish runs once, outside the lock, when the game completes.
	onFinish func(Snapshot)
}

func New(log *zap.SugaredLogger, sink EventSink, cfg Config, code string, bot BotEngine) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		Code:      code,
		cfg:       cfg,
		log:       log,
		sink:      sink,
		board:     engine.NewBoard(cfg.BoardSize),
		status:    statuses.StatusWaitOpponent,
		captured:  map[game.Color]int{game.Black: 0, game.White: 0},
		players:   make(map[game.Color]*Player),
		bot:       bot,
	}
	s.currentTurn = game.Black
	if cfg.Handicap >= 2 {
		s.currentTurn = game.White
	}
	s.engineSynced = -1 // engine needs boardsize/komi setup before its first move
	if cfg.VsBot && bot != nil {
		botColor := cfg.BotColor
		if botColor == "" {
			botColor = game.White
		}
		s.players[botColor] = &Player{
			ID:        "bot:" + s.ID,
			Color:     botColor,
			IsBot:     true,
			Clock:     timecontrol.NewClock(clockSettings(cfg.Time)),
			Connected: true,
			LastSeen:  time.Now(),
		}
	}
	return s
}

func clockSettings(t game.TimeSettings) timecontrol.Settings {
	return timecontrol.Settings{
		MainTime:       t.MainTime(),
		ByoYomiPeriods: t.ByoYomiPeriods,
		ByoYomiTime:    t.ByoYomiTime(),
		Blitz:          t.Blitz,
		TimePerMove:    t.TimePerMove(),
		FischerBonus:   t.FischerBonus(),
	}
}

// SetOnFinish registers the completion hook (archival). Must be called
// before the game starts.
func (s *Session) SetOnFinish(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFinish = fn
}

func (s *Session) ConfigCopy() Config { return s.cfg }

// Join adds a human player and starts the game once both sides are seated.
func (s *Session) Join(playerID string, preferredColor game.Color) (game.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != statuses.StatusWaitOpponent {
		// повторное подключение уже сидящего игрока — не ошибка
		if p := s.playerByID(playerID); p != nil {
			return p.Color, nil
		}
		return "", errors.ErrGameFull
	}
	if p := s.playerByID(playerID); p != nil {
		return p.Color, nil
	}

	color := preferredColor
	if color != game.Black && color != game.White {
		color = game.Black
	}
	if _, taken := s.players[color]; taken {
		color = color.Opponent()
	}
	if _, taken := s.players[color]; taken {
		return "", errors.ErrGameFull
	}

	s.players[color] = &Player{
		ID:        playerID,
		Color:     color,
		Clock:     timecontrol.NewClock(clockSettings(s.cfg.Time)),
		Connected: false,
		LastSeen:  time.Now(),
	}

	if len(s.players) == 2 {
		s.startLocked()
	}
	return color, nil
}

func (s *Session) startLocked() {
	for _, p := range engine.HandicapStones(s.cfg.BoardSize, s.cfg.Handicap) {
		if err := s.board.PlaceSetup(p, game.Black); err != nil {
			s.log.Warnw("handicap stone skipped", "game", s.ID, "pos", p, "error", err)
		}
	}
	s.status = statuses.StatusPlaying
	now := time.Now()
	s.startedAt = now
	s.lastMoveAt = now

	s.emitLocked(Event{Type: EventGameState, Payload: s.snapshotLocked()})

	if s.botToMoveLocked() {
		s.scheduleBotMoveLocked()
	}
}

// ApplyMove validates and applies a stone placement for the given player.
func (s *Session) ApplyMove(playerID string, pos game.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.moverLocked(playerID)
	if err != nil {
		return err
	}
	return s.applyMoveLocked(p, pos, time.Since(s.lastMoveAt))
}

// applyMoveLocked is shared by human moves and committed bot moves.
func (s *Session) applyMoveLocked(p *Player, pos game.Position, elapsed time.Duration) error {
	// Просроченный ход не попадает на доску: повтор history[0..n) обязан
	// давать финальную позицию, а у камня без записи хода её не будет.
	if p.Clock.WouldTimeOut(elapsed) {
		p.Clock.ChargeElapsed(elapsed)
		s.finishByTimeoutLocked(p.Color)
		return nil
	}

	res, err := s.board.Place(pos, p.Color)
	if err != nil {
		return err
	}

	charge := p.Clock.ChargeElapsed(elapsed)

	record := game.MoveRecord{
		Color:     p.Color,
		Position:  &pos,
		PlayedAt:  time.Now(),
		TimeSpent: elapsed,
		Clock:     clockState(p.Clock.Snapshot()),
	}
	s.history = append(s.history, record)
	s.captured[p.Color] += len(res.Captured)
	s.currentTurn = p.Color.Opponent()
	s.lastMoveAt = time.Now()
	s.pendingUndo = nil
	p.Clock.ApplyFischerBonus()

	s.emitLocked(Event{Type: EventMoveMade, Payload: movePayload{
		Color:     p.Color,
		Position:  &pos,
		Captured:  res.Captured,
		Ko:        res.KoPosition,
		NextTurn:  s.currentTurn,
		MoveIndex: len(s.history) - 1,
		Clock:     p.Clock.Snapshot(),
	}})
	if charge.EnteredByoYomi || (charge.PeriodReset && !s.cfg.Time.Blitz) {
		s.emitLocked(Event{Type: EventByoYomiReset, Payload: map[string]any{
			"color": p.Color, "clock": p.Clock.Snapshot(),
		}})
	}

	if s.botToMoveLocked() {
		s.scheduleBotMoveLocked()
	}
	return nil
}

// ApplyPass records a pass; two consecutive passes open the scoring phase.
func (s *Session) ApplyPass(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.moverLocked(playerID)
	if err != nil {
		return err
	}
	return s.applyPassLocked(p, time.Since(s.lastMoveAt))
}

func (s *Session) applyPassLocked(p *Player, elapsed time.Duration) error {
	charge := p.Clock.ChargeElapsed(elapsed)
	if charge.TimedOut {
		s.finishByTimeoutLocked(p.Color)
		return nil
	}

	s.history = append(s.history, game.MoveRecord{
		Color:     p.Color,
		Pass:      true,
		PlayedAt:  time.Now(),
		TimeSpent: elapsed,
		Clock:     clockState(p.Clock.Snapshot()),
	})
	s.currentTurn = p.Color.Opponent()
	s.lastMoveAt = time.Now()
	s.pendingUndo = nil
	p.Clock.ApplyFischerBonus()

	s.emitLocked(Event{Type: EventMoveMade, Payload: movePayload{
		Color:     p.Color,
		Pass:      true,
		NextTurn:  s.currentTurn,
		MoveIndex: len(s.history) - 1,
		Clock:     p.Clock.Snapshot(),
	}})

	if s.isDoublePassLocked() {
		s.enterScoringLocked()
		return nil
	}

	if s.botToMoveLocked() {
		s.scheduleBotMoveLocked()
	}
	return nil
}

func (s *Session) isDoublePassLocked() bool {
	n := len(s.history)
	return n >= 2 && s.history[n-1].Pass && s.history[n-2].Pass
}

func (s *Session) enterScoringLocked() {
	s.status = statuses.StatusScoring
	s.deadStones = make(map[game.Position]bool)
	s.confirmed = map[game.Color]bool{game.Black: false, game.White: false}
	s.epoch++ // discard any in-flight bot move
	s.emitLocked(Event{Type: EventScoringStarted, Payload: s.scoreLocked()})
}

// scoreLocked computes the provisional score for the current dead-stone set.
func (s *Session) scoreLocked() *engine.ScoreResult {
	res := engine.Score(s.board, s.deadStones, s.captured, s.cfg.Ruleset, s.cfg.Komi)
	return &res
}

// ToggleDeadStones flips death for the whole group at pos during scoring.
// Any pending confirmations reset since the score changed under them.
func (s *Session) ToggleDeadStones(playerID string, pos game.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerByID(playerID) == nil {
		return errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusScoring {
		return errors.ErrWrongStatus
	}
	if !engine.ToggleDeadStones(s.board, s.deadStones, pos, s.cfg.AutoDetectDead) {
		return nil
	}
	for c := range s.confirmed {
		s.confirmed[c] = false
	}
	s.emitLocked(Event{Type: EventDeadStones, Payload: map[string]any{
		"dead_stones": s.deadStonesLocked(),
		"score":       s.scoreLocked(),
	}})
	return nil
}

// ConfirmScore records a side's agreement with the current score. The game
// finishes once both agree; a bot opponent agrees as soon as the human does.
func (s *Session) ConfirmScore(playerID string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerByID(playerID)
	if p == nil {
		return errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusScoring {
		return errors.ErrWrongStatus
	}

	s.confirmed[p.Color] = confirmed
	if confirmed {
		if opp := s.players[p.Color.Opponent()]; opp != nil && opp.IsBot {
			s.confirmed[opp.Color] = true
		}
	}

	s.emitLocked(Event{Type: EventScoreConfirm, Payload: confirmPayload{
		Confirmations: copyConfirmations(s.confirmed),
		Score:         s.scoreLocked(),
	}})

	if s.confirmed[game.Black] && s.confirmed[game.White] {
		score := s.scoreLocked()
		s.finishLocked(score.Result, score.Winner, score)
	}
	return nil
}

// CancelScoring is the explicit scoring -> playing edge.
func (s *Session) CancelScoring(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerByID(playerID) == nil {
		return errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusScoring {
		return errors.ErrWrongStatus
	}
	s.status = statuses.StatusPlaying
	s.deadStones = nil
	s.confirmed = nil
	s.lastMoveAt = time.Now() // время спора о счёте никому не начисляется
	s.emitLocked(Event{Type: EventScoringCancelled, Payload: s.snapshotLocked()})

	if s.botToMoveLocked() {
		s.scheduleBotMoveLocked()
	}
	return nil
}

func (s *Session) Resign(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerByID(playerID)
	if p == nil {
		return errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusPlaying && s.status != statuses.StatusScoring {
		return errors.ErrWrongStatus
	}
	winner := p.Color.Opponent()
	s.finishLocked(winner.Short()+"+R", winner, nil)
	return nil
}

func (s *Session) finishByTimeoutLocked(loser game.Color) {
	winner := loser.Opponent()
	s.emitLocked(Event{Type: EventPlayerTimeout, Payload: timeoutPayload{
		Color:  loser,
		Winner: winner,
		Result: winner.Short() + "+T",
	}})
	s.finishLocked(winner.Short()+"+T", winner, nil)
}

func (s *Session) finishLocked(result string, winner game.Color, score *engine.ScoreResult) {
	s.status = statuses.StatusCompleted
	s.result = result
	s.winner = winner
	s.score = score
	s.finishedAt = time.Now()
	s.pendingUndo = nil
	s.epoch++

	s.emitLocked(Event{Type: EventGameFinished, Payload: finishedPayload{
		Winner: winner,
		Result: result,
		Score:  score,
	}})

	if s.onFinish != nil {
		snap := s.snapshotLocked()
		fn := s.onFinish
		s.onFinish = nil
		go fn(snap)
	}
}

// RequestUndo asks to take back the requester's last move. Against a bot the
// request is auto-accepted but only once per game; against a human the
// opponent must respond.
func (s *Session) RequestUndo(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerByID(playerID)
	if p == nil {
		return errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusPlaying {
		return errors.ErrWrongStatus
	}

	idx := s.lastMoveIndexOfLocked(p.Color)
	if idx < 0 {
		return fmt.Errorf("%w: nothing to undo", errors.ErrNoPendingUndo)
	}

	opp := s.players[p.Color.Opponent()]
	if opp != nil && opp.IsBot {
		if s.undoUsed {
			return errors.ErrUndoAlreadyUsed
		}
		s.undoUsed = true
		s.performUndoLocked(idx)
		return nil
	}

	s.pendingUndo = &undoRequest{requestedBy: p.Color, moveIndex: idx}
	s.emitLocked(Event{Type: EventUndoRequested, Payload: undoRequestPayload{
		RequestedBy: p.Color,
		MoveIndex:   idx,
	}})
	return nil
}

// RespondUndo is the opponent's answer to a pending undo request.
func (s *Session) RespondUndo(playerID string, accepted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerByID(playerID)
	if p == nil {
		return errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusPlaying {
		return errors.ErrWrongStatus
	}
	if s.pendingUndo == nil {
		return errors.ErrNoPendingUndo
	}
	if p.Color == s.pendingUndo.requestedBy {
		return errors.ErrNoPendingUndo
	}

	req := *s.pendingUndo
	s.pendingUndo = nil
	if !accepted {
		s.emitLocked(Event{Type: EventUndoPerformed, Payload: map[string]any{
			"accepted": false, "move_index": req.moveIndex,
		}})
		return nil
	}
	s.performUndoLocked(req.moveIndex)
	return nil
}

func (s *Session) lastMoveIndexOfLocked(c game.Color) int {
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Color == c {
			return i
		}
	}
	return -1
}

// performUndoLocked rebuilds the board by replaying history[0..idx). A tail
// truncation is not enough: captures depend on move order, so the whole
// prefix goes back through the board engine. Records that fail to replay are
// skipped with a warning rather than corrupting the rebuilt board.
func (s *Session) performUndoLocked(idx int) {
	board := engine.NewBoard(s.cfg.BoardSize)
	for _, p := range engine.HandicapStones(s.cfg.BoardSize, s.cfg.Handicap) {
		if err := board.PlaceSetup(p, game.Black); err != nil {
			s.log.Warnw("handicap stone skipped on replay", "game", s.ID, "pos", p, "error", err)
		}
	}

	captured := map[game.Color]int{game.Black: 0, game.White: 0}
	rebuilt := make([]game.MoveRecord, 0, idx)
	for i := 0; i < idx && i < len(s.history); i++ {
		rec := s.history[i]
		if rec.Pass {
			rebuilt = append(rebuilt, rec)
			continue
		}
		if rec.Position == nil {
			s.log.Warnw("unparseable history entry skipped on replay", "game", s.ID, "index", i)
			continue
		}
		res, err := board.Place(*rec.Position, rec.Color)
		if err != nil {
			s.log.Warnw("history entry failed to replay, skipped", "game", s.ID, "index", i, "error", err)
			continue
		}
		captured[rec.Color] += len(res.Captured)
		rebuilt = append(rebuilt, rec)
	}

	s.board = board
	s.history = rebuilt
	s.captured = captured
	if len(rebuilt) > 0 {
		s.currentTurn = rebuilt[len(rebuilt)-1].Color.Opponent()
	} else if s.cfg.Handicap >= 2 {
		s.currentTurn = game.White
	} else {
		s.currentTurn = game.Black
	}
	s.lastMoveAt = time.Now()
	s.epoch++
	s.engineSynced = -1

	s.emitLocked(Event{Type: EventUndoPerformed, Payload: map[string]any{
		"accepted": true, "move_index": idx,
	}})
	s.emitLocked(Event{Type: EventGameState, Payload: s.snapshotLocked()})

	if s.botToMoveLocked() {
		s.scheduleBotMoveLocked()
	}
}

// AcceptPlayAgain registers a rematch acceptance. Returns true once the
// rematch should actually be created (both humans agreed, or vs a bot).
func (s *Session) AcceptPlayAgain(playerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerByID(playerID)
	if p == nil {
		return false, errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusCompleted {
		return false, errors.ErrWrongStatus
	}

	p.WantsRematch = true
	if opp := s.players[p.Color.Opponent()]; opp != nil && opp.IsBot {
		return true, nil
	}

	s.emitLocked(Event{Type: EventPlayAgain, Payload: playAgainPayload{AcceptedBy: playerID}})
	for _, pl := range s.players {
		if !pl.IsBot && !pl.WantsRematch {
			return false, nil
		}
	}
	return len(s.players) == 2, nil
}

// HumanPlayers returns id->color for the seated humans (for rematch seating).
func (s *Session) HumanPlayers() map[string]game.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]game.Color)
	for _, p := range s.players {
		if !p.IsBot {
			out[p.ID] = p.Color
		}
	}
	return out
}

// Heartbeat refreshes the liveness deadline of a connection. It never feeds
// the game clock; that is the ticker's job.
func (s *Session) Heartbeat(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.playerByID(playerID); p != nil {
		p.LastSeen = time.Now()
	}
}

func (s *Session) SetConnected(playerID string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.playerByID(playerID); p != nil {
		p.Connected = connected
		p.LastSeen = time.Now()
	}
}

// Evictable reports whether every human peer has been gone longer than the
// grace period (waiting games count the creator's absence the same way).
func (s *Session) Evictable(now time.Time, grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	humans := 0
	for _, p := range s.players {
		if p.IsBot {
			continue
		}
		humans++
		if p.Connected || now.Sub(p.LastSeen) < grace {
			return false
		}
	}
	return humans > 0
}

// Close releases the engine subprocess and invalidates in-flight bot work.
func (s *Session) Close() {
	s.mu.Lock()
	s.epoch++
	bot := s.bot
	s.bot = nil
	s.mu.Unlock()
	if bot != nil {
		bot.Close()
	}
}

// TickClock recomputes the on-move player's countdown for broadcast. If the
// elapsed wall-clock time crossed a period boundary with no move made, the
// consumption arithmetic commits and the baseline resets, so tick-driven and
// move-driven timeouts agree.
func (s *Session) TickClock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != statuses.StatusPlaying {
		return
	}
	p := s.players[s.currentTurn]
	if p == nil {
		return
	}

	res := p.Clock.Tick(time.Since(s.lastMoveAt))
	if res.Committed {
		s.lastMoveAt = time.Now()
	}
	if res.TimedOut {
		s.finishByTimeoutLocked(p.Color)
		return
	}
	if res.PeriodConsumed {
		s.emitLocked(Event{Type: EventByoYomiReset, Payload: map[string]any{
			"color": p.Color, "clock": res.Snapshot,
		}})
	}
	s.emitLocked(Event{Type: EventTimeUpdate, Payload: map[game.Color]timecontrol.Snapshot{
		p.Color:            res.Snapshot,
		p.Color.Opponent(): s.opponentSnapshotLocked(p.Color),
	}})
}

func (s *Session) opponentSnapshotLocked(c game.Color) timecontrol.Snapshot {
	if opp := s.players[c.Opponent()]; opp != nil {
		return opp.Clock.Snapshot()
	}
	return timecontrol.Snapshot{}
}

// Snapshot returns the full state for gameState events and reconnects.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	clocks := make(map[game.Color]timecontrol.Snapshot, len(s.players))
	playerIDs := make(map[game.Color]string, len(s.players))
	for c, p := range s.players {
		clocks[c] = p.Clock.Snapshot()
		playerIDs[c] = p.ID
	}
	hist := make([]game.MoveRecord, len(s.history))
	copy(hist, s.history)

	return Snapshot{
		ID:            s.ID,
		Code:          s.Code,
		Status:        s.status,
		BoardSize:     s.cfg.BoardSize,
		Komi:          s.cfg.Komi,
		Ruleset:       s.cfg.Ruleset,
		Handicap:      s.cfg.Handicap,
		Time:          s.cfg.Time,
		Stones:        s.board.Stones(),
		CurrentTurn:   s.currentTurn,
		Captured:      map[game.Color]int{game.Black: s.captured[game.Black], game.White: s.captured[game.White]},
		KoPosition:    s.board.Ko(),
		MovesCount:    len(s.history),
		History:       hist,
		DeadStones:    s.deadStonesLocked(),
		Confirmations: copyConfirmations(s.confirmed),
		Clocks:        clocks,
		Players:       playerIDs,
		Result:        s.result,
		Winner:        s.winner,
		Score:         s.score,
		StartedAt:     s.startedAt,
		FinishedAt:    s.finishedAt,
	}
}

func (s *Session) deadStonesLocked() []game.Position {
	if len(s.deadStones) == 0 {
		return nil
	}
	out := make([]game.Position, 0, len(s.deadStones))
	for p := range s.deadStones {
		out = append(out, p)
	}
	return out
}

func copyConfirmations(in map[game.Color]bool) map[game.Color]bool {
	if in == nil {
		return nil
	}
	out := make(map[game.Color]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clockState(snap timecontrol.Snapshot) game.ClockState {
	return game.ClockState{
		MainTimeLeft:    snap.MainTimeLeft,
		InByoYomi:       snap.InByoYomi,
		PeriodsLeft:     snap.PeriodsLeft,
		PeriodTimeLeft:  snap.PeriodTimeLeft,
		PerMoveTimeLeft: snap.PerMoveTimeLeft,
	}
}

func (s *Session) playerByID(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// moverLocked validates the common preconditions of move/pass requests.
func (s *Session) moverLocked(playerID string) (*Player, error) {
	p := s.playerByID(playerID)
	if p == nil {
		return nil, errors.ErrUnknownPlayer
	}
	if s.status != statuses.StatusPlaying {
		return nil, errors.ErrWrongStatus
	}
	if p.Color != s.currentTurn {
		return nil, errors.ErrNotYourTurn
	}
	return p, nil
}

func (s *Session) emitLocked(event Event) {
	if s.sink != nil {
		s.sink.Send(s.ID, event)
	}
}

// Result returns the final result code and winner once finished.
func (s *Session) Result() (string, game.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.winner
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *Session) FinishedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedAt
}
