package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goban/internal/domain/game"
	"goban/internal/errors"
	"goban/internal/gtp"
	"goban/internal/statuses"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Send(_ string, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *eventRecorder) has(eventType string) bool {
	for _, t := range r.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

// fakeEngine is a scripted BotEngine replacement.
type fakeEngine struct {
	mu         sync.Mutex
	answers    []gtp.GenMoveResult
	genErr     error
	genErrOnce error // returned by the first GenMove only
	boardSizes int
	played     int
	closed     bool
}

func (f *fakeEngine) BoardSize(int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boardSizes++
	return nil
}

func (f *fakeEngine) ClearBoard() error  { return nil }
func (f *fakeEngine) Komi(float64) error { return nil }

// fullSyncs counts position rebuilds: boardsize opens every full sync.
func (f *fakeEngine) fullSyncs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boardSizes
}

func (f *fakeEngine) Play(game.Color, *game.Position, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played++
	return nil
}

func (f *fakeEngine) GenMove(game.Color, int) (gtp.GenMoveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.genErrOnce != nil {
		err := f.genErrOnce
		f.genErrOnce = nil
		return gtp.GenMoveResult{}, err
	}
	if f.genErr != nil {
		return gtp.GenMoveResult{}, f.genErr
	}
	if len(f.answers) == 0 {
		return gtp.GenMoveResult{}, nil // pass
	}
	res := f.answers[0]
	f.answers = f.answers[1:]
	return res, nil
}

func (f *fakeEngine) FinalScore() (string, error) { return "", nil }

func (f *fakeEngine) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func newHumanGame(t *testing.T, rec *eventRecorder) *Session {
	t.Helper()
	s := New(testLogger(), rec, Config{BoardSize: 9, Ruleset: game.RulesetChinese}, "00001", nil)
	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	_, err = s.Join("bob", game.White)
	require.NoError(t, err)
	require.Equal(t, statuses.StatusPlaying, s.Status())
	return s
}

func pos(x, y int) game.Position { return game.Position{X: x, Y: y} }

func TestJoinAssignsColorsAndStarts(t *testing.T) {
	rec := &eventRecorder{}
	s := New(testLogger(), rec, Config{BoardSize: 9}, "00001", nil)
	require.Equal(t, statuses.StatusWaitOpponent, s.Status())

	c, err := s.Join("alice", game.White)
	require.NoError(t, err)
	require.Equal(t, game.White, c)
	require.Equal(t, statuses.StatusWaitOpponent, s.Status())

	// Предпочтённый цвет занят — второй игрок получает противоположный.
	c, err = s.Join("bob", game.White)
	require.NoError(t, err)
	require.Equal(t, game.Black, c)
	require.Equal(t, statuses.StatusPlaying, s.Status())
	require.True(t, rec.has(EventGameState))

	// Повторный Join сидящего игрока возвращает его цвет.
	c, err = s.Join("alice", game.Black)
	require.NoError(t, err)
	require.Equal(t, game.White, c)

	_, err = s.Join("carol", game.Black)
	require.ErrorIs(t, err, errors.ErrGameFull)
}

func TestApplyMoveRejections(t *testing.T) {
	rec := &eventRecorder{}
	s := New(testLogger(), rec, Config{BoardSize: 9}, "00001", nil)
	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)

	// Игра ещё не началась.
	err = s.ApplyMove("alice", pos(0, 0))
	require.ErrorIs(t, err, errors.ErrWrongStatus)

	_, err = s.Join("bob", game.White)
	require.NoError(t, err)

	err = s.ApplyMove("nobody", pos(0, 0))
	require.ErrorIs(t, err, errors.ErrUnknownPlayer)

	// Белые вне очереди.
	err = s.ApplyMove("bob", pos(0, 0))
	require.ErrorIs(t, err, errors.ErrNotYourTurn)

	require.NoError(t, s.ApplyMove("alice", pos(0, 0)))
	err = s.ApplyMove("alice", pos(1, 1))
	require.ErrorIs(t, err, errors.ErrNotYourTurn)
}

func TestMovesUpdateHistoryAndCaptures(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyMove("alice", pos(1, 0))) // B
	require.NoError(t, s.ApplyMove("bob", pos(0, 0)))   // W в углу
	require.NoError(t, s.ApplyMove("alice", pos(0, 1))) // B снимает угол

	snap := s.Snapshot()
	require.Equal(t, 3, snap.MovesCount)
	require.Equal(t, 1, snap.Captured[game.Black])
	require.Equal(t, 0, snap.Captured[game.White])
	require.Equal(t, game.White, snap.CurrentTurn)
	require.Len(t, snap.Stones, 2)
	require.True(t, rec.has(EventMoveMade))
}

func TestDoublePassOpensScoringAndConfirmFinishes(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))
	require.NoError(t, s.ApplyPass("bob"))
	require.Equal(t, statuses.StatusPlaying, s.Status())
	require.NoError(t, s.ApplyPass("alice"))
	require.Equal(t, statuses.StatusScoring, s.Status())
	require.True(t, rec.has(EventScoringStarted))

	// Ходы в фазе подсчёта запрещены.
	err := s.ApplyMove("bob", pos(3, 3))
	require.ErrorIs(t, err, errors.ErrWrongStatus)

	finished := make(chan Snapshot, 1)
	s.SetOnFinish(func(snap Snapshot) { finished <- snap })

	require.NoError(t, s.ConfirmScore("alice", true))
	require.Equal(t, statuses.StatusScoring, s.Status())
	require.NoError(t, s.ConfirmScore("bob", true))
	require.Equal(t, statuses.StatusCompleted, s.Status())

	result, winner := s.Result()
	require.NotEmpty(t, result)
	// Один живой камень чёрных держит всю доску.
	require.Equal(t, game.Black, winner)

	select {
	case snap := <-finished:
		require.Equal(t, statuses.StatusCompleted, snap.Status)
	case <-time.After(time.Second):
		t.Fatal("onFinish was not called")
	}
}

func TestToggleDeadResetsConfirmations(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))
	require.NoError(t, s.ApplyMove("bob", pos(6, 6)))
	require.NoError(t, s.ApplyPass("alice"))
	require.NoError(t, s.ApplyPass("bob"))
	require.Equal(t, statuses.StatusScoring, s.Status())

	require.NoError(t, s.ConfirmScore("alice", true))
	require.NoError(t, s.ToggleDeadStones("bob", pos(2, 2)))

	snap := s.Snapshot()
	require.False(t, snap.Confirmations[game.Black])
	require.False(t, snap.Confirmations[game.White])
	require.Len(t, snap.DeadStones, 1)
	require.True(t, rec.has(EventDeadStones))
}

func TestCancelScoringResumesPlay(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyPass("alice"))
	require.NoError(t, s.ApplyPass("bob"))
	require.Equal(t, statuses.StatusScoring, s.Status())

	require.NoError(t, s.CancelScoring("alice"))
	require.Equal(t, statuses.StatusPlaying, s.Status())
	require.True(t, rec.has(EventScoringCancelled))

	// Очередь чёрных: последним пасовал боб.
	require.NoError(t, s.ApplyMove("alice", pos(4, 4)))
}

func TestResign(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.Resign("alice"))
	require.Equal(t, statuses.StatusCompleted, s.Status())
	result, winner := s.Result()
	require.Equal(t, "W+R", result)
	require.Equal(t, game.White, winner)
	require.True(t, rec.has(EventGameFinished))

	err := s.ApplyMove("bob", pos(0, 0))
	require.ErrorIs(t, err, errors.ErrWrongStatus)
}

func TestUndoBetweenHumans(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyMove("alice", pos(1, 0)))
	require.NoError(t, s.ApplyMove("bob", pos(0, 0)))
	require.NoError(t, s.ApplyMove("alice", pos(0, 1))) // снимает (0,0)

	require.NoError(t, s.RequestUndo("alice"))
	require.True(t, rec.has(EventUndoRequested))

	// Запросивший не может сам себе ответить.
	err := s.RespondUndo("alice", true)
	require.ErrorIs(t, err, errors.ErrNoPendingUndo)

	require.NoError(t, s.RespondUndo("bob", true))

	snap := s.Snapshot()
	require.Equal(t, 2, snap.MovesCount)
	require.Equal(t, game.Black, snap.CurrentTurn)
	// Перестройка вернула снятый белый камень.
	require.Equal(t, 0, snap.Captured[game.Black])
	require.Len(t, snap.Stones, 2)
	require.True(t, rec.has(EventUndoPerformed))
}

func TestUndoDeclined(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyMove("alice", pos(1, 0)))
	require.NoError(t, s.RequestUndo("alice"))
	require.NoError(t, s.RespondUndo("bob", false))

	snap := s.Snapshot()
	require.Equal(t, 1, snap.MovesCount)

	// Запрос истрачен, повторный ответ невозможен.
	err := s.RespondUndo("bob", true)
	require.ErrorIs(t, err, errors.ErrNoPendingUndo)
}

func TestUndoRequestWithNoOwnMoves(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	err := s.RequestUndo("bob")
	require.ErrorIs(t, err, errors.ErrNoPendingUndo)
}

func TestPendingUndoDropsAfterNextMove(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyMove("alice", pos(1, 0)))
	require.NoError(t, s.RequestUndo("alice"))
	require.NoError(t, s.ApplyMove("bob", pos(5, 5)))

	err := s.RespondUndo("bob", true)
	require.ErrorIs(t, err, errors.ErrNoPendingUndo)
}

// Завершённую партию нельзя перестроить ответом на старый запрос отмены.
func TestRespondUndoAfterFinishRejected(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	require.NoError(t, s.ApplyMove("alice", pos(1, 0)))
	require.NoError(t, s.RequestUndo("alice"))
	require.NoError(t, s.Resign("alice"))

	err := s.RespondUndo("bob", true)
	require.ErrorIs(t, err, errors.ErrWrongStatus)

	snap := s.Snapshot()
	require.Equal(t, statuses.StatusCompleted, snap.Status)
	require.Equal(t, 1, snap.MovesCount)
	require.Equal(t, "W+R", snap.Result)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 10*time.Millisecond, msg)
}

func TestBotPlaysGeneratedMove(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{answers: []gtp.GenMoveResult{
		{Position: &game.Position{X: 4, Y: 4}},
	}}
	s := New(testLogger(), rec, Config{
		BoardSize: 9,
		VsBot:     true,
		BotColor:  game.White,
	}, "00002", bot)

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	require.Equal(t, statuses.StatusPlaying, s.Status())

	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))
	waitFor(t, func() bool { return s.Snapshot().MovesCount == 2 }, "bot move not applied")

	snap := s.Snapshot()
	require.Equal(t, game.Black, snap.CurrentTurn)
	c, ok := boardColorAt(snap, pos(4, 4))
	require.True(t, ok)
	require.Equal(t, game.White, c)
}

func boardColorAt(snap Snapshot, p game.Position) (game.Color, bool) {
	for _, st := range snap.Stones {
		if st.Position == p {
			return st.Color, true
		}
	}
	return "", false
}

func TestBotMovesFirstWhenBlack(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{answers: []gtp.GenMoveResult{
		{Position: &game.Position{X: 3, Y: 3}},
	}}
	s := New(testLogger(), rec, Config{
		BoardSize: 9,
		VsBot:     true,
		BotColor:  game.Black,
	}, "00003", bot)

	_, err := s.Join("alice", game.White)
	require.NoError(t, err)
	waitFor(t, func() bool { return s.Snapshot().MovesCount == 1 }, "bot did not open the game")
	require.Equal(t, game.White, s.Snapshot().CurrentTurn)
}

func TestBotResigns(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{answers: []gtp.GenMoveResult{{Resigned: true}}}
	s := New(testLogger(), rec, Config{BoardSize: 9, VsBot: true, BotColor: game.White}, "00004", bot)

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))

	waitFor(t, func() bool { return s.Status() == statuses.StatusCompleted }, "resign not applied")
	result, winner := s.Result()
	require.Equal(t, "B+R", result)
	require.Equal(t, game.Black, winner)
}

// Перезапущенный движок потерял позицию: сессия перестраивает доску с нуля
// и повторяет genmove вместо того, чтобы хоронить партию.
func TestBotResyncsAfterEngineRestart(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{
		genErrOnce: fmt.Errorf("genmove: %w", errors.ErrEngineRestarted),
		answers:    []gtp.GenMoveResult{{Position: &game.Position{X: 4, Y: 4}}},
	}
	s := New(testLogger(), rec, Config{BoardSize: 9, VsBot: true, BotColor: game.White}, "00011", bot)

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))

	waitFor(t, func() bool { return s.Snapshot().MovesCount == 2 }, "bot move not applied after restart")
	require.Equal(t, statuses.StatusPlaying, s.Status())
	// Стартовая синхронизация плюс перестройка после перезапуска.
	require.Equal(t, 2, bot.fullSyncs())
}

// Нелегальный сгенерированный ход заменяется пасом, а доска движка считается
// рассинхронизированной: следующий genmove идёт после полной перестройки.
func TestIllegalBotMoveForcesFullResync(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{answers: []gtp.GenMoveResult{
		{Position: &game.Position{X: 2, Y: 2}}, // точка занята человеком
		{Position: &game.Position{X: 6, Y: 6}},
	}}
	s := New(testLogger(), rec, Config{BoardSize: 9, VsBot: true, BotColor: game.White}, "00012", bot)

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))

	waitFor(t, func() bool { return s.Snapshot().MovesCount == 2 }, "fallback pass not applied")
	require.True(t, s.Snapshot().History[1].Pass)

	require.NoError(t, s.ApplyMove("alice", pos(3, 3)))
	waitFor(t, func() bool { return s.Snapshot().MovesCount == 4 }, "bot move not applied")
	require.Equal(t, 2, bot.fullSyncs())
	c, ok := boardColorAt(s.Snapshot(), pos(6, 6))
	require.True(t, ok)
	require.Equal(t, game.White, c)
}

func TestBotFailureForcesScoring(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{genErr: fmt.Errorf("dead engine")}
	s := New(testLogger(), rec, Config{BoardSize: 9, VsBot: true, BotColor: game.White}, "00005", bot)

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))

	waitFor(t, func() bool { return s.Status() == statuses.StatusScoring }, "engine failure not handled")
}

func TestUndoAgainstBotOnlyOnce(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{answers: []gtp.GenMoveResult{
		{Position: &game.Position{X: 4, Y: 4}},
		{Position: &game.Position{X: 5, Y: 5}},
		{Position: &game.Position{X: 6, Y: 6}},
	}}
	s := New(testLogger(), rec, Config{BoardSize: 9, VsBot: true, BotColor: game.White}, "00006", bot)

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))
	waitFor(t, func() bool { return s.Snapshot().MovesCount == 2 }, "bot move not applied")

	// Автопринятие: откатывается до последнего хода человека.
	require.NoError(t, s.RequestUndo("alice"))
	waitFor(t, func() bool { return s.Snapshot().CurrentTurn == game.Black }, "undo not settled")

	require.NoError(t, s.ApplyMove("alice", pos(2, 2)))
	waitFor(t, func() bool { return s.Snapshot().CurrentTurn == game.Black }, "bot reply not applied")

	err = s.RequestUndo("alice")
	require.ErrorIs(t, err, errors.ErrUndoAlreadyUsed)
}

func TestBotAutoConfirmsScore(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{} // генерирует только пасы
	s := New(testLogger(), rec, Config{BoardSize: 9, VsBot: true, BotColor: game.White}, "00007", bot)

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMove("alice", pos(4, 4)))
	waitFor(t, func() bool { return s.Snapshot().MovesCount == 2 }, "bot pass not applied")

	require.NoError(t, s.ApplyPass("alice"))
	waitFor(t, func() bool { return s.Status() == statuses.StatusScoring }, "double pass not reached")

	require.NoError(t, s.ConfirmScore("alice", true))
	require.Equal(t, statuses.StatusCompleted, s.Status())
}

func TestHandicapGameStartsWithWhite(t *testing.T) {
	rec := &eventRecorder{}
	s := New(testLogger(), rec, Config{BoardSize: 9, Handicap: 3}, "00008", nil)
	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	_, err = s.Join("bob", game.White)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Equal(t, game.White, snap.CurrentTurn)
	require.Len(t, snap.Stones, 3)

	err = s.ApplyMove("alice", pos(0, 0))
	require.ErrorIs(t, err, errors.ErrNotYourTurn)
	require.NoError(t, s.ApplyMove("bob", pos(0, 0)))
}

func TestTimeoutViaTicker(t *testing.T) {
	rec := &eventRecorder{}
	s := New(testLogger(), rec, Config{
		BoardSize: 9,
		Time:      game.TimeSettings{Blitz: true, TimePerMoveSec: 1},
	}, "00009", nil)
	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	_, err = s.Join("bob", game.White)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	s.TickClock()

	require.Equal(t, statuses.StatusCompleted, s.Status())
	result, winner := s.Result()
	require.Equal(t, "W+T", result)
	require.Equal(t, game.White, winner)
	require.True(t, rec.has(EventPlayerTimeout))
}

// Камень просрочившего игрока не остаётся на доске: финальная позиция
// должна восстанавливаться повтором истории один в один.
func TestTimedOutMoveLeavesNoStone(t *testing.T) {
	rec := &eventRecorder{}
	s := New(testLogger(), rec, Config{
		BoardSize: 9,
		Time:      game.TimeSettings{Blitz: true, TimePerMoveSec: 1},
	}, "00013", nil)
	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	_, err = s.Join("bob", game.White)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, s.ApplyMove("alice", pos(4, 4)))

	snap := s.Snapshot()
	require.Equal(t, statuses.StatusCompleted, snap.Status)
	require.Equal(t, "W+T", snap.Result)
	require.Empty(t, snap.Stones)
	require.Zero(t, snap.MovesCount)
}

func TestTickBroadcastsTimeUpdate(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)
	s.TickClock()
	require.True(t, rec.has(EventTimeUpdate))
}

func TestEvictable(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)
	now := time.Now()

	// Оба игрока только что были на связи.
	require.False(t, s.Evictable(now, time.Minute))

	// Далёкое будущее без heartbeat — партия брошена.
	require.True(t, s.Evictable(now.Add(time.Hour), time.Minute))

	s.SetConnected("alice", true)
	require.False(t, s.Evictable(now.Add(time.Hour), time.Minute))
}

func TestHeartbeatRefreshesLiveness(t *testing.T) {
	rec := &eventRecorder{}
	s := newHumanGame(t, rec)

	future := time.Now().Add(time.Hour)
	require.True(t, s.Evictable(future, time.Minute))

	s.Heartbeat("alice")
	s.Heartbeat("bob")
	require.False(t, s.Evictable(time.Now(), time.Minute))
}

func TestCloseReleasesEngine(t *testing.T) {
	rec := &eventRecorder{}
	bot := &fakeEngine{}
	s := New(testLogger(), rec, Config{BoardSize: 9, VsBot: true, BotColor: game.White}, "00010", bot)
	s.Close()

	bot.mu.Lock()
	defer bot.mu.Unlock()
	require.True(t, bot.closed)
}
