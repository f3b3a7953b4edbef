package session

import (
	"errors"

	"goban/internal/domain/game"
	"goban/internal/engine"
	errs "goban/internal/errors"
	"goban/internal/gtp"
	"goban/internal/statuses"
)

func (s *Session) botToMoveLocked() bool {
	if s.status != statuses.StatusPlaying || s.bot == nil || s.botThinking {
		return false
	}
	p := s.players[s.currentTurn]
	return p != nil && p.IsBot
}

func (s *Session) scheduleBotMoveLocked() {
	s.botThinking = true
	go s.runBotMove(s.epoch, s.currentTurn)
}

// runBotMove generates and applies one engine move. The session lock is
// released for the whole engine conversation; on re-acquire the epoch, status
// and turn are re-validated — the human may have resigned or the game may
// have ended while the engine was thinking, in which case the result is
// discarded.
func (s *Session) runBotMove(epoch int, color game.Color) {
	defer func() {
		s.mu.Lock()
		s.botThinking = false
		s.mu.Unlock()
	}()

	s.mu.Lock()
	bot := s.bot
	if bot == nil || s.epoch != epoch || s.status != statuses.StatusPlaying || s.currentTurn != color {
		s.mu.Unlock()
		return
	}
	size := s.cfg.BoardSize
	komi := s.cfg.Komi
	if komi <= 0 {
		komi = game.DefaultKomi(s.cfg.Ruleset)
	}
	handicap := s.cfg.Handicap
	fullSync := s.engineSynced < 0 || s.engineSynced > len(s.history)
	var toReplay []game.MoveRecord
	if fullSync {
		toReplay = append(toReplay, s.history...)
	} else {
		toReplay = append(toReplay, s.history[s.engineSynced:]...)
	}
	s.mu.Unlock()

	// Engine IO happens outside the critical section.
	var res gtp.GenMoveResult
	var err error
	for attempt := 0; ; attempt++ {
		err = s.syncEngine(bot, fullSync, size, komi, handicap, toReplay)
		if err == nil {
			res, err = bot.GenMove(color, size)
		}
		if err == nil || !errors.Is(err, errs.ErrEngineRestarted) || attempt > 0 {
			break
		}
		// Перезапущенный процесс начинает с пустой доски: повторяем один
		// раз с полной синхронизацией позиции.
		s.mu.Lock()
		s.engineSynced = -1
		fullSync = true
		toReplay = append(toReplay[:0], s.history...)
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.status != statuses.StatusPlaying || s.currentTurn != color {
		return // игра ушла вперёд, ход движка отбрасывается
	}

	if err != nil {
		// Противник не может ходить: вместо зависшей партии открываем
		// фазу подсчёта.
		s.log.Errorw("ai engine unresponsive, forcing scoring phase", "game", s.ID, "error", err)
		s.enterScoringLocked()
		return
	}

	p := s.players[color]
	switch {
	case res.Resigned:
		winner := color.Opponent()
		s.finishLocked(winner.Short()+"+R", winner, nil)
	case res.Position == nil:
		_ = s.applyPassLocked(p, res.Elapsed)
	default:
		if moveErr := s.applyMoveLocked(p, *res.Position, res.Elapsed); moveErr != nil {
			s.log.Warnw("engine produced an illegal move, passing instead",
				"game", s.ID, "pos", *res.Position, "error", moveErr)
			_ = s.applyPassLocked(p, res.Elapsed)
			// Сгенерированный камень остался на доске движка — перед
			// следующим genmove позицию придётся перестроить с нуля.
			s.engineSynced = -1
			return
		}
	}
	s.engineSynced = len(s.history)
}

func (s *Session) syncEngine(bot BotEngine, fullSync bool, size int, komi float64, handicap int, toReplay []game.MoveRecord) error {
	if fullSync {
		if err := bot.BoardSize(size); err != nil {
			return err
		}
		if err := bot.ClearBoard(); err != nil {
			return err
		}
		if err := bot.Komi(komi); err != nil {
			return err
		}
		for _, p := range engine.HandicapStones(size, handicap) {
			stone := p
			if err := bot.Play(game.Black, &stone, size); err != nil {
				return err
			}
		}
	}
	for _, rec := range toReplay {
		if err := bot.Play(rec.Color, rec.Position, size); err != nil {
			return err
		}
	}
	return nil
}
