package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"goban/internal/bootstrap"
	domain "goban/internal/domain/game"
	"goban/internal/errors"
	"goban/internal/session"
)

// SGFStore keeps the live transcript for display/export.
type SGFStore interface {
	SaveSGF(ctx context.Context, gameID, sgfText string) error
	LoadSGF(ctx context.Context, gameID string) (string, error)
	DeleteSGF(ctx context.Context, gameID string) error
}

// ArchiveStore persists finished games.
type ArchiveStore interface {
	ArchiveGame(ctx context.Context, rec domain.ArchiveRecord) error
	GetArchiveGames(ctx context.Context, pageNum int) ([]domain.ArchiveRecord, error)
	GetArchiveGameByID(ctx context.Context, gameID string) (*domain.ArchiveRecord, error)
}

type GameUseCase struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	registry *session.Registry
	sgfStore SGFStore
	archive  ArchiveStore
}

// NewGameUseCase wires the registry with the stores. Either store may be nil
// when the corresponding backend is not configured; the game itself never
// depends on them.
func NewGameUseCase(cfg bootstrap.Config, log *zap.SugaredLogger, registry *session.Registry, sgfStore SGFStore, archive ArchiveStore) *GameUseCase {
	return &GameUseCase{
		cfg:      cfg,
		log:      log,
		registry: registry,
		sgfStore: sgfStore,
		archive:  archive,
	}
}

const (
	minBoardSize = 5
	maxBoardSize = 21
)

func (g *GameUseCase) CreateGame(ctx context.Context, req domain.CreateGameRequest, creatorID string) (*session.Session, error) {
	size := req.BoardSize
	if size == 0 {
		size = 19
	}
	if size < minBoardSize || size > maxBoardSize {
		return nil, errors.ErrCreateGameFailed
	}
	ruleset := req.Ruleset
	if ruleset == "" {
		ruleset = domain.RulesetChinese
	}

	cfg := session.Config{
		BoardSize:      size,
		Komi:           req.Komi,
		Ruleset:        ruleset,
		Handicap:       req.Handicap,
		VsBot:          req.VsBot,
		Time:           req.Time,
		AutoDetectDead: g.cfg.AutoDetectDeadGroup,
	}
	if req.VsBot {
		cfg.BotColor = domain.White
		if !req.IsCreatorBlack {
			cfg.BotColor = domain.Black
		}
	}

	s, err := g.registry.Create(cfg)
	if err != nil {
		return nil, err
	}
	s.SetOnFinish(g.archiveFinished)

	color := domain.Black
	if !req.IsCreatorBlack {
		color = domain.White
	}
	if _, err := s.Join(creatorID, color); err != nil {
		g.registry.Remove(s.ID)
		return nil, err
	}
	return s, nil
}

// JoinGame seats a second player, looked up by id or by short code.
func (g *GameUseCase) JoinGame(ctx context.Context, req domain.JoinGameRequest, userID string) (*session.Session, domain.Color, error) {
	s, err := g.lookup(req)
	if err != nil {
		return nil, "", err
	}
	color, err := s.Join(userID, "")
	if err != nil {
		return nil, "", err
	}
	return s, color, nil
}

func (g *GameUseCase) lookup(req domain.JoinGameRequest) (*session.Session, error) {
	if req.GameID != "" {
		return g.registry.Get(req.GameID)
	}
	if req.GameCode != "" {
		return g.registry.GetByCode(req.GameCode)
	}
	return nil, errors.ErrGameNotFound
}

func (g *GameUseCase) GetSession(gameID string) (*session.Session, error) {
	return g.registry.Get(gameID)
}

// PlayAgain registers a rematch acceptance and creates the fresh session once
// all humans agreed (immediately for bot games).
func (g *GameUseCase) PlayAgain(gameID, userID string) (*session.Session, error) {
	s, err := g.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	ready, err := s.AcceptPlayAgain(userID)
	if err != nil || !ready {
		return nil, err
	}
	fresh, err := g.registry.Rematch(s)
	if err != nil {
		return nil, err
	}
	fresh.SetOnFinish(g.archiveFinished)
	return fresh, nil
}

// RefreshSGF rebuilds and caches the transcript after a state change. Called
// off the event path; failures only cost the cached copy.
func (g *GameUseCase) RefreshSGF(gameID string) {
	if g.sgfStore == nil {
		return
	}
	s, err := g.registry.Get(gameID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.sgfStore.SaveSGF(ctx, gameID, BuildSGF(s.Snapshot())); err != nil {
		g.log.Warnw("sgf cache update failed", "game", gameID, "error", err)
	}
}

func (g *GameUseCase) GetSGF(ctx context.Context, gameID string) (string, error) {
	if s, err := g.registry.Get(gameID); err == nil {
		return BuildSGF(s.Snapshot()), nil
	}
	if g.sgfStore != nil {
		return g.sgfStore.LoadSGF(ctx, gameID)
	}
	return "", errors.ErrGameNotFound
}

// archiveFinished runs once per game, outside the session lock.
func (g *GameUseCase) archiveFinished(snap session.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sgfText := BuildSGF(snap)
	if g.sgfStore != nil {
		if err := g.sgfStore.SaveSGF(ctx, snap.ID, sgfText); err != nil {
			g.log.Warnw("final sgf cache failed", "game", snap.ID, "error", err)
		}
	}
	if g.archive == nil {
		return
	}

	rec := domain.ArchiveRecord{
		GameID:      snap.ID,
		GameCode:    snap.Code,
		BoardSize:   snap.BoardSize,
		Komi:        snap.Komi,
		Ruleset:     snap.Ruleset,
		Handicap:    snap.Handicap,
		PlayerBlack: snap.Players[domain.Black],
		PlayerWhite: snap.Players[domain.White],
		Result:      snap.Result,
		Winner:      string(snap.Winner),
		MovesCount:  snap.MovesCount,
		SGF:         sgfText,
		Time:        snap.Time,
		StartedAt:   snap.StartedAt,
		FinishedAt:  snap.FinishedAt,
	}
	if err := g.archive.ArchiveGame(ctx, rec); err != nil {
		g.log.Errorw("archive insert failed", "game", snap.ID, "error", err)
	}
}

func (g *GameUseCase) GetArchiveGames(ctx context.Context, pageNum int) ([]domain.ArchiveRecord, error) {
	if g.archive == nil {
		return nil, nil
	}
	return g.archive.GetArchiveGames(ctx, pageNum)
}

func (g *GameUseCase) GetArchiveGameByID(ctx context.Context, gameID string) (*domain.ArchiveRecord, error) {
	if g.archive == nil {
		return nil, errors.ErrGameNotFound
	}
	return g.archive.GetArchiveGameByID(ctx, gameID)
}
