package session

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"goban/internal/errors"
)

// EngineFactory spawns an AI bridge for a bot game. Nil engines are allowed
// (bot games then fail to create).
type EngineFactory func() (BotEngine, error)

// Registry is the injected owner of all live sessions: create, lookup,
// evict. Sessions are independent; the registry holds no per-game locks.
type Registry struct {
	log   *zap.SugaredLogger
	sink  EventSink
	grace time.Duration

	newEngine EngineFactory

	mu       sync.RWMutex
	sessions map[string]*Session
	byCode   map[string]string
}

func NewRegistry(log *zap.SugaredLogger, sink EventSink, grace time.Duration, newEngine EngineFactory) *Registry {
	return &Registry{
		log:       log,
		sink:      sink,
		grace:     grace,
		newEngine: newEngine,
		sessions:  make(map[string]*Session),
		byCode:    make(map[string]string),
	}
}

// Create builds a session (spawning an engine subprocess for bot games) and
// registers it under a fresh id and a short public join code.
func (r *Registry) Create(cfg Config) (*Session, error) {
	var bot BotEngine
	if cfg.VsBot {
		if r.newEngine == nil {
			return nil, fmt.Errorf("%w: no engine configured", errors.ErrCreateGameFailed)
		}
		b, err := r.newEngine()
		if err != nil {
			return nil, fmt.Errorf("%w: engine spawn: %v", errors.ErrCreateGameFailed, err)
		}
		bot = b
	}

	r.mu.Lock()
	code := r.uniqueCodeLocked()
	s := New(r.log, r.sink, cfg, code, bot)
	r.sessions[s.ID] = s
	r.byCode[code] = s.ID
	r.mu.Unlock()

	r.log.Infow("game created", "game", s.ID, "code", code, "vs_bot", cfg.VsBot)
	return s, nil
}

// uniqueCodeLocked derives a 5-digit public code from a uuid, retrying on
// collision with live codes.
func (r *Registry) uniqueCodeLocked() string {
	for {
		h := md5.Sum([]byte(uuid.New().String()))
		code := fmt.Sprintf("%05d", binary.BigEndian.Uint32(h[:4])%100000)
		if _, taken := r.byCode[code]; !taken {
			return code
		}
	}
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrGameNotFound
	}
	return s, nil
}

func (r *Registry) GetByCode(code string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, errors.ErrGameNotFound
	}
	return r.sessions[id], nil
}

// Remove evicts the session, cancelling in-flight AI work and releasing the
// engine subprocess.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		delete(r.byCode, s.Code)
	}
	r.mu.Unlock()
	if ok {
		s.Close()
		r.log.Infow("game evicted", "game", id)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Rematch spawns a fresh session with the old one's configuration, seats the
// same humans and announces the new ids on the old session's channel.
func (r *Registry) Rematch(old *Session) (*Session, error) {
	fresh, err := r.Create(old.ConfigCopy())
	if err != nil {
		return nil, err
	}
	for id, color := range old.HumanPlayers() {
		if _, err := fresh.Join(id, color); err != nil {
			r.Remove(fresh.ID)
			return nil, err
		}
	}
	if r.sink != nil {
		r.sink.Send(old.ID, Event{Type: EventPlayAgain, Payload: playAgainPayload{
			NewGameID:   fresh.ID,
			NewGameCode: fresh.Code,
		}})
	}
	return fresh, nil
}

// Run drives the 1 Hz ticker: each second every playing session charges its
// on-move clock projection and dead sessions are evicted. Move arrival is
// independent of this loop.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.tickAll()
		}
	}
}

func (r *Registry) tickAll() {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	now := time.Now()
	for _, s := range all {
		s.TickClock()
		if s.Evictable(now, r.grace) {
			r.Remove(s.ID)
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.byCode = make(map[string]string)
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
