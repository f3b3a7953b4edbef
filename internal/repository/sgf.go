package repo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	errs "goban/internal/errors"
)

// RedisSGFStore caches the live SGF transcript per game id. The in-memory
// session stays authoritative; this is display/export material only.
type RedisSGFStore struct {
	client *redis.Client
}

func NewRedisSGFStore(client *redis.Client) *RedisSGFStore {
	return &RedisSGFStore{client: client}
}

const sgfTTL = 24 * time.Hour

func (r *RedisSGFStore) SaveSGF(ctx context.Context, gameID, sgfText string) error {
	return r.client.Set(ctx, sgfKey(gameID), sgfText, sgfTTL).Err()
}

func (r *RedisSGFStore) LoadSGF(ctx context.Context, gameID string) (string, error) {
	val, err := r.client.Get(ctx, sgfKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrGameNotFound
	}
	return val, err
}

func (r *RedisSGFStore) DeleteSGF(ctx context.Context, gameID string) error {
	return r.client.Del(ctx, sgfKey(gameID)).Err()
}

func sgfKey(gameID string) string {
	return "sgf:" + gameID
}
