package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "emprende:slugs:"

// Redis shares candidate sets between server instances. Redis failures are
// logged and treated as misses so resolution falls back to the store.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects to the Redis server at url (redis://host:port/db).
func NewRedis(ctx context.Context, url string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisWithClient(client, ttl, logger), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, t domain.EntityType) ([]domain.SlugCandidate, bool) {
	raw, err := r.client.Get(ctx, keyPrefix+string(t)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("slug cache read failed", "type", t, "error", err)
		}
		return nil, false
	}
	var candidates []domain.SlugCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		r.logger.Warn("slug cache entry corrupt", "type", t, "error", err)
		return nil, false
	}
	return candidates, true
}

func (r *Redis) Set(ctx context.Context, t domain.EntityType, candidates []domain.SlugCandidate) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		r.logger.Warn("slug cache encode failed", "type", t, "error", err)
		return
	}
	if err := r.client.Set(ctx, keyPrefix+string(t), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("slug cache write failed", "type", t, "error", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, t domain.EntityType) {
	if err := r.client.Del(ctx, keyPrefix+string(t)).Err(); err != nil {
		r.logger.Warn("slug cache invalidation failed", "type", t, "error", err)
	}
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
