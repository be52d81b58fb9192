package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/forgo/ascend/api/internal/model"
)

// RedisConfig configures the Redis board cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// RedisBoardCache keeps boards as JSON strings with a TTL so every API
// instance serves the same refreshed board
type RedisBoardCache struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisBoardCache connects and pings Redis
func NewRedisBoardCache(ctx context.Context, cfg RedisConfig) (*RedisBoardCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("connected to redis", slog.String("addr", cfg.Addr))
	return newRedisBoardCache(rdb, cfg), nil
}

func newRedisBoardCache(rdb *goredis.Client, cfg RedisConfig) *RedisBoardCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ascend:leaderboard:"
	}
	return &RedisBoardCache{rdb: rdb, ttl: cfg.TTL, prefix: prefix}
}

func (c *RedisBoardCache) key(segment model.SegmentID) string {
	return c.prefix + string(segment)
}

// Get returns the cached board or ErrMiss
func (c *RedisBoardCache) Get(ctx context.Context, segment model.SegmentID) (*model.Leaderboard, error) {
	raw, err := c.rdb.Get(ctx, c.key(segment)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var board model.Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, fmt.Errorf("decode board %s: %w", segment, err)
	}
	return &board, nil
}

// Set stores the board, replacing any previous one
func (c *RedisBoardCache) Set(ctx context.Context, board model.Leaderboard) error {
	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(board.Segment), raw, c.ttl).Err()
}

// Close closes the Redis client
func (c *RedisBoardCache) Close() error {
	return c.rdb.Close()
}
