package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ascend/api/internal/model"
)

func board(segment model.SegmentID, users ...string) model.Leaderboard {
	b := model.Leaderboard{Segment: segment, Name: string(segment)}
	for i, u := range users {
		b.Entries = append(b.Entries, model.LeaderboardEntry{UserID: u, Rank: i + 1, Score: float64(100 - i)})
	}
	return b
}

// ============================================================================
// MemoryBoardCache Tests
// ============================================================================

func TestMemoryBoardCache_SetGet(t *testing.T) {
	t.Parallel()

	c := NewMemoryBoardCache(0)
	ctx := context.Background()

	_, err := c.Get(ctx, model.SegmentGlobal)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, board(model.SegmentGlobal, "a", "b")))
	got, err := c.Get(ctx, model.SegmentGlobal)
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)
	assert.Equal(t, "a", got.Entries[0].UserID)

	_, err = c.Get(ctx, model.SegmentNewcomers)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryBoardCache_ReturnsCopies(t *testing.T) {
	t.Parallel()

	c := NewMemoryBoardCache(0)
	ctx := context.Background()
	b := board(model.SegmentGlobal, "a")
	require.NoError(t, c.Set(ctx, b))

	b.Entries[0].UserID = "mutated"
	got, err := c.Get(ctx, model.SegmentGlobal)
	require.NoError(t, err)
	got.Entries[0].Score = -1

	again, err := c.Get(ctx, model.SegmentGlobal)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Entries[0].UserID)
	assert.Equal(t, 100.0, again.Entries[0].Score)
}

func TestMemoryBoardCache_Expires(t *testing.T) {
	t.Parallel()

	c := NewMemoryBoardCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, board(model.SegmentGlobal, "a")))

	now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, model.SegmentGlobal)
	assert.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = c.Get(ctx, model.SegmentGlobal)
	assert.ErrorIs(t, err, ErrMiss)
}

// ============================================================================
// RedisBoardCache Tests
// ============================================================================

func TestNewRedisBoardCache_RequiresAddr(t *testing.T) {
	t.Parallel()

	_, err := NewRedisBoardCache(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestRedisBoardCache_KeyPrefix(t *testing.T) {
	t.Parallel()

	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	c := newRedisBoardCache(rdb, RedisConfig{})
	assert.Equal(t, "ascend:leaderboard:global", c.key(model.SegmentGlobal))

	c = newRedisBoardCache(rdb, RedisConfig{Prefix: "test:"})
	assert.Equal(t, "test:streak_masters", c.key(model.SegmentStreakMasters))
}

func TestRedisBoardCache_UnreachableIsNotAMiss(t *testing.T) {
	t.Parallel()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := newRedisBoardCache(rdb, RedisConfig{TTL: time.Minute})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Get(ctx, model.SegmentGlobal)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Error(t, c.Set(ctx, board(model.SegmentGlobal, "a")))
}
