package cache

import (
	"context"
	"sync"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// MemoryBoardCache is a process-local BoardCache used when Redis is disabled
type MemoryBoardCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[model.SegmentID]memoryEntry
}

type memoryEntry struct {
	board     model.Leaderboard
	expiresAt time.Time
}

// NewMemoryBoardCache creates an in-memory cache; ttl 0 keeps boards forever
func NewMemoryBoardCache(ttl time.Duration) *MemoryBoardCache {
	return &MemoryBoardCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[model.SegmentID]memoryEntry),
	}
}

// Get returns a copy of the cached board or ErrMiss
func (c *MemoryBoardCache) Get(_ context.Context, segment model.SegmentID) (*model.Leaderboard, error) {
	c.mu.RLock()
	entry, ok := c.entries[segment]
	c.mu.RUnlock()

	if !ok || (!entry.expiresAt.IsZero() && c.now().After(entry.expiresAt)) {
		return nil, ErrMiss
	}

	board := entry.board
	board.Entries = append([]model.LeaderboardEntry(nil), entry.board.Entries...)
	return &board, nil
}

// Set stores a copy of the board
func (c *MemoryBoardCache) Set(_ context.Context, board model.Leaderboard) error {
	entry := memoryEntry{board: board}
	entry.board.Entries = append([]model.LeaderboardEntry(nil), board.Entries...)
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[board.Segment] = entry
	c.mu.Unlock()
	return nil
}

// Close releases nothing; it satisfies BoardCache
func (c *MemoryBoardCache) Close() error {
	return nil
}
