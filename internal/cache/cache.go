package cache

import (
	"context"
	"errors"

	"github.com/forgo/ascend/api/internal/model"
)

// ErrMiss is returned when a board is absent or expired
var ErrMiss = errors.New("cache miss")

// BoardCache stores computed leaderboards between refreshes
type BoardCache interface {
	Get(ctx context.Context, segment model.SegmentID) (*model.Leaderboard, error)
	Set(ctx context.Context, board model.Leaderboard) error
	Close() error
}
