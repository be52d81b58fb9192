package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/forgo/ascend/api/internal/cache"
	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/metrics"
	"github.com/forgo/ascend/api/internal/model"
)

// StandingsRepository lists the state every leaderboard is ranked from
type StandingsRepository interface {
	List(ctx context.Context) ([]*model.UserProgression, error)
}

// HistoriesRepository lists every user's activity history
type HistoriesRepository interface {
	Histories(ctx context.Context) (map[string]*model.ActivityHistory, error)
}

// sharedRefreshTimeout bounds a cache-miss refresh that several readers wait on
const sharedRefreshTimeout = 30 * time.Second

// LeaderboardService computes segment boards in bulk and serves them from
// a cache. Boards are eventually consistent within one refresh interval.
type LeaderboardService struct {
	progressions StandingsRepository
	histories    HistoriesRepository
	catalog      EngineSource
	cache        cache.BoardCache
	metrics      *metrics.Metrics
	workers      int
	group        singleflight.Group
}

// LeaderboardServiceConfig holds configuration for the leaderboard service
type LeaderboardServiceConfig struct {
	Progressions StandingsRepository
	Histories    HistoriesRepository
	Catalog      EngineSource
	Cache        cache.BoardCache
	Metrics      *metrics.Metrics
	// Workers bounds parallel snapshot building; defaults to GOMAXPROCS
	Workers int
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(cfg LeaderboardServiceConfig) *LeaderboardService {
	s := &LeaderboardService{
		progressions: cfg.Progressions,
		histories:    cfg.Histories,
		catalog:      cfg.Catalog,
		cache:        cfg.Cache,
		metrics:      cfg.Metrics,
		workers:      cfg.Workers,
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryBoardCache(0)
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	return s
}

// Segments returns the configured segments
func (s *LeaderboardService) Segments() []model.LeaderboardSegment {
	return s.catalog.Engine().Segments()
}

// Refresh recomputes every segment board as of now and stores them in the
// cache. Boards are returned in catalog order.
func (s *LeaderboardService) Refresh(ctx context.Context, now time.Time) ([]model.Leaderboard, error) {
	start := time.Now()
	eng := s.catalog.Engine()

	standings, err := s.standings(ctx, eng, now)
	if err != nil {
		return nil, err
	}

	segments := eng.Segments()
	boards := make([]model.Leaderboard, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segments {
		g.Go(func() error {
			board, err := eng.Leaderboard(seg.ID, standings, now)
			if err != nil {
				return err
			}
			boards[i] = board
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to rank segments: %w", err)
	}

	var cacheErrs []error
	for _, b := range boards {
		if err := s.cache.Set(ctx, b); err != nil {
			cacheErrs = append(cacheErrs, fmt.Errorf("cache %s: %w", b.Segment, err))
		}
	}
	if err := errors.Join(cacheErrs...); err != nil {
		slog.Warn("failed to cache leaderboards", slog.String("error", err.Error()))
	}

	elapsed := time.Since(start)
	s.metrics.ObserveRefresh(elapsed)
	slog.Info("leaderboards refreshed",
		slog.Int("players", len(standings)),
		slog.Int("segments", len(boards)),
		slog.Duration("duration", elapsed),
	)
	return boards, nil
}

// standings loads every progression and history and builds each player's
// snapshot in parallel
func (s *LeaderboardService) standings(ctx context.Context, eng *engine.Engine, now time.Time) ([]model.PlayerStanding, error) {
	var (
		progressions []*model.UserProgression
		histories    map[string]*model.ActivityHistory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.progressions.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list progressions: %w", err)
		}
		progressions = p
		return nil
	})
	g.Go(func() error {
		h, err := s.histories.Histories(gctx)
		if err != nil {
			return fmt.Errorf("failed to list histories: %w", err)
		}
		histories = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	standings := make([]model.PlayerStanding, len(progressions))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range progressions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			standings[i] = eng.Standing(p, histories[p.UserID], now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return standings, nil
}

// GetBoard serves a segment board from the cache. Concurrent misses share
// one refresh.
func (s *LeaderboardService) GetBoard(ctx context.Context, segment model.SegmentID, now time.Time) (*model.Leaderboard, error) {
	if _, ok := s.catalog.Engine().Segment(segment); !ok {
		return nil, engine.ErrUnknownSegment
	}

	board, err := s.cache.Get(ctx, segment)
	switch {
	case err == nil:
		s.metrics.BoardCacheResult("hit")
		return board, nil
	case errors.Is(err, cache.ErrMiss):
		s.metrics.BoardCacheResult("miss")
	default:
		s.metrics.BoardCacheResult("error")
		slog.Warn("leaderboard cache read failed",
			slog.String("segment", string(segment)),
			slog.String("error", err.Error()),
		)
	}

	// Waiters share the refresh, so it must outlive the caller that started it
	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRefreshTimeout)
		defer cancel()
		return s.Refresh(rctx, now)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLeaderboardUnavailable, err)
	}
	for _, b := range v.([]model.Leaderboard) {
		if b.Segment == segment {
			return &b, nil
		}
	}
	return nil, engine.ErrUnknownSegment
}
