package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// BoardRefresher recomputes and caches every leaderboard segment
type BoardRefresher interface {
	Refresh(ctx context.Context, now time.Time) ([]model.Leaderboard, error)
}

// LeaderboardRefresher keeps cached leaderboards within one interval of the
// stored progressions. It refreshes immediately on start.
type LeaderboardRefresher struct {
	boards   BoardRefresher
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewLeaderboardRefresher creates a new leaderboard refresh job
func NewLeaderboardRefresher(boards BoardRefresher, interval time.Duration) *LeaderboardRefresher {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &LeaderboardRefresher{
		boards:   boards,
		interval: interval,
		timeout:  interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the refresh job
func (j *LeaderboardRefresher) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("leaderboard refresher started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the refresh job
func (j *LeaderboardRefresher) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("leaderboard refresher stopped")
}

func (j *LeaderboardRefresher) run() {
	defer j.wg.Done()

	j.refresh()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.refresh()
		case <-j.stopCh:
			return
		}
	}
}

func (j *LeaderboardRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil {
		slog.Error("leaderboard refresh failed", slog.String("error", err.Error()))
	}
}

// RunOnce refreshes every segment once
func (j *LeaderboardRefresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	boards, err := j.boards.Refresh(ctx, j.now())
	if err != nil {
		return err
	}
	slog.Debug("leaderboards refreshed",
		slog.Int("segments", len(boards)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// IsRunning returns whether the job is running
func (j *LeaderboardRefresher) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
