package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ChallengeSweeper expires challenges whose end date has passed
type ChallengeSweeper interface {
	ExpireChallenges(ctx context.Context, now time.Time) (int, error)
}

// ChallengeExpirer periodically moves overdue active challenges to expired
type ChallengeExpirer struct {
	sweeper    ChallengeSweeper
	interval   time.Duration
	startDelay time.Duration
	timeout    time.Duration
	now        func() time.Time
	stopCh     chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// NewChallengeExpirer creates a new challenge expiry job
func NewChallengeExpirer(sweeper ChallengeSweeper, interval time.Duration) *ChallengeExpirer {
	if interval == 0 {
		interval = time.Hour
	}
	return &ChallengeExpirer{
		sweeper:    sweeper,
		interval:   interval,
		startDelay: 5 * time.Second,
		timeout:    2 * time.Minute,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the challenge expiry job
func (j *ChallengeExpirer) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("challenge expirer started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the challenge expiry job
func (j *ChallengeExpirer) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("challenge expirer stopped")
}

func (j *ChallengeExpirer) run() {
	defer j.wg.Done()

	// Let the rest of the server come up before the first sweep
	select {
	case <-time.After(j.startDelay):
	case <-j.stopCh:
		return
	}
	j.sweep()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			return
		}
	}
}

func (j *ChallengeExpirer) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil {
		slog.Error("challenge expiry sweep failed", slog.String("error", err.Error()))
	}
}

// RunOnce runs a single sweep (for testing or manual trigger)
func (j *ChallengeExpirer) RunOnce(ctx context.Context) error {
	n, err := j.sweeper.ExpireChallenges(ctx, j.now())
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("challenges expired", slog.Int("count", n))
	}
	return nil
}

// IsRunning returns whether the job is running
func (j *ChallengeExpirer) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
