package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/model"
	"github.com/forgo/ascend/api/internal/repository"
)

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// Progression Fixtures
// ============================================================================

// ProgressionOpts customizes progression creation
type ProgressionOpts struct {
	UserID         string
	TotalPoints    int64
	LifetimePoints int64
	StreakDays     int
	BadgesEarned   []string
	CreatedAt      time.Time
}

// WithPoints sets both the balance and lifetime points
func WithPoints(points int64) func(*ProgressionOpts) {
	return func(o *ProgressionOpts) {
		o.TotalPoints = points
		o.LifetimePoints = points
	}
}

// WithBadges sets the earned badges
func WithBadges(ids ...string) func(*ProgressionOpts) {
	return func(o *ProgressionOpts) {
		o.BadgesEarned = ids
	}
}

// CreateProgression stores a progression at version 1
func (f *Factory) CreateProgression(t *testing.T, opts ...func(*ProgressionOpts)) *model.UserProgression {
	t.Helper()

	o := &ProgressionOpts{
		UserID:       fmt.Sprintf("user_%s", randomID()),
		BadgesEarned: []string{},
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	for _, fn := range opts {
		fn(o)
	}

	p := model.NewUserProgression(o.UserID, o.CreatedAt)
	p.TotalPoints = o.TotalPoints
	p.LifetimePoints = o.LifetimePoints
	p.StreakDays = o.StreakDays
	p.LongestStreak = o.StreakDays
	p.BadgesEarned = o.BadgesEarned
	p.Version = 1

	repo := repository.NewProgressionRepository(f.db)
	if err := repo.Commit(ctx(t), &model.ProgressionCommit{Progression: p}); err != nil {
		t.Fatalf("fixtures: failed to create progression: %v", err)
	}
	return p
}

// ============================================================================
// Challenge Fixtures
// ============================================================================

// ChallengeOpts customizes challenge creation
type ChallengeOpts struct {
	Metric    model.MetricKind
	Target    float64
	Reward    int64
	StartDate time.Time
	EndDate   time.Time
}

// WithWindow sets the challenge dates
func WithWindow(start, end time.Time) func(*ChallengeOpts) {
	return func(o *ChallengeOpts) {
		o.StartDate = start
		o.EndDate = end
	}
}

// CreateChallenge stores an active challenge owned by ownerID
func (f *Factory) CreateChallenge(t *testing.T, ownerID string, opts ...func(*ChallengeOpts)) *model.PersonalChallenge {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	o := &ChallengeOpts{
		Metric:    model.MetricEventsAttended,
		Target:    3,
		Reward:    50,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(7 * 24 * time.Hour),
	}
	for _, fn := range opts {
		fn(o)
	}

	ch := &model.PersonalChallenge{
		ID:           fmt.Sprintf("challenge_%s", randomID()),
		OwnerID:      ownerID,
		Title:        "Attend three events",
		TargetMetric: o.Metric,
		TargetValue:  o.Target,
		PointsReward: o.Reward,
		Source:       model.ChallengeSourceUser,
		StartDate:    o.StartDate,
		EndDate:      o.EndDate,
		Status:       model.ChallengeActive,
		CreatedAt:    now,
	}

	repo := repository.NewChallengeRepository(f.db)
	if err := repo.Create(ctx(t), ch); err != nil {
		t.Fatalf("fixtures: failed to create challenge: %v", err)
	}
	return ch
}
