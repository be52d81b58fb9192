package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/metrics"
	"github.com/forgo/ascend/api/internal/model"
)

// ProgressionRepository defines the interface for progression storage
type ProgressionRepository interface {
	Get(ctx context.Context, userID string) (*model.UserProgression, error)
	Commit(ctx context.Context, c *model.ProgressionCommit) error
}

// ActivityRepository defines the interface for activity history reads
type ActivityRepository interface {
	History(ctx context.Context, userID string) (*model.ActivityHistory, error)
	Ledger(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error)
}

// ChallengeRepository defines the interface for challenge storage
type ChallengeRepository interface {
	Create(ctx context.Context, ch *model.PersonalChallenge) error
	GetByID(ctx context.Context, id string) (*model.PersonalChallenge, error)
	ListActiveByOwner(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error)
	ListExpirable(ctx context.Context, now time.Time) ([]model.PersonalChallenge, error)
	MarkExpired(ctx context.Context, id string) error
}

// TeamChallengeRepository defines the interface for team challenge storage
type TeamChallengeRepository interface {
	Create(ctx context.Context, ch *model.TeamChallenge) error
	GetByID(ctx context.Context, id string) (*model.TeamChallenge, error)
	ListByMember(ctx context.Context, userID string) ([]model.TeamChallenge, error)
}

// BadgeAwardRepository reads the badge award audit trail
type BadgeAwardRepository interface {
	AwardsByUser(ctx context.Context, userID string) ([]model.BadgeAward, error)
}

// Ledger page bounds
const (
	DefaultLedgerLimit = 50
	MaxLedgerLimit     = 200
)

const defaultCommitAttempts = 3

// ProgressionService runs engine transactions against the store. Writes for
// one user are serialized in-process and guarded by the progression version
// across processes.
type ProgressionService struct {
	progressions ProgressionRepository
	activity     ActivityRepository
	challenges   ChallengeRepository
	teams        TeamChallengeRepository
	awards       BadgeAwardRepository
	catalog      EngineSource
	metrics      *metrics.Metrics
	locks        *userLocks
	now          func() time.Time
	attempts     int
}

// ProgressionServiceConfig holds configuration for the progression service
type ProgressionServiceConfig struct {
	Progressions ProgressionRepository
	Activity     ActivityRepository
	Challenges   ChallengeRepository
	Teams        TeamChallengeRepository
	Awards       BadgeAwardRepository
	Catalog      EngineSource
	Metrics      *metrics.Metrics
	// Now defaults to time.Now
	Now func() time.Time
	// CommitAttempts bounds reload-and-retry on version conflicts; defaults to 3
	CommitAttempts int
}

// NewProgressionService creates a new progression service
func NewProgressionService(cfg ProgressionServiceConfig) *ProgressionService {
	s := &ProgressionService{
		progressions: cfg.Progressions,
		activity:     cfg.Activity,
		challenges:   cfg.Challenges,
		teams:        cfg.Teams,
		awards:       cfg.Awards,
		catalog:      cfg.Catalog,
		metrics:      cfg.Metrics,
		locks:        newUserLocks(),
		now:          cfg.Now,
		attempts:     cfg.CommitAttempts,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.attempts <= 0 {
		s.attempts = defaultCommitAttempts
	}
	return s
}

// userState is what the store holds for one user at transaction start
type userState struct {
	progression *model.UserProgression
	history     *model.ActivityHistory
	challenges  []model.PersonalChallenge
}

func (s *ProgressionService) load(ctx context.Context, userID string) (*userState, error) {
	st := &userState{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.progressions.Get(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get progression: %w", err)
		}
		st.progression = p
		return nil
	})
	g.Go(func() error {
		h, err := s.activity.History(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get activity history: %w", err)
		}
		st.history = h
		return nil
	})
	g.Go(func() error {
		chs, err := s.challenges.ListActiveByOwner(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list challenges: %w", err)
		}
		st.challenges = chs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

type transition func(ctx context.Context, eng *engine.Engine, st *userState) (*engine.Outcome, error)

// transact loads the user's state, runs fn and commits the outcome. A
// version conflict or a concurrently stored record reloads and reruns fn.
func (s *ProgressionService) transact(ctx context.Context, userID, op string, fn transition) (*engine.Outcome, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		st, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		out, err := fn(ctx, s.catalog.Engine(), st)
		if err != nil {
			slog.Warn("progression transaction aborted",
				slog.String("op", op),
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		if out.Duplicate {
			return out, nil
		}

		var expected int64
		if st.progression != nil {
			expected = st.progression.Version
		}
		err = s.progressions.Commit(ctx, &model.ProgressionCommit{
			ExpectedVersion: expected,
			Progression:     out.Progression,
			Recorded:        out.Recorded,
			Delta:           out.Delta,
			Challenges:      out.Challenges,
		})
		if err == nil {
			s.metrics.ObserveDelta(&out.Delta)
			return out, nil
		}
		if !errors.Is(err, database.ErrConflict) && !errors.Is(err, database.ErrDuplicate) {
			slog.Error("progression commit failed",
				slog.String("op", op),
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("failed to commit progression: %w", err)
		}

		s.metrics.CommitConflict()
		slog.Debug("progression commit conflict, retrying",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.Int("attempt", attempt),
		)
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrConcurrentUpdate, lastErr)
}

// RecordActivity applies one activity event. Replayed event ids return the
// current state flagged Duplicate without writing anything.
func (s *ProgressionService) RecordActivity(ctx context.Context, ev model.ActivityEvent) (*engine.Outcome, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now()
	}

	out, err := s.transact(ctx, ev.UserID, "record_activity", func(_ context.Context, eng *engine.Engine, st *userState) (*engine.Outcome, error) {
		return eng.Apply(engine.ApplyInput{
			Progression: st.progression,
			History:     st.history,
			Challenges:  st.challenges,
			Event:       ev,
		})
	})
	if err != nil {
		s.metrics.ObserveEvent(ev.Type, metrics.OutcomeRejected)
		return nil, err
	}

	if out.Duplicate {
		s.metrics.ObserveEvent(ev.Type, metrics.OutcomeDuplicate)
		slog.Debug("duplicate activity event ignored",
			slog.String("user_id", ev.UserID),
			slog.String("event_id", ev.ID),
		)
		return out, nil
	}

	s.metrics.ObserveEvent(ev.Type, metrics.OutcomeApplied)
	slog.Info("activity recorded",
		slog.String("user_id", ev.UserID),
		slog.String("event_id", ev.ID),
		slog.String("type", string(ev.Type)),
		slog.Int64("points", out.Delta.PointsAwarded),
		slog.Int("new_badges", len(out.Delta.NewBadgeIDs)),
		slog.Int("level", out.Delta.LevelAfter),
	)
	return out, nil
}

// GetDashboard builds the read-side view for one user. A user with no
// stored progression gets the zero state.
func (s *ProgressionService) GetDashboard(ctx context.Context, userID string, now time.Time) (*model.Dashboard, error) {
	var (
		prog       *model.UserProgression
		history    *model.ActivityHistory
		challenges []model.PersonalChallenge
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.progressions.Get(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get progression: %w", err)
		}
		prog = p
		return nil
	})
	g.Go(func() error {
		h, err := s.activity.History(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get activity history: %w", err)
		}
		history = h
		return nil
	})
	g.Go(func() error {
		chs, err := s.challenges.ListByOwner(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list challenges: %w", err)
		}
		challenges = chs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := s.catalog.Engine().Dashboard(engine.DashboardInput{
		UserID:      userID,
		Progression: prog,
		History:     history,
		Challenges:  challenges,
		Now:         now,
	})
	return &d, nil
}

// ClaimChallenge completes a challenge and grants its reward
func (s *ProgressionService) ClaimChallenge(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error) {
	out, err := s.transact(ctx, userID, "claim_challenge", func(ctx context.Context, eng *engine.Engine, st *userState) (*engine.Outcome, error) {
		ch, err := s.challenges.GetByID(ctx, challengeID)
		if err != nil {
			return nil, fmt.Errorf("failed to get challenge: %w", err)
		}
		if ch == nil {
			return nil, ErrChallengeNotFound
		}
		return eng.Claim(engine.ClaimInput{
			UserID:      userID,
			Progression: st.progression,
			History:     st.history,
			Challenge:   *ch,
			Now:         now,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("challenge claimed",
		slog.String("user_id", userID),
		slog.String("challenge_id", challengeID),
		slog.Int64("points", out.Delta.PointsAwarded),
	)
	return out, nil
}

// AwardBadge grants a manual badge on behalf of an administrator
func (s *ProgressionService) AwardBadge(ctx context.Context, userID, badgeID, awardedBy string, now time.Time) (*engine.Outcome, error) {
	out, err := s.transact(ctx, userID, "award_badge", func(_ context.Context, eng *engine.Engine, st *userState) (*engine.Outcome, error) {
		return eng.AwardBadge(engine.AwardInput{
			UserID:      userID,
			Progression: st.progression,
			History:     st.history,
			BadgeID:     badgeID,
			AwardedBy:   awardedBy,
			Now:         now,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("badge awarded",
		slog.String("user_id", userID),
		slog.String("badge_id", badgeID),
		slog.String("awarded_by", awardedBy),
	)
	return out, nil
}

// RedeemReward spends points on a catalog reward
func (s *ProgressionService) RedeemReward(ctx context.Context, userID, rewardID string, now time.Time) (*engine.Outcome, error) {
	out, err := s.transact(ctx, userID, "redeem_reward", func(_ context.Context, eng *engine.Engine, st *userState) (*engine.Outcome, error) {
		return eng.Redeem(engine.RedeemInput{
			UserID:      userID,
			Progression: st.progression,
			History:     st.history,
			RewardID:    rewardID,
			Now:         now,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("reward redeemed",
		slog.String("user_id", userID),
		slog.String("reward_id", rewardID),
		slog.Int64("balance", out.Progression.TotalPoints),
	)
	return out, nil
}

// CreateChallenge validates and stores a new personal challenge. User, AI
// and admin proposals go through the same checks.
func (s *ProgressionService) CreateChallenge(ctx context.Context, ch model.PersonalChallenge) (*model.PersonalChallenge, error) {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if ch.Source == "" {
		ch.Source = model.ChallengeSourceUser
	}
	ch.Status = model.ChallengeActive
	ch.CurrentProgress = 0
	ch.CompletedAt = nil
	ch.CreatedAt = s.now()

	if err := engine.ValidateChallenge(ch); err != nil {
		return nil, err
	}
	if err := s.challenges.Create(ctx, &ch); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	slog.Info("challenge created",
		slog.String("user_id", ch.OwnerID),
		slog.String("challenge_id", ch.ID),
		slog.String("metric", string(ch.TargetMetric)),
		slog.String("source", string(ch.Source)),
	)
	return &ch, nil
}

// ExpireChallenges marks every active challenge past its end date as
// expired. Failures are logged per challenge and do not stop the sweep.
func (s *ProgressionService) ExpireChallenges(ctx context.Context, now time.Time) (int, error) {
	due, err := s.challenges.ListExpirable(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expirable challenges: %w", err)
	}

	expired := 0
	for _, ch := range due {
		if _, tr := engine.ExpireChallenge(ch, now); tr == nil {
			continue
		}
		if err := s.challenges.MarkExpired(ctx, ch.ID); err != nil {
			slog.Error("failed to expire challenge",
				slog.String("challenge_id", ch.ID),
				slog.String("user_id", ch.OwnerID),
				slog.String("error", err.Error()),
			)
			continue
		}
		expired++
	}

	s.metrics.ChallengesExpired(expired)
	return expired, nil
}

// GetLedger returns a page of the user's ledger, newest first
func (s *ProgressionService) GetLedger(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error) {
	if limit <= 0 {
		limit = DefaultLedgerLimit
	}
	if limit > MaxLedgerLimit {
		limit = MaxLedgerLimit
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.activity.Ledger(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return entries, nil
}

// ListBadgeAwards returns the user's badge awards in award order
func (s *ProgressionService) ListBadgeAwards(ctx context.Context, userID string) ([]model.BadgeAward, error) {
	if s.awards == nil {
		return []model.BadgeAward{}, nil
	}
	awards, err := s.awards.AwardsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badge awards: %w", err)
	}
	return awards, nil
}
