package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/model"
)

// memberLoads bounds concurrent member reads while deriving team progress
const memberLoads = 8

// CreateTeamChallenge validates and stores a team challenge
func (s *ProgressionService) CreateTeamChallenge(ctx context.Context, ch model.TeamChallenge) (*model.TeamChallenge, error) {
	if s.teams == nil {
		return nil, ErrTeamsDisabled
	}
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	ch.CreatedAt = s.now()

	if err := engine.ValidateTeamChallenge(ch); err != nil {
		return nil, err
	}
	if err := s.teams.Create(ctx, &ch); err != nil {
		return nil, fmt.Errorf("failed to create team challenge: %w", err)
	}

	slog.Info("team challenge created",
		slog.String("team_id", ch.TeamID),
		slog.String("challenge_id", ch.ID),
		slog.String("metric", string(ch.TargetMetric)),
		slog.Int("members", len(ch.Members)),
	)
	return &ch, nil
}

// GetTeamChallenge returns a team challenge with progress derived as of now
func (s *ProgressionService) GetTeamChallenge(ctx context.Context, id string, now time.Time) (*model.TeamChallengeView, error) {
	ch, err := s.getTeamChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.teamView(ctx, *ch, now)
}

// ListTeamChallenges returns every team challenge the user is on
func (s *ProgressionService) ListTeamChallenges(ctx context.Context, userID string, now time.Time) ([]model.TeamChallengeView, error) {
	if s.teams == nil {
		return []model.TeamChallengeView{}, nil
	}
	challenges, err := s.teams.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team challenges: %w", err)
	}

	views := make([]model.TeamChallengeView, 0, len(challenges))
	for _, ch := range challenges {
		view, err := s.teamView(ctx, ch, now)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// ClaimTeamChallenge pays the user's share of a team challenge the team
// completed. Team progress is read before the user's lock is taken; it only
// grows inside the window, so a stale read can only under-count.
func (s *ProgressionService) ClaimTeamChallenge(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error) {
	ch, err := s.getTeamChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !ch.HasMember(userID) {
		return nil, engine.ErrNotTeamMember
	}
	view, err := s.teamView(ctx, *ch, now)
	if err != nil {
		return nil, err
	}

	out, err := s.transact(ctx, userID, "claim_team_challenge", func(_ context.Context, eng *engine.Engine, st *userState) (*engine.Outcome, error) {
		return eng.ClaimTeam(engine.TeamClaimInput{
			UserID:      userID,
			Progression: st.progression,
			History:     st.history,
			Challenge:   *ch,
			Progress:    view.Progress,
			Now:         now,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("team challenge claimed",
		slog.String("user_id", userID),
		slog.String("team_id", ch.TeamID),
		slog.String("challenge_id", ch.ID),
		slog.Int64("points", out.Delta.PointsAwarded),
	)
	return out, nil
}

func (s *ProgressionService) getTeamChallenge(ctx context.Context, id string) (*model.TeamChallenge, error) {
	if s.teams == nil {
		return nil, ErrChallengeNotFound
	}
	ch, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get team challenge: %w", err)
	}
	if ch == nil {
		return nil, ErrChallengeNotFound
	}
	return ch, nil
}

// teamView loads every member's state and derives the challenge's progress
func (s *ProgressionService) teamView(ctx context.Context, ch model.TeamChallenge, now time.Time) (*model.TeamChallengeView, error) {
	var mu sync.Mutex
	members := make(map[string]engine.TeamMember, len(ch.Members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberLoads)
	for _, id := range ch.Members {
		g.Go(func() error {
			p, err := s.progressions.Get(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get progression for %s: %w", id, err)
			}
			h, err := s.activity.History(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get activity history for %s: %w", id, err)
			}
			mu.Lock()
			members[id] = engine.TeamMember{Progression: p, History: h}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := s.catalog.Engine().TeamProgress(ch, members, now)
	return &view, nil
}
