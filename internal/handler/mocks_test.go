package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/model"
	"github.com/forgo/ascend/api/internal/service"
)

var testNow = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

// ============================================================================
// Mock ProgressionOperations
// ============================================================================

type mockProgression struct {
	recordActivityFunc   func(ctx context.Context, ev model.ActivityEvent) (*engine.Outcome, error)
	getDashboardFunc     func(ctx context.Context, userID string, now time.Time) (*model.Dashboard, error)
	getLedgerFunc        func(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error)
	createChallengeFunc  func(ctx context.Context, ch model.PersonalChallenge) (*model.PersonalChallenge, error)
	claimChallengeFunc   func(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error)
	redeemRewardFunc     func(ctx context.Context, userID, rewardID string, now time.Time) (*engine.Outcome, error)
	listBadgeAwardsFunc  func(ctx context.Context, userID string) ([]model.BadgeAward, error)
	awardBadgeFunc       func(ctx context.Context, userID, badgeID, awardedBy string, now time.Time) (*engine.Outcome, error)
	expireChallengesFunc func(ctx context.Context, now time.Time) (int, error)
	createTeamFunc       func(ctx context.Context, ch model.TeamChallenge) (*model.TeamChallenge, error)
	getTeamFunc          func(ctx context.Context, id string, now time.Time) (*model.TeamChallengeView, error)
	listTeamsFunc        func(ctx context.Context, userID string, now time.Time) ([]model.TeamChallengeView, error)
	claimTeamFunc        func(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error)
}

func (m *mockProgression) RecordActivity(ctx context.Context, ev model.ActivityEvent) (*engine.Outcome, error) {
	if m.recordActivityFunc != nil {
		return m.recordActivityFunc(ctx, ev)
	}
	return &engine.Outcome{Progression: model.NewUserProgression(ev.UserID, testNow)}, nil
}

func (m *mockProgression) GetDashboard(ctx context.Context, userID string, now time.Time) (*model.Dashboard, error) {
	if m.getDashboardFunc != nil {
		return m.getDashboardFunc(ctx, userID, now)
	}
	return &model.Dashboard{Progression: *model.NewUserProgression(userID, now)}, nil
}

func (m *mockProgression) GetLedger(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error) {
	if m.getLedgerFunc != nil {
		return m.getLedgerFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockProgression) CreateChallenge(ctx context.Context, ch model.PersonalChallenge) (*model.PersonalChallenge, error) {
	if m.createChallengeFunc != nil {
		return m.createChallengeFunc(ctx, ch)
	}
	ch.ID = "ch-1"
	ch.Status = model.ChallengeActive
	return &ch, nil
}

func (m *mockProgression) ClaimChallenge(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error) {
	if m.claimChallengeFunc != nil {
		return m.claimChallengeFunc(ctx, userID, challengeID, now)
	}
	return &engine.Outcome{Progression: model.NewUserProgression(userID, now)}, nil
}

func (m *mockProgression) RedeemReward(ctx context.Context, userID, rewardID string, now time.Time) (*engine.Outcome, error) {
	if m.redeemRewardFunc != nil {
		return m.redeemRewardFunc(ctx, userID, rewardID, now)
	}
	return &engine.Outcome{Progression: model.NewUserProgression(userID, now)}, nil
}

func (m *mockProgression) ListBadgeAwards(ctx context.Context, userID string) ([]model.BadgeAward, error) {
	if m.listBadgeAwardsFunc != nil {
		return m.listBadgeAwardsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockProgression) AwardBadge(ctx context.Context, userID, badgeID, awardedBy string, now time.Time) (*engine.Outcome, error) {
	if m.awardBadgeFunc != nil {
		return m.awardBadgeFunc(ctx, userID, badgeID, awardedBy, now)
	}
	return &engine.Outcome{Progression: model.NewUserProgression(userID, now)}, nil
}

func (m *mockProgression) ExpireChallenges(ctx context.Context, now time.Time) (int, error) {
	if m.expireChallengesFunc != nil {
		return m.expireChallengesFunc(ctx, now)
	}
	return 0, nil
}

func (m *mockProgression) CreateTeamChallenge(ctx context.Context, ch model.TeamChallenge) (*model.TeamChallenge, error) {
	if m.createTeamFunc != nil {
		return m.createTeamFunc(ctx, ch)
	}
	ch.ID = "team-ch-1"
	return &ch, nil
}

func (m *mockProgression) GetTeamChallenge(ctx context.Context, id string, now time.Time) (*model.TeamChallengeView, error) {
	if m.getTeamFunc != nil {
		return m.getTeamFunc(ctx, id, now)
	}
	return &model.TeamChallengeView{TeamChallenge: model.TeamChallenge{ID: id}}, nil
}

func (m *mockProgression) ListTeamChallenges(ctx context.Context, userID string, now time.Time) ([]model.TeamChallengeView, error) {
	if m.listTeamsFunc != nil {
		return m.listTeamsFunc(ctx, userID, now)
	}
	return nil, nil
}

func (m *mockProgression) ClaimTeamChallenge(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error) {
	if m.claimTeamFunc != nil {
		return m.claimTeamFunc(ctx, userID, challengeID, now)
	}
	return &engine.Outcome{Progression: model.NewUserProgression(userID, now)}, nil
}

// ============================================================================
// Mock Catalog and Leaderboards
// ============================================================================

type mockCatalog struct {
	public      service.PublicCatalog
	proposeFunc func(ctx context.Context, b model.Badge) (*model.Badge, error)
}

func (m *mockCatalog) Public() service.PublicCatalog {
	return m.public
}

func (m *mockCatalog) ProposeBadge(ctx context.Context, b model.Badge) (*model.Badge, error) {
	if m.proposeFunc != nil {
		return m.proposeFunc(ctx, b)
	}
	return &b, nil
}

type mockBoards struct {
	segments     []model.LeaderboardSegment
	getBoardFunc func(ctx context.Context, segment model.SegmentID, now time.Time) (*model.Leaderboard, error)
	refreshFunc  func(ctx context.Context, now time.Time) ([]model.Leaderboard, error)
}

func (m *mockBoards) Segments() []model.LeaderboardSegment {
	return m.segments
}

func (m *mockBoards) GetBoard(ctx context.Context, segment model.SegmentID, now time.Time) (*model.Leaderboard, error) {
	if m.getBoardFunc != nil {
		return m.getBoardFunc(ctx, segment, now)
	}
	return &model.Leaderboard{Segment: segment}, nil
}

func (m *mockBoards) Refresh(ctx context.Context, now time.Time) ([]model.Leaderboard, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, now)
	}
	return nil, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// ============================================================================
// Helpers
// ============================================================================

func serve(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// decodeData unwraps the {"data": ...} envelope into v
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var p model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}
