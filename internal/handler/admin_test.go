package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/middleware"
	"github.com/forgo/ascend/api/internal/model"
	"github.com/forgo/ascend/api/internal/service"
)

const testAdminKey = "admin-secret"

func newAdminMux(progression *mockProgression, catalog *mockCatalog, boards *mockBoards) *http.ServeMux {
	h := NewAdminHandler(progression, catalog, boards)
	h.now = func() time.Time { return testNow }
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, middleware.AdminKey(testAdminKey))
	return mux
}

func adminHeaders(adminID string) map[string]string {
	headers := map[string]string{"Authorization": "Bearer " + testAdminKey}
	if adminID != "" {
		headers["X-Admin-ID"] = adminID
	}
	return headers
}

// ============================================================================
// AwardBadge Tests
// ============================================================================

func TestAwardBadge_RequiresAdminKey(t *testing.T) {
	t.Parallel()

	called := false
	progression := &mockProgression{
		awardBadgeFunc: func(ctx context.Context, userID, badgeID, awardedBy string, now time.Time) (*engine.Outcome, error) {
			called = true
			return nil, nil
		},
	}
	mux := newAdminMux(progression, &mockCatalog{}, &mockBoards{})

	rr := serve(mux, http.MethodPost, "/v1/admin/users/u1/badges/culture_champion", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(mux, http.MethodPost, "/v1/admin/users/u1/badges/culture_champion", "",
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

func TestAwardBadge_RecordsAdmin(t *testing.T) {
	t.Parallel()

	var gotUser, gotBadge, gotBy string
	progression := &mockProgression{
		awardBadgeFunc: func(ctx context.Context, userID, badgeID, awardedBy string, now time.Time) (*engine.Outcome, error) {
			gotUser, gotBadge, gotBy = userID, badgeID, awardedBy
			p := model.NewUserProgression(userID, now)
			p.BadgesEarned = []string{badgeID}
			p.TotalPoints, p.LifetimePoints = 250, 250
			return &engine.Outcome{Progression: p, Delta: model.ProgressionDelta{NewBadgeIDs: []string{badgeID}}}, nil
		},
	}

	rr := serve(newAdminMux(progression, &mockCatalog{}, &mockBoards{}),
		http.MethodPost, "/v1/admin/users/u1/badges/culture_champion", "", adminHeaders("ops-lead"))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "culture_champion", gotBadge)
	assert.Equal(t, "ops-lead", gotBy)

	var resp OutcomeResponse
	decodeData(t, rr, &resp)
	assert.Equal(t, int64(250), resp.Progression.LifetimePoints)
}

func TestAwardBadge_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown badge", engine.ErrUnknownBadge, http.StatusNotFound},
		{"automatic badge", engine.ErrManualBadgeOnly, http.StatusUnprocessableEntity},
		{"already awarded", engine.ErrBadgeAlreadyAwarded, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			progression := &mockProgression{
				awardBadgeFunc: func(ctx context.Context, userID, badgeID, awardedBy string, now time.Time) (*engine.Outcome, error) {
					return nil, tt.err
				},
			}

			rr := serve(newAdminMux(progression, &mockCatalog{}, &mockBoards{}),
				http.MethodPost, "/v1/admin/users/u1/badges/first_steps", "", adminHeaders(""))

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

// ============================================================================
// ProposeBadge Tests
// ============================================================================

const badgeBody = `{
	"id": "mentor",
	"name": "Mentor",
	"rarity": "rare",
	"points_value": 40,
	"criteria": {"type": "metric", "metric": "recognitions_given", "threshold": 10},
	"is_hidden": false
}`

func TestProposeBadge_Success(t *testing.T) {
	t.Parallel()

	var got model.Badge
	catalog := &mockCatalog{
		proposeFunc: func(ctx context.Context, b model.Badge) (*model.Badge, error) {
			got = b
			return &b, nil
		},
	}

	rr := serve(newAdminMux(&mockProgression{}, catalog, &mockBoards{}),
		http.MethodPost, "/v1/admin/catalog/badges", badgeBody, adminHeaders(""))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "mentor", got.ID)
	assert.Equal(t, model.CriteriaMetric, got.Criteria.Type)
	assert.InDelta(t, 10.0, got.Criteria.Threshold, 0.001)
}

func TestProposeBadge_Invalid(t *testing.T) {
	t.Parallel()

	rr := serve(newAdminMux(&mockProgression{}, &mockCatalog{}, &mockBoards{}),
		http.MethodPost, "/v1/admin/catalog/badges", `{"id":"mentor","points_value":-5}`, adminHeaders(""))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	problem := decodeProblem(t, rr)
	var fields []string
	for _, fe := range problem.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "rarity", "points_value"}, fields)
}

func TestProposeBadge_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   model.ErrorCode
	}{
		{"exists", fmt.Errorf("%w: mentor", service.ErrBadgeExists), http.StatusConflict, model.ErrCodeConflict},
		{"bad metric", errors.Join(&engine.CatalogError{Path: "badges[mentor]", Err: engine.ErrUnknownMetric}), http.StatusUnprocessableEntity, model.ErrCodeCatalog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			catalog := &mockCatalog{
				proposeFunc: func(ctx context.Context, b model.Badge) (*model.Badge, error) {
					return nil, tt.err
				},
			}

			rr := serve(newAdminMux(&mockProgression{}, catalog, &mockBoards{}),
				http.MethodPost, "/v1/admin/catalog/badges", badgeBody, adminHeaders(""))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, decodeProblem(t, rr).Code)
		})
	}
}

// ============================================================================
// Maintenance Tests
// ============================================================================

func TestRefreshLeaderboards(t *testing.T) {
	t.Parallel()

	boards := &mockBoards{
		refreshFunc: func(ctx context.Context, now time.Time) ([]model.Leaderboard, error) {
			assert.True(t, now.Equal(testNow))
			return []model.Leaderboard{{Segment: model.SegmentGlobal}, {Segment: model.SegmentNewcomers}}, nil
		},
	}

	rr := serve(newAdminMux(&mockProgression{}, &mockCatalog{}, boards),
		http.MethodPost, "/v1/admin/leaderboards/refresh", "", adminHeaders(""))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"segments":2}}`, rr.Body.String())
}

func TestExpireChallenges(t *testing.T) {
	t.Parallel()

	progression := &mockProgression{
		expireChallengesFunc: func(ctx context.Context, now time.Time) (int, error) {
			return 3, nil
		},
	}

	rr := serve(newAdminMux(progression, &mockCatalog{}, &mockBoards{}),
		http.MethodPost, "/v1/admin/challenges/expire", "", adminHeaders(""))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"expired":3}}`, rr.Body.String())
}

func TestExpireChallenges_Failure(t *testing.T) {
	t.Parallel()

	progression := &mockProgression{
		expireChallengesFunc: func(ctx context.Context, now time.Time) (int, error) {
			return 0, errors.New("list failed")
		},
	}

	rr := serve(newAdminMux(progression, &mockCatalog{}, &mockBoards{}),
		http.MethodPost, "/v1/admin/challenges/expire", "", adminHeaders(""))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "expire challenges: an unexpected error occurred", decodeProblem(t, rr).Detail)
}

// ============================================================================
// CreateTeamChallenge Tests
// ============================================================================

const teamChallengeBody = `{
	"team_id": "team-7",
	"title": "Ten events together",
	"target_metric": "events_attended",
	"target_value": 10,
	"points_reward": 40,
	"members": ["u1", "u2"],
	"start_date": "2024-01-01T00:00:00Z",
	"end_date": "2024-01-31T00:00:00Z"
}`

func TestCreateTeamChallenge_Success(t *testing.T) {
	t.Parallel()

	var got model.TeamChallenge
	progression := &mockProgression{
		createTeamFunc: func(ctx context.Context, ch model.TeamChallenge) (*model.TeamChallenge, error) {
			got = ch
			ch.ID = "tc-1"
			return &ch, nil
		},
	}

	rr := serve(newAdminMux(progression, &mockCatalog{}, &mockBoards{}),
		http.MethodPost, "/v1/admin/team-challenges", teamChallengeBody, adminHeaders("admin-1"))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "team-7", got.TeamID)
	assert.Equal(t, []string{"u1", "u2"}, got.Members)
	assert.Equal(t, "admin-1", got.CreatedBy)
	assert.Contains(t, rr.Body.String(), "/v1/team-challenges/tc-1")
}

func TestCreateTeamChallenge_RequiresAdminID(t *testing.T) {
	t.Parallel()

	rr := serve(newAdminMux(&mockProgression{}, &mockCatalog{}, &mockBoards{}),
		http.MethodPost, "/v1/admin/team-challenges", teamChallengeBody, adminHeaders(""))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateTeamChallenge_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing team", `{"title":"x","target_metric":"events_attended","target_value":3,"members":["u1"],"start_date":"2024-01-01T00:00:00Z","end_date":"2024-01-31T00:00:00Z"}`, "team_id"},
		{"no members", `{"team_id":"t","title":"x","target_metric":"events_attended","target_value":3,"members":[],"start_date":"2024-01-01T00:00:00Z","end_date":"2024-01-31T00:00:00Z"}`, "members"},
		{"duplicate members", `{"team_id":"t","title":"x","target_metric":"events_attended","target_value":3,"members":["u1","u1"],"start_date":"2024-01-01T00:00:00Z","end_date":"2024-01-31T00:00:00Z"}`, "members"},
		{"ends before start", `{"team_id":"t","title":"x","target_metric":"events_attended","target_value":3,"members":["u1"],"start_date":"2024-01-31T00:00:00Z","end_date":"2024-01-01T00:00:00Z"}`, "end_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := serve(newAdminMux(&mockProgression{}, &mockCatalog{}, &mockBoards{}),
				http.MethodPost, "/v1/admin/team-challenges", tt.body, adminHeaders("admin-1"))

			require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			var fields []string
			for _, fe := range decodeProblem(t, rr).Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestCreateTeamChallenge_NotConfigured(t *testing.T) {
	t.Parallel()

	progression := &mockProgression{
		createTeamFunc: func(ctx context.Context, ch model.TeamChallenge) (*model.TeamChallenge, error) {
			return nil, service.ErrTeamsDisabled
		},
	}

	rr := serve(newAdminMux(progression, &mockCatalog{}, &mockBoards{}),
		http.MethodPost, "/v1/admin/team-challenges", teamChallengeBody, adminHeaders("admin-1"))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
