package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/middleware"
	"github.com/forgo/ascend/api/internal/model"
)

// BadgeAwarder grants manual badges and runs administrative challenge tasks
type BadgeAwarder interface {
	AwardBadge(ctx context.Context, userID, badgeID, awardedBy string, now time.Time) (*engine.Outcome, error)
	ExpireChallenges(ctx context.Context, now time.Time) (int, error)
	CreateTeamChallenge(ctx context.Context, ch model.TeamChallenge) (*model.TeamChallenge, error)
}

// BadgeProposer adds badges to the live catalog
type BadgeProposer interface {
	ProposeBadge(ctx context.Context, b model.Badge) (*model.Badge, error)
}

// BoardRefresher recomputes every leaderboard
type BoardRefresher interface {
	Refresh(ctx context.Context, now time.Time) ([]model.Leaderboard, error)
}

// AdminHandler handles administrative endpoints. Routes are expected to be
// mounted behind middleware.AdminKey.
type AdminHandler struct {
	progression BadgeAwarder
	catalog     BadgeProposer
	boards      BoardRefresher
	now         func() time.Time
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(progression BadgeAwarder, catalog BadgeProposer, boards BoardRefresher) *AdminHandler {
	return &AdminHandler{
		progression: progression,
		catalog:     catalog,
		boards:      boards,
		now:         time.Now,
	}
}

// RegisterRoutes registers admin routes wrapped with the given guard
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("POST /v1/admin/users/{userId}/badges/{badgeId}", guard(http.HandlerFunc(h.AwardBadge)))
	mux.Handle("POST /v1/admin/catalog/badges", guard(http.HandlerFunc(h.ProposeBadge)))
	mux.Handle("POST /v1/admin/leaderboards/refresh", guard(http.HandlerFunc(h.RefreshLeaderboards)))
	mux.Handle("POST /v1/admin/challenges/expire", guard(http.HandlerFunc(h.ExpireChallenges)))
	mux.Handle("POST /v1/admin/team-challenges", guard(http.HandlerFunc(h.CreateTeamChallenge)))
}

// CreateTeamChallengeRequest is the body of a team challenge. Members are
// the user ids whose activity counts toward the shared target.
type CreateTeamChallengeRequest struct {
	TeamID       string           `json:"team_id" validate:"required,max=128"`
	Title        string           `json:"title" validate:"required,max=200"`
	Description  string           `json:"description,omitempty" validate:"max=1000"`
	TargetMetric model.MetricKind `json:"target_metric" validate:"required,metric"`
	TargetValue  float64          `json:"target_value" validate:"gt=0"`
	PointsReward int64            `json:"points_reward" validate:"gte=0"`
	Members      []string         `json:"members" validate:"required,min=1,max=500,unique,dive,required,max=128"`
	StartDate    time.Time        `json:"start_date" validate:"required"`
	EndDate      time.Time        `json:"end_date" validate:"required,gtfield=StartDate"`
}

// AwardBadge handles POST /v1/admin/users/{userId}/badges/{badgeId}
func (h *AdminHandler) AwardBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := middleware.GetAdminID(ctx)
	if adminID == "" {
		WriteError(w, model.NewUnauthorizedError("admin authentication required"))
		return
	}
	userID := r.PathValue("userId")
	badgeID := r.PathValue("badgeId")

	out, err := h.progression.AwardBadge(ctx, userID, badgeID, adminID, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "award badge"))
		return
	}

	WriteData(w, http.StatusCreated, newOutcomeResponse(out), map[string]string{
		"progression": "/v1/users/" + userID + "/progression",
	})
}

// ProposeBadge handles POST /v1/admin/catalog/badges
func (h *AdminHandler) ProposeBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if middleware.GetAdminID(ctx) == "" {
		WriteError(w, model.NewUnauthorizedError("admin authentication required"))
		return
	}

	var badge model.Badge
	if err := DecodeJSON(w, r, &badge); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if problem := ValidateRequest(&badge); problem != nil {
		WriteError(w, problem)
		return
	}

	created, err := h.catalog.ProposeBadge(ctx, badge)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "propose badge"))
		return
	}

	WriteData(w, http.StatusCreated, created, map[string]string{
		"catalog": "/v1/catalog",
	})
}

// RefreshLeaderboards handles POST /v1/admin/leaderboards/refresh
func (h *AdminHandler) RefreshLeaderboards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boards.Refresh(r.Context(), h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "refresh leaderboards"))
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"segments": len(boards),
	}, nil)
}

// ExpireChallenges handles POST /v1/admin/challenges/expire
func (h *AdminHandler) ExpireChallenges(w http.ResponseWriter, r *http.Request) {
	n, err := h.progression.ExpireChallenges(r.Context(), h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "expire challenges"))
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"expired": n,
	}, nil)
}

// CreateTeamChallenge handles POST /v1/admin/team-challenges
func (h *AdminHandler) CreateTeamChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := middleware.GetAdminID(ctx)
	if adminID == "" {
		WriteError(w, model.NewUnauthorizedError("admin authentication required"))
		return
	}

	var req CreateTeamChallengeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if problem := ValidateRequest(&req); problem != nil {
		WriteError(w, problem)
		return
	}

	ch, err := h.progression.CreateTeamChallenge(ctx, model.TeamChallenge{
		TeamID:       req.TeamID,
		Title:        req.Title,
		Description:  req.Description,
		TargetMetric: req.TargetMetric,
		TargetValue:  req.TargetValue,
		PointsReward: req.PointsReward,
		Members:      req.Members,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CreatedBy:    adminID,
	})
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create team challenge"))
		return
	}

	WriteData(w, http.StatusCreated, ch, map[string]string{
		"self": "/v1/team-challenges/" + ch.ID,
	})
}
