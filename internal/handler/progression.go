package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/model"
	"github.com/forgo/ascend/api/internal/service"
)

// ProgressionOperations is the subset of ProgressionService used by the
// user-facing endpoints
type ProgressionOperations interface {
	RecordActivity(ctx context.Context, ev model.ActivityEvent) (*engine.Outcome, error)
	GetDashboard(ctx context.Context, userID string, now time.Time) (*model.Dashboard, error)
	GetLedger(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error)
	CreateChallenge(ctx context.Context, ch model.PersonalChallenge) (*model.PersonalChallenge, error)
	ClaimChallenge(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error)
	RedeemReward(ctx context.Context, userID, rewardID string, now time.Time) (*engine.Outcome, error)
	ListBadgeAwards(ctx context.Context, userID string) ([]model.BadgeAward, error)
	GetTeamChallenge(ctx context.Context, id string, now time.Time) (*model.TeamChallengeView, error)
	ListTeamChallenges(ctx context.Context, userID string, now time.Time) ([]model.TeamChallengeView, error)
	ClaimTeamChallenge(ctx context.Context, userID, challengeID string, now time.Time) (*engine.Outcome, error)
}

// ProgressionHandler handles activity intake and per-user progression
type ProgressionHandler struct {
	svc ProgressionOperations
	now func() time.Time
}

// NewProgressionHandler creates a new progression handler
func NewProgressionHandler(svc ProgressionOperations) *ProgressionHandler {
	return &ProgressionHandler{svc: svc, now: time.Now}
}

// RegisterRoutes registers progression routes
func (h *ProgressionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/activity", h.RecordActivity)

	mux.HandleFunc("GET /v1/users/{userId}/progression", h.GetDashboard)
	mux.HandleFunc("GET /v1/users/{userId}/ledger", h.GetLedger)
	mux.HandleFunc("GET /v1/users/{userId}/badges", h.ListBadgeAwards)

	mux.HandleFunc("POST /v1/users/{userId}/challenges", h.CreateChallenge)
	mux.HandleFunc("POST /v1/users/{userId}/challenges/{challengeId}/claim", h.ClaimChallenge)
	mux.HandleFunc("POST /v1/users/{userId}/rewards/{rewardId}/redeem", h.RedeemReward)

	mux.HandleFunc("GET /v1/team-challenges/{challengeId}", h.GetTeamChallenge)
	mux.HandleFunc("GET /v1/users/{userId}/team-challenges", h.ListTeamChallenges)
	mux.HandleFunc("POST /v1/users/{userId}/team-challenges/{challengeId}/claim", h.ClaimTeamChallenge)
}

// OutcomeResponse is the result of a progression transaction
type OutcomeResponse struct {
	Progression *model.UserProgression `json:"progression"`
	Delta       model.ProgressionDelta `json:"delta"`
	Duplicate   bool                   `json:"duplicate"`
}

func newOutcomeResponse(out *engine.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Progression: out.Progression,
		Delta:       out.Delta,
		Duplicate:   out.Duplicate,
	}
}

// CreateChallengeRequest is the body of a personal challenge proposal.
// Challenges generated by an AI assistant are submitted with source "ai".
type CreateChallengeRequest struct {
	Title        string                `json:"title" validate:"required,max=200"`
	Description  string                `json:"description,omitempty" validate:"max=1000"`
	TargetMetric model.MetricKind      `json:"target_metric" validate:"required,metric"`
	TargetValue  float64               `json:"target_value" validate:"gt=0"`
	PointsReward int64                 `json:"points_reward" validate:"gte=0"`
	Difficulty   string                `json:"difficulty,omitempty" validate:"max=32"`
	Source       model.ChallengeSource `json:"source,omitempty" validate:"omitempty,oneof=user ai"`
	StartDate    time.Time             `json:"start_date" validate:"required"`
	EndDate      time.Time             `json:"end_date" validate:"required,gtfield=StartDate"`
}

// RecordActivity handles POST /v1/activity
func (h *ProgressionHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var ev model.ActivityEvent
	if err := DecodeJSON(w, r, &ev); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if problem := ValidateRequest(&ev); problem != nil {
		WriteError(w, problem)
		return
	}

	out, err := h.svc.RecordActivity(r.Context(), ev)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "record activity"))
		return
	}

	status := http.StatusCreated
	if out.Duplicate {
		status = http.StatusOK
	}
	WriteData(w, status, newOutcomeResponse(out), map[string]string{
		"progression": "/v1/users/" + ev.UserID + "/progression",
	})
}

// GetDashboard handles GET /v1/users/{userId}/progression
func (h *ProgressionHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	dashboard, err := h.svc.GetDashboard(r.Context(), userID, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get progression"))
		return
	}

	WriteData(w, http.StatusOK, dashboard, map[string]string{
		"self":   "/v1/users/" + userID + "/progression",
		"ledger": "/v1/users/" + userID + "/ledger",
	})
}

// GetLedger handles GET /v1/users/{userId}/ledger?limit=&offset=
func (h *ProgressionHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	page, ok := pageParams(w, r, service.DefaultLedgerLimit, service.MaxLedgerLimit)
	if !ok {
		return
	}

	entries, err := h.svc.GetLedger(r.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get ledger"))
		return
	}
	if entries == nil {
		entries = []model.PointsLedgerEntry{}
	}

	page.HasMore = len(entries) == page.Limit
	WriteCollection(w, http.StatusOK, entries, &page, nil)
}

// ListBadgeAwards handles GET /v1/users/{userId}/badges
func (h *ProgressionHandler) ListBadgeAwards(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	awards, err := h.svc.ListBadgeAwards(r.Context(), userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list badge awards"))
		return
	}
	if awards == nil {
		awards = []model.BadgeAward{}
	}

	WriteCollection(w, http.StatusOK, awards, nil, map[string]string{
		"progression": "/v1/users/" + userID + "/progression",
	})
}

// CreateChallenge handles POST /v1/users/{userId}/challenges
func (h *ProgressionHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req CreateChallengeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if problem := ValidateRequest(&req); problem != nil {
		WriteError(w, problem)
		return
	}

	ch, err := h.svc.CreateChallenge(r.Context(), model.PersonalChallenge{
		OwnerID:      userID,
		Title:        req.Title,
		Description:  req.Description,
		TargetMetric: req.TargetMetric,
		TargetValue:  req.TargetValue,
		PointsReward: req.PointsReward,
		Difficulty:   req.Difficulty,
		Source:       req.Source,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create challenge"))
		return
	}

	WriteData(w, http.StatusCreated, ch, map[string]string{
		"claim": "/v1/users/" + userID + "/challenges/" + ch.ID + "/claim",
	})
}

// ClaimChallenge handles POST /v1/users/{userId}/challenges/{challengeId}/claim
func (h *ProgressionHandler) ClaimChallenge(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	challengeID := r.PathValue("challengeId")

	out, err := h.svc.ClaimChallenge(r.Context(), userID, challengeID, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "claim challenge"))
		return
	}

	WriteData(w, http.StatusOK, newOutcomeResponse(out), nil)
}

// RedeemReward handles POST /v1/users/{userId}/rewards/{rewardId}/redeem
func (h *ProgressionHandler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	rewardID := r.PathValue("rewardId")

	out, err := h.svc.RedeemReward(r.Context(), userID, rewardID, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "redeem reward"))
		return
	}

	WriteData(w, http.StatusCreated, newOutcomeResponse(out), nil)
}

// GetTeamChallenge handles GET /v1/team-challenges/{challengeId}
func (h *ProgressionHandler) GetTeamChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := r.PathValue("challengeId")

	view, err := h.svc.GetTeamChallenge(r.Context(), challengeID, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get team challenge"))
		return
	}

	WriteData(w, http.StatusOK, view, nil)
}

// ListTeamChallenges handles GET /v1/users/{userId}/team-challenges
func (h *ProgressionHandler) ListTeamChallenges(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	views, err := h.svc.ListTeamChallenges(r.Context(), userID, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list team challenges"))
		return
	}
	if views == nil {
		views = []model.TeamChallengeView{}
	}

	WriteCollection(w, http.StatusOK, views, nil, map[string]string{
		"progression": "/v1/users/" + userID + "/progression",
	})
}

// ClaimTeamChallenge handles POST /v1/users/{userId}/team-challenges/{challengeId}/claim.
// Each member claims their own share of the reward.
func (h *ProgressionHandler) ClaimTeamChallenge(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	challengeID := r.PathValue("challengeId")

	out, err := h.svc.ClaimTeamChallenge(r.Context(), userID, challengeID, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "claim team challenge"))
		return
	}

	WriteData(w, http.StatusOK, newOutcomeResponse(out), map[string]string{
		"challenge": "/v1/team-challenges/" + challengeID,
	})
}
