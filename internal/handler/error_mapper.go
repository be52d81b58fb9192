package handler

import (
	"errors"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/model"
	"github.com/forgo/ascend/api/internal/service"
)

// MapServiceError converts a service or engine error to a ProblemDetails
// response. Engine errors arrive wrapped, so every case matches with
// errors.Is or errors.As.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var (
		short      *engine.InsufficientPointsError
		limited    *engine.RedemptionLimitError
		catalogErr *engine.CatalogError
	)

	switch {
	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrChallengeNotFound),
		errors.Is(err, engine.ErrChallengeOwner),
		errors.Is(err, engine.ErrNotTeamMember):
		return model.NewNotFoundError("challenge")
	case errors.Is(err, engine.ErrUnknownBadge):
		return model.NewNotFoundError("badge")
	case errors.Is(err, engine.ErrUnknownReward):
		return model.NewNotFoundError("reward")
	case errors.Is(err, engine.ErrUnknownSegment):
		return model.NewNotFoundError("leaderboard segment")
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("record")

	// ===== Invariant Violations → 409 =====
	case errors.Is(err, engine.ErrBadgeAlreadyAwarded),
		errors.Is(err, engine.ErrChallengeAlreadyClaimed),
		errors.Is(err, engine.ErrLifetimeDecrease),
		errors.Is(err, engine.ErrTotalExceedsLifetime),
		errors.Is(err, engine.ErrNegativePoints),
		errors.Is(err, engine.ErrStreakDecrease),
		errors.Is(err, engine.ErrBadgeRevoked):
		return model.NewInvariantError(err.Error())

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrConcurrentUpdate):
		return model.NewConflictError(service.ErrConcurrentUpdate.Error())
	case errors.Is(err, service.ErrBadgeExists):
		return model.NewConflictError(err.Error())
	case errors.Is(err, database.ErrDuplicate),
		errors.Is(err, database.ErrConflict):
		return model.NewConflictError("the record was modified concurrently, retry the request")

	// ===== Points and Rewards → 422 =====
	case errors.As(err, &short):
		return model.NewInsufficientPointsError(short.Required, short.Available)
	case errors.Is(err, engine.ErrInsufficientPoints):
		return model.NewValidationError([]model.FieldError{{Field: "points", Message: err.Error()}})
	case errors.As(err, &limited):
		return model.NewLimitExceededError(limited.RewardID+" redemptions", limited.Limit, limited.Redeemed)
	case errors.Is(err, engine.ErrRedemptionLimit):
		return model.NewValidationError([]model.FieldError{{Field: "reward", Message: err.Error()}})
	case errors.Is(err, engine.ErrRewardUnavailable):
		return model.NewValidationError([]model.FieldError{{Field: "reward", Message: err.Error()}})

	// ===== Challenge State → 422 =====
	case errors.Is(err, engine.ErrChallengeExpired),
		errors.Is(err, engine.ErrChallengeIncomplete):
		return model.NewChallengeStateError(err.Error())

	// ===== Badge Awards → 422 =====
	case errors.Is(err, engine.ErrManualBadgeOnly):
		return model.NewValidationError([]model.FieldError{{Field: "badge", Message: err.Error()}})

	// ===== Catalog and Proposal Errors → 422 =====
	case errors.As(err, &catalogErr):
		return model.NewCatalogError(err.Error())

	// ===== Input Errors → 422 =====
	case errors.Is(err, engine.ErrInvalidEvent),
		errors.Is(err, engine.ErrUserMismatch):
		return model.NewValidationError([]model.FieldError{{Field: "event", Message: err.Error()}})
	case errors.Is(err, engine.ErrInvalidAmount):
		return model.NewValidationError([]model.FieldError{{Field: "amount", Message: err.Error()}})

	// ===== Unavailable → 503 =====
	case errors.Is(err, service.ErrLeaderboardUnavailable):
		return model.NewUnavailableError(service.ErrLeaderboardUnavailable.Error())
	case errors.Is(err, service.ErrTeamsDisabled):
		return model.NewUnavailableError(service.ErrTeamsDisabled.Error())
	case errors.Is(err, database.ErrConnection):
		pd := model.NewUnavailableError("storage is unavailable, retry the request")
		pd.Code = model.ErrCodeDatabase
		return pd

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
