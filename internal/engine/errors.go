package engine

import (
	"errors"
	"fmt"
)

// ===== Invariant Violations =====
// Returned when a caller attempts a transition that would break a
// progression invariant. These indicate a caller bug or a race that
// bypassed per-user serialization.
var (
	ErrLifetimeDecrease        = errors.New("lifetime points cannot decrease")
	ErrTotalExceedsLifetime    = errors.New("total points cannot exceed lifetime points")
	ErrBadgeAlreadyAwarded     = errors.New("badge already awarded")
	ErrChallengeAlreadyClaimed = errors.New("challenge already claimed")
	ErrNegativePoints          = errors.New("negative points not allowed")
	ErrStreakDecrease          = errors.New("longest streak cannot decrease")
	ErrBadgeRevoked            = errors.New("earned badges cannot be removed")
)

// ===== State Errors =====
var (
	ErrChallengeExpired    = errors.New("challenge expired")
	ErrChallengeIncomplete = errors.New("challenge target not reached")
	ErrChallengeOwner      = errors.New("challenge belongs to another user")
	ErrNotTeamMember       = errors.New("user is not on the challenge team")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrRedemptionLimit     = errors.New("redemption limit exceeded")
	ErrRewardUnavailable   = errors.New("reward not available")
	ErrUnknownBadge        = errors.New("unknown badge")
	ErrUnknownReward       = errors.New("unknown reward")
	ErrUnknownSegment      = errors.New("unknown leaderboard segment")
	ErrManualBadgeOnly     = errors.New("only manual badges can be awarded directly")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrUserMismatch        = errors.New("event user does not match progression")
	ErrInvalidEvent        = errors.New("invalid activity event")
)

// ===== Configuration Errors =====
var (
	ErrInvalidTierTable = errors.New("invalid tier table")
	ErrUnknownMetric    = errors.New("unknown metric kind")
	ErrInvalidBadge     = errors.New("invalid badge")
	ErrInvalidChallenge = errors.New("invalid challenge")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrInvalidSegment   = errors.New("invalid leaderboard segment")
	ErrInvalidReward    = errors.New("invalid reward")
	ErrInvalidCurve     = errors.New("invalid level curve")
)

// CatalogError locates a configuration problem within the catalog
type CatalogError struct {
	Path string
	Err  error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func catalogErr(path string, err error, format string, args ...interface{}) error {
	return &CatalogError{Path: path, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}

// InsufficientPointsError reports a debit larger than the balance
type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("%v: %d required, %d available", ErrInsufficientPoints, e.Required, e.Available)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

// RedemptionLimitError reports a reward already redeemed MaxPerUser times
type RedemptionLimitError struct {
	RewardID string
	Limit    int
	Redeemed int
}

func (e *RedemptionLimitError) Error() string {
	return fmt.Sprintf("%v: %s redeemed %d of %d times", ErrRedemptionLimit, e.RewardID, e.Redeemed, e.Limit)
}

func (e *RedemptionLimitError) Unwrap() error {
	return ErrRedemptionLimit
}
