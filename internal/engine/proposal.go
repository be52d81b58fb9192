package engine

import (
	"errors"
	"math"
	"strings"

	"github.com/forgo/ascend/api/internal/model"
)

// ValidateBadge checks a badge against the catalog invariants. Badges
// produced by the content generator go through this before they are stored.
func ValidateBadge(b model.Badge) error {
	return validateBadgeAt("badge", b)
}

func validateBadgeAt(path string, b model.Badge) error {
	var errs []error
	if strings.TrimSpace(b.ID) == "" {
		errs = append(errs, catalogErr(path, ErrInvalidBadge, "id is required"))
	}
	if b.ID == model.HiddenPlaceholder {
		errs = append(errs, catalogErr(path, ErrInvalidBadge, "id %q is reserved", b.ID))
	}
	if strings.TrimSpace(b.Name) == "" {
		errs = append(errs, catalogErr(path, ErrInvalidBadge, "name is required"))
	}
	if !b.Rarity.IsValid() {
		errs = append(errs, catalogErr(path, ErrInvalidBadge, "unknown rarity %q", b.Rarity))
	}
	if b.PointsValue < 0 {
		errs = append(errs, catalogErr(path, ErrInvalidBadge, "points_value must not be negative"))
	}

	switch b.Criteria.Type {
	case model.CriteriaManual:
	case model.CriteriaMetric:
		if !b.Criteria.Metric.IsValid() {
			errs = append(errs, catalogErr(path, ErrUnknownMetric, "criteria references %q", b.Criteria.Metric))
		}
		if !positiveFinite(b.Criteria.Threshold) {
			errs = append(errs, catalogErr(path, ErrInvalidBadge, "threshold must be positive"))
		}
	default:
		errs = append(errs, catalogErr(path, ErrInvalidBadge, "unknown criteria type %q", b.Criteria.Type))
	}
	return errors.Join(errs...)
}

// ValidateChallenge checks a proposed challenge before it is created.
// AI-generated challenges get no special treatment.
func ValidateChallenge(ch model.PersonalChallenge) error {
	const path = "challenge"
	var errs []error
	if strings.TrimSpace(ch.OwnerID) == "" {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "owner is required"))
	}
	if strings.TrimSpace(ch.Title) == "" {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "title is required"))
	}
	if !ch.TargetMetric.IsValid() {
		errs = append(errs, catalogErr(path, ErrUnknownMetric, "target_metric %q", ch.TargetMetric))
	}
	if !positiveFinite(ch.TargetValue) {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "target_value must be positive"))
	}
	if ch.PointsReward < 0 {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "points_reward must not be negative"))
	}
	if ch.StartDate.IsZero() || ch.EndDate.IsZero() {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "start_date and end_date are required"))
	} else if !ch.EndDate.After(ch.StartDate) {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "end_date must be after start_date"))
	}
	if ch.CurrentProgress < 0 || math.IsNaN(ch.CurrentProgress) {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "current_progress must not be negative"))
	}
	return errors.Join(errs...)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
