package engine

import (
	"math"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// credit adds earned points to both balances
func credit(p *model.UserProgression, points int64) error {
	if points < 0 {
		return ErrNegativePoints
	}
	p.TotalPoints += points
	p.LifetimePoints += points
	return nil
}

// debit spends points from the balance; lifetime points are untouched
func debit(p *model.UserProgression, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > p.TotalPoints {
		return &InsufficientPointsError{Required: amount, Available: p.TotalPoints}
	}
	p.TotalPoints -= amount
	return nil
}

// scalePoints applies the multiplier, rounds half away from zero and caps
func scalePoints(base int64, multiplier float64, limit int64) int64 {
	if base <= 0 {
		return 0
	}
	if multiplier <= 0 || math.IsNaN(multiplier) {
		multiplier = 1
	}
	points := int64(math.Round(float64(base) * multiplier))
	if limit > 0 && points > limit {
		points = limit
	}
	return points
}

func isWeekend(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// VerifyTransition checks the invariants that hold between any two
// successive states of a user: lifetime points never decrease, the balance
// never exceeds lifetime points, the longest streak never decreases and
// earned badges are kept without duplicates.
func VerifyTransition(before, after *model.UserProgression) error {
	if after.LifetimePoints < before.LifetimePoints {
		return ErrLifetimeDecrease
	}
	if after.TotalPoints > after.LifetimePoints {
		return ErrTotalExceedsLifetime
	}
	if after.TotalPoints < 0 {
		return ErrInsufficientPoints
	}
	if after.LongestStreak < before.LongestStreak {
		return ErrStreakDecrease
	}

	seen := make(map[string]struct{}, len(after.BadgesEarned))
	for _, id := range after.BadgesEarned {
		if _, dup := seen[id]; dup {
			return ErrBadgeAlreadyAwarded
		}
		seen[id] = struct{}{}
	}
	for _, id := range before.BadgesEarned {
		if _, kept := seen[id]; !kept {
			return ErrBadgeRevoked
		}
	}
	return nil
}
