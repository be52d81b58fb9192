package engine

import (
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// StreakState is the streak slice of a UserProgression
type StreakState struct {
	Current        int
	Longest        int
	LastActivityAt *time.Time
}

func streakOf(p *model.UserProgression) StreakState {
	return StreakState{
		Current:        p.StreakDays,
		Longest:        p.LongestStreak,
		LastActivityAt: p.LastActivityAt,
	}
}

// dayNumber is the calendar day of t in loc as a day count
func dayNumber(t time.Time, loc *time.Location) int64 {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// AdvanceStreak applies an activity at t. Same-day activity leaves the streak
// unchanged, the next calendar day extends it, and any larger gap restarts it
// at one. Activity dated before the last recorded day is ignored.
func AdvanceStreak(s StreakState, t time.Time, loc *time.Location) StreakState {
	next := StreakState{Current: s.Current, Longest: s.Longest}
	if s.LastActivityAt != nil {
		last := *s.LastActivityAt
		next.LastActivityAt = &last
	}

	if s.LastActivityAt == nil {
		next.Current = 1
		next.LastActivityAt = &t
	} else {
		gap := dayNumber(t, loc) - dayNumber(*s.LastActivityAt, loc)
		switch {
		case gap < 0:
			// out-of-order event
		case gap == 0:
			if next.Current < 1 {
				next.Current = 1
			}
			if t.After(*s.LastActivityAt) {
				next.LastActivityAt = &t
			}
		case gap == 1:
			next.Current = max(next.Current, 0) + 1
			next.LastActivityAt = &t
		default:
			next.Current = 1
			next.LastActivityAt = &t
		}
	}

	next.Longest = max(next.Longest, next.Current)
	return next
}

// EffectiveStreak is the streak as of now with the lazy reset applied:
// a streak whose last activity is more than one calendar day old reads as 0.
func EffectiveStreak(s StreakState, now time.Time, loc *time.Location) int {
	if s.LastActivityAt == nil || s.Current <= 0 {
		return 0
	}
	if dayNumber(now, loc)-dayNumber(*s.LastActivityAt, loc) > 1 {
		return 0
	}
	return s.Current
}

// StreakAtRisk reports whether more than 24h passed since the last activity
// while the streak is still alive
func StreakAtRisk(s StreakState, now time.Time, loc *time.Location) bool {
	if EffectiveStreak(s, now, loc) == 0 {
		return false
	}
	return now.Sub(*s.LastActivityAt) > 24*time.Hour
}

// StreakHeatFor buckets a streak length
func StreakHeatFor(days int) model.StreakHeat {
	switch {
	case days >= 100:
		return model.StreakInferno
	case days >= 30:
		return model.StreakBlazing
	case days >= 14:
		return model.StreakHot
	case days >= 7:
		return model.StreakWarm
	case days >= 3:
		return model.StreakStarting
	}
	return model.StreakCold
}

// NextMilestone returns the next celebrated streak length above days
func NextMilestone(days int) int {
	for _, m := range model.StreakMilestones {
		if days < m {
			return m
		}
	}
	return days + 30
}

// StreakStatusFor builds the read-side streak view
func StreakStatusFor(p *model.UserProgression, now time.Time, loc *time.Location) model.StreakStatus {
	s := streakOf(p)
	current := EffectiveStreak(s, now, loc)
	return model.StreakStatus{
		Current:        current,
		Longest:        s.Longest,
		LastActivityAt: s.LastActivityAt,
		AtRisk:         StreakAtRisk(s, now, loc),
		Heat:           StreakHeatFor(current),
		NextMilestone:  NextMilestone(current),
	}
}
