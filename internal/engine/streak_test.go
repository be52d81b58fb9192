package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forgo/ascend/api/internal/model"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

// ============================================================================
// AdvanceStreak Tests
// ============================================================================

func TestAdvanceStreak_FirstActivity(t *testing.T) {
	t.Parallel()

	s := AdvanceStreak(StreakState{}, day(2024, 1, 1, 9), time.UTC)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
	assert.Equal(t, day(2024, 1, 1, 9), *s.LastActivityAt)
}

func TestAdvanceStreak_SameDayNoChange(t *testing.T) {
	t.Parallel()

	prior := StreakState{Current: 4, Longest: 4, LastActivityAt: ptr(day(2024, 1, 1, 9))}
	s := AdvanceStreak(prior, day(2024, 1, 1, 22), time.UTC)
	assert.Equal(t, 4, s.Current)
	assert.Equal(t, day(2024, 1, 1, 22), *s.LastActivityAt)
}

func TestAdvanceStreak_NextDayIncrements(t *testing.T) {
	t.Parallel()

	prior := StreakState{Current: 4, Longest: 4, LastActivityAt: ptr(day(2024, 1, 1, 23))}
	s := AdvanceStreak(prior, day(2024, 1, 2, 0), time.UTC)
	assert.Equal(t, 5, s.Current)
	assert.Equal(t, 5, s.Longest)
}

func TestAdvanceStreak_GapResets(t *testing.T) {
	t.Parallel()

	prior := StreakState{Current: 6, Longest: 6, LastActivityAt: ptr(day(2024, 1, 1, 12))}
	s := AdvanceStreak(prior, day(2024, 1, 3, 12), time.UTC)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 6, s.Longest)
}

func TestAdvanceStreak_OutOfOrderIgnored(t *testing.T) {
	t.Parallel()

	prior := StreakState{Current: 3, Longest: 5, LastActivityAt: ptr(day(2024, 1, 5, 12))}
	s := AdvanceStreak(prior, day(2024, 1, 2, 12), time.UTC)
	assert.Equal(t, 3, s.Current)
	assert.Equal(t, 5, s.Longest)
	assert.Equal(t, day(2024, 1, 5, 12), *s.LastActivityAt)
}

func TestAdvanceStreak_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	last := day(2024, 1, 1, 12)
	prior := StreakState{Current: 1, Longest: 1, LastActivityAt: &last}
	_ = AdvanceStreak(prior, day(2024, 1, 2, 12), time.UTC)
	assert.Equal(t, day(2024, 1, 1, 12), last)
}

func TestAdvanceStreak_UsesLocationForDayBoundary(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-01-01 20:00 UTC is already 2024-01-02 in Tokyo
	prior := StreakState{Current: 1, Longest: 1, LastActivityAt: ptr(day(2024, 1, 1, 10))}
	s := AdvanceStreak(prior, day(2024, 1, 1, 20), tokyo)
	assert.Equal(t, 2, s.Current)

	s = AdvanceStreak(prior, day(2024, 1, 1, 20), time.UTC)
	assert.Equal(t, 1, s.Current)
}

// ============================================================================
// Lazy Reset Tests
// ============================================================================

func TestEffectiveStreak_LazyResetMatchesEagerReset(t *testing.T) {
	t.Parallel()

	prior := StreakState{Current: 6, Longest: 6, LastActivityAt: ptr(day(2024, 1, 1, 12))}

	assert.Equal(t, 6, EffectiveStreak(prior, day(2024, 1, 2, 23), time.UTC))
	assert.Equal(t, 0, EffectiveStreak(prior, day(2024, 1, 3, 0), time.UTC))

	// the next event after the lazy reset starts at one either way
	eager := AdvanceStreak(StreakState{Longest: 6, LastActivityAt: prior.LastActivityAt}, day(2024, 1, 3, 8), time.UTC)
	lazy := AdvanceStreak(prior, day(2024, 1, 3, 8), time.UTC)
	assert.Equal(t, eager.Current, lazy.Current)
}

func TestStreakAtRisk(t *testing.T) {
	t.Parallel()

	s := StreakState{Current: 3, Longest: 3, LastActivityAt: ptr(day(2024, 1, 1, 8))}
	assert.False(t, StreakAtRisk(s, day(2024, 1, 1, 20), time.UTC))
	assert.True(t, StreakAtRisk(s, day(2024, 1, 2, 9), time.UTC))
	assert.False(t, StreakAtRisk(s, day(2024, 1, 3, 9), time.UTC), "already broken")
	assert.False(t, StreakAtRisk(StreakState{}, day(2024, 1, 3, 9), time.UTC))
}

func TestStreakHeatAndMilestones(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.StreakCold, StreakHeatFor(2))
	assert.Equal(t, model.StreakStarting, StreakHeatFor(3))
	assert.Equal(t, model.StreakWarm, StreakHeatFor(7))
	assert.Equal(t, model.StreakHot, StreakHeatFor(14))
	assert.Equal(t, model.StreakBlazing, StreakHeatFor(30))
	assert.Equal(t, model.StreakInferno, StreakHeatFor(100))

	assert.Equal(t, 3, NextMilestone(0))
	assert.Equal(t, 7, NextMilestone(3))
	assert.Equal(t, 100, NextMilestone(60))
	assert.Equal(t, 130, NextMilestone(100))
}

func TestStreakStatusFor(t *testing.T) {
	t.Parallel()

	p := &model.UserProgression{StreakDays: 8, LongestStreak: 10, LastActivityAt: ptr(day(2024, 1, 1, 8))}
	status := StreakStatusFor(p, day(2024, 1, 2, 12), time.UTC)
	assert.Equal(t, 8, status.Current)
	assert.Equal(t, 10, status.Longest)
	assert.True(t, status.AtRisk)
	assert.Equal(t, model.StreakWarm, status.Heat)
	assert.Equal(t, 14, status.NextMilestone)
}
