package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/forgo/ascend/api/internal/model"
)

// LevelCurve maps a level to the cumulative experience required to reach it.
// Threshold must be zero at level 0 and strictly increasing.
type LevelCurve interface {
	Threshold(level int) int64
}

// LinearCurve requires Level * PointsPerLevel cumulative experience
type LinearCurve struct {
	PointsPerLevel int64
}

// DefaultPointsPerLevel is the product's current XP step
const DefaultPointsPerLevel = 100

// Threshold implements LevelCurve
func (c LinearCurve) Threshold(level int) int64 {
	if level <= 0 {
		return 0
	}
	return int64(level) * c.PointsPerLevel
}

// LevelFor returns the highest level whose threshold is at most xp.
// Negative experience is treated as zero.
func LevelFor(curve LevelCurve, xp int64) int {
	if xp <= 0 {
		return 0
	}
	if lc, ok := curve.(LinearCurve); ok && lc.PointsPerLevel > 0 {
		return int(xp / lc.PointsPerLevel)
	}
	level := 0
	for curve.Threshold(level+1) <= xp {
		level++
	}
	return level
}

// LevelProgressFor describes the position of xp on the curve
func LevelProgressFor(curve LevelCurve, xp int64) model.LevelProgress {
	xp = nonNegative(xp)
	level := LevelFor(curve, xp)
	current := curve.Threshold(level)
	next := curve.Threshold(level + 1)

	var pct float64
	if span := next - current; span > 0 {
		pct = roundTo(float64(xp-current)/float64(span)*100, 2)
	}

	return model.LevelProgress{
		Level:            level,
		ExperiencePoints: xp - current,
		CurrentLevelXP:   current,
		NextLevelXP:      next,
		ProgressPercent:  pct,
	}
}

func validateCurve(curve LevelCurve) error {
	if curve == nil {
		return fmt.Errorf("%w: curve is nil", ErrInvalidCurve)
	}
	if curve.Threshold(0) != 0 {
		return fmt.Errorf("%w: level 0 must require 0 experience", ErrInvalidCurve)
	}
	for l := 1; l <= 10; l++ {
		if curve.Threshold(l) <= curve.Threshold(l-1) {
			return fmt.Errorf("%w: thresholds must strictly increase (level %d)", ErrInvalidCurve, l)
		}
	}
	return nil
}

// TierTable is a validated, ordered achievement tier table
type TierTable struct {
	tiers []model.AchievementTier
}

// NewTierTable validates and sorts tiers. Levels must be 1..N without gaps
// or duplicates, the first tier must require 0 points, points_required must
// strictly increase and multipliers must be >= 1 and non-decreasing.
func NewTierTable(tiers []model.AchievementTier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, catalogErr("tiers", ErrInvalidTierTable, "at least one tier is required")
	}

	sorted := make([]model.AchievementTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	for i, t := range sorted {
		path := fmt.Sprintf("tiers[%d]", t.Level)
		if t.Level != i+1 {
			if i > 0 && t.Level == sorted[i-1].Level {
				return nil, catalogErr(path, ErrInvalidTierTable, "duplicate tier level %d", t.Level)
			}
			return nil, catalogErr(path, ErrInvalidTierTable, "tier levels must be 1..%d, found %d", len(sorted), t.Level)
		}
		if t.Multiplier < 1 || math.IsNaN(t.Multiplier) || math.IsInf(t.Multiplier, 0) {
			return nil, catalogErr(path, ErrInvalidTierTable, "multiplier %.2f must be >= 1", t.Multiplier)
		}
		if i == 0 {
			if t.PointsRequired != 0 {
				return nil, catalogErr(path, ErrInvalidTierTable, "first tier must require 0 points")
			}
			continue
		}
		prev := sorted[i-1]
		if t.PointsRequired <= prev.PointsRequired {
			return nil, catalogErr(path, ErrInvalidTierTable, "points_required must strictly increase (%d <= %d)", t.PointsRequired, prev.PointsRequired)
		}
		if t.Multiplier < prev.Multiplier {
			return nil, catalogErr(path, ErrInvalidTierTable, "multiplier must not decrease (%.2f < %.2f)", t.Multiplier, prev.Multiplier)
		}
	}

	return &TierTable{tiers: sorted}, nil
}

// Tiers returns a copy of the ordered table
func (tt *TierTable) Tiers() []model.AchievementTier {
	out := make([]model.AchievementTier, len(tt.tiers))
	copy(out, tt.tiers)
	return out
}

// TierFor returns the tier with the largest points_required <= lifetime
func (tt *TierTable) TierFor(lifetime int64) model.AchievementTier {
	idx := sort.Search(len(tt.tiers), func(i int) bool {
		return tt.tiers[i].PointsRequired > lifetime
	})
	if idx == 0 {
		return tt.tiers[0]
	}
	return tt.tiers[idx-1]
}

// Progress reports the distance from the current tier to the next
func (tt *TierTable) Progress(lifetime int64) model.TierProgress {
	lifetime = nonNegative(lifetime)
	current := tt.TierFor(lifetime)
	progress := model.TierProgress{Current: current, PercentComplete: 100}

	if current.Level < len(tt.tiers) {
		next := tt.tiers[current.Level]
		progress.Next = &next
		progress.PointsNeeded = next.PointsRequired - lifetime
		span := next.PointsRequired - current.PointsRequired
		progress.PercentComplete = roundTo(float64(lifetime-current.PointsRequired)/float64(span)*100, 2)
	}
	return progress
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
