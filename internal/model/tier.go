package model

// AchievementTier is one row of the ordered tier table
type AchievementTier struct {
	Level          int      `json:"tier_level" yaml:"tier_level"`
	Name           string   `json:"name" yaml:"name"`
	PointsRequired int64    `json:"points_required" yaml:"points_required"`
	Multiplier     float64  `json:"multiplier" yaml:"multiplier"`
	Perks          []string `json:"perks,omitempty" yaml:"perks,omitempty"`
}

// TierProgress is the distance from the current tier to the next
type TierProgress struct {
	Current         AchievementTier  `json:"current"`
	Next            *AchievementTier `json:"next,omitempty"`
	PointsNeeded    int64            `json:"points_needed"`
	PercentComplete float64          `json:"percent_complete"`
}

// LevelProgress is the position within the XP curve
type LevelProgress struct {
	Level            int     `json:"level"`
	ExperiencePoints int64   `json:"experience_points"`
	CurrentLevelXP   int64   `json:"current_level_xp"`
	NextLevelXP      int64   `json:"next_level_xp"`
	ProgressPercent  float64 `json:"progress_percent"`
}
