package model

import "time"

// SegmentID names a leaderboard view
type SegmentID string

const (
	SegmentGlobal           SegmentID = "global"
	SegmentNewcomers        SegmentID = "newcomers"
	SegmentPowerUsers       SegmentID = "power_users"
	SegmentStreakMasters    SegmentID = "streak_masters"
	SegmentSocialStars      SegmentID = "social_stars"
	SegmentEventEnthusiasts SegmentID = "event_enthusiasts"
)

// MetricThreshold is a minimum metric value
type MetricThreshold struct {
	Metric MetricKind `json:"metric" yaml:"metric"`
	Min    float64    `json:"min" yaml:"min"`
}

// LeaderboardSegment defines a filter, a score and a display size.
// The score is the sum of Metrics.
type LeaderboardSegment struct {
	ID               SegmentID        `json:"id" yaml:"id"`
	Name             string           `json:"name" yaml:"name"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
	Metrics          []MetricKind     `json:"metrics" yaml:"metrics"`
	JoinedWithinDays int              `json:"joined_within_days,omitempty" yaml:"joined_within_days,omitempty"`
	MinMetric        *MetricThreshold `json:"min_metric,omitempty" yaml:"min_metric,omitempty"`
	Limit            int              `json:"limit" yaml:"limit"`
	ExcludeZero      bool             `json:"exclude_zero" yaml:"exclude_zero"`
	SharedRanks      bool             `json:"shared_ranks" yaml:"shared_ranks"`
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	UserID string  `json:"user_id"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
}

// Leaderboard is a computed segment view
type Leaderboard struct {
	Segment     SegmentID          `json:"segment"`
	Name        string             `json:"name"`
	Entries     []LeaderboardEntry `json:"entries"`
	Eligible    int                `json:"eligible"`
	GeneratedAt time.Time          `json:"generated_at"`
	Fingerprint string             `json:"fingerprint"`
}

// PlayerStanding is the leaderboard input for one user
type PlayerStanding struct {
	Progression UserProgression `json:"progression"`
	Snapshot    MetricSnapshot  `json:"snapshot"`
}
