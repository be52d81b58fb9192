package model

import "time"

// MetricKind names a per-user counter tracked by the progression engine.
// It is the single canonical vocabulary shared by badge criteria, challenge
// targets, rule conditions and leaderboard scoring.
type MetricKind string

const (
	MetricEventsAttended       MetricKind = "events_attended"
	MetricFeedbackSubmitted    MetricKind = "feedback_submitted"
	MetricActivitiesCompleted  MetricKind = "activities_completed"
	MetricHighEngagement       MetricKind = "high_engagement_events"
	MetricRecognitionsGiven    MetricKind = "recognitions_given"
	MetricRecognitionsReceived MetricKind = "recognitions_received"
	MetricChallengesCompleted  MetricKind = "challenges_completed"
	MetricMediaUploads         MetricKind = "media_uploads"
	MetricContentCreated       MetricKind = "content_created"
	MetricStreakDays           MetricKind = "streak_days"
	MetricLongestStreak        MetricKind = "longest_streak"
	MetricPointsTotal          MetricKind = "points_total"
	MetricLifetimePoints       MetricKind = "lifetime_points"
	MetricWeeklyPoints         MetricKind = "weekly_points"
	MetricBadgesEarned         MetricKind = "badges_earned"
)

var metricKinds = []MetricKind{
	MetricEventsAttended,
	MetricFeedbackSubmitted,
	MetricActivitiesCompleted,
	MetricHighEngagement,
	MetricRecognitionsGiven,
	MetricRecognitionsReceived,
	MetricChallengesCompleted,
	MetricMediaUploads,
	MetricContentCreated,
	MetricStreakDays,
	MetricLongestStreak,
	MetricPointsTotal,
	MetricLifetimePoints,
	MetricWeeklyPoints,
	MetricBadgesEarned,
}

// MetricKinds returns every known metric kind in canonical order
func MetricKinds() []MetricKind {
	out := make([]MetricKind, len(metricKinds))
	copy(out, metricKinds)
	return out
}

// IsValid reports whether k is a known metric kind
func (k MetricKind) IsValid() bool {
	for _, known := range metricKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsCounter reports whether the metric counts discrete actions.
// Non-counter metrics (streaks, balances) are levels read from state.
func (k MetricKind) IsCounter() bool {
	switch k {
	case MetricStreakDays, MetricLongestStreak, MetricPointsTotal,
		MetricLifetimePoints, MetricWeeklyPoints, MetricBadgesEarned:
		return false
	}
	return k.IsValid()
}

// MetricSnapshot is the derived value of every metric for one user at one
// point in time. It is recomputed from activity records and never persisted.
type MetricSnapshot struct {
	UserID string                 `json:"user_id"`
	AsOf   time.Time              `json:"as_of"`
	Values map[MetricKind]float64 `json:"values"`
}

// Value returns the metric value, zero when absent
func (s MetricSnapshot) Value(k MetricKind) float64 {
	if s.Values == nil {
		return 0
	}
	return s.Values[k]
}

// Sum adds the values of several metrics
func (s MetricSnapshot) Sum(kinds ...MetricKind) float64 {
	var total float64
	for _, k := range kinds {
		total += s.Value(k)
	}
	return total
}
