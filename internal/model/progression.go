package model

import "time"

// UserProgression is the persisted derived state of one player.
// LifetimePoints only grows; TotalPoints is the spendable balance and never
// exceeds LifetimePoints. BadgesEarned is an append-only set in award order.
// Level, ExperiencePoints and Tier are caches recomputed from LifetimePoints.
type UserProgression struct {
	UserID           string     `json:"user_id"`
	Email            string     `json:"email,omitempty"`
	TotalPoints      int64      `json:"total_points"`
	LifetimePoints   int64      `json:"lifetime_points"`
	Level            int        `json:"level"`
	ExperiencePoints int64      `json:"experience_points"`
	StreakDays       int        `json:"streak_days"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityAt   *time.Time `json:"last_activity_at,omitempty"`
	BadgesEarned     []string   `json:"badges_earned"`
	Tier             int        `json:"tier"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int64      `json:"version"`
}

// NewUserProgression returns the zero state created on a user's first event
func NewUserProgression(userID string, at time.Time) *UserProgression {
	return &UserProgression{
		UserID:       userID,
		BadgesEarned: []string{},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// HasBadge reports whether the badge was already earned
func (p *UserProgression) HasBadge(badgeID string) bool {
	for _, id := range p.BadgesEarned {
		if id == badgeID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so derived states never alias the input
func (p *UserProgression) Clone() *UserProgression {
	c := *p
	c.BadgesEarned = append([]string{}, p.BadgesEarned...)
	if p.LastActivityAt != nil {
		t := *p.LastActivityAt
		c.LastActivityAt = &t
	}
	return &c
}

// ProgressionDelta describes what one engine transaction changed. The caller
// persists it atomically together with the new UserProgression.
type ProgressionDelta struct {
	UserID               string                `json:"user_id"`
	EventID              string                `json:"event_id,omitempty"`
	PointsAwarded        int64                 `json:"points_awarded"`
	PointsSpent          int64                 `json:"points_spent"`
	TotalPointsBefore    int64                 `json:"total_points_before"`
	TotalPointsAfter     int64                 `json:"total_points_after"`
	LifetimeBefore       int64                 `json:"lifetime_points_before"`
	LifetimeAfter        int64                 `json:"lifetime_points_after"`
	LevelBefore          int                   `json:"level_before"`
	LevelAfter           int                   `json:"level_after"`
	TierBefore           int                   `json:"tier_before"`
	TierAfter            int                   `json:"tier_after"`
	StreakBefore         int                   `json:"streak_before"`
	StreakAfter          int                   `json:"streak_after"`
	// AlreadyCredited is set when the event repeats an action already paid for
	AlreadyCredited      bool                  `json:"already_credited,omitempty"`
	NewBadgeIDs          []string              `json:"new_badge_ids,omitempty"`
	ChallengeTransitions []ChallengeTransition `json:"challenge_transitions,omitempty"`
	Ledger               []PointsLedgerEntry   `json:"ledger,omitempty"`
	BadgeAwards          []BadgeAward          `json:"badge_awards,omitempty"`
	Redemptions          []Redemption          `json:"redemptions,omitempty"`
}

// ProgressionCommit is everything one engine transaction writes. The stored
// progression is replaced only while its version still equals ExpectedVersion.
type ProgressionCommit struct {
	ExpectedVersion int64
	Progression     *UserProgression
	Recorded        ActivityHistory
	Delta           ProgressionDelta
	Challenges      []PersonalChallenge
}

// LeveledUp reports whether the level increased
func (d *ProgressionDelta) LeveledUp() bool {
	return d.LevelAfter > d.LevelBefore
}

// TierChanged reports whether the tier changed
func (d *ProgressionDelta) TierChanged() bool {
	return d.TierAfter != d.TierBefore
}

// StreakStatus is the read-side view of a streak
type StreakStatus struct {
	Current        int        `json:"current"`
	Longest        int        `json:"longest"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	AtRisk         bool       `json:"at_risk"`
	Heat           StreakHeat `json:"heat"`
	NextMilestone  int        `json:"next_milestone"`
}

// StreakHeat buckets streak length for display
type StreakHeat string

const (
	StreakCold     StreakHeat = "cold"
	StreakStarting StreakHeat = "starting"
	StreakWarm     StreakHeat = "warm"
	StreakHot      StreakHeat = "hot"
	StreakBlazing  StreakHeat = "blazing"
	StreakInferno  StreakHeat = "inferno"
)

// StreakMilestones are the celebrated streak lengths
var StreakMilestones = []int{3, 7, 14, 30, 60, 100}

// Dashboard is the complete read-path view for one user
type Dashboard struct {
	Progression     UserProgression `json:"progression"`
	Level           LevelProgress   `json:"level"`
	Tier            TierProgress    `json:"tier"`
	Streak          StreakStatus    `json:"streak"`
	Snapshot        MetricSnapshot  `json:"metrics"`
	Badges          []BadgeStatus   `json:"badges"`
	Recommendations []BadgeStatus   `json:"recommendations"`
	Challenges      []ChallengeView `json:"challenges"`
}
