package model

import "time"

// ChallengeStatus is the lifecycle state of a challenge
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeExpired   ChallengeStatus = "expired"
	// ChallengeUpcoming is only ever derived for team challenge views
	ChallengeUpcoming ChallengeStatus = "upcoming"
)

// ChallengeSource records who proposed a challenge
type ChallengeSource string

const (
	ChallengeSourceUser  ChallengeSource = "user"
	ChallengeSourceAI    ChallengeSource = "ai"
	ChallengeSourceAdmin ChallengeSource = "admin"
)

// PersonalChallenge is a time-boxed goal against one metric.
// CurrentProgress is clamped to [0, TargetValue].
type PersonalChallenge struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	TargetMetric    MetricKind      `json:"target_metric"`
	TargetValue     float64         `json:"target_value"`
	CurrentProgress float64         `json:"current_progress"`
	PointsReward    int64           `json:"points_reward"`
	Difficulty      string          `json:"difficulty,omitempty"`
	Source          ChallengeSource `json:"source"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Status          ChallengeStatus `json:"status"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ChallengeTransition records a status change
type ChallengeTransition struct {
	ChallengeID string          `json:"challenge_id"`
	From        ChallengeStatus `json:"from"`
	To          ChallengeStatus `json:"to"`
	At          time.Time       `json:"at"`
}

// ChallengeView is the presentation record of a challenge
type ChallengeView struct {
	PersonalChallenge
	EffectiveStatus ChallengeStatus `json:"effective_status"`
	ProgressPercent float64         `json:"progress_percent"`
	DaysRemaining   int             `json:"days_remaining"`
	Claimable       bool            `json:"claimable"`
}

// TeamChallenge is a time-boxed goal a team works toward together. It holds
// no progress of its own: progress is derived from the members' activity
// inside [StartDate, EndDate], so one member's event never writes a shared row.
// PointsReward is paid to each member who claims.
type TeamChallenge struct {
	ID           string     `json:"id"`
	TeamID       string     `json:"team_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TargetMetric MetricKind `json:"target_metric"`
	TargetValue  float64    `json:"target_value"`
	PointsReward int64      `json:"points_reward"`
	Members      []string   `json:"members"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HasMember reports whether userID is on the challenge roster
func (c TeamChallenge) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Share is the challenge seen as one member's active personal challenge
func (c TeamChallenge) Share(userID string) PersonalChallenge {
	return PersonalChallenge{
		ID:           c.ID,
		OwnerID:      userID,
		Title:        c.Title,
		Description:  c.Description,
		TargetMetric: c.TargetMetric,
		TargetValue:  c.TargetValue,
		PointsReward: c.PointsReward,
		Source:       ChallengeSourceAdmin,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Status:       ChallengeActive,
		CreatedAt:    c.CreatedAt,
	}
}

// MemberContribution is one member's part of a team challenge's progress
type MemberContribution struct {
	UserID string  `json:"user_id"`
	Value  float64 `json:"value"`
	// Claimed is set once the member has collected the reward
	Claimed bool `json:"claimed"`
}

// TeamChallengeView is a team challenge with its derived progress
type TeamChallengeView struct {
	TeamChallenge
	Progress        float64              `json:"progress"`
	ProgressPercent float64              `json:"progress_percent"`
	EffectiveStatus ChallengeStatus      `json:"effective_status"`
	DaysRemaining   int                  `json:"days_remaining"`
	Contributions   []MemberContribution `json:"contributions"`
}
