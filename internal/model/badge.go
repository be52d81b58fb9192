package model

import "time"

// Rarity is an ordered badge rarity
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank orders rarities from common (0) to legendary (4); unknown is -1
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	}
	return -1
}

// IsValid reports whether r is a known rarity
func (r Rarity) IsValid() bool {
	return r.Rank() >= 0
}

// CriteriaType selects automatic or manual awarding
type CriteriaType string

const (
	CriteriaMetric CriteriaType = "metric"
	CriteriaManual CriteriaType = "manual"
)

// AwardCriteria is either a metric threshold or manual
type AwardCriteria struct {
	Type      CriteriaType `json:"type" yaml:"type"`
	Metric    MetricKind   `json:"metric,omitempty" yaml:"metric,omitempty"`
	Threshold float64      `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Badge is a one-time achievement. Immutable once referenced by an award.
type Badge struct {
	ID          string        `json:"id" yaml:"id" validate:"required,max=64"`
	Name        string        `json:"name" yaml:"name" validate:"required,max=100"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty" validate:"max=500"`
	Icon        string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Rarity      Rarity        `json:"rarity" yaml:"rarity" validate:"required"`
	PointsValue int64         `json:"points_value" yaml:"points_value" validate:"gte=0"`
	Criteria    AwardCriteria `json:"criteria" yaml:"criteria"`
	IsHidden    bool          `json:"is_hidden" yaml:"is_hidden"`
}

// IsManual reports whether the badge is only awarded by an administrator
func (b Badge) IsManual() bool {
	return b.Criteria.Type == CriteriaManual
}

// AwardType records how a badge was obtained
type AwardType string

const (
	AwardAutomatic AwardType = "automatic"
	AwardManual    AwardType = "manual"
)

// BadgeAward is the audit record of an earned badge
type BadgeAward struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	BadgeID       string    `json:"badge_id"`
	AwardType     AwardType `json:"award_type"`
	AwardedBy     string    `json:"awarded_by,omitempty"`
	PointsGranted int64     `json:"points_granted"`
	AwardedAt     time.Time `json:"awarded_at"`
}

// HiddenPlaceholder replaces the identity of an unearned hidden badge
const HiddenPlaceholder = "???"

// BadgeStatus is the public view of a badge for one user. Unearned hidden
// badges carry only the placeholder identity and no progress.
type BadgeStatus struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	Icon               string         `json:"icon,omitempty"`
	Rarity             Rarity         `json:"rarity,omitempty"`
	PointsValue        int64          `json:"points_value,omitempty"`
	Criteria           *AwardCriteria `json:"criteria,omitempty"`
	Hidden             bool           `json:"hidden"`
	Earned             bool           `json:"earned"`
	ProgressPercentage *float64       `json:"progress_percentage,omitempty"`
}
