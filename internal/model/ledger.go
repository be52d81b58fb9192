package model

import "time"

// LedgerReason explains a ledger entry
type LedgerReason string

const (
	ReasonEventPoints      LedgerReason = "event_points"
	ReasonRuleBonus        LedgerReason = "rule_bonus"
	ReasonBadgeAward       LedgerReason = "badge_award"
	ReasonChallengeReward  LedgerReason = "challenge_reward"
	ReasonRewardRedemption LedgerReason = "reward_redemption"
)

// PointsLedgerEntry is an immutable audit record of a balance change.
// Delta is positive for credits and negative for redemptions.
type PointsLedgerEntry struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	Delta         int64        `json:"delta"`
	Reason        LedgerReason `json:"reason"`
	SourceID      string       `json:"source_id"` // event id, badge:<id>, challenge:<id>, redemption id
	RuleID        string       `json:"rule_id,omitempty"`
	Multiplier    float64      `json:"multiplier,omitempty"`
	BalanceAfter  int64        `json:"balance_after"`
	LifetimeAfter int64        `json:"lifetime_after"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Reward is a catalog item purchasable with spendable points
type Reward struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Cost        int64  `json:"cost" yaml:"cost"`
	MaxPerUser  int    `json:"max_per_user,omitempty" yaml:"max_per_user,omitempty"` // 0 = unlimited
	Active      bool   `json:"active" yaml:"active"`
}

// RedemptionStatus tracks fulfilment of a redemption
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionFulfilled RedemptionStatus = "fulfilled"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// Redemption is a reward purchase
type Redemption struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	RewardID   string           `json:"reward_id"`
	Cost       int64            `json:"cost"`
	Status     RedemptionStatus `json:"status"`
	RedeemedAt time.Time        `json:"redeemed_at"`
}
