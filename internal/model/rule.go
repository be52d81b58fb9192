package model

import "time"

// RuleLimit bounds how often a rule may fire for one user
type RuleLimit string

const (
	LimitUnlimited RuleLimit = "unlimited"
	LimitOnce      RuleLimit = "once"
	LimitDaily     RuleLimit = "daily"
	LimitWeekly    RuleLimit = "weekly"
	LimitMonthly   RuleLimit = "monthly"
)

// Window returns the look-back window; zero for unlimited, negative for once
func (l RuleLimit) Window() time.Duration {
	switch l {
	case LimitOnce:
		return -1
	case LimitDaily:
		return 24 * time.Hour
	case LimitWeekly:
		return 7 * 24 * time.Hour
	case LimitMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// IsValid reports whether l is a known limit; empty means unlimited
func (l RuleLimit) IsValid() bool {
	switch l {
	case "", LimitUnlimited, LimitOnce, LimitDaily, LimitWeekly, LimitMonthly:
		return true
	}
	return false
}

// ComparisonOperator compares a metric against a rule value
type ComparisonOperator string

const (
	OpEquals             ComparisonOperator = "equals"
	OpGreaterThan        ComparisonOperator = "greater_than"
	OpGreaterThanOrEqual ComparisonOperator = "greater_than_or_equal"
	OpLessThan           ComparisonOperator = "less_than"
	OpLessThanOrEqual    ComparisonOperator = "less_than_or_equal"
)

// Compare applies the operator; empty defaults to greater_than_or_equal
func (op ComparisonOperator) Compare(value, target float64) bool {
	switch op {
	case OpEquals:
		return value == target
	case OpGreaterThan:
		return value > target
	case OpLessThan:
		return value < target
	case OpLessThanOrEqual:
		return value <= target
	}
	return value >= target
}

// IsValid reports whether op is a known operator; empty is allowed
func (op ComparisonOperator) IsValid() bool {
	switch op {
	case "", OpEquals, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return true
	}
	return false
}

// TimePeriod windows a rule condition
type TimePeriod string

const (
	PeriodDaily     TimePeriod = "daily"
	PeriodWeekly    TimePeriod = "weekly"
	PeriodMonthly   TimePeriod = "monthly"
	PeriodQuarterly TimePeriod = "quarterly"
	PeriodAllTime   TimePeriod = "all_time"
)

// Duration returns the window length; zero means all time
func (p TimePeriod) Duration() time.Duration {
	switch p {
	case PeriodDaily:
		return 24 * time.Hour
	case PeriodWeekly:
		return 7 * 24 * time.Hour
	case PeriodMonthly:
		return 30 * 24 * time.Hour
	case PeriodQuarterly:
		return 90 * 24 * time.Hour
	}
	return 0
}

// IsValid reports whether p is a known period; empty means all time
func (p TimePeriod) IsValid() bool {
	switch p {
	case "", PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodAllTime:
		return true
	}
	return false
}

// RuleCondition gates a rule on a windowed metric
type RuleCondition struct {
	Metric   MetricKind         `json:"metric" yaml:"metric"`
	Operator ComparisonOperator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    float64            `json:"value" yaml:"value"`
	Period   TimePeriod         `json:"period,omitempty" yaml:"period,omitempty"`
}

// GamificationRule grants bonus points when an event of Trigger type
// satisfies Condition, subject to Limit
type GamificationRule struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Trigger   EventType      `json:"trigger" yaml:"trigger"`
	Points    int64          `json:"points" yaml:"points"`
	Priority  int            `json:"priority" yaml:"priority"`
	Enabled   bool           `json:"enabled" yaml:"enabled"`
	Limit     RuleLimit      `json:"limit,omitempty" yaml:"limit,omitempty"`
	Condition *RuleCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
}
