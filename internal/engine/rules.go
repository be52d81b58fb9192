package engine

import (
	"sort"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// RuleMatch is a rule that fires for one event
type RuleMatch struct {
	Rule   model.GamificationRule
	Points int64
}

// sortRules orders rules by priority descending, then id
func sortRules(rules []model.GamificationRule) []model.GamificationRule {
	out := make([]model.GamificationRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MatchRules returns the rules that fire for event given the user's history,
// which must already include the event itself. Rules must be sorted.
func MatchRules(rules []model.GamificationRule, event model.ActivityEvent, history *model.ActivityHistory, prog *model.UserProgression, loc *time.Location) []RuleMatch {
	var matches []RuleMatch
	snapshots := make(map[model.TimePeriod]model.MetricSnapshot)

	for _, rule := range rules {
		if !rule.Enabled || rule.Trigger != event.Type || rule.Points <= 0 {
			continue
		}
		if limitReached(rule, history, event.OccurredAt) {
			continue
		}
		if c := rule.Condition; c != nil {
			snap, ok := snapshots[c.Period]
			if !ok {
				in := SnapshotInput{
					UserID:      event.UserID,
					History:     history,
					Progression: prog,
					AsOf:        event.OccurredAt,
					Location:    loc,
				}
				if d := c.Period.Duration(); d > 0 {
					in.Since = event.OccurredAt.Add(-d)
				}
				snap = BuildSnapshot(in)
				snapshots[c.Period] = snap
			}
			if !c.Operator.Compare(snap.Value(c.Metric), c.Value) {
				continue
			}
		}
		matches = append(matches, RuleMatch{Rule: rule, Points: rule.Points})
	}
	return matches
}

func limitReached(rule model.GamificationRule, history *model.ActivityHistory, at time.Time) bool {
	window := rule.Limit.Window()
	if window == 0 || history == nil {
		return false
	}
	for _, e := range history.Ledger {
		if e.RuleID != rule.ID {
			continue
		}
		if window < 0 {
			return true
		}
		if !e.CreatedAt.After(at) && at.Sub(e.CreatedAt) < window {
			return true
		}
	}
	return false
}
