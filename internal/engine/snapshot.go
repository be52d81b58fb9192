package engine

import (
	"math"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// SnapshotInput is everything BuildSnapshot reads. History and Progression
// may be nil; missing data counts as zero.
type SnapshotInput struct {
	UserID      string
	History     *model.ActivityHistory
	Progression *model.UserProgression
	AsOf        time.Time
	// Since restricts activity counters to records at or after Since (and not
	// after AsOf). Zero means all time. State-derived metrics are unaffected.
	Since    time.Time
	Location *time.Location
}

const weeklyWindow = 7 * 24 * time.Hour

// BuildSnapshot collapses activity records into one value per metric kind.
// It never mutates its input and returns the same snapshot for the same input.
func BuildSnapshot(in SnapshotInput) model.MetricSnapshot {
	values := make(map[model.MetricKind]float64, len(model.MetricKinds()))
	for _, k := range model.MetricKinds() {
		values[k] = 0
	}

	userID := in.UserID
	if userID == "" && in.Progression != nil {
		userID = in.Progression.UserID
	}
	if userID == "" && in.History != nil {
		userID = in.History.UserID
	}

	inWindow := func(ts time.Time) bool {
		if in.Since.IsZero() {
			return true
		}
		if ts.IsZero() || ts.Before(in.Since) {
			return false
		}
		return in.AsOf.IsZero() || !ts.After(in.AsOf)
	}

	if h := in.History; h != nil {
		attended := make(map[string]struct{})
		completed := make(map[string]struct{})
		feedback := make(map[string]struct{})
		var highEngagement float64

		for _, p := range h.Participations {
			at := p.RecordedAt
			if p.AttendedAt != nil {
				at = *p.AttendedAt
			}
			if !inWindow(at) {
				continue
			}
			key := recordKey(p.EventID, p.ID)
			if p.Attended {
				if _, seen := attended[key]; !seen {
					attended[key] = struct{}{}
					if score, ok := NormalizeEngagement(p.EngagementScore, p.EngagementScale); ok && score >= model.HighEngagementThreshold {
						highEngagement++
					}
				}
			}
			if p.ActivityCompleted {
				completed[key] = struct{}{}
			}
			if p.FeedbackSubmitted {
				feedback[key] = struct{}{}
			}
		}
		for _, f := range h.Feedback {
			if inWindow(f.SubmittedAt) {
				feedback[recordKey(f.EventID, f.ID)] = struct{}{}
			}
		}

		for _, r := range h.Recognitions {
			if !inWindow(r.CreatedAt) {
				continue
			}
			if r.GiverID == userID && userID != "" {
				values[model.MetricRecognitionsGiven]++
			}
			if r.RecipientID == userID && userID != "" {
				values[model.MetricRecognitionsReceived]++
			}
		}

		challenges := make(map[string]struct{})
		for _, c := range h.Completions {
			if inWindow(c.CompletedAt) {
				challenges[recordKey(c.ChallengeID, c.ID)] = struct{}{}
			}
		}

		for _, c := range h.Contributions {
			if !inWindow(c.CreatedAt) {
				continue
			}
			switch c.Kind {
			case model.EventMediaUploaded:
				values[model.MetricMediaUploads] += float64(contributionQuantity(c.Quantity))
			case model.EventContentCreated:
				values[model.MetricContentCreated] += float64(contributionQuantity(c.Quantity))
			}
		}

		values[model.MetricEventsAttended] = float64(len(attended))
		values[model.MetricActivitiesCompleted] = float64(len(completed))
		values[model.MetricFeedbackSubmitted] = float64(len(feedback))
		values[model.MetricHighEngagement] = highEngagement
		values[model.MetricChallengesCompleted] = float64(len(challenges))

		if !in.AsOf.IsZero() {
			from := in.AsOf.Add(-weeklyWindow)
			for _, e := range h.Ledger {
				if e.Delta > 0 && e.CreatedAt.After(from) && !e.CreatedAt.After(in.AsOf) {
					values[model.MetricWeeklyPoints] += float64(e.Delta)
				}
			}
		}
	}

	if p := in.Progression; p != nil {
		values[model.MetricPointsTotal] = float64(nonNegative(p.TotalPoints))
		values[model.MetricLifetimePoints] = float64(nonNegative(p.LifetimePoints))
		values[model.MetricLongestStreak] = float64(max(p.LongestStreak, 0))
		values[model.MetricBadgesEarned] = float64(len(p.BadgesEarned))
		if in.AsOf.IsZero() {
			values[model.MetricStreakDays] = float64(max(p.StreakDays, 0))
		} else {
			values[model.MetricStreakDays] = float64(EffectiveStreak(streakOf(p), in.AsOf, in.Location))
		}
	}

	return model.MetricSnapshot{
		UserID: userID,
		AsOf:   in.AsOf,
		Values: values,
	}
}

// NormalizeEngagement maps a raw engagement score onto the canonical 5-point
// scale. Scores recorded without a scale and above 5 are assumed to be on a
// 10-point scale. Missing, negative or non-numeric scores report ok=false.
func NormalizeEngagement(score *float64, scale int) (float64, bool) {
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) || *score < 0 {
		return 0, false
	}
	s := *score
	if scale <= 0 && s > model.CanonicalEngagementScale {
		scale = 10
	}
	if scale > 0 && scale != model.CanonicalEngagementScale {
		s = s * model.CanonicalEngagementScale / float64(scale)
	}
	return math.Min(s, model.CanonicalEngagementScale), true
}

// recordKey dedupes records about the same object; records without an
// object id count individually
func recordKey(objectID, recordID string) string {
	if objectID != "" {
		return objectID
	}
	return "record:" + recordID
}

// contributionQuantity counts an unspecified quantity as one item and a
// negative quantity as none
func contributionQuantity(q int) int {
	switch {
	case q < 0:
		return 0
	case q == 0:
		return 1
	}
	return q
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
