package engine

import (
	"math"
	"sort"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// AdvanceChallenge moves an active challenge forward. Counter metrics add the
// event's increment; level metrics (streaks, balances) track the snapshot
// value. Progress only grows and is clamped to [0, target]. Challenges that
// are not active, not yet started or already past their end are unchanged.
func AdvanceChallenge(ch model.PersonalChallenge, increments map[model.MetricKind]float64, snap model.MetricSnapshot, at time.Time) (model.PersonalChallenge, bool) {
	if ch.Status != model.ChallengeActive || at.Before(ch.StartDate) || at.After(ch.EndDate) {
		return ch, false
	}

	progress := clampProgress(ch.CurrentProgress, ch.TargetValue)
	if ch.TargetMetric.IsCounter() {
		if inc := increments[ch.TargetMetric]; inc > 0 {
			progress += inc
		}
	} else {
		progress = math.Max(progress, snap.Value(ch.TargetMetric))
	}
	progress = clampProgress(progress, ch.TargetValue)

	if progress == ch.CurrentProgress {
		return ch, false
	}
	ch.CurrentProgress = progress
	return ch, true
}

func clampProgress(v, target float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > target {
		return target
	}
	return v
}

// ExpireChallenge transitions an active challenge whose end date has passed
func ExpireChallenge(ch model.PersonalChallenge, now time.Time) (model.PersonalChallenge, *model.ChallengeTransition) {
	if ch.Status != model.ChallengeActive || !now.After(ch.EndDate) {
		return ch, nil
	}
	ch.Status = model.ChallengeExpired
	return ch, &model.ChallengeTransition{
		ChallengeID: ch.ID,
		From:        model.ChallengeActive,
		To:          model.ChallengeExpired,
		At:          now,
	}
}

// ClaimChallenge completes a challenge whose target was reached and returns
// the reward to grant. Claiming twice fails with ErrChallengeAlreadyClaimed
// and grants nothing.
func ClaimChallenge(ch model.PersonalChallenge, userID string, now time.Time) (model.PersonalChallenge, *model.ChallengeTransition, error) {
	if ch.OwnerID != userID {
		return ch, nil, ErrChallengeOwner
	}
	switch {
	case ch.Status == model.ChallengeCompleted:
		return ch, nil, ErrChallengeAlreadyClaimed
	case ch.Status == model.ChallengeExpired, now.After(ch.EndDate):
		return ch, nil, ErrChallengeExpired
	case ch.CurrentProgress < ch.TargetValue:
		return ch, nil, ErrChallengeIncomplete
	}

	ch.Status = model.ChallengeCompleted
	completedAt := now
	ch.CompletedAt = &completedAt
	return ch, &model.ChallengeTransition{
		ChallengeID: ch.ID,
		From:        model.ChallengeActive,
		To:          model.ChallengeCompleted,
		At:          now,
	}, nil
}

// ChallengeViewFor builds the presentation record with lazy expiry applied
func ChallengeViewFor(ch model.PersonalChallenge, now time.Time) model.ChallengeView {
	view := model.ChallengeView{PersonalChallenge: ch, EffectiveStatus: ch.Status}
	if ch.Status == model.ChallengeActive && now.After(ch.EndDate) {
		view.EffectiveStatus = model.ChallengeExpired
	}
	if ch.TargetValue > 0 {
		view.ProgressPercent = roundTo(math.Min(100, ch.CurrentProgress/ch.TargetValue*100), 2)
	}
	if view.EffectiveStatus == model.ChallengeActive {
		if remaining := ch.EndDate.Sub(now); remaining > 0 {
			view.DaysRemaining = int(math.Ceil(remaining.Hours() / 24))
		}
		view.Claimable = ch.CurrentProgress >= ch.TargetValue
	}
	return view
}

// ChallengeViews orders challenges by effective status (active first), then
// end date, then id
func ChallengeViews(challenges []model.PersonalChallenge, now time.Time) []model.ChallengeView {
	views := make([]model.ChallengeView, 0, len(challenges))
	for _, ch := range challenges {
		views = append(views, ChallengeViewFor(ch, now))
	}
	statusOrder := map[model.ChallengeStatus]int{
		model.ChallengeActive:    0,
		model.ChallengeCompleted: 1,
		model.ChallengeExpired:   2,
	}
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if sa, sb := statusOrder[a.EffectiveStatus], statusOrder[b.EffectiveStatus]; sa != sb {
			return sa < sb
		}
		if !a.EndDate.Equal(b.EndDate) {
			return a.EndDate.Before(b.EndDate)
		}
		return a.ID < b.ID
	})
	return views
}

// counterIncrements is the per-metric growth between two snapshots
func counterIncrements(before, after model.MetricSnapshot) map[model.MetricKind]float64 {
	out := make(map[model.MetricKind]float64)
	for _, k := range model.MetricKinds() {
		if !k.IsCounter() {
			continue
		}
		if d := after.Value(k) - before.Value(k); d > 0 {
			out[k] = d
		}
	}
	return out
}
