package engine

import (
	"math"
	"sort"

	"github.com/forgo/ascend/api/internal/model"
)

// BadgeEvaluation is the operator-side result for one badge. Progress is
// computed for hidden badges too; redaction happens in RedactBadge.
type BadgeEvaluation struct {
	Badge       model.Badge
	Progress    float64
	Earned      bool
	NewlyEarned bool
}

// BadgeProgress returns min(100, 100 * value / threshold) for metric badges
// and whether the threshold is reached. Manual badges report 0, false.
func BadgeProgress(b model.Badge, snap model.MetricSnapshot) (float64, bool) {
	if b.IsManual() || b.Criteria.Threshold <= 0 {
		return 0, false
	}
	v := snap.Value(b.Criteria.Metric)
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	reached := v >= b.Criteria.Threshold
	pct := roundTo(math.Min(100, 100*v/b.Criteria.Threshold), 2)
	if !reached && pct >= 100 {
		pct = 99.99
	}
	return pct, reached
}

// EvaluateBadges matches the snapshot against every badge. A badge is newly
// earned when its threshold is reached and it is not in earned. Manual badges
// are never newly earned here.
func EvaluateBadges(badges []model.Badge, snap model.MetricSnapshot, earned []string) []BadgeEvaluation {
	have := make(map[string]struct{}, len(earned))
	for _, id := range earned {
		have[id] = struct{}{}
	}

	out := make([]BadgeEvaluation, 0, len(badges))
	for _, b := range badges {
		_, already := have[b.ID]
		eval := BadgeEvaluation{Badge: b, Earned: already}
		if b.IsManual() {
			if already {
				eval.Progress = 100
			}
			out = append(out, eval)
			continue
		}
		pct, reached := BadgeProgress(b, snap)
		eval.Progress = pct
		if already {
			eval.Progress = 100
		} else if reached {
			eval.Earned = true
			eval.NewlyEarned = true
			eval.Progress = 100
		}
		out = append(out, eval)
	}
	return out
}

// NewlyEarned filters evaluations down to badges earned by this pass
func NewlyEarned(evals []BadgeEvaluation) []model.Badge {
	var out []model.Badge
	for _, e := range evals {
		if e.NewlyEarned {
			out = append(out, e.Badge)
		}
	}
	return out
}

// RedactBadge is the public view of an evaluation. Unearned hidden badges
// expose only the placeholder identity and never numeric progress. Manual
// badges carry no progress until earned.
func RedactBadge(e BadgeEvaluation) model.BadgeStatus {
	b := e.Badge
	if b.IsHidden && !e.Earned {
		return model.BadgeStatus{
			ID:          model.HiddenPlaceholder,
			Name:        model.HiddenPlaceholder,
			Description: model.HiddenPlaceholder,
			Hidden:      true,
		}
	}

	criteria := b.Criteria
	status := model.BadgeStatus{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Icon:        b.Icon,
		Rarity:      b.Rarity,
		PointsValue: b.PointsValue,
		Criteria:    &criteria,
		Hidden:      b.IsHidden,
		Earned:      e.Earned,
	}
	if e.Earned || !b.IsManual() {
		pct := e.Progress
		status.ProgressPercentage = &pct
	}
	return status
}

// RedactAll applies RedactBadge to every evaluation
func RedactAll(evals []BadgeEvaluation) []model.BadgeStatus {
	out := make([]model.BadgeStatus, 0, len(evals))
	for _, e := range evals {
		out = append(out, RedactBadge(e))
	}
	return out
}

// RecommendBadges ranks unearned, automatic, visible badges by closeness:
// progress descending, then rarity ascending, then badge id.
func RecommendBadges(evals []BadgeEvaluation, limit int) []BadgeEvaluation {
	var candidates []BadgeEvaluation
	for _, e := range evals {
		if e.Earned || e.Badge.IsManual() || e.Badge.IsHidden {
			continue
		}
		candidates = append(candidates, e)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Progress != b.Progress {
			return a.Progress > b.Progress
		}
		if ra, rb := a.Badge.Rarity.Rank(), b.Badge.Rarity.Rank(); ra != rb {
			return ra < rb
		}
		return a.Badge.ID < b.Badge.ID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
