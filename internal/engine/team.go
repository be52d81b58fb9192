package engine

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

// TeamMember is one member's stored state. Either part may be nil for a
// member with no activity yet.
type TeamMember struct {
	Progression *model.UserProgression
	History     *model.ActivityHistory
}

// ValidateTeamChallenge checks a team challenge definition. The goal itself
// is held to the same rules as a personal challenge.
func ValidateTeamChallenge(ch model.TeamChallenge) error {
	const path = "team_challenge"
	var errs []error
	if strings.TrimSpace(ch.TeamID) == "" {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "team_id is required"))
	}
	if len(ch.Members) == 0 {
		errs = append(errs, catalogErr(path, ErrInvalidChallenge, "at least one member is required"))
	}
	seen := make(map[string]struct{}, len(ch.Members))
	for i, m := range ch.Members {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, catalogErr(path, ErrInvalidChallenge, "members[%d] is empty", i))
			continue
		}
		if _, dup := seen[m]; dup {
			errs = append(errs, catalogErr(path, ErrInvalidChallenge, "member %q listed twice", m))
		}
		seen[m] = struct{}{}
	}
	errs = append(errs, ValidateChallenge(ch.Share(ch.TeamID)))
	return errors.Join(errs...)
}

// TeamProgress derives a team challenge's progress as of now. A counter
// metric sums each member's activity inside the challenge window; a level
// metric (streak, balance) sums the members' current values. The total is
// run through AdvanceChallenge, so it is clamped like personal progress and
// stops moving once the window closes.
func (e *Engine) TeamProgress(ch model.TeamChallenge, members map[string]TeamMember, now time.Time) model.TeamChallengeView {
	view := model.TeamChallengeView{
		TeamChallenge: ch,
		Contributions: make([]model.MemberContribution, 0, len(ch.Members)),
	}

	asOf := now
	if asOf.After(ch.EndDate) {
		asOf = ch.EndDate
	}
	started := !asOf.Before(ch.StartDate)

	var total float64
	for _, id := range ch.Members {
		m := members[id]
		c := model.MemberContribution{UserID: id, Claimed: m.History.HasCompletion(ch.ID)}
		if started {
			in := SnapshotInput{UserID: id, History: m.History, Progression: m.Progression, AsOf: asOf, Location: e.loc}
			if ch.TargetMetric.IsCounter() {
				in.Since = ch.StartDate
			}
			c.Value = math.Max(0, BuildSnapshot(in).Value(ch.TargetMetric))
		}
		total += c.Value
		view.Contributions = append(view.Contributions, c)
	}

	if started {
		increments := map[model.MetricKind]float64{}
		snap := model.MetricSnapshot{AsOf: asOf, Values: map[model.MetricKind]float64{}}
		if ch.TargetMetric.IsCounter() {
			increments[ch.TargetMetric] = total
		} else {
			snap.Values[ch.TargetMetric] = total
		}
		if advanced, changed := AdvanceChallenge(ch.Share(ch.TeamID), increments, snap, asOf); changed {
			view.Progress = advanced.CurrentProgress
		}
	}

	if ch.TargetValue > 0 {
		view.ProgressPercent = roundTo(math.Min(100, view.Progress/ch.TargetValue*100), 2)
	}
	switch {
	case !started:
		view.EffectiveStatus = model.ChallengeUpcoming
	case view.Progress >= ch.TargetValue:
		view.EffectiveStatus = model.ChallengeCompleted
	case now.After(ch.EndDate):
		view.EffectiveStatus = model.ChallengeExpired
	default:
		view.EffectiveStatus = model.ChallengeActive
	}
	if !now.After(ch.EndDate) {
		if remaining := ch.EndDate.Sub(now); remaining > 0 {
			view.DaysRemaining = int(math.Ceil(remaining.Hours() / 24))
		}
	}
	return view
}

// TeamClaimInput is the claiming member's state and the team's progress
type TeamClaimInput struct {
	UserID      string
	Progression *model.UserProgression
	History     *model.ActivityHistory
	Challenge   model.TeamChallenge
	// Progress is the team total from TeamProgress
	Progress float64
	Now      time.Time
}

// ClaimTeam pays one member's reward for a team challenge whose target was
// reached. Each member claims for themselves, at most once, and under the
// same rules as a personal challenge: claims close at the end date.
func (e *Engine) ClaimTeam(in TeamClaimInput) (*Outcome, error) {
	if in.Progression != nil && in.Progression.UserID != in.UserID {
		return nil, ErrUserMismatch
	}
	if !in.Challenge.HasMember(in.UserID) {
		return nil, ErrNotTeamMember
	}

	share := in.Challenge.Share(in.UserID)
	share.CurrentProgress = clampProgress(in.Progress, share.TargetValue)
	if in.History.HasCompletion(in.Challenge.ID) {
		share.Status = model.ChallengeCompleted
	}
	ch, tr, err := ClaimChallenge(share, in.UserID, in.Now)
	if err != nil {
		return nil, err
	}

	tx := e.begin(in.UserID, in.Progression, in.History, in.Now)
	tx.delta.ChallengeTransitions = append(tx.delta.ChallengeTransitions, *tr)
	return tx.complete(ch, "team_challenge:", in.Now)
}
