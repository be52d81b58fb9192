package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ascend/api/internal/model"
)

func teamChallenge() model.TeamChallenge {
	return model.TeamChallenge{
		ID:           "tc-1",
		TeamID:       "team-a",
		Title:        "Show up together",
		TargetMetric: model.MetricEventsAttended,
		TargetValue:  5,
		PointsReward: 50,
		Members:      []string{"u1", "u2", "u3"},
		StartDate:    day(2024, 1, 1, 0),
		EndDate:      day(2024, 1, 8, 0),
	}
}

func attendedHistory(userID string, at ...time.Time) *model.ActivityHistory {
	h := &model.ActivityHistory{UserID: userID}
	for i, ts := range at {
		h.Participations = append(h.Participations, model.Participation{
			ID:         userID + "-p" + string(rune('a'+i)),
			EventID:    userID + "-meeting-" + string(rune('a'+i)),
			Attended:   true,
			AttendedAt: &ts,
			RecordedAt: ts,
		})
	}
	return h
}

func TestTeamProgress_SumsMemberActivityInsideWindow(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, nil)
	members := map[string]TeamMember{
		// the December meeting predates the challenge
		"u1": {History: attendedHistory("u1", day(2023, 12, 30, 9), day(2024, 1, 2, 9), day(2024, 1, 3, 9))},
		"u2": {History: attendedHistory("u2", day(2024, 1, 4, 9))},
	}

	view := eng.TeamProgress(teamChallenge(), members, day(2024, 1, 5, 12))

	assert.Equal(t, 3.0, view.Progress)
	assert.Equal(t, 60.0, view.ProgressPercent)
	assert.Equal(t, model.ChallengeActive, view.EffectiveStatus)
	assert.Equal(t, 3, view.DaysRemaining)
	require.Len(t, view.Contributions, 3)
	assert.Equal(t, model.MemberContribution{UserID: "u1", Value: 2}, view.Contributions[0])
	assert.Equal(t, model.MemberContribution{UserID: "u2", Value: 1}, view.Contributions[1])
	assert.Equal(t, model.MemberContribution{UserID: "u3"}, view.Contributions[2])
}

func TestTeamProgress_Lifecycle(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, nil)
	ch := teamChallenge()
	busy := map[string]TeamMember{
		"u1": {History: attendedHistory("u1", day(2024, 1, 2, 9), day(2024, 1, 3, 9), day(2024, 1, 4, 9))},
		"u2": {History: attendedHistory("u2", day(2024, 1, 2, 9), day(2024, 1, 5, 9), day(2024, 1, 6, 9))},
	}

	tests := []struct {
		name         string
		members      map[string]TeamMember
		now          time.Time
		wantStatus   model.ChallengeStatus
		wantProgress float64
	}{
		{"upcoming", busy, day(2023, 12, 31, 9), model.ChallengeUpcoming, 0},
		{"completed clamps at target", busy, day(2024, 1, 7, 9), model.ChallengeCompleted, 5},
		{"completed stays completed after end", busy, day(2024, 2, 1, 9), model.ChallengeCompleted, 5},
		{"expired short of target", map[string]TeamMember{
			"u1": {History: attendedHistory("u1", day(2024, 1, 2, 9), day(2024, 1, 9, 9))},
		}, day(2024, 1, 10, 9), model.ChallengeExpired, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			view := eng.TeamProgress(ch, tt.members, tt.now)
			assert.Equal(t, tt.wantStatus, view.EffectiveStatus)
			assert.Equal(t, tt.wantProgress, view.Progress)
		})
	}
}

func TestTeamProgress_LevelMetricSumsCurrentValues(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, nil)
	ch := teamChallenge()
	ch.TargetMetric = model.MetricPointsTotal
	ch.TargetValue = 1000
	members := map[string]TeamMember{
		"u1": {Progression: &model.UserProgression{UserID: "u1", TotalPoints: 300, LifetimePoints: 300}},
		"u2": {Progression: &model.UserProgression{UserID: "u2", TotalPoints: 150, LifetimePoints: 400}},
	}

	view := eng.TeamProgress(ch, members, day(2024, 1, 3, 9))
	assert.Equal(t, 450.0, view.Progress)
	assert.Equal(t, 45.0, view.ProgressPercent)
}

func TestClaimTeam(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, nil)
	ch := teamChallenge()
	now := day(2024, 1, 6, 9)

	out, err := eng.ClaimTeam(TeamClaimInput{UserID: "u3", Challenge: ch, Progress: 5, Now: now})
	require.NoError(t, err)
	assert.Equal(t, int64(50), out.Progression.LifetimePoints)
	assert.Empty(t, out.Challenges)
	require.Len(t, out.Delta.Ledger, 1)
	assert.Equal(t, model.ReasonChallengeReward, out.Delta.Ledger[0].Reason)
	assert.Equal(t, "team_challenge:tc-1", out.Delta.Ledger[0].SourceID)
	require.Len(t, out.Recorded.Completions, 1)
	assert.Equal(t, "tc-1", out.Recorded.Completions[0].ChallengeID)
	require.Len(t, out.Delta.ChallengeTransitions, 1)
	assert.Equal(t, model.ChallengeCompleted, out.Delta.ChallengeTransitions[0].To)

	history := &model.ActivityHistory{}
	merge(history, out)
	_, err = eng.ClaimTeam(TeamClaimInput{UserID: "u3", Progression: out.Progression, History: history, Challenge: ch, Progress: 5, Now: now})
	assert.ErrorIs(t, err, ErrChallengeAlreadyClaimed)

	// a teammate still collects their own share
	_, err = eng.ClaimTeam(TeamClaimInput{UserID: "u1", Challenge: ch, Progress: 5, Now: now})
	assert.NoError(t, err)
}

func TestClaimTeam_Rejections(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, nil)
	ch := teamChallenge()

	tests := []struct {
		name     string
		userID   string
		progress float64
		now      time.Time
		wantErr  error
	}{
		{"outsider", "u9", 5, day(2024, 1, 6, 9), ErrNotTeamMember},
		{"short of target", "u1", 4, day(2024, 1, 6, 9), ErrChallengeIncomplete},
		{"after end", "u1", 5, day(2024, 1, 9, 9), ErrChallengeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := eng.ClaimTeam(TeamClaimInput{UserID: tt.userID, Challenge: ch, Progress: tt.progress, Now: tt.now})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateTeamChallenge(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateTeamChallenge(teamChallenge()))

	noTeam := teamChallenge()
	noTeam.TeamID = ""
	assert.ErrorIs(t, ValidateTeamChallenge(noTeam), ErrInvalidChallenge)

	dup := teamChallenge()
	dup.Members = []string{"u1", "u1"}
	assert.ErrorContains(t, ValidateTeamChallenge(dup), `member "u1" listed twice`)

	empty := teamChallenge()
	empty.Members = nil
	assert.ErrorIs(t, ValidateTeamChallenge(empty), ErrInvalidChallenge)

	badGoal := teamChallenge()
	badGoal.TargetValue = 0
	badGoal.TargetMetric = "vibes"
	err := ValidateTeamChallenge(badGoal)
	assert.ErrorIs(t, err, ErrInvalidChallenge)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
