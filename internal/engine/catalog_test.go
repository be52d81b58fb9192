package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ascend/api/internal/model"
)

// ============================================================================
// Catalog Loading Tests
// ============================================================================

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Tiers, 8)
	assert.Equal(t, "Legend", c.Tiers[7].Name)
	assert.Equal(t, 2.5, c.Tiers[7].Multiplier)
	assert.Len(t, c.Segments, 6)
	assert.Equal(t, int64(10), c.PointValues[model.EventAttendance])

	var hidden, manual int
	for _, b := range c.Badges {
		if b.IsHidden {
			hidden++
		}
		if b.IsManual() {
			manual++
		}
	}
	assert.Equal(t, 1, hidden)
	assert.Equal(t, 1, manual)
}

func TestLoadCatalogYAML_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := LoadCatalogYAML(strings.NewReader("tiers: []\nbogus: 1\n"))
	require.Error(t, err)
}

func TestLoadCatalogYAML_Empty(t *testing.T) {
	t.Parallel()

	_, err := LoadCatalogYAML(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoadCatalogYAML_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	doc := `
tiers:
  - {tier_level: 1, name: A, points_required: 0, multiplier: 1}
  - {tier_level: 1, name: B, points_required: 10, multiplier: 1}
badges:
  - id: b1
    name: Bad metric
    rarity: common
    criteria: {type: metric, metric: karma, threshold: 5}
  - id: b1
    name: Duplicate
    rarity: mythic
    criteria: {type: metric, metric: events_attended, threshold: 0}
rules:
  - {id: r1, name: R, trigger: nap_taken, points: 5, enabled: true}
rewards:
  - {id: w1, name: W, cost: 0, active: true}
segments:
  - {id: s1, name: S, metrics: [karma], limit: 0}
point_values:
  event_attendance: -1
`
	_, err := LoadCatalogYAML(strings.NewReader(doc))
	require.Error(t, err)

	for _, target := range []error{
		ErrInvalidTierTable, ErrUnknownMetric, ErrInvalidBadge,
		ErrInvalidRule, ErrInvalidReward, ErrInvalidSegment, ErrNegativePoints,
	} {
		assert.ErrorIs(t, err, target)
	}

	var cerr *CatalogError
	require.True(t, errors.As(err, &cerr))
	assert.NotEmpty(t, cerr.Path)
}

func TestCatalogClone_IsIndependent(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	clone := c.Clone()
	clone.Badges[0].Name = "changed"
	clone.PointValues[model.EventAttendance] = 99
	assert.NotEqual(t, "changed", c.Badges[0].Name)
	assert.Equal(t, int64(10), c.PointValues[model.EventAttendance])
}

// ============================================================================
// Proposal Validation Tests
// ============================================================================

func TestValidateBadge(t *testing.T) {
	t.Parallel()

	valid := metricBadge("new_badge", model.RarityRare, model.MetricEventsAttended, 3)
	assert.NoError(t, ValidateBadge(valid))

	unknown := valid
	unknown.Criteria.Metric = "vibes"
	assert.ErrorIs(t, ValidateBadge(unknown), ErrUnknownMetric)

	zero := valid
	zero.Criteria.Threshold = 0
	assert.ErrorIs(t, ValidateBadge(zero), ErrInvalidBadge)

	negative := valid
	negative.PointsValue = -1
	assert.ErrorIs(t, ValidateBadge(negative), ErrInvalidBadge)

	reserved := valid
	reserved.ID = model.HiddenPlaceholder
	assert.ErrorIs(t, ValidateBadge(reserved), ErrInvalidBadge)

	manual := model.Badge{ID: "m", Name: "M", Rarity: model.RarityEpic, Criteria: model.AwardCriteria{Type: model.CriteriaManual}}
	assert.NoError(t, ValidateBadge(manual))
}

func TestValidateChallenge(t *testing.T) {
	t.Parallel()

	valid := activeChallenge(model.MetricFeedbackSubmitted, 5)
	valid.Source = model.ChallengeSourceAI
	assert.NoError(t, ValidateChallenge(valid))

	tests := []struct {
		name   string
		mutate func(ch *model.PersonalChallenge)
		target error
	}{
		{name: "unknown metric", mutate: func(ch *model.PersonalChallenge) { ch.TargetMetric = "luck" }, target: ErrUnknownMetric},
		{name: "zero target", mutate: func(ch *model.PersonalChallenge) { ch.TargetValue = 0 }, target: ErrInvalidChallenge},
		{name: "negative reward", mutate: func(ch *model.PersonalChallenge) { ch.PointsReward = -10 }, target: ErrInvalidChallenge},
		{name: "end before start", mutate: func(ch *model.PersonalChallenge) { ch.EndDate = ch.StartDate.Add(-time.Hour) }, target: ErrInvalidChallenge},
		{name: "missing owner", mutate: func(ch *model.PersonalChallenge) { ch.OwnerID = "" }, target: ErrInvalidChallenge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ch := valid
			tt.mutate(&ch)
			assert.ErrorIs(t, ValidateChallenge(ch), tt.target)
		})
	}
}
