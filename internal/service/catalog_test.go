package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/model"
)

func helperBadge(id string) model.Badge {
	return model.Badge{
		ID:          id,
		Name:        "Helper",
		Description: "Complete 3 activities",
		Rarity:      model.RarityCommon,
		PointsValue: 5,
		Criteria: model.AwardCriteria{
			Type:      model.CriteriaMetric,
			Metric:    model.MetricActivitiesCompleted,
			Threshold: 3,
		},
	}
}

// ============================================================================
// ProposeBadge Tests
// ============================================================================

func TestProposeBadge(t *testing.T) {
	t.Parallel()
	var stored *model.Badge
	svc := NewCatalogService(CatalogServiceConfig{
		Engine: newTestEngine(t),
		Repo: &mockCustomBadgeRepo{
			createFunc: func(ctx context.Context, b *model.Badge) error {
				stored = b
				return nil
			},
		},
	})
	before := svc.Engine()

	b, err := svc.ProposeBadge(context.Background(), helperBadge("helper"))
	require.NoError(t, err)
	assert.Equal(t, "helper", b.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "helper", stored.ID)

	_, ok := svc.Engine().Badge("helper")
	assert.True(t, ok)
	_, ok = before.Badge("helper")
	assert.False(t, ok, "engines are immutable")
}

func TestProposeBadge_ExistingID(t *testing.T) {
	t.Parallel()
	svc := newTestCatalog(t)

	_, err := svc.ProposeBadge(context.Background(), helperBadge("first_steps"))
	assert.ErrorIs(t, err, ErrBadgeExists)
}

func TestProposeBadge_Invalid(t *testing.T) {
	t.Parallel()
	called := false
	svc := NewCatalogService(CatalogServiceConfig{
		Engine: newTestEngine(t),
		Repo: &mockCustomBadgeRepo{
			createFunc: func(ctx context.Context, b *model.Badge) error {
				called = true
				return nil
			},
		},
	})

	b := helperBadge("helper")
	b.Criteria.Metric = "karma"
	_, err := svc.ProposeBadge(context.Background(), b)
	assert.ErrorIs(t, err, engine.ErrUnknownMetric)

	var catErr *engine.CatalogError
	assert.True(t, errors.As(err, &catErr))
	assert.False(t, called)
}

func TestProposeBadge_StoreErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{"duplicate in store", database.ErrDuplicate, ErrBadgeExists},
		{"connection", database.ErrConnection, database.ErrConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewCatalogService(CatalogServiceConfig{
				Engine: newTestEngine(t),
				Repo: &mockCustomBadgeRepo{
					createFunc: func(ctx context.Context, b *model.Badge) error {
						return tt.repoErr
					},
				},
			})

			_, err := svc.ProposeBadge(context.Background(), helperBadge("helper"))
			assert.ErrorIs(t, err, tt.wantErr)

			_, ok := svc.Engine().Badge("helper")
			assert.False(t, ok, "failed proposals are not made live")
		})
	}
}

// ============================================================================
// LoadCustomBadges Tests
// ============================================================================

func TestLoadCustomBadges(t *testing.T) {
	t.Parallel()
	invalid := helperBadge("broken")
	invalid.Rarity = "mythic"

	svc := NewCatalogService(CatalogServiceConfig{
		Engine: newTestEngine(t),
		Repo: &mockCustomBadgeRepo{
			listFunc: func(ctx context.Context) ([]model.Badge, error) {
				return []model.Badge{helperBadge("helper"), invalid, helperBadge("first_steps")}, nil
			},
		},
	})

	require.NoError(t, svc.LoadCustomBadges(context.Background()))

	_, ok := svc.Engine().Badge("helper")
	assert.True(t, ok)
	_, ok = svc.Engine().Badge("broken")
	assert.False(t, ok)
}

func TestLoadCustomBadges_ListFailure(t *testing.T) {
	t.Parallel()
	svc := NewCatalogService(CatalogServiceConfig{
		Engine: newTestEngine(t),
		Repo: &mockCustomBadgeRepo{
			listFunc: func(ctx context.Context) ([]model.Badge, error) {
				return nil, database.ErrConnection
			},
		},
	})

	err := svc.LoadCustomBadges(context.Background())
	assert.ErrorIs(t, err, database.ErrConnection)
}

func TestLoadCustomBadges_NoRepo(t *testing.T) {
	t.Parallel()
	svc := newTestCatalog(t)
	assert.NoError(t, svc.LoadCustomBadges(context.Background()))
}

// ============================================================================
// Public Catalog Tests
// ============================================================================

func TestPublic_RedactsHiddenBadges(t *testing.T) {
	t.Parallel()
	svc := newTestCatalog(t)

	pub := svc.Public()
	assert.NotEmpty(t, pub.Tiers)
	assert.NotEmpty(t, pub.Rewards)
	assert.NotEmpty(t, pub.Segments)

	for _, b := range pub.Badges {
		assert.NotEqual(t, "centurion", b.ID, "hidden badge ids are not exposed")
	}
}

func TestValidateChallengeProposal(t *testing.T) {
	t.Parallel()
	svc := newTestCatalog(t)

	assert.NoError(t, svc.ValidateChallengeProposal(claimableChallenge("ch-1", "u1")))

	bad := claimableChallenge("ch-1", "u1")
	bad.TargetValue = 0
	assert.ErrorIs(t, svc.ValidateChallengeProposal(bad), engine.ErrInvalidChallenge)
}
