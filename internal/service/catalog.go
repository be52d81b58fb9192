package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/model"
)

// CustomBadgeRepository stores accepted badge proposals
type CustomBadgeRepository interface {
	CreateCustomBadge(ctx context.Context, b *model.Badge) error
	ListCustomBadges(ctx context.Context) ([]model.Badge, error)
}

// EngineSource hands out the current engine. Engines are immutable, so a
// caller keeps using the one it got for a whole transaction.
type EngineSource interface {
	Engine() *engine.Engine
}

// CatalogService owns the live engine and swaps in a rebuilt one when the
// catalog changes
type CatalogService struct {
	repo    CustomBadgeRepository
	current atomic.Pointer[engine.Engine]
	mu      sync.Mutex // serializes rebuilds
}

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	Engine *engine.Engine
	Repo   CustomBadgeRepository
}

// NewCatalogService creates a new catalog service around a base engine
func NewCatalogService(cfg CatalogServiceConfig) *CatalogService {
	s := &CatalogService{repo: cfg.Repo}
	s.current.Store(cfg.Engine)
	return s
}

// Engine returns the current engine
func (s *CatalogService) Engine() *engine.Engine {
	return s.current.Load()
}

// LoadCustomBadges folds stored custom badges into the engine. A stored
// badge that no longer validates is skipped and logged.
func (s *CatalogService) LoadCustomBadges(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	badges, err := s.repo.ListCustomBadges(ctx)
	if err != nil {
		return fmt.Errorf("failed to list custom badges: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eng := s.current.Load()
	loaded := 0
	for _, b := range badges {
		next, err := eng.WithBadge(b)
		if err != nil {
			slog.Warn("skipping custom badge",
				slog.String("badge_id", b.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		eng = next
		loaded++
	}
	s.current.Store(eng)

	slog.Info("custom badges loaded", slog.Int("count", loaded))
	return nil
}

// ProposeBadge validates a badge proposal, persists it and makes it live
func (s *CatalogService) ProposeBadge(ctx context.Context, b model.Badge) (*model.Badge, error) {
	if err := engine.ValidateBadge(b); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eng := s.current.Load()
	if _, exists := eng.Badge(b.ID); exists {
		return nil, ErrBadgeExists
	}
	next, err := eng.WithBadge(b)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		if err := s.repo.CreateCustomBadge(ctx, &b); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return nil, ErrBadgeExists
			}
			return nil, fmt.Errorf("failed to store badge: %w", err)
		}
	}
	s.current.Store(next)

	slog.Info("badge added to catalog",
		slog.String("badge_id", b.ID),
		slog.String("rarity", string(b.Rarity)),
	)
	return &b, nil
}

// ValidateChallengeProposal checks an externally produced challenge
func (s *CatalogService) ValidateChallengeProposal(ch model.PersonalChallenge) error {
	return engine.ValidateChallenge(ch)
}

// PublicCatalog is the client-facing catalog. Hidden badges are redacted.
type PublicCatalog struct {
	Tiers    []model.AchievementTier    `json:"tiers"`
	Badges   []model.BadgeStatus        `json:"badges"`
	Rewards  []model.Reward             `json:"rewards"`
	Segments []model.LeaderboardSegment `json:"segments"`
}

// Public returns the redacted catalog
func (s *CatalogService) Public() PublicCatalog {
	eng := s.current.Load()
	return PublicCatalog{
		Tiers:    eng.Tiers(),
		Badges:   eng.PublicBadges(),
		Rewards:  eng.Rewards(),
		Segments: eng.Segments(),
	}
}
