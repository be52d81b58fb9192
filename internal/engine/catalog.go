package engine

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forgo/ascend/api/internal/model"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML string

// Catalog holds the configuration tables the engine evaluates against
type Catalog struct {
	Tiers               []model.AchievementTier    `yaml:"tiers" json:"tiers"`
	Badges              []model.Badge              `yaml:"badges" json:"badges"`
	Rules               []model.GamificationRule   `yaml:"rules" json:"rules"`
	Rewards             []model.Reward             `yaml:"rewards" json:"rewards"`
	Segments            []model.LeaderboardSegment `yaml:"segments" json:"segments"`
	PointValues         map[model.EventType]int64  `yaml:"point_values" json:"point_values"`
	HighEngagementBonus int64                      `yaml:"high_engagement_bonus" json:"high_engagement_bonus"`
}

// LoadCatalogYAML decodes and validates a catalog. Unknown fields are rejected.
func LoadCatalogYAML(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, catalogErr("", ErrInvalidTierTable, "catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the embedded starter catalog
func DefaultCatalog() *Catalog {
	c, err := LoadCatalogYAML(strings.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Clone returns a deep copy
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Tiers:               append([]model.AchievementTier(nil), c.Tiers...),
		Badges:              append([]model.Badge(nil), c.Badges...),
		Rules:               append([]model.GamificationRule(nil), c.Rules...),
		Rewards:             append([]model.Reward(nil), c.Rewards...),
		Segments:            append([]model.LeaderboardSegment(nil), c.Segments...),
		PointValues:         make(map[model.EventType]int64, len(c.PointValues)),
		HighEngagementBonus: c.HighEngagementBonus,
	}
	for k, v := range c.PointValues {
		out.PointValues[k] = v
	}
	return out
}

// Validate reports every configuration problem at once
func (c *Catalog) Validate() error {
	var errs []error

	if _, err := NewTierTable(c.Tiers); err != nil {
		errs = append(errs, err)
	}

	badgeIDs := make(map[string]struct{}, len(c.Badges))
	for i, b := range c.Badges {
		path := fmt.Sprintf("badges[%d]", i)
		if err := validateBadgeAt(path, b); err != nil {
			errs = append(errs, err)
		}
		if _, dup := badgeIDs[b.ID]; dup {
			errs = append(errs, catalogErr(path, ErrInvalidBadge, "duplicate badge id %q", b.ID))
		}
		badgeIDs[b.ID] = struct{}{}
	}

	ruleIDs := make(map[string]struct{}, len(c.Rules))
	for i, r := range c.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, catalogErr(path, ErrInvalidRule, "id is required"))
		}
		if _, dup := ruleIDs[r.ID]; dup {
			errs = append(errs, catalogErr(path, ErrInvalidRule, "duplicate rule id %q", r.ID))
		}
		ruleIDs[r.ID] = struct{}{}
		if !r.Trigger.IsValid() {
			errs = append(errs, catalogErr(path, ErrInvalidRule, "unknown trigger %q", r.Trigger))
		}
		if r.Points <= 0 {
			errs = append(errs, catalogErr(path, ErrInvalidRule, "points must be positive"))
		}
		if !r.Limit.IsValid() {
			errs = append(errs, catalogErr(path, ErrInvalidRule, "unknown limit %q", r.Limit))
		}
		if cond := r.Condition; cond != nil {
			if !cond.Metric.IsValid() {
				errs = append(errs, catalogErr(path, ErrUnknownMetric, "condition references %q", cond.Metric))
			}
			if !cond.Operator.IsValid() {
				errs = append(errs, catalogErr(path, ErrInvalidRule, "unknown operator %q", cond.Operator))
			}
			if !cond.Period.IsValid() {
				errs = append(errs, catalogErr(path, ErrInvalidRule, "unknown period %q", cond.Period))
			}
		}
	}

	rewardIDs := make(map[string]struct{}, len(c.Rewards))
	for i, r := range c.Rewards {
		path := fmt.Sprintf("rewards[%d]", i)
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, catalogErr(path, ErrInvalidReward, "id is required"))
		}
		if _, dup := rewardIDs[r.ID]; dup {
			errs = append(errs, catalogErr(path, ErrInvalidReward, "duplicate reward id %q", r.ID))
		}
		rewardIDs[r.ID] = struct{}{}
		if r.Cost <= 0 {
			errs = append(errs, catalogErr(path, ErrInvalidReward, "cost must be positive"))
		}
		if r.MaxPerUser < 0 {
			errs = append(errs, catalogErr(path, ErrInvalidReward, "max_per_user must not be negative"))
		}
	}

	segmentIDs := make(map[model.SegmentID]struct{}, len(c.Segments))
	for i, s := range c.Segments {
		path := fmt.Sprintf("segments[%d]", i)
		if strings.TrimSpace(string(s.ID)) == "" {
			errs = append(errs, catalogErr(path, ErrInvalidSegment, "id is required"))
		}
		if _, dup := segmentIDs[s.ID]; dup {
			errs = append(errs, catalogErr(path, ErrInvalidSegment, "duplicate segment id %q", s.ID))
		}
		segmentIDs[s.ID] = struct{}{}
		if len(s.Metrics) == 0 {
			errs = append(errs, catalogErr(path, ErrInvalidSegment, "at least one scoring metric is required"))
		}
		for _, m := range s.Metrics {
			if !m.IsValid() {
				errs = append(errs, catalogErr(path, ErrUnknownMetric, "scores on %q", m))
			}
		}
		if s.MinMetric != nil && !s.MinMetric.Metric.IsValid() {
			errs = append(errs, catalogErr(path, ErrUnknownMetric, "min_metric references %q", s.MinMetric.Metric))
		}
		if s.Limit <= 0 {
			errs = append(errs, catalogErr(path, ErrInvalidSegment, "limit must be positive"))
		}
		if s.JoinedWithinDays < 0 {
			errs = append(errs, catalogErr(path, ErrInvalidSegment, "joined_within_days must not be negative"))
		}
	}

	for t, v := range c.PointValues {
		path := fmt.Sprintf("point_values[%s]", t)
		if !t.IsValid() {
			errs = append(errs, catalogErr(path, ErrInvalidRule, "unknown event type %q", t))
		}
		if v < 0 {
			errs = append(errs, catalogErr(path, ErrNegativePoints, "%d", v))
		}
	}
	if c.HighEngagementBonus < 0 {
		errs = append(errs, catalogErr("high_engagement_bonus", ErrNegativePoints, "%d", c.HighEngagementBonus))
	}

	return errors.Join(errs...)
}
