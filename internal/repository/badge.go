package repository

import (
	"context"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/model"
)

// BadgeRepository handles badge awards and custom catalog badges
type BadgeRepository struct {
	db database.Database
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db database.Database) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// AwardsByUser retrieves a user's badge awards in award order
func (r *BadgeRepository) AwardsByUser(ctx context.Context, userID string) ([]model.BadgeAward, error) {
	query := `SELECT * FROM badge_award WHERE user_id = $user_id ORDER BY awarded_at`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, err
	}

	rows := statementRows(results, 0)
	awards := make([]model.BadgeAward, 0, len(rows))
	for _, row := range rows {
		var a model.BadgeAward
		if err := decodeRow(row, &a); err != nil {
			return nil, err
		}
		awards = append(awards, a)
	}
	return awards, nil
}

// CreateCustomBadge stores an accepted badge proposal. Badge ids are unique
// across the catalog, so an existing id fails with database.ErrDuplicate.
func (r *BadgeRepository) CreateCustomBadge(ctx context.Context, b *model.Badge) error {
	criteria := map[string]interface{}{"type": string(b.Criteria.Type)}
	if b.Criteria.Metric != "" {
		criteria["metric"] = string(b.Criteria.Metric)
		criteria["threshold"] = b.Criteria.Threshold
	}

	query := `
		CREATE type::thing("custom_badge", $id) SET
			name = $name,
			description = $description,
			icon = $icon,
			rarity = $rarity,
			points_value = $points_value,
			criteria = $criteria,
			is_hidden = $is_hidden,
			created_at = time::now()
	`
	vars := map[string]interface{}{
		"id":           b.ID,
		"name":         b.Name,
		"description":  b.Description,
		"icon":         b.Icon,
		"rarity":       string(b.Rarity),
		"points_value": b.PointsValue,
		"criteria":     criteria,
		"is_hidden":    b.IsHidden,
	}

	return r.db.Execute(ctx, query, vars)
}

// ListCustomBadges retrieves every stored custom badge in creation order
func (r *BadgeRepository) ListCustomBadges(ctx context.Context) ([]model.Badge, error) {
	results, err := r.db.Query(ctx, `SELECT * FROM custom_badge ORDER BY created_at`, nil)
	if err != nil {
		return nil, err
	}

	rows := statementRows(results, 0)
	badges := make([]model.Badge, 0, len(rows))
	for _, row := range rows {
		var b model.Badge
		if err := decodeRow(row, &b); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, nil
}

// addBadgeAward records an award. The (user_id, badge_id) unique index makes
// a second award of the same badge fail with database.ErrDuplicate.
func addBadgeAward(batch *database.AtomicBatch, a *model.BadgeAward) {
	fields := []string{
		"user_id = $user_id",
		"badge_id = $badge_id",
		"award_type = $award_type",
		"points_granted = $points_granted",
		"awarded_at = <datetime>$awarded_at",
	}
	vars := map[string]interface{}{
		"id":             a.ID,
		"user_id":        a.UserID,
		"badge_id":       a.BadgeID,
		"award_type":     string(a.AwardType),
		"points_granted": a.PointsGranted,
		"awarded_at":     formatTime(a.AwardedAt),
	}
	if a.AwardedBy != "" {
		fields = append(fields, "awarded_by = $awarded_by")
		vars["awarded_by"] = a.AwardedBy
	}
	batch.Add(createRecord("badge_award", fields), vars)
}
