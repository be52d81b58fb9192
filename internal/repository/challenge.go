package repository

import (
	"context"
	"time"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/model"
)

// ChallengeRepository handles personal challenge data access
type ChallengeRepository struct {
	db database.Database
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db database.Database) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create creates a new challenge keyed by its id
func (r *ChallengeRepository) Create(ctx context.Context, ch *model.PersonalChallenge) error {
	fields := []string{
		"owner_id = $owner_id",
		"title = $title",
		"description = $description",
		"target_metric = $target_metric",
		"target_value = $target_value",
		"current_progress = $current_progress",
		"points_reward = $points_reward",
		"difficulty = $difficulty",
		"source = $source",
		"start_date = <datetime>$start_date",
		"end_date = <datetime>$end_date",
		"status = $status",
		"created_at = <datetime>$created_at",
	}
	vars := map[string]interface{}{
		"id":               ch.ID,
		"owner_id":         ch.OwnerID,
		"title":            ch.Title,
		"description":      ch.Description,
		"target_metric":    string(ch.TargetMetric),
		"target_value":     ch.TargetValue,
		"current_progress": ch.CurrentProgress,
		"points_reward":    ch.PointsReward,
		"difficulty":       ch.Difficulty,
		"source":           string(ch.Source),
		"start_date":       formatTime(ch.StartDate),
		"end_date":         formatTime(ch.EndDate),
		"status":           string(ch.Status),
		"created_at":       formatTime(ch.CreatedAt),
	}

	return r.db.Execute(ctx, createRecord("challenge", fields), vars)
}

// GetByID retrieves a challenge, nil when it does not exist
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*model.PersonalChallenge, error) {
	results, err := r.db.Query(ctx, `SELECT * FROM type::thing("challenge", $id)`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}

	challenges, err := parseChallenges(statementRows(results, 0))
	if err != nil || len(challenges) == 0 {
		return nil, err
	}
	return &challenges[0], nil
}

// ListActiveByOwner retrieves the owner's active challenges, oldest first
func (r *ChallengeRepository) ListActiveByOwner(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error) {
	query := `SELECT * FROM challenge WHERE owner_id = $owner_id AND status = "active" ORDER BY created_at`
	return r.list(ctx, query, map[string]interface{}{"owner_id": ownerID})
}

// ListByOwner retrieves all of the owner's challenges, newest first
func (r *ChallengeRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error) {
	query := `SELECT * FROM challenge WHERE owner_id = $owner_id ORDER BY created_at DESC`
	return r.list(ctx, query, map[string]interface{}{"owner_id": ownerID})
}

// ListExpirable retrieves active challenges whose end date is before now
func (r *ChallengeRepository) ListExpirable(ctx context.Context, now time.Time) ([]model.PersonalChallenge, error) {
	query := `SELECT * FROM challenge WHERE status = "active" AND end_date < <datetime>$now ORDER BY end_date`
	return r.list(ctx, query, map[string]interface{}{"now": formatTime(now)})
}

// MarkExpired moves an active challenge to expired. A challenge that is no
// longer active is left untouched.
func (r *ChallengeRepository) MarkExpired(ctx context.Context, id string) error {
	query := `UPDATE type::thing("challenge", $id) SET status = "expired" WHERE status = "active"`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": id})
}

func (r *ChallengeRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]model.PersonalChallenge, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseChallenges(statementRows(results, 0))
}

// addChallengeUpdate writes the mutable part of a challenge. Every engine
// transition starts from an active challenge, so the update throws a version
// conflict when the stored row is no longer active (expired by the sweep or
// claimed elsewhere) and the caller's retry reloads it.
func addChallengeUpdate(batch *database.AtomicBatch, ch *model.PersonalChallenge) {
	fields := []string{
		"current_progress = $current_progress",
		"status = $status",
	}
	vars := map[string]interface{}{
		"id":               ch.ID,
		"current_progress": ch.CurrentProgress,
		"status":           string(ch.Status),
	}
	if ch.CompletedAt != nil {
		fields = append(fields, "completed_at = <datetime>$completed_at")
		vars["completed_at"] = formatTime(*ch.CompletedAt)
	}
	batch.Add(`
		IF (SELECT VALUE status FROM ONLY type::thing("challenge", $id)) != "active" {
			THROW "version conflict"
		};
		UPDATE type::thing("challenge", $id) SET
			`+setClause(fields)+` WHERE status = "active"`, vars)
}

func parseChallenges(rows []map[string]interface{}) ([]model.PersonalChallenge, error) {
	challenges := make([]model.PersonalChallenge, 0, len(rows))
	for _, row := range rows {
		var ch model.PersonalChallenge
		if err := decodeRow(row, &ch); err != nil {
			return nil, err
		}
		challenges = append(challenges, ch)
	}
	return challenges, nil
}
