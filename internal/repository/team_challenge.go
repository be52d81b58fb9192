package repository

import (
	"context"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/model"
)

// TeamChallengeRepository stores team challenge definitions. Rows are
// written once; progress is derived from member activity on read.
type TeamChallengeRepository struct {
	db database.Database
}

func NewTeamChallengeRepository(db database.Database) *TeamChallengeRepository {
	return &TeamChallengeRepository{db: db}
}

// Create stores a team challenge keyed by its id
func (r *TeamChallengeRepository) Create(ctx context.Context, ch *model.TeamChallenge) error {
	fields := []string{
		"team_id = $team_id",
		"title = $title",
		"description = $description",
		"target_metric = $target_metric",
		"target_value = $target_value",
		"points_reward = $points_reward",
		"members = $members",
		"start_date = <datetime>$start_date",
		"end_date = <datetime>$end_date",
		"created_by = $created_by",
		"created_at = <datetime>$created_at",
	}
	vars := map[string]interface{}{
		"id":            ch.ID,
		"team_id":       ch.TeamID,
		"title":         ch.Title,
		"description":   ch.Description,
		"target_metric": string(ch.TargetMetric),
		"target_value":  ch.TargetValue,
		"points_reward": ch.PointsReward,
		"members":       ch.Members,
		"start_date":    formatTime(ch.StartDate),
		"end_date":      formatTime(ch.EndDate),
		"created_by":    ch.CreatedBy,
		"created_at":    formatTime(ch.CreatedAt),
	}
	return r.db.Execute(ctx, createRecord("team_challenge", fields), vars)
}

// GetByID retrieves a team challenge, nil when it does not exist
func (r *TeamChallengeRepository) GetByID(ctx context.Context, id string) (*model.TeamChallenge, error) {
	challenges, err := r.list(ctx, `SELECT * FROM type::thing("team_challenge", $id)`, map[string]interface{}{"id": id})
	if err != nil || len(challenges) == 0 {
		return nil, err
	}
	return &challenges[0], nil
}

// ListByMember retrieves the team challenges a user is on, latest ending first
func (r *TeamChallengeRepository) ListByMember(ctx context.Context, userID string) ([]model.TeamChallenge, error) {
	query := `SELECT * FROM team_challenge WHERE members CONTAINS $user_id ORDER BY end_date DESC`
	return r.list(ctx, query, map[string]interface{}{"user_id": userID})
}

func (r *TeamChallengeRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]model.TeamChallenge, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows := statementRows(results, 0)
	challenges := make([]model.TeamChallenge, 0, len(rows))
	for _, row := range rows {
		var ch model.TeamChallenge
		if err := decodeRow(row, &ch); err != nil {
			return nil, err
		}
		if ch.Members == nil {
			ch.Members = []string{}
		}
		challenges = append(challenges, ch)
	}
	return challenges, nil
}
