package repository

import (
	"context"
	"errors"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/model"
)

// ProgressionRepository persists user progressions and commits engine
// transactions
type ProgressionRepository struct {
	db database.Database
}

// NewProgressionRepository creates a new progression repository
func NewProgressionRepository(db database.Database) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

// Get retrieves a user's progression, nil when the user has none yet
func (r *ProgressionRepository) Get(ctx context.Context, userID string) (*model.UserProgression, error) {
	query := `SELECT * FROM type::thing("progression", $user_id)`
	vars := map[string]interface{}{"user_id": userID}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows := statementRows(results, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return parseProgression(rows[0])
}

// List retrieves every stored progression
func (r *ProgressionRepository) List(ctx context.Context) ([]*model.UserProgression, error) {
	results, err := r.db.Query(ctx, `SELECT * FROM progression ORDER BY user_id`, nil)
	if err != nil {
		return nil, err
	}

	rows := statementRows(results, 0)
	progressions := make([]*model.UserProgression, 0, len(rows))
	for _, row := range rows {
		p, err := parseProgression(row)
		if err != nil {
			return nil, err
		}
		progressions = append(progressions, p)
	}
	return progressions, nil
}

// Commit writes a progression and everything its transaction produced in one
// batch. It fails with database.ErrConflict when another writer moved the
// stored version past ExpectedVersion, and with database.ErrDuplicate when a
// record with the same id (event, award) already exists.
func (r *ProgressionRepository) Commit(ctx context.Context, c *model.ProgressionCommit) error {
	if c == nil || c.Progression == nil {
		return errors.New("commit requires a progression")
	}

	batch := database.NewAtomicBatch()
	addProgression(batch, c.ExpectedVersion, c.Progression)

	userID := c.Progression.UserID
	for i := range c.Recorded.Participations {
		addParticipation(batch, userID, &c.Recorded.Participations[i])
	}
	for i := range c.Recorded.Recognitions {
		addRecognition(batch, userID, &c.Recorded.Recognitions[i])
	}
	for i := range c.Recorded.Feedback {
		addFeedback(batch, userID, &c.Recorded.Feedback[i])
	}
	for i := range c.Recorded.Completions {
		addCompletion(batch, userID, &c.Recorded.Completions[i])
	}
	for i := range c.Recorded.Contributions {
		addContribution(batch, userID, &c.Recorded.Contributions[i])
	}
	for i := range c.Delta.Ledger {
		addLedgerEntry(batch, &c.Delta.Ledger[i])
	}
	for i := range c.Delta.BadgeAwards {
		addBadgeAward(batch, &c.Delta.BadgeAwards[i])
	}
	for i := range c.Delta.Redemptions {
		addRedemption(batch, &c.Delta.Redemptions[i])
	}
	for i := range c.Challenges {
		addChallengeUpdate(batch, &c.Challenges[i])
	}

	return batch.Execute(ctx, r.db)
}

func addProgression(batch *database.AtomicBatch, expected int64, p *model.UserProgression) {
	fields := []string{
		"user_id = $user_id",
		"email = $email",
		"total_points = $total_points",
		"lifetime_points = $lifetime_points",
		"level = $level",
		"experience_points = $experience_points",
		"streak_days = $streak_days",
		"longest_streak = $longest_streak",
		"badges_earned = $badges_earned",
		"tier = $tier",
		"created_at = <datetime>$created_at",
		"updated_at = <datetime>$updated_at",
		"version = $version",
	}
	vars := map[string]interface{}{
		"user_id":           p.UserID,
		"email":             p.Email,
		"total_points":      p.TotalPoints,
		"lifetime_points":   p.LifetimePoints,
		"level":             p.Level,
		"experience_points": p.ExperiencePoints,
		"streak_days":       p.StreakDays,
		"longest_streak":    p.LongestStreak,
		"badges_earned":     p.BadgesEarned,
		"tier":              p.Tier,
		"created_at":        formatTime(p.CreatedAt),
		"updated_at":        formatTime(p.UpdatedAt),
		"version":           p.Version,
		"expected":          expected,
	}
	if p.LastActivityAt != nil {
		fields = append(fields, "last_activity_at = <datetime>$last_activity_at")
		vars["last_activity_at"] = formatTime(*p.LastActivityAt)
	}

	query := `
		IF ((SELECT VALUE version FROM ONLY type::thing("progression", $user_id)) ?? 0) != $expected {
			THROW "version conflict"
		};
		UPSERT type::thing("progression", $user_id) SET
			` + setClause(fields)
	batch.Add(query, vars)
}

func parseProgression(row map[string]interface{}) (*model.UserProgression, error) {
	var p model.UserProgression
	if err := decodeRow(row, &p); err != nil {
		return nil, err
	}
	if p.BadgesEarned == nil {
		p.BadgesEarned = []string{}
	}
	return &p, nil
}
