package repository

import (
	"context"
	"fmt"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/model"
)

// ActivityRepository reads the activity records, ledger and redemptions a
// metric snapshot is derived from. Writes go through ProgressionRepository.Commit.
type ActivityRepository struct {
	db database.Database
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.Database) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Statement order of historyQuery; rows are routed by position
const historyStatements = `
	SELECT * FROM participation %[1]s ORDER BY recorded_at;
	SELECT * FROM recognition %[1]s ORDER BY created_at;
	SELECT * FROM feedback %[1]s ORDER BY submitted_at;
	SELECT * FROM challenge_completion %[1]s ORDER BY completed_at;
	SELECT * FROM contribution %[1]s ORDER BY created_at;
	SELECT * FROM ledger_entry %[1]s ORDER BY created_at;
	SELECT * FROM redemption %[1]s ORDER BY redeemed_at;
`

// History retrieves everything recorded for one user
func (r *ActivityRepository) History(ctx context.Context, userID string) (*model.ActivityHistory, error) {
	query := historyQuery("WHERE user_id = $user_id")
	results, err := r.db.Query(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, err
	}

	histories, err := parseHistories(results)
	if err != nil {
		return nil, err
	}
	if h, ok := histories[userID]; ok {
		return h, nil
	}
	return &model.ActivityHistory{UserID: userID}, nil
}

// Histories retrieves the histories of every user, keyed by user id
func (r *ActivityRepository) Histories(ctx context.Context) (map[string]*model.ActivityHistory, error) {
	results, err := r.db.Query(ctx, historyQuery(""), nil)
	if err != nil {
		return nil, err
	}
	return parseHistories(results)
}

// Ledger retrieves a page of a user's ledger, newest first
func (r *ActivityRepository) Ledger(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error) {
	query := `
		SELECT * FROM ledger_entry
		WHERE user_id = $user_id
		ORDER BY created_at DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows := statementRows(results, 0)
	entries := make([]model.PointsLedgerEntry, 0, len(rows))
	for _, row := range rows {
		var e model.PointsLedgerEntry
		if err := decodeRow(row, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func historyQuery(where string) string {
	return fmt.Sprintf(historyStatements, where)
}

func parseHistories(results []interface{}) (map[string]*model.ActivityHistory, error) {
	histories := make(map[string]*model.ActivityHistory)
	get := func(row map[string]interface{}) *model.ActivityHistory {
		userID, _ := row["user_id"].(string)
		h, ok := histories[userID]
		if !ok {
			h = &model.ActivityHistory{UserID: userID}
			histories[userID] = h
		}
		return h
	}

	for _, row := range statementRows(results, 0) {
		var p model.Participation
		if err := decodeRow(row, &p); err != nil {
			return nil, err
		}
		h := get(row)
		h.Participations = append(h.Participations, p)
	}
	for _, row := range statementRows(results, 1) {
		var rec model.Recognition
		if err := decodeRow(row, &rec); err != nil {
			return nil, err
		}
		h := get(row)
		h.Recognitions = append(h.Recognitions, rec)
	}
	for _, row := range statementRows(results, 2) {
		var f model.Feedback
		if err := decodeRow(row, &f); err != nil {
			return nil, err
		}
		h := get(row)
		h.Feedback = append(h.Feedback, f)
	}
	for _, row := range statementRows(results, 3) {
		var c model.ChallengeCompletion
		if err := decodeRow(row, &c); err != nil {
			return nil, err
		}
		h := get(row)
		h.Completions = append(h.Completions, c)
	}
	for _, row := range statementRows(results, 4) {
		var c model.Contribution
		if err := decodeRow(row, &c); err != nil {
			return nil, err
		}
		h := get(row)
		h.Contributions = append(h.Contributions, c)
	}
	for _, row := range statementRows(results, 5) {
		var e model.PointsLedgerEntry
		if err := decodeRow(row, &e); err != nil {
			return nil, err
		}
		h := get(row)
		h.Ledger = append(h.Ledger, e)
	}
	for _, row := range statementRows(results, 6) {
		var red model.Redemption
		if err := decodeRow(row, &red); err != nil {
			return nil, err
		}
		h := get(row)
		h.Redemptions = append(h.Redemptions, red)
	}
	return histories, nil
}

// Record statements. Every record keeps the owning user_id so a user's
// history is a single indexed lookup, and the domain id is the record key
// so replays fail with database.ErrDuplicate.

func addParticipation(batch *database.AtomicBatch, userID string, p *model.Participation) {
	fields := []string{
		"user_id = $user_id",
		"event_id = $event_id",
		"attended = $attended",
		"activity_completed = $activity_completed",
		"feedback_submitted = $feedback_submitted",
		"recorded_at = <datetime>$recorded_at",
	}
	vars := map[string]interface{}{
		"id":                 p.ID,
		"user_id":            userID,
		"event_id":           p.EventID,
		"attended":           p.Attended,
		"activity_completed": p.ActivityCompleted,
		"feedback_submitted": p.FeedbackSubmitted,
		"recorded_at":        formatTime(p.RecordedAt),
	}
	if p.AttendedAt != nil {
		fields = append(fields, "attended_at = <datetime>$attended_at")
		vars["attended_at"] = formatTime(*p.AttendedAt)
	}
	if p.EngagementScore != nil {
		fields = append(fields, "engagement_score = $engagement_score")
		vars["engagement_score"] = *p.EngagementScore
	}
	if p.EngagementScale != 0 {
		fields = append(fields, "engagement_scale = $engagement_scale")
		vars["engagement_scale"] = p.EngagementScale
	}
	batch.Add(createRecord("participation", fields), vars)
}

func addRecognition(batch *database.AtomicBatch, userID string, rec *model.Recognition) {
	batch.Add(createRecord("recognition", []string{
		"user_id = $user_id",
		"giver_id = $giver_id",
		"recipient_id = $recipient_id",
		"created_at = <datetime>$created_at",
	}), map[string]interface{}{
		"id":           rec.ID,
		"user_id":      userID,
		"giver_id":     rec.GiverID,
		"recipient_id": rec.RecipientID,
		"created_at":   formatTime(rec.CreatedAt),
	})
}

func addFeedback(batch *database.AtomicBatch, userID string, f *model.Feedback) {
	fields := []string{
		"user_id = $user_id",
		"event_id = $event_id",
		"submitted_at = <datetime>$submitted_at",
	}
	vars := map[string]interface{}{
		"id":           f.ID,
		"user_id":      userID,
		"event_id":     f.EventID,
		"submitted_at": formatTime(f.SubmittedAt),
	}
	if f.Rating != nil {
		fields = append(fields, "rating = $rating")
		vars["rating"] = *f.Rating
	}
	batch.Add(createRecord("feedback", fields), vars)
}

func addCompletion(batch *database.AtomicBatch, userID string, c *model.ChallengeCompletion) {
	batch.Add(createRecord("challenge_completion", []string{
		"user_id = $user_id",
		"challenge_id = $challenge_id",
		"completed_at = <datetime>$completed_at",
	}), map[string]interface{}{
		"id":           c.ID,
		"user_id":      userID,
		"challenge_id": c.ChallengeID,
		"completed_at": formatTime(c.CompletedAt),
	})
}

func addContribution(batch *database.AtomicBatch, userID string, c *model.Contribution) {
	batch.Add(createRecord("contribution", []string{
		"user_id = $user_id",
		"kind = $kind",
		"quantity = $quantity",
		"created_at = <datetime>$created_at",
	}), map[string]interface{}{
		"id":         c.ID,
		"user_id":    userID,
		"kind":       string(c.Kind),
		"quantity":   c.Quantity,
		"created_at": formatTime(c.CreatedAt),
	})
}

func addLedgerEntry(batch *database.AtomicBatch, e *model.PointsLedgerEntry) {
	fields := []string{
		"user_id = $user_id",
		"delta = $delta",
		"reason = $reason",
		"source_id = $source_id",
		"balance_after = $balance_after",
		"lifetime_after = $lifetime_after",
		"created_at = <datetime>$created_at",
	}
	vars := map[string]interface{}{
		"id":             e.ID,
		"user_id":        e.UserID,
		"delta":          e.Delta,
		"reason":         string(e.Reason),
		"source_id":      e.SourceID,
		"balance_after":  e.BalanceAfter,
		"lifetime_after": e.LifetimeAfter,
		"created_at":     formatTime(e.CreatedAt),
	}
	if e.RuleID != "" {
		fields = append(fields, "rule_id = $rule_id")
		vars["rule_id"] = e.RuleID
	}
	if e.Multiplier != 0 {
		fields = append(fields, "multiplier = $multiplier")
		vars["multiplier"] = e.Multiplier
	}
	batch.Add(createRecord("ledger_entry", fields), vars)
}

func addRedemption(batch *database.AtomicBatch, red *model.Redemption) {
	batch.Add(createRecord("redemption", []string{
		"user_id = $user_id",
		"reward_id = $reward_id",
		"cost = $cost",
		"status = $status",
		"redeemed_at = <datetime>$redeemed_at",
	}), map[string]interface{}{
		"id":          red.ID,
		"user_id":     red.UserID,
		"reward_id":   red.RewardID,
		"cost":        red.Cost,
		"status":      string(red.Status),
		"redeemed_at": formatTime(red.RedeemedAt),
	})
}

// createRecord builds a CREATE keyed by $id
func createRecord(table string, fields []string) string {
	return `CREATE type::thing("` + table + `", $id) SET
			` + setClause(fields)
}
