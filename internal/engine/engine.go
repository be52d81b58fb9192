package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/ascend/api/internal/model"
)

// Config configures an Engine
type Config struct {
	// Catalog defaults to DefaultCatalog()
	Catalog *Catalog
	// Curve defaults to LinearCurve{DefaultPointsPerLevel}
	Curve LevelCurve
	// Location decides calendar-day boundaries. Defaults to UTC.
	Location *time.Location
	// WeekendMultiplier applies to Saturday and Sunday events. Zero means 1.
	WeekendMultiplier float64
	// MaxPointsPerAction caps a single award. Zero means uncapped.
	MaxPointsPerAction int64
	// NewID generates ids for ledger entries, awards and redemptions
	NewID func() string
}

// Engine is the progression engine. It holds only validated configuration
// and is safe for concurrent use; every operation is a pure function of its
// input.
type Engine struct {
	catalog   *Catalog
	tiers     *TierTable
	curve     LevelCurve
	loc       *time.Location
	weekend   float64
	maxPoints int64
	newID     func() string

	rules    []model.GamificationRule
	badges   map[string]model.Badge
	rewards  map[string]model.Reward
	segments map[model.SegmentID]model.LeaderboardSegment
}

// New validates the configuration and builds an engine. Configuration
// problems fail here rather than during evaluation.
func New(cfg Config) (*Engine, error) {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	catalog = catalog.Clone()

	curve := cfg.Curve
	if curve == nil {
		curve = LinearCurve{PointsPerLevel: DefaultPointsPerLevel}
	}
	if err := validateCurve(curve); err != nil {
		return nil, err
	}

	tiers, err := NewTierTable(catalog.Tiers)
	if err != nil {
		return nil, err
	}

	weekend := cfg.WeekendMultiplier
	if weekend == 0 {
		weekend = 1
	}
	if weekend < 1 || math.IsNaN(weekend) || math.IsInf(weekend, 0) {
		return nil, fmt.Errorf("%w: weekend multiplier %.2f must be >= 1", ErrInvalidRule, weekend)
	}
	if cfg.MaxPointsPerAction < 0 {
		return nil, fmt.Errorf("%w: max points per action must not be negative", ErrNegativePoints)
	}

	e := &Engine{
		catalog:   catalog,
		tiers:     tiers,
		curve:     curve,
		loc:       cfg.Location,
		weekend:   weekend,
		maxPoints: cfg.MaxPointsPerAction,
		newID:     cfg.NewID,
		rules:     sortRules(catalog.Rules),
		badges:    make(map[string]model.Badge, len(catalog.Badges)),
		rewards:   make(map[string]model.Reward, len(catalog.Rewards)),
		segments:  make(map[model.SegmentID]model.LeaderboardSegment, len(catalog.Segments)),
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	for _, b := range catalog.Badges {
		e.badges[b.ID] = b
	}
	for _, r := range catalog.Rewards {
		e.rewards[r.ID] = r
	}
	for _, s := range catalog.Segments {
		e.segments[s.ID] = s
	}
	return e, nil
}

// WithBadge returns a new engine whose catalog also contains b. The
// receiver is unchanged.
func (e *Engine) WithBadge(b model.Badge) (*Engine, error) {
	if _, exists := e.badges[b.ID]; exists {
		return nil, catalogErr("badge", ErrInvalidBadge, "duplicate badge id %q", b.ID)
	}
	catalog := e.catalog.Clone()
	catalog.Badges = append(catalog.Badges, b)
	return New(Config{
		Catalog:            catalog,
		Curve:              e.curve,
		Location:           e.loc,
		WeekendMultiplier:  e.weekend,
		MaxPointsPerAction: e.maxPoints,
		NewID:              e.newID,
	})
}

// Catalog returns a copy of the active catalog
func (e *Engine) Catalog() *Catalog {
	return e.catalog.Clone()
}

// Location returns the calendar-day location
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Badge looks up a catalog badge
func (e *Engine) Badge(id string) (model.Badge, bool) {
	b, ok := e.badges[id]
	return b, ok
}

// Reward looks up a catalog reward
func (e *Engine) Reward(id string) (model.Reward, bool) {
	r, ok := e.rewards[id]
	return r, ok
}

// Rewards returns the active rewards in catalog order
func (e *Engine) Rewards() []model.Reward {
	var out []model.Reward
	for _, r := range e.catalog.Rewards {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

// Segment looks up a leaderboard segment
func (e *Engine) Segment(id model.SegmentID) (model.LeaderboardSegment, bool) {
	s, ok := e.segments[id]
	return s, ok
}

// Segments returns every segment in catalog order
func (e *Engine) Segments() []model.LeaderboardSegment {
	return append([]model.LeaderboardSegment(nil), e.catalog.Segments...)
}

// Tiers returns the ordered tier table
func (e *Engine) Tiers() []model.AchievementTier {
	return e.tiers.Tiers()
}

// PublicBadges is the catalog as shown to players: hidden badges are
// redacted and no badge carries progress.
func (e *Engine) PublicBadges() []model.BadgeStatus {
	out := make([]model.BadgeStatus, 0, len(e.catalog.Badges))
	for _, b := range e.catalog.Badges {
		status := RedactBadge(BadgeEvaluation{Badge: b})
		status.ProgressPercentage = nil
		out = append(out, status)
	}
	return out
}

// ============================================================================
// Write path
// ============================================================================

// ApplyInput is the state the store loaded for one activity event
type ApplyInput struct {
	// Progression is nil on the user's first event
	Progression *model.UserProgression
	History     *model.ActivityHistory
	// Challenges owned by the user; other owners are ignored
	Challenges []model.PersonalChallenge
	Event      model.ActivityEvent
}

// Outcome is the result of one engine transaction. The caller persists
// Progression, the activity records in Recorded, everything in Delta and the
// changed Challenges in a single transaction.
type Outcome struct {
	Progression *model.UserProgression
	Delta       model.ProgressionDelta
	Snapshot    model.MetricSnapshot
	Recorded    model.ActivityHistory
	Challenges  []model.PersonalChallenge
	// Duplicate is set when the event id was already applied; nothing changed
	Duplicate bool
}

// Apply turns an activity event into the user's next progression state.
// Inputs are not modified.
func (e *Engine) Apply(in ApplyInput) (*Outcome, error) {
	ev := in.Event
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	if in.Progression != nil && in.Progression.UserID != ev.UserID {
		return nil, ErrUserMismatch
	}

	tx := e.begin(ev.UserID, in.Progression, in.History, ev.OccurredAt)
	tx.delta.EventID = ev.ID

	if in.History.Contains(ev.ID) {
		return &Outcome{
			Progression: tx.prog,
			Delta:       tx.delta,
			Snapshot:    tx.snapshot(),
			Duplicate:   true,
		}, nil
	}

	before := tx.snapshot()
	multiplier := e.tiers.TierFor(tx.before.LifetimePoints).Multiplier
	if isWeekend(ev.OccurredAt, e.loc) {
		multiplier *= e.weekend
	}

	streak := AdvanceStreak(streakOf(tx.prog), ev.OccurredAt, e.loc)
	tx.prog.StreakDays = streak.Current
	tx.prog.LongestStreak = streak.Longest
	tx.prog.LastActivityAt = streak.LastActivityAt

	credited := tx.history.Credited(ev)
	tx.record(ev)
	if credited {
		tx.delta.AlreadyCredited = true
		return e.finishApply(tx, in, before, ev)
	}

	base := e.catalog.PointValues[ev.Type]
	if ev.Type == model.EventAttendance {
		if score, ok := NormalizeEngagement(ev.EngagementScore, ev.EngagementScale); ok && score >= model.HighEngagementThreshold {
			base += e.catalog.HighEngagementBonus
		}
	}
	if points := scalePoints(base, multiplier, e.maxPoints); points > 0 {
		if err := tx.credit(points, model.ReasonEventPoints, ev.ID, "", multiplier, ev.OccurredAt); err != nil {
			return nil, err
		}
	}

	for _, m := range MatchRules(e.rules, ev, &tx.history, tx.prog, e.loc) {
		points := scalePoints(m.Points, multiplier, e.maxPoints)
		if err := tx.credit(points, model.ReasonRuleBonus, ev.ID, m.Rule.ID, multiplier, ev.OccurredAt); err != nil {
			return nil, err
		}
	}

	return e.finishApply(tx, in, before, ev)
}

// finishApply awards newly earned badges and moves the user's challenges
// forward by the counters the event changed
func (e *Engine) finishApply(tx *txn, in ApplyInput, before model.MetricSnapshot, ev model.ActivityEvent) (*Outcome, error) {
	if err := tx.awardEarnedBadges(ev.OccurredAt); err != nil {
		return nil, err
	}

	after := tx.snapshot()
	increments := counterIncrements(before, after)
	for _, ch := range in.Challenges {
		if ch.OwnerID != ev.UserID {
			continue
		}
		if expired, tr := ExpireChallenge(ch, ev.OccurredAt); tr != nil {
			tx.delta.ChallengeTransitions = append(tx.delta.ChallengeTransitions, *tr)
			tx.challenges = append(tx.challenges, expired)
			continue
		}
		if advanced, changed := AdvanceChallenge(ch, increments, after, ev.OccurredAt); changed {
			tx.challenges = append(tx.challenges, advanced)
		}
	}

	return tx.commit()
}

// ClaimInput is the state needed to claim a challenge
type ClaimInput struct {
	UserID      string
	Progression *model.UserProgression
	History     *model.ActivityHistory
	Challenge   model.PersonalChallenge
	Now         time.Time
}

// Claim completes a challenge and grants its reward exactly once
func (e *Engine) Claim(in ClaimInput) (*Outcome, error) {
	if in.Progression != nil && in.Progression.UserID != in.UserID {
		return nil, ErrUserMismatch
	}
	ch, tr, err := ClaimChallenge(in.Challenge, in.UserID, in.Now)
	if err != nil {
		return nil, err
	}

	tx := e.begin(in.UserID, in.Progression, in.History, in.Now)
	tx.delta.ChallengeTransitions = append(tx.delta.ChallengeTransitions, *tr)
	tx.challenges = append(tx.challenges, ch)
	return tx.complete(ch, "challenge:", in.Now)
}

// AwardInput is the state needed for a manual badge award
type AwardInput struct {
	UserID      string
	Progression *model.UserProgression
	History     *model.ActivityHistory
	BadgeID     string
	AwardedBy   string
	Now         time.Time
}

// AwardBadge grants a manual badge. Automatic badges cannot be granted
// directly and a badge is never awarded twice.
func (e *Engine) AwardBadge(in AwardInput) (*Outcome, error) {
	if in.Progression != nil && in.Progression.UserID != in.UserID {
		return nil, ErrUserMismatch
	}
	b, ok := e.badges[in.BadgeID]
	if !ok {
		return nil, ErrUnknownBadge
	}
	if !b.IsManual() {
		return nil, ErrManualBadgeOnly
	}
	if in.Progression != nil && in.Progression.HasBadge(b.ID) {
		return nil, ErrBadgeAlreadyAwarded
	}

	tx := e.begin(in.UserID, in.Progression, in.History, in.Now)
	if err := tx.grantBadge(b, model.AwardManual, in.AwardedBy, in.Now); err != nil {
		return nil, err
	}
	if err := tx.awardEarnedBadges(in.Now); err != nil {
		return nil, err
	}
	return tx.commit()
}

// RedeemInput is the state needed to redeem a reward
type RedeemInput struct {
	UserID      string
	Progression *model.UserProgression
	History     *model.ActivityHistory
	RewardID    string
	Now         time.Time
}

// Redeem spends points on a reward. Lifetime points are untouched.
func (e *Engine) Redeem(in RedeemInput) (*Outcome, error) {
	if in.Progression != nil && in.Progression.UserID != in.UserID {
		return nil, ErrUserMismatch
	}
	r, ok := e.rewards[in.RewardID]
	if !ok {
		return nil, ErrUnknownReward
	}
	if !r.Active {
		return nil, ErrRewardUnavailable
	}
	if r.MaxPerUser > 0 && in.History != nil {
		used := 0
		for _, red := range in.History.Redemptions {
			if red.RewardID == r.ID && red.Status != model.RedemptionCancelled {
				used++
			}
		}
		if used >= r.MaxPerUser {
			return nil, &RedemptionLimitError{RewardID: r.ID, Limit: r.MaxPerUser, Redeemed: used}
		}
	}

	tx := e.begin(in.UserID, in.Progression, in.History, in.Now)
	redemption := model.Redemption{
		ID:         e.newID(),
		UserID:     in.UserID,
		RewardID:   r.ID,
		Cost:       r.Cost,
		Status:     model.RedemptionPending,
		RedeemedAt: in.Now,
	}
	if err := tx.debit(r.Cost, model.ReasonRewardRedemption, redemption.ID, in.Now); err != nil {
		return nil, err
	}
	tx.history.Redemptions = append(tx.history.Redemptions, redemption)
	tx.delta.Redemptions = append(tx.delta.Redemptions, redemption)
	return tx.commit()
}

// ============================================================================
// Read path
// ============================================================================

// DashboardInput is the state needed to render one user's dashboard
type DashboardInput struct {
	UserID      string
	Progression *model.UserProgression
	History     *model.ActivityHistory
	Challenges  []model.PersonalChallenge
	Now         time.Time
	// RecommendationLimit defaults to 3
	RecommendationLimit int
}

// Dashboard builds the redacted read-side view. Badges whose threshold is
// reached but not yet persisted are reported with full progress and not as
// earned.
func (e *Engine) Dashboard(in DashboardInput) model.Dashboard {
	prog := e.currentState(in.UserID, in.Progression, in.Now)
	snap := BuildSnapshot(SnapshotInput{
		UserID:      prog.UserID,
		History:     in.History,
		Progression: prog,
		AsOf:        in.Now,
		Location:    e.loc,
	})

	evals := EvaluateBadges(e.catalog.Badges, snap, prog.BadgesEarned)
	for i := range evals {
		if evals[i].NewlyEarned {
			evals[i].NewlyEarned = false
			evals[i].Earned = false
		}
	}

	limit := in.RecommendationLimit
	if limit <= 0 {
		limit = 3
	}

	var owned []model.PersonalChallenge
	for _, ch := range in.Challenges {
		if ch.OwnerID == prog.UserID {
			owned = append(owned, ch)
		}
	}

	return model.Dashboard{
		Progression:     *prog,
		Level:           LevelProgressFor(e.curve, prog.LifetimePoints),
		Tier:            e.tiers.Progress(prog.LifetimePoints),
		Streak:          StreakStatusFor(prog, in.Now, e.loc),
		Snapshot:        snap,
		Badges:          RedactAll(evals),
		Recommendations: RedactAll(RecommendBadges(evals, limit)),
		Challenges:      ChallengeViews(owned, in.Now),
	}
}

// Standing is the leaderboard input for one user as of now
func (e *Engine) Standing(prog *model.UserProgression, history *model.ActivityHistory, now time.Time) model.PlayerStanding {
	userID := ""
	if prog != nil {
		userID = prog.UserID
	} else if history != nil {
		userID = history.UserID
	}
	current := e.currentState(userID, prog, now)
	return model.PlayerStanding{
		Progression: *current,
		Snapshot: BuildSnapshot(SnapshotInput{
			UserID:      current.UserID,
			History:     history,
			Progression: current,
			AsOf:        now,
			Location:    e.loc,
		}),
	}
}

// Leaderboard ranks one segment
func (e *Engine) Leaderboard(id model.SegmentID, standings []model.PlayerStanding, now time.Time) (model.Leaderboard, error) {
	seg, ok := e.segments[id]
	if !ok {
		return model.Leaderboard{}, ErrUnknownSegment
	}
	return RankSegment(seg, standings, now), nil
}

// Leaderboards ranks every segment in catalog order
func (e *Engine) Leaderboards(standings []model.PlayerStanding, now time.Time) []model.Leaderboard {
	out := make([]model.Leaderboard, 0, len(e.catalog.Segments))
	for _, seg := range e.catalog.Segments {
		out = append(out, RankSegment(seg, standings, now))
	}
	return out
}

// currentState copies prog with derived caches refreshed and the lazy
// streak reset applied
func (e *Engine) currentState(userID string, prog *model.UserProgression, now time.Time) *model.UserProgression {
	var p *model.UserProgression
	if prog == nil {
		p = model.NewUserProgression(userID, now)
	} else {
		p = prog.Clone()
	}
	e.refresh(p)
	p.StreakDays = EffectiveStreak(streakOf(p), now, e.loc)
	return p
}

// refresh recomputes the level, experience and tier caches from lifetime points
func (e *Engine) refresh(p *model.UserProgression) {
	lifetime := nonNegative(p.LifetimePoints)
	p.Level = LevelFor(e.curve, lifetime)
	p.ExperiencePoints = lifetime - e.curve.Threshold(p.Level)
	p.Tier = e.tiers.TierFor(lifetime).Level
}

func validateEvent(ev model.ActivityEvent) error {
	switch {
	case ev.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	case ev.UserID == "":
		return fmt.Errorf("%w: user_id is required", ErrInvalidEvent)
	case !ev.Type.IsValid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	case ev.OccurredAt.IsZero():
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEvent)
	}
	return nil
}

// ============================================================================
// Transactions
// ============================================================================

// txn accumulates one user's state changes
type txn struct {
	e          *Engine
	at         time.Time
	before     *model.UserProgression
	prog       *model.UserProgression
	history    model.ActivityHistory
	recorded   model.ActivityHistory
	delta      model.ProgressionDelta
	challenges []model.PersonalChallenge
}

func (e *Engine) begin(userID string, prog *model.UserProgression, history *model.ActivityHistory, at time.Time) *txn {
	var before *model.UserProgression
	if prog == nil {
		before = model.NewUserProgression(userID, at)
	} else {
		before = prog.Clone()
	}
	e.refresh(before)

	tx := &txn{
		e:        e,
		at:       at,
		before:   before,
		prog:     before.Clone(),
		recorded: model.ActivityHistory{UserID: userID},
		delta:    model.ProgressionDelta{UserID: userID},
	}
	tx.history.UserID = userID
	if history != nil {
		tx.history.Participations = append([]model.Participation(nil), history.Participations...)
		tx.history.Recognitions = append([]model.Recognition(nil), history.Recognitions...)
		tx.history.Feedback = append([]model.Feedback(nil), history.Feedback...)
		tx.history.Completions = append([]model.ChallengeCompletion(nil), history.Completions...)
		tx.history.Contributions = append([]model.Contribution(nil), history.Contributions...)
		tx.history.Ledger = append([]model.PointsLedgerEntry(nil), history.Ledger...)
		tx.history.Redemptions = append([]model.Redemption(nil), history.Redemptions...)
	}
	return tx
}

func (tx *txn) snapshot() model.MetricSnapshot {
	return BuildSnapshot(SnapshotInput{
		UserID:      tx.prog.UserID,
		History:     &tx.history,
		Progression: tx.prog,
		AsOf:        tx.at,
		Location:    tx.e.loc,
	})
}

// complete records the user's completion of ch, pays its reward under
// sourcePrefix+ch.ID and commits
func (tx *txn) complete(ch model.PersonalChallenge, sourcePrefix string, at time.Time) (*Outcome, error) {
	completion := model.ChallengeCompletion{ID: tx.e.newID(), ChallengeID: ch.ID, CompletedAt: at}
	tx.history.Completions = append(tx.history.Completions, completion)
	tx.recorded.Completions = append(tx.recorded.Completions, completion)

	if ch.PointsReward > 0 {
		if err := tx.credit(ch.PointsReward, model.ReasonChallengeReward, sourcePrefix+ch.ID, "", 1, at); err != nil {
			return nil, err
		}
	}
	if err := tx.awardEarnedBadges(at); err != nil {
		return nil, err
	}
	return tx.commit()
}

// record converts the event into the activity record it stands for
func (tx *txn) record(ev model.ActivityEvent) {
	at := ev.OccurredAt
	add := func(h *model.ActivityHistory) {
		switch ev.Type {
		case model.EventAttendance:
			h.Participations = append(h.Participations, model.Participation{
				ID: ev.ID, EventID: ev.SourceID, Attended: true, AttendedAt: &at,
				EngagementScore: ev.EngagementScore, EngagementScale: ev.EngagementScale, RecordedAt: at,
			})
		case model.EventActivityCompletion:
			h.Participations = append(h.Participations, model.Participation{
				ID: ev.ID, EventID: ev.SourceID, ActivityCompleted: true, RecordedAt: at,
			})
		case model.EventFeedbackSubmitted:
			h.Feedback = append(h.Feedback, model.Feedback{
				ID: ev.ID, EventID: ev.SourceID, Rating: ev.EngagementScore, SubmittedAt: at,
			})
		case model.EventRecognitionGiven:
			h.Recognitions = append(h.Recognitions, model.Recognition{
				ID: ev.ID, GiverID: ev.UserID, RecipientID: ev.SourceID, CreatedAt: at,
			})
		case model.EventRecognitionReceived:
			h.Recognitions = append(h.Recognitions, model.Recognition{
				ID: ev.ID, GiverID: ev.SourceID, RecipientID: ev.UserID, CreatedAt: at,
			})
		case model.EventChallengeCompleted:
			h.Completions = append(h.Completions, model.ChallengeCompletion{
				ID: ev.ID, ChallengeID: ev.SourceID, CompletedAt: at,
			})
		default:
			h.Contributions = append(h.Contributions, model.Contribution{
				ID: ev.ID, Kind: ev.Type, Quantity: ev.Quantity, CreatedAt: at,
			})
		}
	}
	add(&tx.history)
	add(&tx.recorded)
}

func (tx *txn) credit(points int64, reason model.LedgerReason, sourceID, ruleID string, multiplier float64, at time.Time) error {
	if err := credit(tx.prog, points); err != nil {
		return err
	}
	tx.delta.PointsAwarded += points
	tx.appendLedger(points, reason, sourceID, ruleID, multiplier, at)
	return nil
}

func (tx *txn) debit(amount int64, reason model.LedgerReason, sourceID string, at time.Time) error {
	if err := debit(tx.prog, amount); err != nil {
		return err
	}
	tx.delta.PointsSpent += amount
	tx.appendLedger(-amount, reason, sourceID, "", 0, at)
	return nil
}

func (tx *txn) appendLedger(delta int64, reason model.LedgerReason, sourceID, ruleID string, multiplier float64, at time.Time) {
	entry := model.PointsLedgerEntry{
		ID:            tx.e.newID(),
		UserID:        tx.prog.UserID,
		Delta:         delta,
		Reason:        reason,
		SourceID:      sourceID,
		RuleID:        ruleID,
		Multiplier:    multiplier,
		BalanceAfter:  tx.prog.TotalPoints,
		LifetimeAfter: tx.prog.LifetimePoints,
		CreatedAt:     at,
	}
	tx.history.Ledger = append(tx.history.Ledger, entry)
	tx.delta.Ledger = append(tx.delta.Ledger, entry)
}

func (tx *txn) grantBadge(b model.Badge, awardType model.AwardType, awardedBy string, at time.Time) error {
	if tx.prog.HasBadge(b.ID) {
		return ErrBadgeAlreadyAwarded
	}
	tx.prog.BadgesEarned = append(tx.prog.BadgesEarned, b.ID)
	tx.delta.NewBadgeIDs = append(tx.delta.NewBadgeIDs, b.ID)
	tx.delta.BadgeAwards = append(tx.delta.BadgeAwards, model.BadgeAward{
		ID:            tx.e.newID(),
		UserID:        tx.prog.UserID,
		BadgeID:       b.ID,
		AwardType:     awardType,
		AwardedBy:     awardedBy,
		PointsGranted: b.PointsValue,
		AwardedAt:     at,
	})
	if b.PointsValue > 0 {
		return tx.credit(b.PointsValue, model.ReasonBadgeAward, "badge:"+b.ID, "", 1, at)
	}
	return nil
}

// awardEarnedBadges evaluates automatic badges until no new badge is earned,
// since badge points and badge counts can unlock further badges
func (tx *txn) awardEarnedBadges(at time.Time) error {
	for {
		earned := NewlyEarned(EvaluateBadges(tx.e.catalog.Badges, tx.snapshot(), tx.prog.BadgesEarned))
		if len(earned) == 0 {
			return nil
		}
		sort.Slice(earned, func(i, j int) bool { return earned[i].ID < earned[j].ID })
		for _, b := range earned {
			if err := tx.grantBadge(b, model.AwardAutomatic, "", at); err != nil {
				return err
			}
		}
	}
}

// commit refreshes caches, checks invariants and packages the outcome
func (tx *txn) commit() (*Outcome, error) {
	tx.e.refresh(tx.prog)
	tx.prog.UpdatedAt = tx.at
	tx.prog.Version = tx.before.Version + 1

	if err := VerifyTransition(tx.before, tx.prog); err != nil {
		return nil, err
	}

	d := &tx.delta
	d.TotalPointsBefore, d.TotalPointsAfter = tx.before.TotalPoints, tx.prog.TotalPoints
	d.LifetimeBefore, d.LifetimeAfter = tx.before.LifetimePoints, tx.prog.LifetimePoints
	d.LevelBefore, d.LevelAfter = tx.before.Level, tx.prog.Level
	d.TierBefore, d.TierAfter = tx.before.Tier, tx.prog.Tier
	d.StreakBefore, d.StreakAfter = tx.before.StreakDays, tx.prog.StreakDays

	return &Outcome{
		Progression: tx.prog,
		Delta:       tx.delta,
		Snapshot:    tx.snapshot(),
		Recorded:    tx.recorded,
		Challenges:  tx.challenges,
	}, nil
}
