// Package model defines the records exchanged by the progression engine,
// its persistence layer and the HTTP API.
//
// Everything here is plain serializable data with no behavior beyond small
// predicates and orderings:
//
//   - Activity input: ActivityEvent and the typed activity records
//     (Participation, Recognition, Feedback, ChallengeCompletion,
//     Contribution) collected in an ActivityHistory.
//   - Derived state: UserProgression, MetricSnapshot, StreakStatus,
//     LevelProgress and TierProgress.
//   - Catalog: Badge, AchievementTier, GamificationRule, Reward and
//     LeaderboardSegment.
//   - Outputs: ProgressionDelta, PointsLedgerEntry, BadgeAward, Redemption,
//     ChallengeView, BadgeStatus and Leaderboard.
//
// # Metric Vocabulary
//
// MetricKind is the single canonical list of tracked counters. Badge
// criteria, challenge targets, rule conditions and leaderboard segments all
// refer to it, so an unknown metric anywhere is a configuration error.
//
// # Errors
//
// ProblemDetails implements RFC 9457 and carries an ErrorCode in ranges:
// 1xxx authentication, 3xxx resources, 4xxx validation, 5xxx internal and
// 6xxx progression invariants.
package model
