// Package jobs implements background jobs for the Ascend API.
//
// Each job is a ticker loop with the same lifecycle:
//
//	refresher := jobs.NewLeaderboardRefresher(leaderboardService, cfg.Jobs.LeaderboardRefreshInterval)
//	refresher.Start()
//	defer refresher.Stop()
//
// RunOnce performs a single pass and is used by tests and admin triggers.
// Failures are logged and the loop keeps running.
//
//   - LeaderboardRefresher: recomputes every leaderboard segment, first pass on start
//   - ChallengeExpirer: moves overdue active challenges to expired
package jobs
