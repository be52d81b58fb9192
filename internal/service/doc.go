// Package service implements the business logic layer for the ascend API.
//
// Services wrap the pure progression engine with storage, locking, caching
// and metrics:
//
//   - ProgressionService: the per-user write path (activity, claims, manual
//     awards, redemptions), challenge creation and expiry, dashboard and
//     ledger reads
//   - LeaderboardService: bulk leaderboard refresh and cached board reads
//   - CatalogService: the live engine and catalog extensions
//
// # Service Pattern
//
// Constructors (NewXxxService) accept a config struct with repository
// dependencies. Services define their own repository interfaces so tests
// can substitute function-field mocks.
//
// # Transactions
//
// Every write loads the user's progression, history and active challenges,
// runs one engine transaction and commits the outcome atomically. Writes for
// one user are serialized in-process; across processes the progression
// version guards the commit and a conflict reloads and reruns the engine.
//
// # Error Handling
//
// Service errors are package-level sentinels; engine errors are returned
// unchanged or wrapped with %w:
//
//	out, err := svc.ClaimChallenge(ctx, userID, challengeID, now)
//	if errors.Is(err, engine.ErrChallengeAlreadyClaimed) {
//	    // 409
//	}
package service
