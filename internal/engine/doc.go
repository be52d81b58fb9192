// Package engine implements the progression engine: the pure rules that turn
// activity events into player state.
//
// The engine performs no I/O and never reads the clock. Callers load a
// user's progression, activity history and challenges, pass them in together
// with the current time, and persist the returned Outcome atomically.
//
// # Components
//
//   - BuildSnapshot collapses activity records into a MetricSnapshot
//   - AdvanceStreak and EffectiveStreak maintain day streaks with lazy reset
//   - EvaluateBadges, RedactBadge and RecommendBadges handle badge awards
//   - LevelFor and TierTable map points to levels and tiers
//   - AdvanceChallenge and ClaimChallenge drive personal challenges
//   - RankSegment produces deterministic leaderboards
//   - Engine composes them into Apply, Claim, AwardBadge, Redeem and Dashboard
//
// # Errors
//
// Malformed activity data is treated as zero and never reported. Invariant
// violations (ErrLifetimeDecrease, ErrBadgeAlreadyAwarded,
// ErrChallengeAlreadyClaimed) and state errors are returned as sentinels.
// Catalog problems are reported when the catalog is loaded, wrapped in
// *CatalogError:
//
//	catalog, err := engine.LoadCatalogYAML(f)
//	if err != nil {
//	    var cerr *engine.CatalogError
//	    if errors.As(err, &cerr) {
//	        log.Printf("bad catalog entry at %s", cerr.Path)
//	    }
//	}
//
// # Example Usage
//
//	eng, err := engine.New(engine.Config{Catalog: catalog})
//	out, err := eng.Apply(engine.ApplyInput{
//	    Progression: prog,
//	    History:     history,
//	    Challenges:  challenges,
//	    Event:       event,
//	})
package engine
