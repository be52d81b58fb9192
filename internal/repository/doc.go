// Package repository implements SurrealDB persistence for the ascend API.
//
// Each repository struct wraps a database.Database and owns one part of the
// stored state:
//
//   - ProgressionRepository: user progressions, plus Commit, which writes a
//     progression and everything its transaction produced in one batch
//   - ActivityRepository: activity records, ledger and redemptions read back
//     as an ActivityHistory
//   - ChallengeRepository: personal challenges and expiry
//   - BadgeRepository: badge awards and custom catalog badges
//
// # Keys
//
// Records are keyed by their domain id (type::thing("table", $id)), and every
// activity record carries the owning user_id. Replaying an event therefore
// fails with database.ErrDuplicate instead of double counting.
//
// # Optimistic Concurrency
//
// A progression carries a version. Commit throws "version conflict" inside
// the transaction when the stored version differs from the one the engine
// started from, which surfaces as database.ErrConflict and rolls back every
// statement of the batch.
//
// # Example Usage
//
//	repo := NewProgressionRepository(db)
//	prog, err := repo.Get(ctx, "user-1")
//	if err != nil {
//	    return err
//	}
//	if prog == nil {
//	    // first event for this user
//	}
package repository
