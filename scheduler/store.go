package scheduler

import (
	"context"
	"time"
)

// ReviewStore is the persistence contract for review records. Implementations
// must guarantee at most one record per (accountID, cardID) and atomic
// per-key upserts: a concurrent modification surfaces as ErrStaleRecord,
// never as a silently lost update. No scheduling logic lives behind it.
type ReviewStore interface {
	// Get returns the record for the key, or ErrRecordNotFound.
	Get(ctx context.Context, accountID, cardID uint) (ReviewRecord, error)

	// Upsert inserts the record, or updates it when rec.Version matches the
	// stored version. On success the record's Version is bumped in place.
	Upsert(ctx context.Context, rec *ReviewRecord) error

	// ListDue returns all records for the account with DueAt <= now, ordered
	// by DueAt ascending with CardID as the tiebreak.
	ListDue(ctx context.Context, accountID uint, now time.Time) ([]ReviewRecord, error)

	// CountIntroducedSince counts records created at or after the given time,
	// i.e. cards first introduced to the account since then.
	CountIntroducedSince(ctx context.Context, accountID uint, since time.Time) (int, error)
}

// Catalog supplies schedulable cards from unlocked decks that the account has
// no review record for yet, ordered by learning order ascending. A negative
// limit means no limit.
type Catalog interface {
	ListNewCards(ctx context.Context, accountID uint, limit int) ([]CardRef, error)
}
