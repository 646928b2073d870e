package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kioku-app/kioku-api/logger"
)

// Origin says how a queue item entered the study queue.
type Origin string

const (
	OriginDue Origin = "due" // previously studied card whose due time has passed
	OriginNew Origin = "new" // card being introduced for the first time
)

// QueueItem is one card in a built study queue.
type QueueItem struct {
	CardID      uint   `json:"cardId"`
	Origin      Origin `json:"origin"`
	OverdueDays int    `json:"overdueDays"`
}

// QueueBuilder assembles the ordered study queue for an account: due reviews
// oldest-first up to the daily cap, then new cards in learning order up to
// the introduction cap. Building is a read snapshot except for the bounded
// push-forward of over-cap due records.
type QueueBuilder struct {
	store   ReviewStore
	catalog Catalog
	log     *logger.Logger
}

func NewQueueBuilder(store ReviewStore, catalog Catalog, baseLog *logger.Logger) *QueueBuilder {
	return &QueueBuilder{
		store:   store,
		catalog: catalog,
		log:     baseLog.With("component", "QueueBuilder"),
	}
}

// Build returns the queue for the account at the given time. Calling it
// twice with no grading in between yields an identical sequence.
func (b *QueueBuilder) Build(ctx context.Context, accountID uint, now time.Time, cfg ScheduleConfig) ([]QueueItem, error) {
	cfg = cfg.Normalize()

	due, err := b.store.ListDue(ctx, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	for i := range due {
		healed, changed := Heal(due[i], cfg)
		if changed {
			b.log.Warn("clamped out-of-range review record",
				"accountID", accountID, "cardID", due[i].CardID)
		}
		due[i] = healed
	}

	// The store already orders by due time, but ordering is load-bearing for
	// determinism, so enforce it here too.
	sort.SliceStable(due, func(i, j int) bool {
		di, dj := due[i].DueAt, due[j].DueAt
		if di != nil && dj != nil && !di.Equal(*dj) {
			return di.Before(*dj)
		}
		return due[i].CardID < due[j].CardID
	})

	kept := due
	switch {
	case cfg.ReviewsPerDayCap == 0:
		// Reviews paused for the day. Nothing is redistributed; the records
		// simply stay due.
		kept = nil
	case cfg.ReviewsPerDayCap > 0 && len(due) > cfg.ReviewsPerDayCap:
		kept = due[:cfg.ReviewsPerDayCap]
		if err := b.pushForward(ctx, due[cfg.ReviewsPerDayCap:], cfg, now); err != nil {
			return nil, err
		}
	}

	items := make([]QueueItem, 0, len(kept))
	for _, rec := range kept {
		overdue := 0
		if rec.DueAt != nil && now.After(*rec.DueAt) {
			overdue = int(now.Sub(*rec.DueAt) / cfg.DayLength)
		}
		items = append(items, QueueItem{CardID: rec.CardID, Origin: OriginDue, OverdueDays: overdue})
	}

	refs, err := b.selectNewCards(ctx, accountID, now, cfg)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		items = append(items, QueueItem{CardID: ref.CardID, Origin: OriginNew})
	}
	return items, nil
}

// pushForward defers over-cap due records instead of dropping them. Items
// move in cap-sized waves to the following days so no future day starts over
// the cap, bounded by MaxPushForwardDays. The new due dates are anchored to
// the UTC day start, so recomputing with the same inputs yields the same
// dates; a pushed record leaves the due set, which keeps the write idempotent.
func (b *QueueBuilder) pushForward(ctx context.Context, excess []ReviewRecord, cfg ScheduleConfig, now time.Time) error {
	base := dayStart(now)
	for pos, rec := range excess {
		days := 1 + pos/cfg.ReviewsPerDayCap
		if days > cfg.MaxPushForwardDays {
			days = cfg.MaxPushForwardDays
		}
		due := base.Add(time.Duration(days) * cfg.DayLength)
		rec.DueAt = &due
		if err := b.store.Upsert(ctx, &rec); err != nil {
			if errors.Is(err, ErrStaleRecord) {
				// A concurrent grade rescheduled this card; its state is
				// fresher than ours, so leave it alone.
				b.log.Warn("push-forward lost to concurrent grade",
					"accountID", rec.AccountID, "cardID", rec.CardID)
				continue
			}
			return fmt.Errorf("push forward: %w", err)
		}
	}
	return nil
}

// selectNewCards picks today's introductions: unlocked-deck cards without a
// review record, learning order ascending, capped by NewCardsPerDayCap minus
// the cards already introduced since the day start.
func (b *QueueBuilder) selectNewCards(ctx context.Context, accountID uint, now time.Time, cfg ScheduleConfig) ([]CardRef, error) {
	limit := cfg.NewCardsPerDayCap
	if limit == 0 {
		return nil, nil
	}
	if limit > 0 {
		introduced, err := b.store.CountIntroducedSince(ctx, accountID, dayStart(now))
		if err != nil {
			return nil, fmt.Errorf("count introduced: %w", err)
		}
		limit -= introduced
		if limit <= 0 {
			return nil, nil
		}
	}
	refs, err := b.catalog.ListNewCards(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list new cards: %w", err)
	}
	return refs, nil
}
