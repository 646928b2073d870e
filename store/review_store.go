package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kioku-app/kioku-api/logger"
	"github.com/kioku-app/kioku-api/scheduler"
)

// GormReviewStore persists review records in a relational store through
// gorm. Per-key atomicity comes from the unique (account_id, card_id) index
// plus an optimistic version column: a conditional UPDATE that matches zero
// rows reports scheduler.ErrStaleRecord instead of losing the concurrent
// write.
type GormReviewStore struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ scheduler.ReviewStore = (*GormReviewStore)(nil)

func NewGormReviewStore(db *gorm.DB, baseLog *logger.Logger) *GormReviewStore {
	return &GormReviewStore{db: db, log: baseLog.With("component", "GormReviewStore")}
}

func (r *GormReviewStore) Get(ctx context.Context, accountID, cardID uint) (scheduler.ReviewRecord, error) {
	var rec scheduler.ReviewRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND card_id = ?", accountID, cardID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return scheduler.ReviewRecord{}, scheduler.ErrRecordNotFound
	}
	if err != nil {
		return scheduler.ReviewRecord{}, fmt.Errorf("get review record: %w", err)
	}
	return rec, nil
}

func (r *GormReviewStore) Upsert(ctx context.Context, rec *scheduler.ReviewRecord) error {
	if rec.ID == 0 {
		rec.Version = 1
		err := r.db.WithContext(ctx).Create(rec).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race for this key to a concurrent writer.
			return scheduler.ErrStaleRecord
		}
		if err != nil {
			return fmt.Errorf("insert review record: %w", err)
		}
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&scheduler.ReviewRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]interface{}{
			"state":              rec.State,
			"repetition_count":   rec.RepetitionCount,
			"strength_factor":    rec.StrengthFactor,
			"interval_days":      rec.IntervalDays,
			"due_at":             rec.DueAt,
			"consecutive_lapses": rec.ConsecutiveLapses,
			"last_reviewed_at":   rec.LastReviewedAt,
			"version":            rec.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("update review record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return scheduler.ErrStaleRecord
	}
	rec.Version++
	return nil
}

func (r *GormReviewStore) ListDue(ctx context.Context, accountID uint, now time.Time) ([]scheduler.ReviewRecord, error) {
	var results []scheduler.ReviewRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND due_at IS NOT NULL AND due_at <= ?", accountID, now).
		Order("due_at ASC, card_id ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("list due records: %w", err)
	}
	return results, nil
}

func (r *GormReviewStore) CountIntroducedSince(ctx context.Context, accountID uint, since time.Time) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&scheduler.ReviewRecord{}).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count introduced records: %w", err)
	}
	return int(n), nil
}
