package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kioku-app/kioku-api/logger"
	"github.com/kioku-app/kioku-api/scheduler"
)

// GormCatalog answers the scheduler's new-card queries from the deck/card
// catalog: cards in decks the account has unlocked, with no review record
// yet, in authoring learning order.
type GormCatalog struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ scheduler.Catalog = (*GormCatalog)(nil)

func NewGormCatalog(db *gorm.DB, baseLog *logger.Logger) *GormCatalog {
	return &GormCatalog{db: db, log: baseLog.With("component", "GormCatalog")}
}

type newCardRow struct {
	CardID        uint
	DeckID        uint
	LearningOrder int
	CardType      string
}

func (c *GormCatalog) ListNewCards(ctx context.Context, accountID uint, limit int) ([]scheduler.CardRef, error) {
	q := c.db.WithContext(ctx).
		Table("cards").
		Select("cards.id AS card_id, cards.deck_id, cards.learning_order, cards.card_type").
		Joins("JOIN deck_unlocks ON deck_unlocks.deck_id = cards.deck_id AND deck_unlocks.user_id = ?", accountID).
		Joins("LEFT JOIN review_records ON review_records.card_id = cards.id AND review_records.account_id = ?", accountID).
		Where("review_records.id IS NULL").
		Order("cards.learning_order ASC, cards.id ASC")
	if limit >= 0 {
		q = q.Limit(limit)
	}

	var rows []newCardRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list new cards: %w", err)
	}

	refs := make([]scheduler.CardRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, scheduler.CardRef{
			CardID:        row.CardID,
			DeckID:        row.DeckID,
			LearningOrder: row.LearningOrder,
			CardType:      row.CardType,
		})
	}
	return refs, nil
}
