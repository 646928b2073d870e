package models

import "time"

// DeckUnlock marks a deck as available to a learner. Cards only enter the
// new-card queue once their deck is unlocked for the account.
type DeckUnlock struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index:idx_user_deck,unique"`
	DeckID uint `gorm:"not null;index:idx_user_deck,unique"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Deck Deck `gorm:"foreignKey:DeckID" json:"-"`

	UnlockedAt time.Time `gorm:"autoCreateTime"`
}
