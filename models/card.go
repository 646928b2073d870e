package models

// Card represents an individual study card
type Card struct {
	ID       uint   `gorm:"primaryKey"`
	PublicID string `gorm:"size:100;uniqueIndex"`

	DeckID uint `gorm:"not null;index"`
	Deck   Deck `gorm:"foreignKey:DeckID" json:"-"`

	// CardType distinguishes content kinds (e.g. "kanji", "vocabulary",
	// "kana"). The scheduler only carries it through.
	CardType string `gorm:"size:50"`

	// LearningOrder is the authoring-defined introduction order within the
	// unlocked catalog.
	LearningOrder int `gorm:"not null;default:0;index"`

	Term    string `gorm:"not null;size:200"`
	Reading string `gorm:"size:200"`
	Meaning string `gorm:"not null;size:1000"`
}
