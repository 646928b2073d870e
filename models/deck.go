package models

// Deck represents an authored collection of study cards. Authoring happens
// outside this service; decks are read-only catalog data here.
type Deck struct {
	ID       uint   `gorm:"primaryKey"`
	PublicID string `gorm:"size:100;uniqueIndex"`
	Title    string `gorm:"not null;size:100"`

	// Position orders decks in the learner's progression; lower comes first.
	Position int `gorm:"not null;default:0;index"`

	Cards []Card `gorm:"foreignKey:DeckID"`
}
