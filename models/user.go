package models

import "gorm.io/gorm"

// User represents a learner account in the system
type User struct {
	gorm.Model
	Auth0ID  string `gorm:"uniqueIndex;not null;size:100" json:"-"`
	Nickname string `gorm:"not null;size:100"`

	Settings    *AccountSettings `gorm:"foreignKey:UserID"`
	DeckUnlocks []DeckUnlock     `gorm:"foreignKey:UserID"`
}
