package models

import (
	"gorm.io/gorm"

	"github.com/kioku-app/kioku-api/scheduler"
)

// AccountSettings holds the per-learner scheduling tunables. A row is
// created with defaults the first time the account studies.
type AccountSettings struct {
	gorm.Model
	UserID uint `gorm:"not null;uniqueIndex"`

	MinStrengthFactor       float64 `gorm:"not null"`
	DefaultStrengthFactor   float64 `gorm:"not null"`
	MinReviewInterval       int     `gorm:"not null"`
	MaxReviewInterval       int     `gorm:"not null"`
	MatureIntervalThreshold int     `gorm:"not null"`
	DefaultInterval         int     `gorm:"not null"`
	ReviewsPerDayCap        int     `gorm:"not null"`
	NewCardsPerDayCap       int     `gorm:"not null"`
	MaxPushForwardDays      int     `gorm:"not null"`
}

// DefaultAccountSettings returns a settings row seeded from the scheduler
// defaults.
func DefaultAccountSettings(userID uint) AccountSettings {
	cfg := scheduler.DefaultConfig()
	s := AccountSettings{UserID: userID}
	s.ApplyConfig(cfg)
	return s
}

// ScheduleConfig converts the row into the value the scheduler consumes.
// Step and day lengths are service-wide, not per-account columns.
func (s AccountSettings) ScheduleConfig() scheduler.ScheduleConfig {
	return scheduler.ScheduleConfig{
		MinStrengthFactor:       s.MinStrengthFactor,
		DefaultStrengthFactor:   s.DefaultStrengthFactor,
		MinReviewInterval:       s.MinReviewInterval,
		MaxReviewInterval:       s.MaxReviewInterval,
		MatureIntervalThreshold: s.MatureIntervalThreshold,
		DefaultInterval:         s.DefaultInterval,
		ReviewsPerDayCap:        s.ReviewsPerDayCap,
		NewCardsPerDayCap:       s.NewCardsPerDayCap,
		MaxPushForwardDays:      s.MaxPushForwardDays,
	}.Normalize()
}

// ApplyConfig copies tunables from a scheduler config onto the row.
func (s *AccountSettings) ApplyConfig(cfg scheduler.ScheduleConfig) {
	cfg = cfg.Normalize()
	s.MinStrengthFactor = cfg.MinStrengthFactor
	s.DefaultStrengthFactor = cfg.DefaultStrengthFactor
	s.MinReviewInterval = cfg.MinReviewInterval
	s.MaxReviewInterval = cfg.MaxReviewInterval
	s.MatureIntervalThreshold = cfg.MatureIntervalThreshold
	s.DefaultInterval = cfg.DefaultInterval
	s.ReviewsPerDayCap = cfg.ReviewsPerDayCap
	s.NewCardsPerDayCap = cfg.NewCardsPerDayCap
	s.MaxPushForwardDays = cfg.MaxPushForwardDays
}
