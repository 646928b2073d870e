package scheduler

import (
	"fmt"
	"time"
)

// ScheduleConfig holds the per-account scheduling tunables. It is immutable
// for the duration of a session and passed explicitly into every call —
// there is no package-level state.
//
// Zero values produce sensible defaults via Normalize; see field comments.
type ScheduleConfig struct {
	MinStrengthFactor       float64       `json:"minStrengthFactor"`       // zero → 1.3
	DefaultStrengthFactor   float64       `json:"defaultStrengthFactor"`   // zero → 2.5
	MinReviewInterval       int           `json:"minReviewInterval"`       // zero → 1
	MaxReviewInterval       int           `json:"maxReviewInterval"`       // zero → 365
	MatureIntervalThreshold int           `json:"matureIntervalThreshold"` // zero → 21
	DefaultInterval         int           `json:"defaultInterval"`         // zero → 1
	ReviewsPerDayCap        int           `json:"reviewsPerDayCap"`        // -1 → unlimited, zero → no reviews
	NewCardsPerDayCap       int           `json:"newCardsPerDayCap"`       // -1 → unlimited, zero → no new cards
	MaxPushForwardDays      int           `json:"maxPushForwardDays"`      // zero → 14
	LearningStep            time.Duration `json:"learningStep"`            // zero → 10m (same-day redrill step)
	DayLength               time.Duration `json:"dayLength"`               // zero → 24h
}

// DefaultConfig returns the scheduling defaults used when an account has no
// stored settings.
func DefaultConfig() ScheduleConfig {
	return ScheduleConfig{
		MinStrengthFactor:       1.3,
		DefaultStrengthFactor:   2.5,
		MinReviewInterval:       1,
		MaxReviewInterval:       365,
		MatureIntervalThreshold: 21,
		DefaultInterval:         1,
		ReviewsPerDayCap:        200,
		NewCardsPerDayCap:       20,
		MaxPushForwardDays:      14,
		LearningStep:            10 * time.Minute,
		DayLength:               24 * time.Hour,
	}
}

// Normalize fills zero-value fields with defaults and returns the result.
// Caps use -1 to mean "unlimited" because 0 is a meaningful value for them.
func (c ScheduleConfig) Normalize() ScheduleConfig {
	def := DefaultConfig()
	if c.MinStrengthFactor == 0 {
		c.MinStrengthFactor = def.MinStrengthFactor
	}
	if c.DefaultStrengthFactor == 0 {
		c.DefaultStrengthFactor = def.DefaultStrengthFactor
	}
	if c.MinReviewInterval == 0 {
		c.MinReviewInterval = def.MinReviewInterval
	}
	if c.MaxReviewInterval == 0 {
		c.MaxReviewInterval = def.MaxReviewInterval
	}
	if c.MatureIntervalThreshold == 0 {
		c.MatureIntervalThreshold = def.MatureIntervalThreshold
	}
	if c.DefaultInterval == 0 {
		c.DefaultInterval = def.DefaultInterval
	}
	if c.MaxPushForwardDays == 0 {
		c.MaxPushForwardDays = def.MaxPushForwardDays
	}
	if c.LearningStep == 0 {
		c.LearningStep = def.LearningStep
	}
	if c.DayLength == 0 {
		c.DayLength = def.DayLength
	}
	return c
}

// Validate reports whether the config is internally consistent.
func (c ScheduleConfig) Validate() error {
	if c.MinStrengthFactor <= 0 {
		return fmt.Errorf("scheduler: min strength factor %f must be positive", c.MinStrengthFactor)
	}
	if c.DefaultStrengthFactor < c.MinStrengthFactor {
		return fmt.Errorf("scheduler: default strength factor %f below minimum %f",
			c.DefaultStrengthFactor, c.MinStrengthFactor)
	}
	if c.MinReviewInterval < 1 {
		return fmt.Errorf("scheduler: min review interval %d must be at least 1", c.MinReviewInterval)
	}
	if c.MaxReviewInterval < c.MinReviewInterval {
		return fmt.Errorf("scheduler: max review interval %d below minimum %d",
			c.MaxReviewInterval, c.MinReviewInterval)
	}
	if c.DefaultInterval < c.MinReviewInterval || c.DefaultInterval > c.MaxReviewInterval {
		return fmt.Errorf("scheduler: default interval %d outside [%d, %d]",
			c.DefaultInterval, c.MinReviewInterval, c.MaxReviewInterval)
	}
	if c.MaxPushForwardDays < 1 {
		return fmt.Errorf("scheduler: max push forward days %d must be at least 1", c.MaxPushForwardDays)
	}
	if c.DayLength <= 0 {
		return fmt.Errorf("scheduler: day length %s must be positive", c.DayLength)
	}
	return nil
}

// clampInterval bounds an interval to the configured range.
func (c ScheduleConfig) clampInterval(days int) int {
	if days < c.MinReviewInterval {
		return c.MinReviewInterval
	}
	if days > c.MaxReviewInterval {
		return c.MaxReviewInterval
	}
	return days
}

// clampFactor bounds a strength factor to the configured floor.
func (c ScheduleConfig) clampFactor(f float64) float64 {
	if f < c.MinStrengthFactor {
		return c.MinStrengthFactor
	}
	return f
}

// dayStart truncates t to the start of its UTC day. Queue math uses day
// boundaries so rebuilding within the same day stays deterministic.
func dayStart(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
