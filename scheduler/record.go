package scheduler

import "time"

// ReviewRecord is the durable scheduling state for one (account, card) pair.
// It is created lazily on the first grading attempt and mutated only through
// Review. Version backs the store's optimistic concurrency check.
type ReviewRecord struct {
	ID                uint       `gorm:"primaryKey"`
	AccountID         uint       `gorm:"not null;index:idx_account_card,unique"`
	CardID            uint       `gorm:"not null;index:idx_account_card,unique"`
	State             State      `gorm:"not null;size:20;default:new"`
	RepetitionCount   int        `gorm:"not null;default:0"`
	StrengthFactor    float64    `gorm:"not null"`
	IntervalDays      int        `gorm:"not null"`
	DueAt             *time.Time `gorm:"index"`
	ConsecutiveLapses int        `gorm:"not null;default:0"`
	LastReviewedAt    *time.Time
	Version           int64 `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ReviewRecord) TableName() string {
	return "review_records"
}

// NewRecord returns a fresh record for a card the account has never studied.
// It is not persisted until the first grade is applied.
func NewRecord(accountID, cardID uint, cfg ScheduleConfig) ReviewRecord {
	cfg = cfg.Normalize()
	return ReviewRecord{
		AccountID:      accountID,
		CardID:         cardID,
		State:          StateNew,
		StrengthFactor: cfg.DefaultStrengthFactor,
		IntervalDays:   cfg.DefaultInterval,
	}
}

// Heal clamps out-of-range fields on a loaded record back into the invariant
// range. It returns the healed record and whether anything changed. Callers
// log the repair; it is never fatal.
func Heal(rec ReviewRecord, cfg ScheduleConfig) (ReviewRecord, bool) {
	cfg = cfg.Normalize()
	changed := false
	if f := cfg.clampFactor(rec.StrengthFactor); f != rec.StrengthFactor {
		rec.StrengthFactor = f
		changed = true
	}
	if d := cfg.clampInterval(rec.IntervalDays); d != rec.IntervalDays {
		rec.IntervalDays = d
		changed = true
	}
	if !rec.State.IsValid() {
		rec.State = StateLearning
		changed = true
	}
	return rec, changed
}

// CardRef is the catalog's view of a schedulable card. Read-only here;
// authoring lives outside the scheduler.
type CardRef struct {
	CardID        uint
	DeckID        uint
	LearningOrder int
	CardType      string
}
