package scheduler

import "testing"

func TestNormalizeFillsZeroFields(t *testing.T) {
	cfg := ScheduleConfig{}.Normalize()
	def := DefaultConfig()

	if cfg.MinStrengthFactor != def.MinStrengthFactor ||
		cfg.DefaultStrengthFactor != def.DefaultStrengthFactor ||
		cfg.MaxReviewInterval != def.MaxReviewInterval ||
		cfg.LearningStep != def.LearningStep ||
		cfg.DayLength != def.DayLength {
		t.Errorf("Normalize() = %+v, want defaults %+v", cfg, def)
	}
	// Zero caps are meaningful and must survive normalization.
	if cfg.ReviewsPerDayCap != 0 || cfg.NewCardsPerDayCap != 0 {
		t.Errorf("caps = %d/%d, want 0/0", cfg.ReviewsPerDayCap, cfg.NewCardsPerDayCap)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := ScheduleConfig{MaxReviewInterval: 30, ReviewsPerDayCap: -1}.Normalize()
	if cfg.MaxReviewInterval != 30 {
		t.Errorf("MaxReviewInterval = %d, want 30", cfg.MaxReviewInterval)
	}
	if cfg.ReviewsPerDayCap != -1 {
		t.Errorf("ReviewsPerDayCap = %d, want -1", cfg.ReviewsPerDayCap)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := []ScheduleConfig{
		func() ScheduleConfig { c := DefaultConfig(); c.MinStrengthFactor = -1; return c }(),
		func() ScheduleConfig { c := DefaultConfig(); c.DefaultStrengthFactor = 1.0; return c }(),
		func() ScheduleConfig { c := DefaultConfig(); c.MaxReviewInterval = 0; c.MinReviewInterval = 5; return c }(),
		func() ScheduleConfig { c := DefaultConfig(); c.DefaultInterval = 400; return c }(),
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("bad[%d] should fail validation", i)
		}
	}
}

func TestHealClampsLoadedRecord(t *testing.T) {
	cfg := DefaultConfig()
	rec := ReviewRecord{
		State:          State("archived"),
		StrengthFactor: 0.4,
		IntervalDays:   9000,
	}
	healed, changed := Heal(rec, cfg)
	if !changed {
		t.Fatal("Heal should report the repair")
	}
	if healed.StrengthFactor != cfg.MinStrengthFactor {
		t.Errorf("StrengthFactor = %v, want %v", healed.StrengthFactor, cfg.MinStrengthFactor)
	}
	if healed.IntervalDays != cfg.MaxReviewInterval {
		t.Errorf("IntervalDays = %d, want %d", healed.IntervalDays, cfg.MaxReviewInterval)
	}
	if healed.State != StateLearning {
		t.Errorf("State = %v, want learning", healed.State)
	}

	ok := ReviewRecord{State: StateYoung, StrengthFactor: 2.0, IntervalDays: 10}
	if _, changed := Heal(ok, cfg); changed {
		t.Error("in-range record must pass through unchanged")
	}
}
