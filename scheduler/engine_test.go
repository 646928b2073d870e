package scheduler

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testConfig() ScheduleConfig {
	return DefaultConfig()
}

func gradedRecord(state State, reps, interval int, factor float64) ReviewRecord {
	due := t0.Add(-time.Hour)
	last := t0.Add(-24 * time.Hour)
	return ReviewRecord{
		AccountID:       1,
		CardID:          7,
		State:           state,
		RepetitionCount: reps,
		StrengthFactor:  factor,
		IntervalDays:    interval,
		DueAt:           &due,
		LastReviewedAt:  &last,
	}
}

func TestReviewInvalidGrade(t *testing.T) {
	rec := NewRecord(1, 7, testConfig())
	out, err := Review(rec, Grade(9), testConfig(), t0)
	if !errors.Is(err, ErrInvalidGrade) {
		t.Fatalf("err = %v, want ErrInvalidGrade", err)
	}
	if out != rec {
		t.Error("record should be unchanged on invalid grade")
	}
}

func TestReviewIsDeterministic(t *testing.T) {
	rec := gradedRecord(StateYoung, 5, 10, 2.5)
	a, err := Review(rec, Good, testConfig(), t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	b, _ := Review(rec, Good, testConfig(), t0)
	if a.IntervalDays != b.IntervalDays || a.StrengthFactor != b.StrengthFactor || !a.DueAt.Equal(*b.DueAt) {
		t.Error("same inputs should produce the same output")
	}
	if rec.State != StateYoung || rec.RepetitionCount != 5 {
		t.Error("input record must not be mutated")
	}
}

func TestFirstGradeStartsLearning(t *testing.T) {
	cfg := testConfig()
	rec := NewRecord(1, 7, cfg)

	out, err := Review(rec, Good, cfg, t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if out.State != StateLearning {
		t.Errorf("State = %v, want learning", out.State)
	}
	if out.RepetitionCount != 1 {
		t.Errorf("RepetitionCount = %d, want 1", out.RepetitionCount)
	}
	// First ladder step is a same-day redrill.
	wantDue := t0.Add(cfg.LearningStep)
	if out.DueAt == nil || !out.DueAt.Equal(wantDue) {
		t.Errorf("DueAt = %v, want %v", out.DueAt, wantDue)
	}
	if out.IntervalDays != cfg.MinReviewInterval {
		t.Errorf("IntervalDays = %d, want %d", out.IntervalDays, cfg.MinReviewInterval)
	}
	if out.LastReviewedAt == nil || !out.LastReviewedAt.Equal(t0) {
		t.Errorf("LastReviewedAt = %v, want %v", out.LastReviewedAt, t0)
	}
}

// Fresh card, defaultInterval=1, three goods: walks the ladder and lands in
// young at the terminal step; a lapse then resets it to relapsed.
func TestLadderThenLapseScenario(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultInterval = 1

	rec := NewRecord(1, 7, cfg)
	now := t0
	var err error

	// Step 1: same-day redrill.
	rec, err = Review(rec, Good, cfg, now)
	if err != nil {
		t.Fatalf("Review 1: %v", err)
	}
	if rec.State != StateLearning {
		t.Fatalf("after step 1: State = %v, want learning", rec.State)
	}

	// Step 2: one day.
	now = now.Add(cfg.LearningStep)
	rec, err = Review(rec, Good, cfg, now)
	if err != nil {
		t.Fatalf("Review 2: %v", err)
	}
	if rec.State != StateLearning || rec.IntervalDays != 1 {
		t.Fatalf("after step 2: State = %v IntervalDays = %d, want learning/1", rec.State, rec.IntervalDays)
	}

	// Step 3: terminal step, graduates off the ladder.
	now = now.Add(24 * time.Hour)
	rec, err = Review(rec, Good, cfg, now)
	if err != nil {
		t.Fatalf("Review 3: %v", err)
	}
	if rec.State != StateYoung {
		t.Errorf("after ladder: State = %v, want young", rec.State)
	}
	if rec.IntervalDays != cfg.DefaultInterval {
		t.Errorf("after ladder: IntervalDays = %d, want %d", rec.IntervalDays, cfg.DefaultInterval)
	}

	// Lapse: back to default interval, relapsed.
	now = now.Add(24 * time.Hour)
	rec, err = Review(rec, Again, cfg, now)
	if err != nil {
		t.Fatalf("Review lapse: %v", err)
	}
	if rec.State != StateRelapsed {
		t.Errorf("after lapse: State = %v, want relapsed", rec.State)
	}
	if rec.IntervalDays != cfg.DefaultInterval {
		t.Errorf("after lapse: IntervalDays = %d, want %d", rec.IntervalDays, cfg.DefaultInterval)
	}
	if rec.RepetitionCount != 0 {
		t.Errorf("after lapse: RepetitionCount = %d, want 0", rec.RepetitionCount)
	}
	if rec.ConsecutiveLapses != 1 {
		t.Errorf("after lapse: ConsecutiveLapses = %d, want 1", rec.ConsecutiveLapses)
	}
}

func TestRelapsedClimbsBackLikeFresh(t *testing.T) {
	cfg := testConfig()
	rec := gradedRecord(StateRelapsed, 0, cfg.DefaultInterval, 2.1)

	out, err := Review(rec, Good, cfg, t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if out.State != StateLearning {
		t.Errorf("State = %v, want learning", out.State)
	}
	if out.RepetitionCount != 1 {
		t.Errorf("RepetitionCount = %d, want 1", out.RepetitionCount)
	}
	wantDue := t0.Add(cfg.LearningStep)
	if !out.DueAt.Equal(wantDue) {
		t.Errorf("DueAt = %v, want same-day step %v", out.DueAt, wantDue)
	}
}

func TestAgainAlwaysResetsToDefaultInterval(t *testing.T) {
	cfg := testConfig()
	for _, state := range []State{StateNew, StateLearning, StateYoung, StateMature, StateRelapsed} {
		rec := gradedRecord(state, 4, 120, 2.5)
		out, err := Review(rec, Again, cfg, t0)
		if err != nil {
			t.Fatalf("Review(%v, again): %v", state, err)
		}
		if out.IntervalDays != cfg.DefaultInterval {
			t.Errorf("%v: IntervalDays = %d, want %d", state, out.IntervalDays, cfg.DefaultInterval)
		}
		if out.RepetitionCount != 0 {
			t.Errorf("%v: RepetitionCount = %d, want 0", state, out.RepetitionCount)
		}
	}
}

func TestLapseStateTransitions(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		from State
		want State
	}{
		{StateNew, StateLearning},
		{StateLearning, StateLearning},
		{StateYoung, StateRelapsed},
		{StateMature, StateRelapsed},
		{StateRelapsed, StateLearning},
	}
	for _, tt := range tests {
		rec := gradedRecord(tt.from, 2, 10, 2.0)
		out, err := Review(rec, Again, cfg, t0)
		if err != nil {
			t.Fatalf("Review(%v): %v", tt.from, err)
		}
		if out.State != tt.want {
			t.Errorf("lapse from %v: State = %v, want %v", tt.from, out.State, tt.want)
		}
	}
}

func TestLapseLowersStrengthFactor(t *testing.T) {
	cfg := testConfig()
	rec := gradedRecord(StateMature, 8, 40, 2.5)
	out, _ := Review(rec, Again, cfg, t0)
	if out.StrengthFactor != 2.3 {
		t.Errorf("StrengthFactor = %v, want 2.3", out.StrengthFactor)
	}

	// Already at the floor: stays there.
	rec = gradedRecord(StateMature, 8, 40, cfg.MinStrengthFactor)
	out, _ = Review(rec, Again, cfg, t0)
	if out.StrengthFactor != cfg.MinStrengthFactor {
		t.Errorf("StrengthFactor = %v, want floor %v", out.StrengthFactor, cfg.MinStrengthFactor)
	}
}

func TestPostLadderGrowth(t *testing.T) {
	cfg := testConfig()
	rec := gradedRecord(StateYoung, 4, 10, 2.5)

	out, err := Review(rec, Good, cfg, t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if out.IntervalDays != 25 { // round(10 * 2.5)
		t.Errorf("IntervalDays = %d, want 25", out.IntervalDays)
	}
	if out.State != StateMature { // 25 >= threshold 21
		t.Errorf("State = %v, want mature", out.State)
	}
	wantDue := t0.Add(25 * 24 * time.Hour)
	if !out.DueAt.Equal(wantDue) {
		t.Errorf("DueAt = %v, want %v", out.DueAt, wantDue)
	}
}

func TestHardDampensGrowth(t *testing.T) {
	cfg := testConfig()
	rec := gradedRecord(StateYoung, 4, 10, 2.5)

	out, _ := Review(rec, Hard, cfg, t0)
	if out.IntervalDays != 12 { // round(10 * 1.2), not 10 * factor
		t.Errorf("IntervalDays = %d, want 12", out.IntervalDays)
	}
	if out.StrengthFactor != 2.35 {
		t.Errorf("StrengthFactor = %v, want 2.35", out.StrengthFactor)
	}
	if out.State != StateYoung { // 12 < threshold 21
		t.Errorf("State = %v, want young", out.State)
	}
}

func TestEasyRaisesStrengthFactor(t *testing.T) {
	cfg := testConfig()
	rec := gradedRecord(StateYoung, 4, 10, 2.5)

	out, _ := Review(rec, Easy, cfg, t0)
	if out.StrengthFactor != 2.65 {
		t.Errorf("StrengthFactor = %v, want 2.65", out.StrengthFactor)
	}
	if out.IntervalDays != 27 { // round(10 * 2.65), factor applied after the bump
		t.Errorf("IntervalDays = %d, want 27", out.IntervalDays)
	}
}

// Maturity is reached exactly when the interval first hits the threshold.
func TestMatureExactlyAtThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.MatureIntervalThreshold = 21

	rec := gradedRecord(StateYoung, 4, 20, 1.3)
	out, _ := Review(rec, Good, cfg, t0)
	if out.IntervalDays != 26 || out.State != StateMature {
		t.Errorf("IntervalDays = %d State = %v, want 26/mature", out.IntervalDays, out.State)
	}

	rec = gradedRecord(StateYoung, 4, 15, 1.3)
	out, _ = Review(rec, Good, cfg, t0)
	if out.IntervalDays != 20 || out.State != StateYoung {
		t.Errorf("IntervalDays = %d State = %v, want 20/young (below threshold)", out.IntervalDays, out.State)
	}
}

func TestIntervalClampedToMax(t *testing.T) {
	cfg := testConfig()
	cfg.MaxReviewInterval = 30

	rec := gradedRecord(StateMature, 9, 25, 2.5)
	out, _ := Review(rec, Good, cfg, t0)
	if out.IntervalDays != 30 {
		t.Errorf("IntervalDays = %d, want clamped 30", out.IntervalDays)
	}
}

// Every grade sequence keeps the record inside the invariant ranges.
func TestInvariantsHoldForAllGradeSequences(t *testing.T) {
	cfg := testConfig()
	grades := []Grade{Again, Hard, Good, Easy}

	var walk func(rec ReviewRecord, now time.Time, depth int)
	walk = func(rec ReviewRecord, now time.Time, depth int) {
		if depth == 0 {
			return
		}
		for _, g := range grades {
			out, err := Review(rec, g, cfg, now)
			if err != nil {
				t.Fatalf("Review(%v): %v", g, err)
			}
			if out.StrengthFactor < cfg.MinStrengthFactor {
				t.Fatalf("StrengthFactor %v below floor after %v", out.StrengthFactor, g)
			}
			if out.IntervalDays < cfg.MinReviewInterval || out.IntervalDays > cfg.MaxReviewInterval {
				t.Fatalf("IntervalDays %d out of range after %v", out.IntervalDays, g)
			}
			if !out.State.IsValid() || out.State == StateNew {
				t.Fatalf("State %v invalid after grading", out.State)
			}
			if out.DueAt == nil || out.LastReviewedAt == nil {
				t.Fatal("DueAt and LastReviewedAt must be set after grading")
			}
			walk(out, now.Add(24*time.Hour), depth-1)
		}
	}
	walk(NewRecord(1, 7, cfg), t0, 4)
}

func TestPreviewCoversAllGrades(t *testing.T) {
	cfg := testConfig()
	rec := gradedRecord(StateYoung, 4, 10, 2.5)

	preview := Preview(rec, cfg, t0)
	if len(preview) != 4 {
		t.Fatalf("preview has %d entries, want 4", len(preview))
	}
	if preview[Again].IntervalDays != cfg.DefaultInterval {
		t.Errorf("again preview IntervalDays = %d, want %d", preview[Again].IntervalDays, cfg.DefaultInterval)
	}
	if preview[Good].IntervalDays <= preview[Again].IntervalDays {
		t.Error("good preview should outgrow the lapse interval")
	}
	if rec.State != StateYoung {
		t.Error("preview must not mutate the record")
	}
}
