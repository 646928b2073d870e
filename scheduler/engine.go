package scheduler

import (
	"fmt"
	"math"
	"time"
)

// Numeric coefficients of the grading algorithm. The named day caps and
// interval bounds are per-account configuration (ScheduleConfig); these
// deltas are fixed across accounts.
const (
	lapseFactorDelta = 0.2  // subtracted from strength factor on a lapse
	hardFactorDelta  = 0.15 // subtracted on a hard recall
	easyFactorDelta  = 0.15 // added on an easy recall

	// Post-ladder growth multiplier used for Hard instead of the full
	// strength factor.
	hardIntervalDampening = 1.2

	// The learning ladder has three successful grades: a same-day redrill
	// step, a one-day step, and the default interval as the terminal step.
	ladderSteps = 3
)

// Review applies one grade to a record and returns the updated record.
// It is pure: no I/O, no clock reads, and the input is never mutated.
// Same inputs always produce the same output.
//
// An invalid grade returns ErrInvalidGrade and the record unchanged. The
// output always satisfies the record invariants (clamping guarantees it).
func Review(rec ReviewRecord, grade Grade, cfg ScheduleConfig, now time.Time) (ReviewRecord, error) {
	if !grade.IsValid() {
		return rec, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}
	cfg = cfg.Normalize()

	if grade == Again {
		return lapse(rec, cfg, now), nil
	}
	return advance(rec, grade, cfg, now), nil
}

// lapse resets progress after a failed recall. Records that had already left
// the ladder relapse; records still learning just restart the ladder.
func lapse(rec ReviewRecord, cfg ScheduleConfig, now time.Time) ReviewRecord {
	rec.ConsecutiveLapses++
	rec.RepetitionCount = 0
	rec.IntervalDays = cfg.clampInterval(cfg.DefaultInterval)
	rec.StrengthFactor = cfg.clampFactor(rec.StrengthFactor - lapseFactorDelta)
	if rec.State.advancing() {
		rec.State = StateRelapsed
	} else {
		rec.State = StateLearning
	}
	due := now.Add(time.Duration(rec.IntervalDays) * cfg.DayLength)
	rec.DueAt = &due
	rec.LastReviewedAt = &now
	return rec
}

// advance handles the Hard/Good/Easy path: factor adjustment, ladder or
// geometric interval growth, and the state transition.
func advance(rec ReviewRecord, grade Grade, cfg ScheduleConfig, now time.Time) ReviewRecord {
	rec.RepetitionCount++
	rec.ConsecutiveLapses = 0

	switch grade {
	case Hard:
		rec.StrengthFactor = cfg.clampFactor(rec.StrengthFactor - hardFactorDelta)
	case Easy:
		rec.StrengthFactor = cfg.clampFactor(rec.StrengthFactor + easyFactorDelta)
	default:
		rec.StrengthFactor = cfg.clampFactor(rec.StrengthFactor)
	}

	onLadder := (rec.State == StateNew || rec.State == StateLearning || rec.State == StateRelapsed) &&
		rec.RepetitionCount <= ladderSteps

	var due time.Time
	switch {
	case onLadder && rec.RepetitionCount == 1:
		// Same-day redrill step: the stored interval keeps its lower bound so
		// the row stays invariant-valid, but the card comes back in minutes.
		rec.State = StateLearning
		rec.IntervalDays = cfg.MinReviewInterval
		due = now.Add(cfg.LearningStep)

	case onLadder && rec.RepetitionCount == 2:
		rec.State = StateLearning
		rec.IntervalDays = cfg.clampInterval(1)
		due = now.Add(time.Duration(rec.IntervalDays) * cfg.DayLength)

	case onLadder:
		// Terminal ladder step: graduate at the default interval.
		rec.IntervalDays = cfg.clampInterval(cfg.DefaultInterval)
		rec.State = stateForInterval(rec.IntervalDays, cfg)
		due = now.Add(time.Duration(rec.IntervalDays) * cfg.DayLength)

	default:
		growth := rec.StrengthFactor
		if grade == Hard {
			growth = hardIntervalDampening
		}
		rec.IntervalDays = cfg.clampInterval(int(math.Round(float64(rec.IntervalDays) * growth)))
		rec.State = stateForInterval(rec.IntervalDays, cfg)
		due = now.Add(time.Duration(rec.IntervalDays) * cfg.DayLength)
	}

	rec.DueAt = &due
	rec.LastReviewedAt = &now
	return rec
}

// stateForInterval classifies an off-ladder record by its interval.
func stateForInterval(days int, cfg ScheduleConfig) State {
	if days >= cfg.MatureIntervalThreshold {
		return StateMature
	}
	return StateYoung
}

// Preview returns the record that each grade would produce, without
// persisting anything. The presentation layer uses it to show the learner
// "next review in N days" per answer button.
func Preview(rec ReviewRecord, cfg ScheduleConfig, now time.Time) map[Grade]ReviewRecord {
	out := make(map[Grade]ReviewRecord, 4)
	for _, g := range []Grade{Again, Hard, Good, Easy} {
		r, _ := Review(rec, g, cfg, now)
		out[g] = r
	}
	return out
}
