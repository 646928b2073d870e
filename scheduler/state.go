package scheduler

// State represents the lifecycle stage of a review record.
type State string

const (
	StateNew      State = "new"      // Never graded; no stored history.
	StateLearning State = "learning" // Climbing the learning-step ladder.
	StateYoung    State = "young"    // Off the ladder, interval below maturity.
	StateMature   State = "mature"   // Interval at or past the maturity threshold.
	StateRelapsed State = "relapsed" // Lapsed from young/mature, awaiting regrade.
)

// IsValid reports whether s is one of the defined states.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateYoung, StateMature, StateRelapsed:
		return true
	}
	return false
}

// advancing reports whether the record had left the learning ladder before,
// i.e. a lapse from this state counts as a relapse rather than a learning miss.
func (s State) advancing() bool {
	return s == StateYoung || s == StateMature
}
