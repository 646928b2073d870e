package scheduler

import "errors"

// Sentinel errors for the scheduler package.
// Use errors.Is to check: errors.Is(err, scheduler.ErrInvalidGrade)
var (
	ErrInvalidGrade     = errors.New("scheduler: invalid grade")
	ErrRecordNotFound   = errors.New("scheduler: review record not found")
	ErrStaleRecord      = errors.New("scheduler: review record modified concurrently")
	ErrSessionNotFound  = errors.New("scheduler: session not found")
	ErrSessionClosed    = errors.New("scheduler: session closed")
	ErrCardNotInSession = errors.New("scheduler: card not in session queue")
)
