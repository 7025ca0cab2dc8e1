package curve

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidData is returned for malformed curve input: too few points,
	// unsorted or duplicate dates, inadmissible values, invalid quotes.
	ErrInvalidData = errors.New("invalid curve data")
	// ErrConvergence is wrapped by every BootstrapError.
	ErrConvergence = errors.New("bootstrap did not converge")
	// ErrNegativeTime is returned for queries before the reference date.
	ErrNegativeTime = errors.New("negative time")
)

// BootstrapError describes a failed calibration.
type BootstrapError struct {
	Pass int
	// Instrument indexes the helpers alive at the reference date, in pillar
	// order, or is -1 when passes failed to converge.
	Instrument int
	PillarDate time.Time
	// Achieved is the last quote error, or the last pass-to-pass change.
	Achieved float64
	Target   float64
	Err      error
}

func (e *BootstrapError) Error() string {
	var msg string
	if e.Instrument < 0 {
		msg = fmt.Sprintf("bootstrap: convergence not reached after %d passes: last change %.3e, required %.3e",
			e.Pass, e.Achieved, e.Target)
	} else {
		msg = fmt.Sprintf("bootstrap: pass %d failed at instrument %d (pillar %s): error %.3e, required %.3e",
			e.Pass, e.Instrument, e.PillarDate.Format("2006-01-02"), e.Achieved, e.Target)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BootstrapError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConvergence}
	}
	return []error{ErrConvergence, e.Err}
}
