package draw

import (
	"errors"
	"fmt"
)

var (
	ErrDrawExhausted = errors.New("no valid draw found within the attempt budget")
	ErrInvalidRoster = errors.New("invalid roster")
	ErrInvalidDraw   = errors.New("draw violates pairing invariants")
	ErrNoRandSource  = errors.New("random source is required")
)

// ExhaustedError is returned when every attempt of a generator failed
// validation. LastReport describes the final rejected attempt.
type ExhaustedError struct {
	Attempts   int
	LastReport Report
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("draw: %v after %d attempts (last attempt: %d violations)",
		ErrDrawExhausted, e.Attempts, len(e.LastReport.Violations))
}

func (e *ExhaustedError) Unwrap() error {
	return ErrDrawExhausted
}
