package fixtures

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamInvariant     = errors.New("upstream invariant violated")
	ErrScheduleDecomposition = errors.New("schedule decomposition failed")
	ErrInvalidSchedule       = errors.New("invalid schedule")
	ErrRoundCount            = errors.New("round count does not match the pairing graph")
)

// UpstreamError means the draw handed to the scheduler is not an
// OpponentsPerTeam-regular, mirrored pairing graph. Scheduling is aborted.
type UpstreamError struct {
	TeamID   *int // nil when the violation is not tied to one team
	Reason   string
	Expected int
	Found    int
}

func (e *UpstreamError) Error() string {
	if e.TeamID != nil {
		return fmt.Sprintf("fixtures: upstream invariant: team %d: %s (expected %d, found %d)", *e.TeamID, e.Reason, e.Expected, e.Found)
	}
	return fmt.Sprintf("fixtures: upstream invariant: %s (expected %d, found %d)", e.Reason, e.Expected, e.Found)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamInvariant }

func teamError(teamID int, reason string, expected, found int) *UpstreamError {
	return &UpstreamError{TeamID: &teamID, Reason: reason, Expected: expected, Found: found}
}

// DecompositionError reports that no full set of rounds was found within the
// restart and work budgets.
type DecompositionError struct {
	Rounds   int
	Restarts int
	Passes   int
	Reason   string
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("fixtures: no %d-round decomposition after %d restarts and %d matching passes: %s",
		e.Rounds, e.Restarts, e.Passes, e.Reason)
}

func (e *DecompositionError) Unwrap() error { return ErrScheduleDecomposition }
