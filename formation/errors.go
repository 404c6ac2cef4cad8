package formation

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when a Config field is out of range
	ErrInvalidConfig = errors.New("invalid formation config")
	// ErrInvalidFrameRate is returned when a sampled frame reports a non-positive frame rate
	ErrInvalidFrameRate = errors.New("frame rate must be positive")
	// ErrNonIncreasingTimestamp is returned when a timeline entry does not advance time
	ErrNonIncreasingTimestamp = errors.New("timeline timestamps must be strictly increasing")
	// ErrCollaborator is the single failure class for frame source, detector and depth estimator failures
	ErrCollaborator = errors.New("collaborator failure")
)

// CollaboratorError carries a failure of an external capability together with the stage and frame it happened on.
// errors.Is(err, ErrCollaborator) reports true for it.
type CollaboratorError struct {
	Stage string
	Frame int
	Err   error
}

func (e *CollaboratorError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (frame %d): %v", e.Stage, e.Frame, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Is makes every CollaboratorError match ErrCollaborator
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}
