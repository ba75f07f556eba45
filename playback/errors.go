package playback

import "errors"

var (
	// ErrInvalidStepSize is returned when a step size is not one of StepSizes.
	ErrInvalidStepSize = errors.New("invalid step size")

	// ErrSessionClosed is returned by terminal transitions on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidMapping is returned when mapping bounds are inconsistent.
	ErrInvalidMapping = errors.New("invalid mapping")
)
