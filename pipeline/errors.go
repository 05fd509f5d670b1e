package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoServices indicates a node ran without Services in its context.
	ErrNoServices = errors.New("pipeline services not configured")

	// ErrMissingInput indicates a step ran before the step producing its input.
	ErrMissingInput = errors.New("missing step input")
)

// StepError identifies the step that aborted a run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingInput, what)
}
