package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/randalmurphal/prdeploy/artifact"
)

// Recorder collects step outcomes. It is shared by pointer across the
// state copies the graph passes between nodes, so the record survives a
// failed run.
type Recorder struct {
	mu      sync.Mutex
	steps   []artifact.StepRecord
	last    State
	hasLast bool
	failed  *StepError
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record stores the outcome of one step. On success result becomes the
// latest known state.
func (r *Recorder) Record(name string, start, end time.Time, result State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := artifact.StepRecord{
		Name:      name,
		StartedAt: start,
		EndedAt:   end,
		Duration:  end.Sub(start),
	}
	if err != nil {
		rec.Error = err.Error()
		if r.failed == nil {
			var se *StepError
			if !errors.As(err, &se) {
				se = &StepError{Step: name, Err: err}
			}
			r.failed = se
		}
	} else {
		r.last = result
		r.hasLast = true
	}
	r.steps = append(r.steps, rec)
}

// Steps returns a copy of the recorded steps in order.
func (r *Recorder) Steps() []artifact.StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]artifact.StepRecord(nil), r.steps...)
}

// Last returns the state produced by the last successful step.
func (r *Recorder) Last() (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// Failed returns the first step failure, or nil.
func (r *Recorder) Failed() *StepError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}
