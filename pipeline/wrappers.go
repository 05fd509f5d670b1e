package pipeline

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

// NodeFunc processes state and returns updated state.
// This signature is compatible with flowgraph's NodeFunc[State].
type NodeFunc func(ctx flowgraph.Context, state State) (State, error)

// WithRecord wraps a node so its outcome lands in state.Recorder and a
// failure carries the step name.
func WithRecord(name string, node NodeFunc) NodeFunc {
	return func(ctx flowgraph.Context, state State) (State, error) {
		logger := ServicesFromContext(ctx).logger().With("run_id", state.RunID, "step", name)
		logger.Info("step started")

		start := time.Now()
		result, err := node(ctx, state)
		end := time.Now()

		if err != nil {
			err = &StepError{Step: name, Err: err}
			logger.Error("step failed", "error", err, "duration", end.Sub(start))
		} else {
			logger.Info("step finished", "duration", end.Sub(start))
		}

		if state.Recorder != nil {
			state.Recorder.Record(name, start, end, result, err)
		}
		return result, err
	}
}

// WithTiming wraps a node with timing metrics
func WithTiming(node NodeFunc) NodeFunc {
	return func(ctx flowgraph.Context, state State) (State, error) {
		start := time.Now()
		result, err := node(ctx, state)
		slog.Debug("node execution completed", "run_id", state.RunID, "duration", time.Since(start))
		return result, err
	}
}
