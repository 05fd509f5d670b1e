// Package event describes the CI trigger that started a preview run.
//
// The CI platform checks out the repository and exports the trigger as
// environment variables plus a JSON payload file. FromEnv reads both into an
// Event, and Gate decides whether a preview should be produced for it.
//
//	ev, err := event.FromEnv(os.Getenv)
//	if err != nil {
//	    return err
//	}
//	if err := ev.Gate(event.GateOptions{BaseBranch: "main"}); err != nil {
//	    var skip *event.SkipError
//	    if errors.As(err, &skip) {
//	        return nil // nothing to do
//	    }
//	    return err
//	}
package event
