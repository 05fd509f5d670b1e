// Package artifact stores a record of every pipeline run on local disk.
//
// Layout under the base directory:
//
//	runs/<runID>/run.json          Record summary
//	runs/<runID>/logs/<step>.log   Captured step output (gzipped when large)
//
// Core types:
//   - Manager: Saves and loads run records and step logs
//   - Record: What a run did and how it ended
//   - LifecycleManager: Applies the retention policy
//
// Example usage:
//
//	mgr := artifact.NewManager(artifact.Config{BaseDir: ".prdeploy"})
//	rec := artifact.NewRecord(runID, time.Now())
//	err := mgr.SaveRecord(rec)
//	runs, err := mgr.List()
package artifact
