package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RetentionConfig defines retention policy
type RetentionConfig struct {
	RetentionDays int  // Days to keep finished runs
	KeepFailed    bool // Never delete failed runs
	KeepMinRuns   int  // Newest runs to keep regardless of age
}

// DefaultRetentionConfig returns the default policy.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays: 14,
		KeepFailed:    true,
		KeepMinRuns:   20,
	}
}

// LifecycleManager applies the retention policy to stored runs.
type LifecycleManager struct {
	baseDir string
	config  RetentionConfig
	now     func() time.Time
}

// NewLifecycleManager creates a lifecycle manager
func NewLifecycleManager(baseDir string, config RetentionConfig) *LifecycleManager {
	return &LifecycleManager{
		baseDir: baseDir,
		config:  config,
		now:     time.Now,
	}
}

// CleanupResult summarizes cleanup actions
type CleanupResult struct {
	Deleted    []string `json:"deleted"`
	Kept       []string `json:"kept"`
	Errors     []string `json:"errors,omitempty"`
	SpaceSaved int64    `json:"spaceSaved"`
}

type runInfo struct {
	id      string
	rec     *Record
	size    int64
	endedAt time.Time
}

// Cleanup deletes finished runs older than RetentionDays, keeping the
// KeepMinRuns newest runs and, with KeepFailed, every failed run.
// With dryRun set nothing is removed.
func (m *LifecycleManager) Cleanup(dryRun bool) (*CleanupResult, error) {
	result := &CleanupResult{
		Deleted: make([]string, 0),
		Kept:    make([]string, 0),
	}

	runsDir := filepath.Join(m.baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}

	var runs []runInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runID := entry.Name()
		runDir := filepath.Join(runsDir, runID)

		rec, err := loadRecordFromDir(runDir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("load %s: %v", runID, err))
			continue
		}
		endedAt := rec.EndedAt
		if endedAt.IsZero() {
			endedAt = rec.StartedAt
		}
		runs = append(runs, runInfo{
			id:      runID,
			rec:     rec,
			size:    dirSize(runDir),
			endedAt: endedAt,
		})
	}

	// Newest first so the first KeepMinRuns are protected.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].endedAt.After(runs[j].endedAt)
	})

	threshold := m.now().Add(-time.Duration(m.config.RetentionDays) * 24 * time.Hour)

	for i, run := range runs {
		switch {
		case i < m.config.KeepMinRuns,
			!run.rec.Done(),
			m.config.KeepFailed && run.rec.Status == StatusFailed,
			!run.endedAt.Before(threshold):
			result.Kept = append(result.Kept, run.id)
			continue
		}

		if !dryRun {
			if err := os.RemoveAll(filepath.Join(runsDir, run.id)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", run.id, err))
				continue
			}
		}
		result.Deleted = append(result.Deleted, run.id)
		result.SpaceSaved += run.size
	}

	return result, nil
}

// DiskUsage returns disk usage statistics
func (m *LifecycleManager) DiskUsage() (*DiskUsageStats, error) {
	stats := &DiskUsageStats{}

	runsDir := filepath.Join(m.baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			stats.RunCount++
			stats.TotalSize += dirSize(filepath.Join(runsDir, entry.Name()))
		}
	}
	return stats, nil
}

// DiskUsageStats contains disk usage statistics
type DiskUsageStats struct {
	RunCount  int   `json:"runCount"`
	TotalSize int64 `json:"totalSize"`
}

func dirSize(path string) int64 {
	var size int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}
