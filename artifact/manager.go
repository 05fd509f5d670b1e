package artifact

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Artifact errors
var (
	ErrRunNotFound = errors.New("run not found")
	ErrLogNotFound = errors.New("log not found")
)

// RecordFile is the run summary file name.
const RecordFile = "run.json"

// Config holds configuration for the run store.
type Config struct {
	BaseDir       string // Base directory for storage (default: ".prdeploy")
	CompressAbove int64  // Gzip step logs larger than this (default: 64KB)
}

// Manager stores run records and step logs.
type Manager struct {
	baseDir       string
	compressAbove int64
}

// NewManager creates a manager with the given config.
func NewManager(cfg Config) *Manager {
	if cfg.BaseDir == "" {
		cfg.BaseDir = ".prdeploy"
	}
	if cfg.CompressAbove == 0 {
		cfg.CompressAbove = 64 * 1024
	}
	return &Manager{
		baseDir:       cfg.BaseDir,
		compressAbove: cfg.CompressAbove,
	}
}

// BaseDir returns the base directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// RunsDir returns the directory holding every run.
func (m *Manager) RunsDir() string {
	return filepath.Join(m.baseDir, "runs")
}

// RunDir returns the directory for a run
func (m *Manager) RunDir(runID string) string {
	return filepath.Join(m.RunsDir(), runID)
}

// LogsDir returns the step log directory for a run.
func (m *Manager) LogsDir(runID string) string {
	return filepath.Join(m.RunDir(runID), "logs")
}

// SaveRecord writes run.json atomically.
func (m *Manager) SaveRecord(rec *Record) error {
	if rec.RunID == "" || strings.ContainsAny(rec.RunID, `/\`) {
		return fmt.Errorf("invalid run id %q", rec.RunID)
	}
	dir := m.RunDir(rec.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tmp := filepath.Join(dir, RecordFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, RecordFile))
}

// LoadRecord reads run.json for a run.
func (m *Manager) LoadRecord(runID string) (*Record, error) {
	rec, err := loadRecordFromDir(m.RunDir(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return rec, nil
}

// List returns every readable run record, newest first.
func (m *Manager) List() ([]*Record, error) {
	entries, err := os.ReadDir(m.RunsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []*Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := loadRecordFromDir(filepath.Join(m.RunsDir(), entry.Name()))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}

// SaveLog stores a step's captured output, compressing large logs.
func (m *Manager) SaveLog(runID, step string, data []byte) error {
	dir := m.LogsDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, logName(step))
	if int64(len(data)) >= m.compressAbove {
		os.Remove(path)
		return saveCompressed(path+".gz", data)
	}
	os.Remove(path + ".gz")
	return os.WriteFile(path, data, 0o644)
}

// LoadLog loads a step log (handles compression transparently).
func (m *Manager) LoadLog(runID, step string) ([]byte, error) {
	path := filepath.Join(m.LogsDir(runID), logName(step))

	if data, err := loadCompressed(path + ".gz"); err == nil {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return data, nil
}

// ListLogs returns the step names with a saved log, sorted.
func (m *Manager) ListLogs(runID string) ([]string, error) {
	entries, err := os.ReadDir(m.LogsDir(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var steps []string
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".gz")
		if !entry.IsDir() && strings.HasSuffix(name, ".log") {
			steps = append(steps, strings.TrimSuffix(name, ".log"))
		}
	}
	sort.Strings(steps)
	return steps, nil
}

func logName(step string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(step) + ".log"
}

func loadRecordFromDir(runDir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(runDir, RecordFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", RecordFile, err)
	}
	return &rec, nil
}

func saveCompressed(path string, data []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func loadCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
