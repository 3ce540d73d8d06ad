package runner

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const timestampFormat = "2006-01-02T15-04-05.000"

// DiskStore persists run history to a directory, one JSON file per run.
type DiskStore struct {
	dir      string
	logger   *slog.Logger
	maxCount int

	mu   sync.Mutex
	runs []diskRun // most recent first
}

type diskRun struct {
	record runRecord
	path   string
}

// NewDiskStore creates a disk-backed store keeping the maxCount most recent
// runs. The directory is created if it doesn't exist, and existing runs are
// loaded. Unreadable files are skipped.
func NewDiskStore(dir string, maxCount int, logger *slog.Logger) (*DiskStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DiskStore{
		dir:      dir,
		logger:   logger,
		maxCount: maxCount,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// History returns all runs as summaries.
func (s *DiskStore) History() []RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]RunSummary, len(s.runs))
	for i, run := range s.runs {
		result[i] = run.record.RunSummary
	}
	return result
}

// Logs returns the component executions for a specific run.
func (s *DiskStore) Logs(id string) []ComponentExecution {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, run := range s.runs {
		if run.record.ID == id {
			return slices.Clone(run.record.Components)
		}
	}
	return nil
}

// Save writes a run to disk. When the store is over its limit the oldest run
// and its file are removed.
func (s *DiskStore) Save(summary RunSummary, components []ComponentExecution) error {
	if summary.StartedAt == nil {
		return fmt.Errorf("cannot save run without start time")
	}
	if summary.ID == "" {
		return fmt.Errorf("cannot save run without an ID")
	}

	record := runRecord{RunSummary: summary, Components: components}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	// 2006-01-02T15-04-05.000_<id>.json sorts by start time.
	name := summary.StartedAt.UTC().Format(timestampFormat) + "_" + summary.ID + ".json"
	path := filepath.Join(s.dir, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}
	s.runs = append([]diskRun{{record: record, path: path}}, s.runs...)
	s.logger.Debug("saved run to disk", "path", path)

	for overLimit(len(s.runs), s.maxCount) {
		oldest := s.runs[len(s.runs)-1]
		s.runs = s.runs[:len(s.runs)-1]
		if err := os.Remove(oldest.path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove old run file", "path", oldest.path, "error", err)
		}
	}
	return nil
}

// Reload re-reads every run from disk.
func (s *DiskStore) Reload() error {
	runs, err := s.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = runs
	return nil
}

func (s *DiskStore) load() ([]diskRun, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var runs []diskRun
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read run file", "file", path, "error", err)
			continue
		}

		var record runRecord
		if err := json.Unmarshal(data, &record); err != nil {
			s.logger.Warn("failed to parse run file", "file", path, "error", err)
			continue
		}
		if record.ID == "" || record.StartedAt == nil {
			s.logger.Warn("skipping incomplete run file", "file", path)
			continue
		}
		runs = append(runs, diskRun{record: record, path: path})
	}

	slices.SortStableFunc(runs, func(a, b diskRun) int {
		if c := b.record.StartedAt.Compare(*a.record.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(b.path, a.path)
	})
	if overLimit(len(runs), s.maxCount) {
		runs = runs[:s.maxCount]
	}

	s.logger.Info("loaded run history from disk", "count", len(runs))
	return runs, nil
}
