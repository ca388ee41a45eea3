package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"datapipe/internal/artifact"
)

// Store persists run reports as JSON under a base directory, normally
// <workdir>/.datapipe/runs. latest.json always mirrors the most recent
// run.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) reportPath(runID string) string {
	return filepath.Join(s.baseDir, runID+".json")
}

// Save writes a run report and updates latest.json.
func (s *Store) Save(r *Report) error {
	if r.RunID == "" {
		return fmt.Errorf("report has no run ID")
	}
	if err := artifact.WriteJSON(s.reportPath(r.RunID), r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := artifact.WriteJSON(filepath.Join(s.baseDir, "latest.json"), r); err != nil {
		return fmt.Errorf("write latest report: %w", err)
	}
	return nil
}

// Get reads the report for a run ID.
func (s *Store) Get(runID string) (*Report, error) {
	var r Report
	if err := artifact.ReadJSON(s.reportPath(runID), &r); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, err
	}
	return &r, nil
}

// Latest reads the most recent run's report.
func (s *Store) Latest() (*Report, error) {
	var r Report
	if err := artifact.ReadJSON(filepath.Join(s.baseDir, "latest.json"), &r); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no runs recorded yet")
		}
		return nil, err
	}
	return &r, nil
}

// List returns all recorded runs, most recent first.
func (s *Store) List() ([]Report, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var reports []Report
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "latest.json" || !strings.HasSuffix(name, ".json") {
			continue
		}
		var r Report
		if err := artifact.ReadJSON(filepath.Join(s.baseDir, name), &r); err != nil {
			continue // skip broken entries
		}
		reports = append(reports, r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})
	return reports, nil
}
