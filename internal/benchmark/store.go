package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store persists the artifacts of a run.
type Store interface {
	SaveTarget(report TargetReport) error
	SaveAll(summary RunSummary) error
	LoadAll() (*RunSummary, error)
	WriteFile(name string, data []byte) error
	Create(name string) (io.WriteCloser, error)
}

const (
	// AllResultsFile holds every target report of the last run.
	AllResultsFile = "all-results.json"
	// PlotsDir holds the chart images, relative to the output directory.
	PlotsDir = "plots"
)

// FileStore implements Store in a flat output directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the output and plots directories.
func NewFileStore(dir string) (*FileStore, error) {
	plots := filepath.Join(dir, PlotsDir)
	if err := os.MkdirAll(plots, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", plots, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the output directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// TargetFile is the per-target artifact name.
func TargetFile(name string) string {
	return name + "-all-runs.json"
}

func (s *FileStore) SaveTarget(report TargetReport) error {
	return s.writeJSON(TargetFile(report.Framework), report)
}

func (s *FileStore) SaveAll(summary RunSummary) error {
	return s.writeJSON(AllResultsFile, summary)
}

func (s *FileStore) LoadAll() (*RunSummary, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, AllResultsFile))
	if err != nil {
		return nil, err
	}

	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", AllResultsFile, err)
	}
	return &summary, nil
}

// WriteFile overwrites name, relative to the output directory.
func (s *FileStore) WriteFile(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, name), data, 0644)
}

// Create truncates name, relative to the output directory, for streaming writes.
func (s *FileStore) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(s.dir, name))
}

func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return s.WriteFile(name, data)
}
