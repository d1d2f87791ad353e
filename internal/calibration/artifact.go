package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact is the persisted calibration output: one [OptimizationResult] per
// sensor. It is written by the offline job and loaded once at pipeline
// startup; serving traffic never observes a partial update because writes go
// through a temp file followed by an atomic rename.
type Artifact struct {
	// Version identifies the artifact schema.
	Version int `json:"version"`

	// GeneratedAt records when the calibration job produced this artifact.
	GeneratedAt time.Time `json:"generated_at"`

	// Results maps sensor names to their calibration outcome.
	Results map[string]OptimizationResult `json:"results"`
}

// artifactVersion is the current schema version.
const artifactVersion = 1

// NewArtifact builds an empty artifact stamped with the current time.
func NewArtifact() *Artifact {
	return &Artifact{
		Version:     artifactVersion,
		GeneratedAt: time.Now().UTC(),
		Results:     make(map[string]OptimizationResult),
	}
}

// Add records the result for its sensor, replacing any previous entry.
func (a *Artifact) Add(res OptimizationResult) {
	a.Results[res.Sensor] = res
}

// Save writes the artifact as JSON via write-then-replace: the content goes
// to a temp file in the destination directory first, then an atomic rename
// swaps it in, so a concurrent reader sees either the old or the new
// artifact and never a torn one.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("calibration: encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("calibration: create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("calibration: write temp artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("calibration: sync temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("calibration: close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("calibration: replace artifact %q: %w", path, err)
	}
	return nil
}

// Load reads an artifact from path.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calibration: read artifact %q: %w", path, err)
	}
	a := &Artifact{}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("calibration: decode artifact %q: %w", path, err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("calibration: artifact %q has unsupported version %d", path, a.Version)
	}
	if a.Results == nil {
		a.Results = make(map[string]OptimizationResult)
	}
	return a, nil
}
