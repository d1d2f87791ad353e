package calibration_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/doronpers/sonotheia/internal/calibration"
	"github.com/doronpers/sonotheia/pkg/sensor"
)

func TestArtifact_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "calibration.json")

	a := calibration.NewArtifact()
	a.Add(calibration.OptimizationResult{
		Sensor:             "glottal_inertia",
		OptimalThreshold:   47.25,
		EER:                0.031,
		AUC:                0.993,
		ThresholdType:      sensor.ThresholdMax,
		SuggestedThreshold: 45.1,
		GenuineCount:       500,
		SpoofCount:         480,
	})
	a.Add(calibration.OptimizationResult{
		Sensor:           "digital_silence",
		OptimalThreshold: -101.5,
		EER:              0.0,
		AUC:              1.0,
		ThresholdType:    sensor.ThresholdMin,
	})

	if err := a.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := calibration.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(a.Results, loaded.Results) {
		t.Errorf("round trip changed results:\n got %+v\nwant %+v", loaded.Results, a.Results)
	}
}

// TestArtifact_RoundTripReproducesDecisions verifies the persisted artifact
// drives bit-identical threshold decisions on a fixed fixture set.
func TestArtifact_RoundTripReproducesDecisions(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "calibration.json")

	a := calibration.NewArtifact()
	a.Add(calibration.OptimizationResult{
		Sensor:           "glottal_inertia",
		OptimalThreshold: 51.736218946,
		ThresholdType:    sensor.ThresholdMax,
	})
	if err := a.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := calibration.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	fixtures := []float64{0, 51.736218945, 51.736218946, 51.736218947, 100}
	orig := a.Results["glottal_inertia"]
	round := loaded.Results["glottal_inertia"]
	if orig.OptimalThreshold != round.OptimalThreshold {
		t.Fatalf("threshold changed across round trip: %v != %v", orig.OptimalThreshold, round.OptimalThreshold)
	}
	for _, v := range fixtures {
		before := sensor.NewResult(v, orig.OptimalThreshold, orig.ThresholdType, "").Passed
		after := sensor.NewResult(v, round.OptimalThreshold, round.ThresholdType, "").Passed
		if before != after {
			t.Errorf("decision for %v diverged after reload: %v != %v", v, before, after)
		}
	}
}

func TestArtifact_SaveIsAtomicReplace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "calibration.json")

	a := calibration.NewArtifact()
	a.Add(calibration.OptimizationResult{Sensor: "s", OptimalThreshold: 1})
	if err := a.Save(path); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	a.Add(calibration.OptimizationResult{Sensor: "s", OptimalThreshold: 2})
	if err := a.Save(path); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	// No temp files may survive a successful replace.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the artifact in %s, found %d entries", dir, len(entries))
	}

	loaded, err := calibration.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Results["s"].OptimalThreshold; got != 2 {
		t.Errorf("threshold = %f; want the replaced value 2", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := calibration.Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
