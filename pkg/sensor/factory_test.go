package sensor_test

import (
	"errors"
	"testing"

	"github.com/doronpers/sonotheia/pkg/sensor"
)

func TestNewNamedUnknownSensor(t *testing.T) {
	t.Parallel()

	_, err := sensor.NewNamed("spectral_unicorn", nil)
	if !errors.Is(err, sensor.ErrSensorNotFound) {
		t.Fatalf("err = %v, want ErrSensorNotFound", err)
	}
}

func TestNewNamedAppliesOverride(t *testing.T) {
	t.Parallel()

	override := 0.77
	s, err := sensor.NewNamed("phase_coherence", &override)
	if err != nil {
		t.Fatalf("NewNamed: %v", err)
	}

	// Empty input yields a benign result pinned at the active threshold.
	res := s.Analyze(nil, testRate)
	if res.Threshold != 0.77 {
		t.Errorf("threshold = %v, want the 0.77 override", res.Threshold)
	}
}

func TestNewNamedHonorsZeroThreshold(t *testing.T) {
	t.Parallel()

	// An explicit zero must survive as-is and not fall back to the
	// built-in default the way a zero-value config field would.
	zero := 0.0
	for _, name := range []string{
		"glottal_inertia",
		"digital_silence",
		"phase_coherence",
		"global_formant",
		"formant_trajectory",
	} {
		s, err := sensor.NewNamed(name, &zero)
		if err != nil {
			t.Fatalf("NewNamed(%s): %v", name, err)
		}
		res := s.Analyze(nil, testRate)
		if res.Threshold != 0 {
			t.Errorf("%s: threshold = %v, want the explicit 0", name, res.Threshold)
		}
	}
}

func TestDefaultThresholdsMatchConstructors(t *testing.T) {
	t.Parallel()

	for _, s := range sensor.DefaultSensors() {
		name := s.Name()
		want, ok := sensor.DefaultThreshold(name)
		if !ok {
			t.Errorf("DefaultThreshold missing entry for %q", name)
			continue
		}
		// Degenerate input reports the sensor's active threshold.
		res := s.Analyze(nil, testRate)
		if res.Threshold != want {
			t.Errorf("%s: DefaultThreshold = %v, constructor default = %v", name, want, res.Threshold)
		}
	}
}
