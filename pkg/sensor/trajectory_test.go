package sensor_test

import (
	"math"
	"testing"

	"github.com/doronpers/sonotheia/pkg/sensor"
)

// chirp generates a sine whose frequency drifts linearly from f0 to f1.
func chirp(f0, f1, amplitude, seconds float64) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	phase := 0.0
	for i := range out {
		f := f0 + (f1-f0)*float64(i)/float64(n)
		phase += 2 * math.Pi * f / testRate
		out[i] = amplitude * math.Sin(phase)
	}
	return out
}

func TestFormantTrajectory_EmptyInputPasses(t *testing.T) {
	t.Parallel()
	res := sensor.NewFormantTrajectory(sensor.FormantTrajectoryConfig{}).Analyze(nil, testRate)
	if !res.Passed {
		t.Errorf("empty input should pass, got %+v", res)
	}
}

func TestFormantTrajectory_SilencePasses(t *testing.T) {
	t.Parallel()
	res := sensor.NewFormantTrajectory(sensor.FormantTrajectoryConfig{}).Analyze(make([]float64, testRate), testRate)
	if !res.Passed {
		t.Errorf("all-zero input should pass, got %+v", res)
	}
}

func TestFormantTrajectory_WanderingResonancePasses(t *testing.T) {
	t.Parallel()
	// A resonance drifting 500 → 800 Hz over two seconds: continuous
	// articulation with healthy spread.
	res := sensor.NewFormantTrajectory(sensor.FormantTrajectoryConfig{}).Analyze(chirp(500, 800, 0.4, 2), testRate)
	if !res.Passed {
		t.Fatalf("wandering resonance should pass, got %+v", res)
	}
	spread, ok := res.Metadata["trajectory_sd_hz"].(float64)
	if !ok || spread < 5 {
		t.Errorf("trajectory_sd_hz = %v; want a natural spread >= 5", res.Metadata["trajectory_sd_hz"])
	}
}

func TestFormantTrajectory_FrozenTrajectoryFails(t *testing.T) {
	t.Parallel()
	// A perfectly static 600 Hz resonance for two seconds: no biological
	// articulator holds a formant this still.
	res := sensor.NewFormantTrajectory(sensor.FormantTrajectoryConfig{}).Analyze(sine(600, 0.4, 2), testRate)
	if res.Passed {
		t.Fatalf("frozen trajectory should fail, got %+v", res)
	}
	if res.Value != 1.0 {
		t.Errorf("frozen trajectory value = %f; want pinned to 1.0", res.Value)
	}
}

func TestFormantTrajectory_ErraticTrajectoryFails(t *testing.T) {
	t.Parallel()
	// Alternate between 500 Hz and 2500 Hz every 32 ms: discontinuous
	// frame-wise synthesis.
	n := 2 * testRate
	seg := testRate * 32 / 1000
	samples := make([]float64, n)
	phase := 0.0
	for i := range samples {
		f := 500.0
		if (i/seg)%2 == 1 {
			f = 2500.0
		}
		phase += 2 * math.Pi * f / testRate
		samples[i] = 0.4 * math.Sin(phase)
	}
	res := sensor.NewFormantTrajectory(sensor.FormantTrajectoryConfig{}).Analyze(samples, testRate)
	if res.Passed {
		t.Errorf("erratic trajectory should fail, got %+v", res)
	}
}
