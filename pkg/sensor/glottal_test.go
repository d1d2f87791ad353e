package sensor_test

import (
	"math"
	"testing"

	"github.com/doronpers/sonotheia/pkg/sensor"
)

func TestGlottalInertia_EmptyInputPasses(t *testing.T) {
	t.Parallel()
	res := sensor.NewGlottalInertia(sensor.GlottalInertiaConfig{}).Analyze(nil, testRate)
	if !res.Passed {
		t.Errorf("empty input should pass, got %+v", res)
	}
	if res.Detail == "" {
		t.Error("expected a diagnostic detail for degenerate input")
	}
}

func TestGlottalInertia_InstantaneousJumpFails(t *testing.T) {
	t.Parallel()
	// Half a second of silence, then an instantaneous 0 → 0.5 amplitude jump.
	samples := make([]float64, testRate)
	for i := testRate / 2; i < len(samples); i++ {
		samples[i] = 0.5 * math.Sin(2*math.Pi*200*float64(i)/testRate)
	}
	res := sensor.NewGlottalInertia(sensor.GlottalInertiaConfig{}).Analyze(samples, testRate)
	if res.Passed {
		t.Fatalf("instantaneous amplitude jump should fail, got %+v", res)
	}
	count, ok := res.Metadata["violation_count"].(int)
	if !ok || count < 1 {
		t.Errorf("violation_count = %v; want >= 1", res.Metadata["violation_count"])
	}
	if res.ThresholdType != sensor.ThresholdMax {
		t.Errorf("threshold_type = %q; want max", res.ThresholdType)
	}
}

func TestGlottalInertia_LinearRampPasses(t *testing.T) {
	t.Parallel()
	// The same 0 → 0.5 change applied over a 50 ms linear ramp.
	samples := make([]float64, testRate)
	rampStart := testRate / 2
	rampLen := testRate / 20 // 50 ms
	for i := rampStart; i < len(samples); i++ {
		gain := 1.0
		if i < rampStart+rampLen {
			gain = float64(i-rampStart) / float64(rampLen)
		}
		samples[i] = gain * 0.5 * math.Sin(2*math.Pi*200*float64(i)/testRate)
	}
	res := sensor.NewGlottalInertia(sensor.GlottalInertiaConfig{}).Analyze(samples, testRate)
	if !res.Passed {
		t.Errorf("50 ms ramp should pass, got %+v", res)
	}
}

func TestGlottalInertia_AllZeroDoesNotPanic(t *testing.T) {
	t.Parallel()
	res := sensor.NewGlottalInertia(sensor.GlottalInertiaConfig{}).Analyze(make([]float64, testRate), testRate)
	if !res.Passed {
		t.Errorf("all-zero input should pass, got %+v", res)
	}
}

func TestGlottalInertia_ResultInvariant(t *testing.T) {
	t.Parallel()
	res := sensor.NewGlottalInertia(sensor.GlottalInertiaConfig{}).Analyze(voicedSpeechLike(1, 7), testRate)
	wantPassed := res.Value <= res.Threshold
	if res.Passed != wantPassed {
		t.Errorf("passed = %v inconsistent with value %f vs max threshold %f", res.Passed, res.Value, res.Threshold)
	}
}
