package sensor_test

import (
	"math/rand"
	"testing"

	"github.com/doronpers/sonotheia/pkg/sensor"
)

func TestDigitalSilence_EmptyInputPasses(t *testing.T) {
	t.Parallel()
	res := sensor.NewDigitalSilence(sensor.DigitalSilenceConfig{}).Analyze(nil, testRate)
	if !res.Passed {
		t.Errorf("empty input should pass, got %+v", res)
	}
}

func TestDigitalSilence_ExactZerosFail(t *testing.T) {
	t.Parallel()
	res := sensor.NewDigitalSilence(sensor.DigitalSilenceConfig{}).Analyze(make([]float64, testRate), testRate)
	if res.Passed {
		t.Fatalf("one second of exact digital zeros should fail, got %+v", res)
	}
	if res.ThresholdType != sensor.ThresholdMin {
		t.Errorf("threshold_type = %q; want min", res.ThresholdType)
	}
	if res.Value >= res.Threshold {
		t.Errorf("failing min-type result must have value %f < threshold %f", res.Value, res.Threshold)
	}
}

func TestDigitalSilence_DitheredSilencePasses(t *testing.T) {
	t.Parallel()
	// The same one-second silence with -80 dBFS dither: real capture chains
	// always leave at least this much residual noise.
	rng := rand.New(rand.NewSource(3))
	samples := make([]float64, testRate)
	for i := range samples {
		samples[i] = 1e-4 * rng.NormFloat64()
	}
	res := sensor.NewDigitalSilence(sensor.DigitalSilenceConfig{}).Analyze(samples, testRate)
	if !res.Passed {
		t.Errorf("dithered silence should pass, got %+v", res)
	}
}

func TestDigitalSilence_IsolatedDropoutPasses(t *testing.T) {
	t.Parallel()
	// Speech with a single zeroed 20 ms window — shorter than the sustained
	// run requirement, so it must not trip the sensor.
	samples := voicedSpeechLike(1, 11)
	winLen := testRate / 50
	for i := testRate / 2; i < testRate/2+winLen; i++ {
		samples[i] = 0
	}
	res := sensor.NewDigitalSilence(sensor.DigitalSilenceConfig{}).Analyze(samples, testRate)
	if !res.Passed {
		t.Errorf("isolated single-window dropout should pass, got %+v", res)
	}
}

func TestDigitalSilence_InsertedSilenceInsideSpeechFails(t *testing.T) {
	t.Parallel()
	// 200 ms of exact zeros spliced into otherwise normal speech.
	samples := voicedSpeechLike(1, 12)
	for i := testRate / 2; i < testRate/2+testRate/5; i++ {
		samples[i] = 0
	}
	res := sensor.NewDigitalSilence(sensor.DigitalSilenceConfig{}).Analyze(samples, testRate)
	if res.Passed {
		t.Errorf("spliced digital silence should fail, got %+v", res)
	}
	if n, ok := res.Metadata["sub_floor_windows"].(int); !ok || n < 5 {
		t.Errorf("sub_floor_windows = %v; want >= 5", res.Metadata["sub_floor_windows"])
	}
}
