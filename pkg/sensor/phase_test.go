package sensor_test

import (
	"testing"

	"github.com/doronpers/sonotheia/pkg/sensor"
)

func TestPhaseCoherence_EmptyInputPasses(t *testing.T) {
	t.Parallel()
	res := sensor.NewPhaseCoherence(sensor.PhaseCoherenceConfig{}).Analyze(nil, testRate)
	if !res.Passed {
		t.Errorf("empty input should pass, got %+v", res)
	}
}

func TestPhaseCoherence_SilencePasses(t *testing.T) {
	t.Parallel()
	res := sensor.NewPhaseCoherence(sensor.PhaseCoherenceConfig{}).Analyze(make([]float64, testRate), testRate)
	if !res.Passed {
		t.Errorf("all-zero input should pass, got %+v", res)
	}
}

func TestPhaseCoherence_HarmonicSignalPasses(t *testing.T) {
	t.Parallel()
	res := sensor.NewPhaseCoherence(sensor.PhaseCoherenceConfig{}).Analyze(voicedSpeechLike(2, 21), testRate)
	if !res.Passed {
		t.Fatalf("structured harmonic signal should pass, got %+v", res)
	}
	entropy, ok := res.Metadata["phase_entropy"].(float64)
	if !ok {
		t.Fatal("expected phase_entropy metadata")
	}
	if entropy >= res.Threshold {
		t.Errorf("phase_entropy = %f; want below threshold %f", entropy, res.Threshold)
	}
}

func TestPhaseCoherence_WhiteNoiseFails(t *testing.T) {
	t.Parallel()
	res := sensor.NewPhaseCoherence(sensor.PhaseCoherenceConfig{}).Analyze(whiteNoise(0.2, 2, 22), testRate)
	if res.Passed {
		t.Errorf("white noise has maximal phase entropy and should fail, got %+v", res)
	}
	if res.Value <= 0.9 {
		t.Errorf("phase entropy of white noise = %f; want near 1", res.Value)
	}
}
