// Package sensor defines the detection sensor contract for Sonotheia and the
// five physics-based sensors that screen voice audio for synthetic origin.
//
// A sensor is an atomic, stateless analyzer: it receives mono PCM float64
// samples plus a sample rate and returns a [Result] describing whether the
// signal passed the sensor's physical-plausibility check. Sensors never panic
// on degenerate input (empty, too short, all-zero); they return a benign
// result with a diagnostic Detail instead. Because sensors carry no mutable
// state they are safe to run concurrently and in any order.
//
// Sensors are looked up through a [Registry]; [DefaultSensors] is the single
// source of truth for the canonical set consumed by the detection pipeline.
package sensor

import "fmt"

// ThresholdType states which side of the threshold is the passing side.
type ThresholdType string

const (
	// ThresholdMin passes when the measured value is at or above the threshold.
	ThresholdMin ThresholdType = "min"

	// ThresholdMax passes when the measured value is at or below the threshold.
	ThresholdMax ThresholdType = "max"
)

// IsValid reports whether t is a recognised threshold type.
func (t ThresholdType) IsValid() bool {
	return t == ThresholdMin || t == ThresholdMax
}

// Result is the outcome of a single sensor analysis. The Passed field is
// always derived from Value, Threshold and ThresholdType; use [NewResult] to
// keep the invariant intact.
type Result struct {
	// Passed reports whether the audio cleared this sensor's check.
	Passed bool `json:"passed"`

	// Value is the measured quantity in the sensor's native unit. Amplitude
	// velocities are full-scale amplitude per second; levels are dBFS.
	Value float64 `json:"value"`

	// Threshold is the decision boundary the value was compared against.
	Threshold float64 `json:"threshold"`

	// ThresholdType states which side of Threshold passes.
	ThresholdType ThresholdType `json:"threshold_type"`

	// Detail is a human-readable diagnostic. Degenerate input and recovered
	// sensor errors are reported here rather than as failures.
	Detail string `json:"detail,omitempty"`

	// Metadata carries sensor-specific measurements (violation counts,
	// entropy values, trajectory statistics) for the reporting layer.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewResult builds a Result with Passed derived from the threshold
// comparison: value ≥ threshold for [ThresholdMin], value ≤ threshold for
// [ThresholdMax].
func NewResult(value, threshold float64, typ ThresholdType, detail string) Result {
	passed := value <= threshold
	if typ == ThresholdMin {
		passed = value >= threshold
	}
	return Result{
		Passed:        passed,
		Value:         value,
		Threshold:     threshold,
		ThresholdType: typ,
		Detail:        detail,
	}
}

// benignResult returns a passing Result for degenerate input. The value is
// pinned to the passing side of the threshold so the Passed invariant holds.
func benignResult(threshold float64, typ ThresholdType, detail string) Result {
	value := threshold
	return NewResult(value, threshold, typ, detail)
}

// Sensor is the closed capability every analyzer implements. Implementations
// must be stateless, safe for concurrent use, and must not panic on any
// input.
type Sensor interface {
	// Name returns the sensor's unique registry name (snake_case).
	Name() string

	// Analyze inspects the signal and returns the sensor's verdict.
	Analyze(samples []float64, sampleRate int) Result
}

// silenceGateDB is the overall level below which content-dependent sensors
// treat the signal as silent and return a benign result. DigitalSilenceSensor
// deliberately ignores this gate: silence is exactly what it inspects.
const silenceGateDB = -70.0

// minSampleRate is the lowest sample rate the sensors accept. Telephony
// audio at 8 kHz is the floor for the analysed speech band.
const minSampleRate = 8000

// validateInput returns a non-empty diagnostic when the input cannot be
// analysed at all.
func validateInput(samples []float64, sampleRate int) string {
	if sampleRate < minSampleRate {
		return fmt.Sprintf("unsupported sample rate %d Hz (minimum %d)", sampleRate, minSampleRate)
	}
	if len(samples) == 0 {
		return "empty signal"
	}
	return ""
}
