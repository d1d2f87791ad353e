package pipeline

import (
	"fmt"

	"github.com/doronpers/sonotheia/internal/stage"
	"github.com/doronpers/sonotheia/pkg/sensor"
)

// SensorReport is the human-readable account of one physics sensor's
// verdict, attached to full-path decisions for analyst review.
type SensorReport struct {
	// Sensor is the sensor name.
	Sensor string `json:"sensor"`

	// Passed mirrors the raw sensor verdict.
	Passed bool `json:"passed"`

	// Value and Threshold restate the native-unit comparison.
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`

	// Summary is one sentence an analyst can read without knowing the
	// sensor's internals.
	Summary string `json:"summary"`
}

// explain extracts sensor reports from the physics stage scores. Stages
// without an embedded sensor result (failed or non-sensor stages) are
// skipped.
func explain(scores []stage.Score) []SensorReport {
	reports := make([]SensorReport, 0, len(scores))
	for _, s := range scores {
		raw, ok := s.Metadata[stage.SensorResultKey]
		if !ok {
			continue
		}
		res, ok := raw.(sensor.Result)
		if !ok {
			continue
		}
		reports = append(reports, SensorReport{
			Sensor:    s.Stage,
			Passed:    res.Passed,
			Value:     res.Value,
			Threshold: res.Threshold,
			Summary:   summarize(s.Stage, res),
		})
	}
	return reports
}

// summarize renders one sensor verdict as a sentence. Unknown sensors fall
// back to the generic comparison so new sensors degrade gracefully.
func summarize(name string, res sensor.Result) string {
	verdict := "consistent with a genuine voice"
	if !res.Passed {
		verdict = "flagged as synthetic"
	}
	switch name {
	case "glottal_inertia":
		return fmt.Sprintf("amplitude envelope peaked at %.1f/s against a %.1f/s physical limit: %s", res.Value, res.Threshold, verdict)
	case "digital_silence":
		return fmt.Sprintf("quietest sustained passage measured %.1f dBFS against a %.1f dBFS noise floor: %s", res.Value, res.Threshold, verdict)
	case "phase_coherence":
		return fmt.Sprintf("phase progression entropy %.3f against a %.3f ceiling: %s", res.Value, res.Threshold, verdict)
	case "global_formant":
		return fmt.Sprintf("long-term spectral flatness %.3f against a %.3f ceiling: %s", res.Value, res.Threshold, verdict)
	case "formant_trajectory":
		return fmt.Sprintf("%.0f%% of formant movements were implausible jumps against a %.0f%% ceiling: %s", res.Value*100, res.Threshold*100, verdict)
	}
	return fmt.Sprintf("measured %.3f against threshold %.3f (%s): %s", res.Value, res.Threshold, res.ThresholdType, verdict)
}
