package stage

import (
	"context"
	"math"

	"github.com/doronpers/sonotheia/pkg/sensor"
)

// SensorResultKey is the metadata key under which a sensor stage exposes the
// raw [sensor.Result] for the decision envelope.
const SensorResultKey = "sensor_result"

// SensorStage adapts one physics sensor into a scoring stage. The stage
// name is the sensor name; the branch is always [BranchPhysics].
type SensorStage struct {
	sensor sensor.Sensor
}

// NewSensorStage wraps s (with its fail-open guard) into a stage.
func NewSensorStage(s sensor.Sensor) *SensorStage {
	return &SensorStage{sensor: sensor.Guarded(s)}
}

// Name implements [Stage].
func (s *SensorStage) Name() string { return s.sensor.Name() }

// Branch implements [Stage].
func (s *SensorStage) Branch() Branch { return BranchPhysics }

// Run implements [Stage]. Sensor work is CPU-bound and in-memory, so ctx is
// only consulted before starting; a sensor never blocks mid-analysis.
func (s *SensorStage) Run(ctx context.Context, in Input) Score {
	if err := ctx.Err(); err != nil {
		return Score{
			Stage:    s.Name(),
			Branch:   BranchPhysics,
			Success:  false,
			Metadata: map[string]any{"error": err.Error()},
		}
	}
	res := s.sensor.Analyze(in.Samples, in.SampleRate)
	return Score{
		Stage:   s.Name(),
		Branch:  BranchPhysics,
		Success: true,
		Score:   NormalizeResult(res),
		Metadata: map[string]any{
			SensorResultKey: res,
		},
	}
}

// NormalizeResult maps a threshold comparison onto [0,1]: 0.5 exactly at the
// threshold, below 0.5 on the passing side, above on the violating side. The
// violation margin is scaled by the threshold magnitude so sensors with very
// different native units land on a comparable axis.
func NormalizeResult(res sensor.Result) float64 {
	scale := math.Abs(res.Threshold)
	if scale < 1e-9 {
		scale = 1
	}
	margin := (res.Value - res.Threshold) / scale
	if res.ThresholdType == sensor.ThresholdMin {
		margin = -margin
	}
	return clamp01(0.5 + 0.5*margin)
}
