package stage_test

import (
	"context"
	"testing"

	"github.com/doronpers/sonotheia/internal/stage"
	"github.com/doronpers/sonotheia/pkg/scorer"
	scorermock "github.com/doronpers/sonotheia/pkg/scorer/mock"
	"github.com/doronpers/sonotheia/pkg/sensor"
)

func TestNormalizeResult_ThresholdMapsToMidpoint(t *testing.T) {
	t.Parallel()
	res := sensor.NewResult(50, 50, sensor.ThresholdMax, "")
	if got := stage.NormalizeResult(res); got != 0.5 {
		t.Errorf("score at threshold = %f; want 0.5", got)
	}
}

func TestNormalizeResult_Monotone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		typ  sensor.ThresholdType
		low  float64 // value on the passing side
		high float64 // value on the violating side
	}{
		{"max type", sensor.ThresholdMax, 10, 90},
		{"min type", sensor.ThresholdMin, 90, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass := stage.NormalizeResult(sensor.NewResult(tt.low, 50, tt.typ, ""))
			fail := stage.NormalizeResult(sensor.NewResult(tt.high, 50, tt.typ, ""))
			if pass >= 0.5 {
				t.Errorf("passing value scored %f; want < 0.5", pass)
			}
			if fail <= 0.5 {
				t.Errorf("violating value scored %f; want > 0.5", fail)
			}
		})
	}
}

func TestNormalizeResult_Clamped(t *testing.T) {
	t.Parallel()
	res := sensor.NewResult(1000, 50, sensor.ThresholdMax, "")
	if got := stage.NormalizeResult(res); got != 1.0 {
		t.Errorf("extreme violation = %f; want clamped to 1", got)
	}
	res = sensor.NewResult(-1000, 50, sensor.ThresholdMax, "")
	if got := stage.NormalizeResult(res); got != 0.0 {
		t.Errorf("extreme pass = %f; want clamped to 0", got)
	}
}

func TestSensorStage_ExposesRawResult(t *testing.T) {
	t.Parallel()
	s := stage.NewSensorStage(sensor.NewDigitalSilence(sensor.DigitalSilenceConfig{}))
	got := s.Run(context.Background(), stage.Input{Samples: make([]float64, 16000), SampleRate: 16000})
	if !got.Success {
		t.Fatal("sensor stage should always succeed")
	}
	res, ok := got.Metadata[stage.SensorResultKey].(sensor.Result)
	if !ok {
		t.Fatal("expected raw sensor result in metadata")
	}
	if res.Passed {
		t.Error("digital zeros should fail the silence sensor")
	}
	if got.Score <= 0.5 {
		t.Errorf("failing sensor should score above 0.5, got %f", got.Score)
	}
	if got.Branch != stage.BranchPhysics {
		t.Errorf("branch = %q; want physics", got.Branch)
	}
}

func TestModelStage_Success(t *testing.T) {
	t.Parallel()
	m := stage.NewModelStage(&scorermock.Scorer{FixedScore: 0.7})
	got := m.Run(context.Background(), stage.Input{Samples: make([]float64, 160), SampleRate: 16000})
	if !got.Success {
		t.Fatalf("expected success, got %+v", got)
	}
	if got.Score != 0.7 {
		t.Errorf("score = %f; want 0.7", got.Score)
	}
	if got.Branch != stage.BranchNeural {
		t.Errorf("branch = %q; want neural", got.Branch)
	}
}

func TestModelStage_FailsClosedOnBackendError(t *testing.T) {
	t.Parallel()
	m := stage.NewModelStage(&scorermock.Scorer{Err: scorer.ErrUnavailable})
	got := m.Run(context.Background(), stage.Input{Samples: make([]float64, 160), SampleRate: 16000})
	if got.Success {
		t.Fatal("backend error must report success=false")
	}
	if _, ok := got.Metadata["error"]; !ok {
		t.Error("expected error text in metadata")
	}
}

func TestModelStage_BreakerShortCircuits(t *testing.T) {
	t.Parallel()
	mock := &scorermock.Scorer{Err: scorer.ErrUnavailable}
	m := stage.NewModelStage(mock)
	in := stage.Input{Samples: make([]float64, 160), SampleRate: 16000}
	for range 10 {
		m.Run(context.Background(), in)
	}
	// Breaker default MaxFailures is 3: later runs must not hit the backend.
	if calls := mock.CallCount(); calls > 4 {
		t.Errorf("backend called %d times; breaker should have short-circuited", calls)
	}
}
