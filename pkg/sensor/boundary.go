package sensor

import (
	"fmt"
	"log/slog"
)

// guarded wraps a sensor with a panic boundary. A recovered panic becomes a
// passing result carrying the error text in Detail: a flaky sensor must never
// deny a caller or abort the pipeline, so each sensor fails open
// independently rather than relying on one top-level recover.
type guarded struct {
	inner Sensor
}

// Guarded returns s wrapped in a per-sensor fail-open error boundary.
// Wrapping an already guarded sensor returns it unchanged.
func Guarded(s Sensor) Sensor {
	if _, ok := s.(*guarded); ok {
		return s
	}
	return &guarded{inner: s}
}

func (g *guarded) Name() string { return g.inner.Name() }

func (g *guarded) Analyze(samples []float64, sampleRate int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sensor panicked; failing open",
				"sensor", g.inner.Name(),
				"panic", r,
			)
			res = Result{
				Passed:        true,
				ThresholdType: ThresholdMax,
				Detail:        fmt.Sprintf("sensor error (failed open): %v", r),
			}
		}
	}()
	return g.inner.Analyze(samples, sampleRate)
}
