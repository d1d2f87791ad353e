package health

import (
	"context"
	"fmt"

	"github.com/doronpers/sonotheia/internal/calibration"
	"github.com/doronpers/sonotheia/internal/resilience"
)

// CalibrationArtifact returns a checker that verifies the calibration
// artifact at path exists, parses, and carries at least one sensor
// threshold. A service running without reviewed thresholds would decide on
// built-in defaults, so this is a readiness concern rather than a liveness
// one.
func CalibrationArtifact(path string) Checker {
	return Checker{
		Name: "calibration",
		Check: func(_ context.Context) error {
			art, err := calibration.Load(path)
			if err != nil {
				return err
			}
			if len(art.Results) == 0 {
				return fmt.Errorf("artifact %s holds no sensor thresholds", path)
			}
			return nil
		},
	}
}

// ScorerBreaker returns a checker that reports the neural backend as
// unhealthy while its circuit breaker is open. A half-open breaker counts as
// healthy: probes are already in flight and physics sensors keep the
// pipeline serving either way.
func ScorerBreaker(name string, breaker *resilience.CircuitBreaker) Checker {
	return Checker{
		Name: name,
		Check: func(_ context.Context) error {
			if st := breaker.State(); st == resilience.StateOpen {
				return fmt.Errorf("circuit breaker is %s", st)
			}
			return nil
		},
	}
}
