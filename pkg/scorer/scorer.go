// Package scorer defines the contract for the neural anti-spoofing scorer
// consumed by the detection pipeline's model stage.
//
// The scoring model itself is opaque to this module: training, architecture,
// and serving live elsewhere. A Provider turns a mono PCM clip into a single
// spoof-likelihood score in [0,1] (higher = more likely synthetic). A
// provider that cannot reach its model — missing weights, unreachable
// endpoint, timeout — must return an error so the stage fails closed and is
// excluded from fusion, rather than block the pipeline or fabricate a score.
//
// Implementations must be safe for concurrent use.
package scorer

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the scoring backend cannot be reached or
// its model artifact is not loaded. The model stage reports success=false on
// this error and fusion proceeds with degraded coverage.
var ErrUnavailable = errors.New("scorer: backend unavailable")

// Provider scores audio for synthetic origin.
type Provider interface {
	// Name returns the provider's registry name (e.g. "remote", "mock").
	Name() string

	// Score returns the spoof likelihood of the clip in [0,1]. Blocking is
	// bounded by ctx; implementations must respect cancellation.
	Score(ctx context.Context, samples []float64, sampleRate int) (float64, error)
}
