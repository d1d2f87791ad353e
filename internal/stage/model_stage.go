package stage

import (
	"context"
	"log/slog"

	"github.com/doronpers/sonotheia/internal/resilience"
	"github.com/doronpers/sonotheia/pkg/scorer"
)

// ModelStage adapts the opaque neural scorer into a stage on
// [BranchNeural]. A backend failure reports success=false (fail closed) so
// fusion proceeds with degraded coverage; a circuit breaker keeps a dead
// backend from charging its full timeout to every call.
type ModelStage struct {
	name     string
	provider scorer.Provider
	breaker  *resilience.CircuitBreaker
}

// NewModelStage wraps provider. The stage name is "neural_" plus the
// provider name.
func NewModelStage(provider scorer.Provider) *ModelStage {
	name := "neural_" + provider.Name()
	return &ModelStage{
		name:     name,
		provider: provider,
		breaker:  resilience.New(resilience.Config{Name: name}),
	}
}

// Name implements [Stage].
func (m *ModelStage) Name() string { return m.name }

// Breaker exposes the stage's circuit breaker for readiness reporting.
func (m *ModelStage) Breaker() *resilience.CircuitBreaker { return m.breaker }

// Branch implements [Stage].
func (m *ModelStage) Branch() Branch { return BranchNeural }

// Run implements [Stage].
func (m *ModelStage) Run(ctx context.Context, in Input) Score {
	var value float64
	err := m.breaker.Execute(func() error {
		var scoreErr error
		value, scoreErr = m.provider.Score(ctx, in.Samples, in.SampleRate)
		return scoreErr
	})
	if err != nil {
		slog.Warn("neural stage unavailable; failing closed",
			"stage", m.name,
			"err", err,
		)
		return Score{
			Stage:    m.name,
			Branch:   BranchNeural,
			Success:  false,
			Metadata: map[string]any{"error": err.Error()},
		}
	}
	return Score{
		Stage:   m.name,
		Branch:  BranchNeural,
		Success: true,
		Score:   clamp01(value),
		Metadata: map[string]any{
			"provider": m.provider.Name(),
		},
	}
}
