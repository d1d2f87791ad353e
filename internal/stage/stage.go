// Package stage wraps sensors and model invocations into uniform scoring
// stages. A stage reduces its underlying analyzer to one normalized score in
// [0,1] (higher = more likely synthetic) so that the fusion engine can
// combine heterogeneous signals without knowing what produced them.
package stage

import (
	"context"

	"github.com/doronpers/sonotheia/pkg/environment"
)

// Branch labels which fusion branch a stage belongs to.
type Branch string

const (
	// BranchPhysics groups the deterministic signal sensors.
	BranchPhysics Branch = "physics"

	// BranchNeural groups learned scoring models.
	BranchNeural Branch = "neural"
)

// Input is the per-call payload handed to every stage.
type Input struct {
	// Samples is mono PCM in [-1,1].
	Samples []float64

	// SampleRate in Hz.
	SampleRate int

	// Env is the acoustic-environment context computed once per call.
	Env environment.Metrics
}

// Score is one stage's contribution to fusion. Exactly one Score is produced
// per stage per pipeline run; it lives for that run only.
type Score struct {
	// Stage is the producing stage's name.
	Stage string `json:"stage_name"`

	// Branch is the fusion branch this stage belongs to.
	Branch Branch `json:"branch"`

	// Success reports whether the stage produced a usable score. Failed
	// stages are excluded from fusion aggregation entirely.
	Success bool `json:"success"`

	// Score is the normalized spoof likelihood in [0,1]. Meaningless when
	// Success is false.
	Score float64 `json:"score"`

	// Metadata carries stage-specific diagnostics for reporting.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Stage is one scoring step in the detection pipeline. Implementations must
// be safe for concurrent use; Run must not panic.
type Stage interface {
	// Name returns the stage's unique name.
	Name() string

	// Branch returns the stage's fusion branch.
	Branch() Branch

	// Run scores the input. Failures are reported via Score.Success, never
	// as panics; ctx bounds any blocking work.
	Run(ctx context.Context, in Input) Score
}

// clamp01 pins v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
