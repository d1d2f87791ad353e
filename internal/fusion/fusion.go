// Package fusion reduces heterogeneous per-stage scores into one calibrated
// decision. Three methods are supported: weighted average, max, and a
// dual-branch scheme that fuses the physics and neural branches
// independently before combining them.
//
// Fusion is commutative over stages except for branch grouping: the order in
// which scores arrive never changes the result. Failed stages are excluded
// from aggregation entirely — numerator and denominator — rather than
// substituted with zero, which would bias the fused score toward PASS.
package fusion

import (
	"fmt"

	"github.com/doronpers/sonotheia/internal/stage"
)

// Method selects the fusion policy.
type Method string

const (
	// MethodWeightedAverage is Σ(weight·score)/Σ(weight) over successful
	// stages.
	MethodWeightedAverage Method = "weighted_average"

	// MethodMax takes the maximum successful score: conservative, any
	// strong spoof signal dominates.
	MethodMax Method = "max"

	// MethodDualBranch fuses the physics and neural branches separately,
	// then combines them with a configurable branch weight.
	MethodDualBranch Method = "dual_branch"
)

// IsValid reports whether m is a recognised fusion method.
func (m Method) IsValid() bool {
	switch m {
	case MethodWeightedAverage, MethodMax, MethodDualBranch:
		return true
	}
	return false
}

// Decision is the screening outcome.
type Decision string

const (
	// DecisionPass means the audio is consistent with a genuine voice.
	DecisionPass Decision = "PASS"

	// DecisionFail means the audio is flagged as synthetic.
	DecisionFail Decision = "FAIL"

	// DecisionReview routes the call to manual review: either the fused
	// score fell inside the uncertainty band, or no stage produced a score.
	DecisionReview Decision = "REVIEW"
)

// Config tunes a fusion [Engine].
type Config struct {
	// Method selects the fusion policy. Default: weighted_average.
	Method Method

	// Threshold is the calibrated decision boundary on the fused score;
	// strictly above it the decision is FAIL. Default: 0.5.
	Threshold float64

	// ReviewBand is the half-width of the uncertainty band around
	// Threshold inside which the decision becomes REVIEW. Zero disables the
	// band (the default).
	ReviewBand float64

	// NeuralWeight is the neural branch's share in dual_branch fusion, in
	// [0,1]; the physics branch gets the remainder. Default: 0.5.
	NeuralWeight float64

	// Weights maps stage names to their weighted-average weight. Stages
	// absent from the map weigh 1.
	Weights map[string]float64
}

// Result is the fused outcome of one pipeline run.
type Result struct {
	// FusedScore is the combined spoof likelihood in [0,1]. When no stage
	// succeeded it is pinned to 0.5 as a conservative neutral value.
	FusedScore float64 `json:"fused_score"`

	// Decision is the screening outcome.
	Decision Decision `json:"decision"`

	// Success reports whether at least one stage contributed.
	Success bool `json:"success"`

	// Contributing maps each included stage to the score it contributed.
	Contributing map[string]float64 `json:"contributing_stages"`

	// Method is the fusion policy that produced this result.
	Method Method `json:"method"`
}

// Engine combines stage scores. It is immutable after construction and safe
// for concurrent use.
type Engine struct {
	cfg Config
}

// New validates cfg and returns an [Engine]; zero-value fields take
// defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.Method == "" {
		cfg.Method = MethodWeightedAverage
	}
	if !cfg.Method.IsValid() {
		return nil, fmt.Errorf("fusion: unknown method %q", cfg.Method)
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.5
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("fusion: threshold %f outside [0,1]", cfg.Threshold)
	}
	if cfg.ReviewBand < 0 || cfg.ReviewBand > 0.5 {
		return nil, fmt.Errorf("fusion: review_band %f outside [0,0.5]", cfg.ReviewBand)
	}
	if cfg.NeuralWeight == 0 {
		cfg.NeuralWeight = 0.5
	}
	if cfg.NeuralWeight < 0 || cfg.NeuralWeight > 1 {
		return nil, fmt.Errorf("fusion: neural_weight %f outside [0,1]", cfg.NeuralWeight)
	}
	for name, w := range cfg.Weights {
		if w < 0 {
			return nil, fmt.Errorf("fusion: negative weight %f for stage %q", w, name)
		}
	}
	return &Engine{cfg: cfg}, nil
}

// Fuse combines the scores of one pipeline run into a decision. When every
// stage failed it returns FusedScore 0.5 with Success=false and a REVIEW
// decision — a conservative manual-review fallback instead of an error.
func (e *Engine) Fuse(scores []stage.Score) Result {
	included := make([]stage.Score, 0, len(scores))
	contributing := make(map[string]float64)
	for _, s := range scores {
		if !s.Success {
			continue
		}
		included = append(included, s)
		contributing[s.Stage] = s.Score
	}
	if len(included) == 0 {
		return Result{
			FusedScore:   0.5,
			Decision:     DecisionReview,
			Success:      false,
			Contributing: contributing,
			Method:       e.cfg.Method,
		}
	}

	var fused float64
	switch e.cfg.Method {
	case MethodMax:
		fused = e.fuseMax(included)
	case MethodDualBranch:
		fused = e.fuseDualBranch(included)
	default:
		fused = e.fuseWeightedAverage(included)
	}

	return Result{
		FusedScore:   fused,
		Decision:     e.decide(fused),
		Success:      true,
		Contributing: contributing,
		Method:       e.cfg.Method,
	}
}

func (e *Engine) fuseWeightedAverage(scores []stage.Score) float64 {
	var num, den float64
	for _, s := range scores {
		w := 1.0
		if sw, ok := e.cfg.Weights[s.Stage]; ok {
			w = sw
		}
		num += w * s.Score
		den += w
	}
	if den == 0 {
		return 0.5
	}
	return num / den
}

func (e *Engine) fuseMax(scores []stage.Score) float64 {
	m := scores[0].Score
	for _, s := range scores[1:] {
		if s.Score > m {
			m = s.Score
		}
	}
	return m
}

func (e *Engine) fuseDualBranch(scores []stage.Score) float64 {
	var physics, neural []stage.Score
	for _, s := range scores {
		if s.Branch == stage.BranchNeural {
			neural = append(neural, s)
		} else {
			physics = append(physics, s)
		}
	}
	// A missing branch cedes its weight to the other rather than diluting
	// the result with a made-up neutral score.
	switch {
	case len(physics) == 0:
		return e.fuseWeightedAverage(neural)
	case len(neural) == 0:
		return e.fuseWeightedAverage(physics)
	}
	p := e.fuseWeightedAverage(physics)
	n := e.fuseWeightedAverage(neural)
	return (1-e.cfg.NeuralWeight)*p + e.cfg.NeuralWeight*n
}

func (e *Engine) decide(fused float64) Decision {
	if e.cfg.ReviewBand > 0 {
		lo := e.cfg.Threshold - e.cfg.ReviewBand
		hi := e.cfg.Threshold + e.cfg.ReviewBand
		if fused >= lo && fused <= hi {
			return DecisionReview
		}
	}
	// Strict comparison: a sensor sitting exactly at its own threshold
	// normalizes to 0.5 and counts as passed, so a fused score landing
	// exactly on the boundary must not flip the clip to FAIL. Degenerate
	// input, where every sensor reports its benign pinned result, fuses to
	// exactly 0.5 and stays PASS.
	if fused > e.cfg.Threshold {
		return DecisionFail
	}
	return DecisionPass
}
