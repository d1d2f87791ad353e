// Package pipeline orchestrates one audio clip through environment
// analysis, the physics sensor stages, the optional neural stage, and score
// fusion, producing a single decision envelope.
//
// Two execution paths exist. The full path runs every enabled sensor plus
// the neural stage and attaches an explainability report. The fast path —
// selected for short, small clips or forced by configuration — runs a
// reduced sensor subset and skips the neural stage and report, trading
// coverage for latency on high-volume screening traffic.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doronpers/sonotheia/internal/calibration"
	"github.com/doronpers/sonotheia/internal/config"
	"github.com/doronpers/sonotheia/internal/fusion"
	"github.com/doronpers/sonotheia/internal/observe"
	"github.com/doronpers/sonotheia/internal/stage"
	"github.com/doronpers/sonotheia/pkg/audio"
	"github.com/doronpers/sonotheia/pkg/environment"
	"github.com/doronpers/sonotheia/pkg/scorer"
	"github.com/doronpers/sonotheia/pkg/sensor"
)

// bytesPerSample is the wire size of one PCM16 sample, used to translate
// the fast path's byte limit onto in-memory float samples.
const bytesPerSample = 2

// Decision is the envelope returned for one analyzed clip.
type Decision struct {
	// Decision is the screening outcome: PASS, FAIL, or REVIEW.
	Decision fusion.Decision `json:"decision"`

	// FusedScore is the combined spoof likelihood in [0,1].
	FusedScore float64 `json:"fused_score"`

	// Fusion carries the full fusion result including per-stage
	// contributions.
	Fusion fusion.Result `json:"fusion"`

	// Stages are the raw per-stage scores in deterministic sensor order,
	// neural last.
	Stages []stage.Score `json:"stages"`

	// Sensors is the analyst-facing report; empty on the fast path.
	Sensors []SensorReport `json:"sensors,omitempty"`

	// Environment is the acoustic context the clip was judged in.
	Environment environment.Metrics `json:"environment"`

	// Latency is the timing profile of this run.
	Latency LatencyProfile `json:"latency"`

	// FastPath reports which execution path produced this decision.
	FastPath bool `json:"fast_path"`

	// Relaxed reports whether physics thresholds were widened because the
	// environment was judged noisy.
	Relaxed bool `json:"thresholds_relaxed,omitempty"`

	// CorrelationID ties this decision to its trace.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Pipeline turns audio clips into decisions. It is safe for concurrent use;
// per-call configuration is read from the runtime snapshot at the start of
// each Analyze so a reload never affects a run in flight.
type Pipeline struct {
	runtime  *config.Runtime
	registry *sensor.Registry
	artifact *calibration.Artifact
	model    *stage.ModelStage
	metrics  *observe.Metrics
}

// Option configures a [Pipeline].
type Option func(*Pipeline)

// WithArtifact installs calibrated sensor thresholds. Sensors present in
// the artifact run with their calibrated threshold unless the config
// explicitly overrides it.
func WithArtifact(a *calibration.Artifact) Option {
	return func(p *Pipeline) { p.artifact = a }
}

// WithScorer enables the neural stage backed by provider.
func WithScorer(provider scorer.Provider) Option {
	return func(p *Pipeline) { p.model = stage.NewModelStage(provider) }
}

// WithMetrics overrides the metrics instance (tests use a manual reader).
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithRegistry replaces the canonical sensor registry, for callers that
// register additional sensor types.
func WithRegistry(r *sensor.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// New builds a pipeline reading live configuration from rt.
func New(rt *config.Runtime, opts ...Option) *Pipeline {
	p := &Pipeline{runtime: rt}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = sensor.NewDefaultRegistry()
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Model returns the neural stage, or nil when no scorer is configured. The
// readiness endpoint uses it to report the backend's breaker state.
func (p *Pipeline) Model() *stage.ModelStage { return p.model }

// Analyze runs one clip through the pipeline. Samples are mono PCM in
// [-1,1]. Analyze never fails on signal content — degenerate audio yields a
// decision like any other — but it does reject structurally unusable input
// such as a non-positive sample rate.
func (p *Pipeline) Analyze(ctx context.Context, samples []float64, sampleRate int) (Decision, error) {
	if sampleRate <= 0 {
		return Decision{}, fmt.Errorf("pipeline: invalid sample rate %d", sampleRate)
	}

	ctx, span := observe.StartSpan(ctx, "pipeline.analyze")
	defer span.End()

	p.metrics.ActiveAnalyses.Add(ctx, 1)
	defer p.metrics.ActiveAnalyses.Add(ctx, -1)

	cfg := p.runtime.Current()
	sw := newStopwatch(cfg.Pipeline.BudgetMs)

	// Environment first: its verdict steers threshold relaxation.
	t0 := time.Now()
	env := environment.Analyze(samples, sampleRate)
	sw.setEnvironment(time.Since(t0))

	fast := p.isFastPath(cfg, samples, sampleRate)
	relaxed := env.IsNoisy && cfg.Pipeline.NoisyRelaxation > 1
	if relaxed {
		p.metrics.NoisyInputs.Add(ctx, 1)
	}

	stages, err := p.buildStages(cfg, fast, relaxed)
	if err != nil {
		return Decision{}, err
	}

	in := stage.Input{Samples: samples, SampleRate: sampleRate, Env: env}
	scores := p.runStages(ctx, sw, stages, in)

	engine, err := fusion.New(p.fusionConfig(cfg))
	if err != nil {
		return Decision{}, fmt.Errorf("pipeline: %w", err)
	}
	fused := engine.Fuse(scores)

	dec := Decision{
		Decision:      fused.Decision,
		FusedScore:    fused.FusedScore,
		Fusion:        fused,
		Stages:        scores,
		Environment:   env,
		FastPath:      fast,
		Relaxed:       relaxed,
		CorrelationID: observe.CorrelationID(ctx),
	}
	if cfg.Pipeline.Explain && !fast {
		dec.Sensors = explain(scores)
	}
	dec.Latency = sw.finish()

	p.record(ctx, cfg, dec)
	return dec, nil
}

// isFastPath decides the execution path from clip size alone.
func (p *Pipeline) isFastPath(cfg *config.Config, samples []float64, sampleRate int) bool {
	if cfg.FastPath.Force {
		return true
	}
	dur := audio.Duration(samples, sampleRate)
	size := int64(len(samples)) * bytesPerSample
	return dur <= cfg.FastPath.MaxDurationSeconds && size <= cfg.FastPath.MaxSizeBytes
}

// buildStages assembles fresh sensor stages for one run, resolving each
// sensor through the registry. Thresholds resolve in priority order: config
// override, then calibration artifact, then the sensor's built-in default,
// optionally widened for a noisy environment.
func (p *Pipeline) buildStages(cfg *config.Config, fast, relaxed bool) ([]stage.Stage, error) {
	names := p.sensorNames(cfg, fast)

	stages := make([]stage.Stage, 0, len(names)+1)
	for _, name := range names {
		if !cfg.SensorEnabled(name) {
			continue
		}
		threshold := p.resolveThreshold(cfg, name)
		if relaxed && threshold != nil {
			t := relaxThreshold(*threshold, cfg.Pipeline.NoisyRelaxation)
			threshold = &t
		}
		s, err := p.registry.New(name, threshold)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		stages = append(stages, stage.NewSensorStage(s))
	}

	// The neural stage is full-path only: a remote round trip defeats the
	// fast path's purpose.
	if p.model != nil && !fast {
		stages = append(stages, p.model)
	}
	return stages, nil
}

func (p *Pipeline) sensorNames(cfg *config.Config, fast bool) []string {
	if fast {
		return cfg.FastPath.Sensors
	}
	return p.registry.Names()
}

// resolveThreshold returns the effective threshold for one sensor, or nil
// when even the built-in default is unknown (a sensor added without a
// [sensor.DefaultThreshold] entry).
func (p *Pipeline) resolveThreshold(cfg *config.Config, name string) *float64 {
	if sc, ok := cfg.Sensors[name]; ok && sc.Threshold != nil {
		return sc.Threshold
	}
	if p.artifact != nil {
		if res, ok := p.artifact.Results[name]; ok {
			t := res.OptimalThreshold
			return &t
		}
	}
	if t, ok := sensor.DefaultThreshold(name); ok {
		return &t
	}
	return nil
}

// relaxThreshold widens a decision boundary by factor (>1), in the direction
// that makes the sensor more permissive. Scaling away from zero covers both
// cases in the current sensor set: positive ceilings rise, and negative dBFS
// floors sink deeper.
func relaxThreshold(t, factor float64) float64 {
	return t * factor
}

// runStages executes all stages in parallel and returns their scores in
// stage order. Stage panics are already absorbed inside sensor stages, so a
// goroutine here never errors; errgroup is used for its bounded-wait
// semantics.
func (p *Pipeline) runStages(ctx context.Context, sw *stopwatch, stages []stage.Stage, in stage.Input) []stage.Score {
	scores := make([]stage.Score, len(stages))
	durations := make([]time.Duration, len(stages))

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range stages {
		g.Go(func() error {
			t0 := time.Now()
			scores[i] = st.Run(gctx, in)
			durations[i] = time.Since(t0)
			return nil
		})
	}
	_ = g.Wait()

	for i, st := range stages {
		sw.setStage(st.Name(), durations[i])
		p.metrics.RecordStageDuration(ctx, st.Name(), string(st.Branch()), durations[i].Seconds())
		switch {
		case st.Branch() == stage.BranchNeural:
			status := "ok"
			if !scores[i].Success {
				status = "error"
			}
			p.metrics.ScorerDuration.Record(ctx, durations[i].Seconds())
			p.metrics.RecordScorerRequest(ctx, st.Name(), status)
		case !scores[i].Success:
			p.metrics.RecordSensorFailure(ctx, st.Name())
		}
	}
	return scores
}

// fusionConfig maps the loaded configuration onto the fusion engine's knobs.
func (p *Pipeline) fusionConfig(cfg *config.Config) fusion.Config {
	weights := make(map[string]float64)
	for name, sc := range cfg.Sensors {
		if sc.Weight != nil {
			weights[name] = *sc.Weight
		}
	}
	return fusion.Config{
		Method:       cfg.Fusion.Method,
		Threshold:    cfg.Fusion.Threshold,
		ReviewBand:   cfg.Fusion.ReviewBand,
		NeuralWeight: cfg.Fusion.NeuralWeight,
		Weights:      weights,
	}
}

// record emits the per-decision metrics and log line.
func (p *Pipeline) record(ctx context.Context, cfg *config.Config, dec Decision) {
	path := "full"
	if dec.FastPath {
		path = "fast"
	}
	p.metrics.RecordPipelineDuration(ctx, path, dec.Latency.TotalMs/1000)
	p.metrics.RecordDecision(ctx, string(dec.Decision))
	if !dec.Latency.BudgetMet {
		p.metrics.BudgetMisses.Add(ctx, 1)
	}

	observe.Logger(ctx).Info("decision",
		"decision", dec.Decision,
		"fused_score", dec.FusedScore,
		"path", path,
		"total_ms", dec.Latency.TotalMs,
		"budget_met", dec.Latency.BudgetMet,
		"noisy", dec.Environment.IsNoisy,
	)
}
