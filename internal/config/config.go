// Package config provides the configuration schema, loader, runtime
// snapshot, and file watcher for the Sonotheia detection service.
package config

import (
	"time"

	"github.com/doronpers/sonotheia/internal/fusion"
	"github.com/doronpers/sonotheia/pkg/sensor"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig            `yaml:"server"`
	Sensors     map[string]SensorConfig `yaml:"sensors"`
	Fusion      FusionConfig            `yaml:"fusion"`
	FastPath    FastPathConfig          `yaml:"fast_path"`
	Scorer      ScorerConfig            `yaml:"scorer"`
	Calibration CalibrationConfig       `yaml:"calibration"`
	Pipeline    PipelineConfig          `yaml:"pipeline"`
}

// ServerConfig holds logging and observability-listener settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address serving /metrics, /healthz and
	// /readyz. Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// SensorConfig overrides one sensor's wiring. Sensors absent from the map
// run with their built-in defaults.
type SensorConfig struct {
	// Enabled removes the sensor from the pipeline when false. Sensors
	// default to enabled; use a literal false to disable.
	Enabled *bool `yaml:"enabled"`

	// Threshold overrides the sensor's decision boundary, usually from a
	// reviewed calibration artifact.
	Threshold *float64 `yaml:"threshold"`

	// ThresholdType must match the sensor's native type when set; it exists
	// so operators promoting a calibration suggestion state the comparison
	// direction explicitly.
	ThresholdType sensor.ThresholdType `yaml:"threshold_type"`

	// Weight is this sensor's share in weighted-average fusion. Default 1.
	Weight *float64 `yaml:"weight"`
}

// FusionConfig selects and tunes the fusion method.
type FusionConfig struct {
	// Method is one of weighted_average, max, dual_branch.
	Method fusion.Method `yaml:"method"`

	// Threshold is the calibrated decision boundary on the fused score.
	Threshold float64 `yaml:"threshold"`

	// ReviewBand enables the REVIEW uncertainty band when positive.
	ReviewBand float64 `yaml:"review_band"`

	// NeuralWeight is the neural branch share for dual_branch fusion.
	NeuralWeight float64 `yaml:"neural_weight"`
}

// FastPathConfig governs the reduced low-latency screening mode.
type FastPathConfig struct {
	// Force always selects the fast path regardless of input size.
	Force bool `yaml:"force"`

	// MaxDurationSeconds is the clip duration at or below which the fast
	// path applies. Default: 10.
	MaxDurationSeconds float64 `yaml:"max_duration_seconds"`

	// MaxSizeBytes is the input size at or below which the fast path
	// applies. Default: 5 MiB.
	MaxSizeBytes int64 `yaml:"max_size_bytes"`

	// Sensors lists the cheap sensor subset run on the fast path. Defaults
	// to glottal_inertia and digital_silence.
	Sensors []string `yaml:"sensors"`
}

// ScorerConfig configures the neural scoring backend.
type ScorerConfig struct {
	// Provider selects the backend: "remote", "mock", or empty to disable
	// the neural stage.
	Provider string `yaml:"provider"`

	// BaseURL is the remote inference endpoint root.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the remote backend.
	APIKey string `yaml:"api_key"`

	// Model optionally selects a model variant.
	Model string `yaml:"model"`

	// TimeoutMs bounds each scoring call, in milliseconds. Default: 2000.
	TimeoutMs int `yaml:"timeout_ms"`
}

// Timeout returns the scoring call timeout as a [time.Duration].
func (s ScorerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// CalibrationConfig locates calibration inputs and outputs.
type CalibrationConfig struct {
	// ArtifactPath is where the calibration artifact is written by the
	// offline job and read at pipeline start.
	ArtifactPath string `yaml:"artifact_path"`

	// PostgresDSN points at the labeled-score store consumed by the
	// offline job. Empty means scores come from files.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// PipelineConfig holds orchestration knobs.
type PipelineConfig struct {
	// BudgetMs is the per-call latency budget in milliseconds; used for
	// observability only, never to cut a decision short. Default: 500.
	BudgetMs int `yaml:"budget_ms"`

	// NoisyRelaxation multiplies physics-sensor thresholds when the
	// environment analyzer flags a noisy call. Must be >= 1. Default: 1.25.
	NoisyRelaxation float64 `yaml:"noisy_relaxation"`

	// Explain attaches a per-sensor human-readable report to each decision
	// (skipped on the fast path).
	Explain bool `yaml:"explain"`
}

// applyDefaults fills unset fields with production defaults.
func (c *Config) applyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Fusion.Method == "" {
		c.Fusion.Method = fusion.MethodDualBranch
	}
	if c.Fusion.Threshold == 0 {
		c.Fusion.Threshold = 0.5
	}
	if c.Fusion.NeuralWeight == 0 {
		c.Fusion.NeuralWeight = 0.5
	}
	if c.FastPath.MaxDurationSeconds == 0 {
		c.FastPath.MaxDurationSeconds = 10
	}
	if c.FastPath.MaxSizeBytes == 0 {
		c.FastPath.MaxSizeBytes = 5 << 20
	}
	if len(c.FastPath.Sensors) == 0 {
		c.FastPath.Sensors = []string{"glottal_inertia", "digital_silence"}
	}
	if c.Pipeline.BudgetMs == 0 {
		c.Pipeline.BudgetMs = 500
	}
	if c.Pipeline.NoisyRelaxation == 0 {
		c.Pipeline.NoisyRelaxation = 1.25
	}
	if c.Scorer.TimeoutMs == 0 {
		c.Scorer.TimeoutMs = 2000
	}
	if c.Sensors == nil {
		c.Sensors = make(map[string]SensorConfig)
	}
}

// Clone returns a deep copy of c; the runtime snapshot mutates copies only.
func (c *Config) Clone() *Config {
	out := *c
	out.Sensors = make(map[string]SensorConfig, len(c.Sensors))
	for name, sc := range c.Sensors {
		cp := sc
		if sc.Enabled != nil {
			v := *sc.Enabled
			cp.Enabled = &v
		}
		if sc.Threshold != nil {
			v := *sc.Threshold
			cp.Threshold = &v
		}
		if sc.Weight != nil {
			v := *sc.Weight
			cp.Weight = &v
		}
		out.Sensors[name] = cp
	}
	out.FastPath.Sensors = append([]string(nil), c.FastPath.Sensors...)
	return &out
}

// SensorEnabled reports whether the named sensor should run.
func (c *Config) SensorEnabled(name string) bool {
	sc, ok := c.Sensors[name]
	if !ok || sc.Enabled == nil {
		return true
	}
	return *sc.Enabled
}
