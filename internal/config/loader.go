package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doronpers/sonotheia/internal/fusion"
	"github.com/doronpers/sonotheia/pkg/sensor"
)

// ErrNoConfig is returned by [Load] when the file does not exist.
var ErrNoConfig = errors.New("config: file not found")

// Load reads, parses, defaults and validates the YAML config at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader parses a YAML config from r. Unknown fields are rejected
// so typos surface at startup rather than as silently ignored settings.
func LoadFromReader(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: run on defaults.
			cfg = Config{}
		} else {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated config with all production defaults applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Validate checks cross-field constraints and collects every violation.
func (c *Config) Validate() error {
	var errs []error

	if !c.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level: unknown level %q", c.Server.LogLevel))
	}

	switch c.Fusion.Method {
	case fusion.MethodWeightedAverage, fusion.MethodMax, fusion.MethodDualBranch:
	default:
		errs = append(errs, fmt.Errorf("fusion.method: unknown method %q", c.Fusion.Method))
	}
	if c.Fusion.Threshold < 0 || c.Fusion.Threshold > 1 {
		errs = append(errs, fmt.Errorf("fusion.threshold: %v outside [0, 1]", c.Fusion.Threshold))
	}
	if c.Fusion.ReviewBand < 0 || c.Fusion.ReviewBand > 0.5 {
		errs = append(errs, fmt.Errorf("fusion.review_band: %v outside [0, 0.5]", c.Fusion.ReviewBand))
	}
	if c.Fusion.NeuralWeight < 0 || c.Fusion.NeuralWeight > 1 {
		errs = append(errs, fmt.Errorf("fusion.neural_weight: %v outside [0, 1]", c.Fusion.NeuralWeight))
	}

	for name, sc := range c.Sensors {
		if sc.ThresholdType != "" &&
			sc.ThresholdType != sensor.ThresholdMin &&
			sc.ThresholdType != sensor.ThresholdMax {
			errs = append(errs, fmt.Errorf("sensors.%s.threshold_type: unknown type %q", name, sc.ThresholdType))
		}
		if sc.Weight != nil && *sc.Weight < 0 {
			errs = append(errs, fmt.Errorf("sensors.%s.weight: must be >= 0, got %v", name, *sc.Weight))
		}
	}

	if c.FastPath.MaxDurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("fast_path.max_duration_seconds: must be >= 0, got %v", c.FastPath.MaxDurationSeconds))
	}
	if c.FastPath.MaxSizeBytes < 0 {
		errs = append(errs, fmt.Errorf("fast_path.max_size_bytes: must be >= 0, got %d", c.FastPath.MaxSizeBytes))
	}

	switch c.Scorer.Provider {
	case "", "remote", "mock":
	default:
		errs = append(errs, fmt.Errorf("scorer.provider: unknown provider %q", c.Scorer.Provider))
	}
	if c.Scorer.Provider == "remote" && c.Scorer.BaseURL == "" {
		errs = append(errs, errors.New("scorer.base_url: required for the remote provider"))
	}
	if c.Scorer.TimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("scorer.timeout_ms: must be >= 0, got %d", c.Scorer.TimeoutMs))
	}

	if c.Pipeline.BudgetMs < 0 {
		errs = append(errs, fmt.Errorf("pipeline.budget_ms: must be >= 0, got %d", c.Pipeline.BudgetMs))
	}
	if c.Pipeline.NoisyRelaxation < 1 {
		errs = append(errs, fmt.Errorf("pipeline.noisy_relaxation: must be >= 1, got %v", c.Pipeline.NoisyRelaxation))
	}

	return errors.Join(errs...)
}
