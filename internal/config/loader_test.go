package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/doronpers/sonotheia/internal/config"
	"github.com/doronpers/sonotheia/internal/fusion"
)

const sampleYAML = `
server:
  metrics_addr: ":9102"
  log_level: debug
fusion:
  method: weighted_average
  threshold: 0.62
  review_band: 0.1
sensors:
  phase_coherence:
    threshold: 0.88
    threshold_type: max
  formant_trajectory:
    enabled: false
scorer:
  provider: remote
  base_url: https://scorer.internal.example
  api_key: test-key
  timeout_ms: 1500
pipeline:
  budget_ms: 350
  noisy_relaxation: 1.5
`

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.MetricsAddr != ":9102" {
		t.Errorf("metrics_addr = %q, want :9102", cfg.Server.MetricsAddr)
	}
	if cfg.Fusion.Method != fusion.MethodWeightedAverage {
		t.Errorf("fusion method = %q, want weighted_average", cfg.Fusion.Method)
	}
	if cfg.Fusion.Threshold != 0.62 {
		t.Errorf("fusion threshold = %v, want 0.62", cfg.Fusion.Threshold)
	}
	if cfg.Scorer.Timeout() != 1500*time.Millisecond {
		t.Errorf("scorer timeout = %v, want 1.5s", cfg.Scorer.Timeout())
	}
	if cfg.Pipeline.NoisyRelaxation != 1.5 {
		t.Errorf("noisy_relaxation = %v, want 1.5", cfg.Pipeline.NoisyRelaxation)
	}

	pc, ok := cfg.Sensors["phase_coherence"]
	if !ok || pc.Threshold == nil || *pc.Threshold != 0.88 {
		t.Errorf("phase_coherence threshold override not parsed: %+v", pc)
	}
	if cfg.SensorEnabled("formant_trajectory") {
		t.Error("formant_trajectory should be disabled")
	}
	if !cfg.SensorEnabled("glottal_inertia") {
		t.Error("sensors absent from the map default to enabled")
	}
}

func TestLoadFromReaderDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader on empty input: %v", err)
	}

	if cfg.Fusion.Method != fusion.MethodDualBranch {
		t.Errorf("default fusion method = %q, want dual_branch", cfg.Fusion.Method)
	}
	if cfg.Fusion.Threshold != 0.5 {
		t.Errorf("default fusion threshold = %v, want 0.5", cfg.Fusion.Threshold)
	}
	if cfg.FastPath.MaxDurationSeconds != 10 {
		t.Errorf("default fast path duration = %v, want 10", cfg.FastPath.MaxDurationSeconds)
	}
	if cfg.FastPath.MaxSizeBytes != 5<<20 {
		t.Errorf("default fast path size = %d, want 5 MiB", cfg.FastPath.MaxSizeBytes)
	}
	if cfg.Pipeline.BudgetMs != 500 {
		t.Errorf("default budget = %d, want 500", cfg.Pipeline.BudgetMs)
	}
	if cfg.Scorer.Timeout() != 2*time.Second {
		t.Errorf("default scorer timeout = %v, want 2s", cfg.Scorer.Timeout())
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("fusoin:\n  method: max\n"))
	if err == nil {
		t.Fatal("expected misspelled top-level key to be rejected")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "bad fusion method",
			mutate: func(c *config.Config) { c.Fusion.Method = "median" },
			want:   "fusion.method",
		},
		{
			name:   "threshold out of range",
			mutate: func(c *config.Config) { c.Fusion.Threshold = 1.2 },
			want:   "fusion.threshold",
		},
		{
			name:   "review band too wide",
			mutate: func(c *config.Config) { c.Fusion.ReviewBand = 0.6 },
			want:   "fusion.review_band",
		},
		{
			name:   "remote scorer without base url",
			mutate: func(c *config.Config) { c.Scorer.Provider = "remote" },
			want:   "scorer.base_url",
		},
		{
			name:   "relaxation below one",
			mutate: func(c *config.Config) { c.Pipeline.NoisyRelaxation = 0.8 },
			want:   "pipeline.noisy_relaxation",
		},
		{
			name: "negative sensor weight",
			mutate: func(c *config.Config) {
				w := -1.0
				c.Sensors["phase_coherence"] = config.SensorConfig{Weight: &w}
			},
			want: "sensors.phase_coherence.weight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
