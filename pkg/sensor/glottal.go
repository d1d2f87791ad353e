package sensor

import (
	"fmt"
	"math"

	"github.com/doronpers/sonotheia/pkg/audio"
)

// GlottalInertiaConfig tunes the [GlottalInertiaSensor].
type GlottalInertiaConfig struct {
	// MaxVelocity is the highest physically plausible envelope velocity, in
	// full-scale amplitude per second. Biological vocal tracts cannot change
	// loudness faster than the glottal and sub-glottal system allows; a
	// near-instantaneous jump indicates spliced or generated audio.
	// Default: 50.
	MaxVelocity float64

	// FrameMs and HopMs size the short-time RMS envelope. Defaults: 5 / 2.5.
	FrameMs float64
	HopMs   float64
}

func (c *GlottalInertiaConfig) applyDefaults() {
	if c.MaxVelocity <= 0 {
		c.MaxVelocity = 50
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 5
	}
	if c.HopMs <= 0 {
		c.HopMs = 2.5
	}
}

// GlottalInertiaSensor differentiates the short-time amplitude envelope and
// flags loudness transitions faster than a biological vocal tract can
// produce. Threshold type is max on the peak observed envelope velocity.
type GlottalInertiaSensor struct {
	cfg GlottalInertiaConfig
}

// NewGlottalInertia builds the sensor; zero-value config fields take
// defaults.
func NewGlottalInertia(cfg GlottalInertiaConfig) *GlottalInertiaSensor {
	cfg.applyDefaults()
	return &GlottalInertiaSensor{cfg: cfg}
}

// Name implements [Sensor].
func (s *GlottalInertiaSensor) Name() string { return "glottal_inertia" }

// Analyze implements [Sensor].
func (s *GlottalInertiaSensor) Analyze(samples []float64, sampleRate int) Result {
	if detail := validateInput(samples, sampleRate); detail != "" {
		return benignResult(s.cfg.MaxVelocity, ThresholdMax, detail)
	}

	frameLen := int(s.cfg.FrameMs * float64(sampleRate) / 1000)
	hop := int(s.cfg.HopMs * float64(sampleRate) / 1000)
	env := audio.EnvelopeRMS(samples, frameLen, hop)
	if len(env) < 2 {
		return benignResult(s.cfg.MaxVelocity, ThresholdMax, "signal shorter than two envelope frames")
	}

	hopSec := float64(hop) / float64(sampleRate)
	var peak float64
	violations := 0
	for i := 1; i < len(env); i++ {
		velocity := math.Abs(env[i]-env[i-1]) / hopSec
		if velocity > peak {
			peak = velocity
		}
		if velocity > s.cfg.MaxVelocity {
			violations++
		}
	}

	res := NewResult(peak, s.cfg.MaxVelocity, ThresholdMax, "")
	if !res.Passed {
		res.Detail = fmt.Sprintf("envelope velocity %.1f/s exceeds glottal limit %.1f/s", peak, s.cfg.MaxVelocity)
	}
	res.Metadata = map[string]any{
		"violation_count": violations,
		"peak_velocity":   peak,
		"envelope_frames": len(env),
	}
	return res
}
