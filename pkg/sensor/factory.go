package sensor

// The per-sensor constructors set the threshold field after the config has
// taken its defaults, so an explicit override is honored exactly as given —
// a calibrated threshold of zero must not silently fall back to the
// built-in default the way a zero-value config field would.

func buildGlottalInertia(threshold *float64) Sensor {
	s := NewGlottalInertia(GlottalInertiaConfig{})
	if threshold != nil {
		s.cfg.MaxVelocity = *threshold
	}
	return s
}

func buildDigitalSilence(threshold *float64) Sensor {
	s := NewDigitalSilence(DigitalSilenceConfig{})
	if threshold != nil {
		s.cfg.FloorDB = *threshold
	}
	return s
}

func buildPhaseCoherence(threshold *float64) Sensor {
	s := NewPhaseCoherence(PhaseCoherenceConfig{})
	if threshold != nil {
		s.cfg.MaxEntropy = *threshold
	}
	return s
}

func buildGlobalFormant(threshold *float64) Sensor {
	s := NewGlobalFormant(GlobalFormantConfig{})
	if threshold != nil {
		s.cfg.MaxFlatness = *threshold
	}
	return s
}

func buildFormantTrajectory(threshold *float64) Sensor {
	s := NewFormantTrajectory(FormantTrajectoryConfig{})
	if threshold != nil {
		s.cfg.MaxJumpFraction = *threshold
	}
	return s
}

// defaultRegistry backs [NewNamed]; callers needing an extensible collection
// build their own via [NewDefaultRegistry].
var defaultRegistry = NewDefaultRegistry()

// NewNamed returns a fresh instance of the named sensor from the canonical
// set, optionally overriding its decision threshold. A nil threshold keeps
// the built-in default. Calibration jobs use this to rebuild sensors from
// artifact thresholds without knowing each sensor's config struct.
func NewNamed(name string, threshold *float64) (Sensor, error) {
	return defaultRegistry.New(name, threshold)
}

// defaultThresholds mirrors the constructor defaults so callers can widen or
// replace a threshold without knowing each sensor's config struct.
var defaultThresholds = map[string]float64{
	"glottal_inertia":    50,
	"digital_silence":    -100,
	"phase_coherence":    0.92,
	"global_formant":     0.5,
	"formant_trajectory": 0.35,
}

// DefaultThreshold returns the built-in decision threshold for the named
// sensor. The second return is false for unknown names.
func DefaultThreshold(name string) (float64, bool) {
	t, ok := defaultThresholds[name]
	return t, ok
}
