package sensor

import (
	"fmt"

	"github.com/doronpers/sonotheia/pkg/audio"
)

// GlobalFormantConfig tunes the [GlobalFormantSensor].
type GlobalFormantConfig struct {
	// MaxFlatness is the highest plausible spectral flatness (Wiener
	// entropy) for resonant speech. Vocal-tract formants concentrate energy,
	// so real speech sits well below 1; a near-uniform spectrum has no
	// formant structure at all. Range (0,1]. Default: 0.5.
	MaxFlatness float64

	// FrameMs and HopMs size the averaging frames. Defaults: 64 / 32.
	FrameMs float64
	HopMs   float64
}

func (c *GlobalFormantConfig) applyDefaults() {
	if c.MaxFlatness <= 0 {
		c.MaxFlatness = 0.5
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 64
	}
	if c.HopMs <= 0 {
		c.HopMs = 32
	}
}

// GlobalFormantSensor computes the spectral flatness of the whole signal by
// averaging per-frame power spectra over the speech band. A spectrum close
// to uniform is inconsistent with the resonances of a physical vocal tract.
// Threshold type is max.
type GlobalFormantSensor struct {
	cfg GlobalFormantConfig
}

// NewGlobalFormant builds the sensor; zero-value config fields take
// defaults.
func NewGlobalFormant(cfg GlobalFormantConfig) *GlobalFormantSensor {
	cfg.applyDefaults()
	return &GlobalFormantSensor{cfg: cfg}
}

// Name implements [Sensor].
func (s *GlobalFormantSensor) Name() string { return "global_formant" }

// Analyze implements [Sensor].
func (s *GlobalFormantSensor) Analyze(samples []float64, sampleRate int) Result {
	if detail := validateInput(samples, sampleRate); detail != "" {
		return benignResult(s.cfg.MaxFlatness, ThresholdMax, detail)
	}
	if audio.DBFS(audio.RMS(samples)) < silenceGateDB {
		return benignResult(s.cfg.MaxFlatness, ThresholdMax, "signal below silence gate")
	}

	frameLen := int(s.cfg.FrameMs * float64(sampleRate) / 1000)
	hop := int(s.cfg.HopMs * float64(sampleRate) / 1000)
	frames := audio.Frames(samples, frameLen, hop)
	if frames == nil {
		return benignResult(s.cfg.MaxFlatness, ThresholdMax, "signal shorter than one analysis frame")
	}

	window := audio.Hann(frameLen)
	var avg []float64
	for _, f := range frames {
		power := audio.PowerSpectrum(audio.ApplyWindow(f, window))
		if avg == nil {
			avg = make([]float64, len(power))
		}
		for i := range avg {
			avg[i] += power[i]
		}
	}
	for i := range avg {
		avg[i] /= float64(len(frames))
	}

	lo, hi := speechBandBins(frameLen, sampleRate)
	if hi > len(avg) {
		hi = len(avg)
	}
	flatness := audio.SpectralFlatness(avg[lo:hi])

	res := NewResult(flatness, s.cfg.MaxFlatness, ThresholdMax, "")
	if !res.Passed {
		res.Detail = fmt.Sprintf("spectral flatness %.3f exceeds limit %.3f (no resonant formant structure)", flatness, s.cfg.MaxFlatness)
	}
	res.Metadata = map[string]any{
		"spectral_flatness": flatness,
		"frame_count":       len(frames),
	}
	return res
}
