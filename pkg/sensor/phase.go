package sensor

import (
	"fmt"
	"math"

	"github.com/doronpers/sonotheia/pkg/audio"
)

// PhaseCoherenceConfig tunes the [PhaseCoherenceSensor].
type PhaseCoherenceConfig struct {
	// MaxEntropy is the highest plausible normalised entropy of the
	// frame-to-frame phase increments. Natural voiced speech evolves phase in
	// a structured, low-entropy way; vocoders and concatenative synthesis
	// randomise it. Range (0,1]. Default: 0.92.
	MaxEntropy float64

	// FrameMs and HopMs size the analysis frames. Defaults: 32 / 16.
	FrameMs float64
	HopMs   float64

	// HistogramBins is the number of bins used for the phase-increment
	// distribution. Default: 16.
	HistogramBins int
}

func (c *PhaseCoherenceConfig) applyDefaults() {
	if c.MaxEntropy <= 0 {
		c.MaxEntropy = 0.92
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 32
	}
	if c.HopMs <= 0 {
		c.HopMs = 16
	}
	if c.HistogramBins <= 0 {
		c.HistogramBins = 16
	}
}

// PhaseCoherenceSensor measures the entropy of phase evolution across
// analysis frames. For each spectral bin in the speech band it accumulates
// the wrapped frame-to-frame phase increment; the normalised Shannon entropy
// of that distribution is the sensor value. Threshold type is max.
type PhaseCoherenceSensor struct {
	cfg PhaseCoherenceConfig
}

// NewPhaseCoherence builds the sensor; zero-value config fields take
// defaults.
func NewPhaseCoherence(cfg PhaseCoherenceConfig) *PhaseCoherenceSensor {
	cfg.applyDefaults()
	return &PhaseCoherenceSensor{cfg: cfg}
}

// Name implements [Sensor].
func (s *PhaseCoherenceSensor) Name() string { return "phase_coherence" }

// Analyze implements [Sensor].
func (s *PhaseCoherenceSensor) Analyze(samples []float64, sampleRate int) Result {
	if detail := validateInput(samples, sampleRate); detail != "" {
		return benignResult(s.cfg.MaxEntropy, ThresholdMax, detail)
	}
	if audio.DBFS(audio.RMS(samples)) < silenceGateDB {
		return benignResult(s.cfg.MaxEntropy, ThresholdMax, "signal below silence gate")
	}

	frameLen := int(s.cfg.FrameMs * float64(sampleRate) / 1000)
	hop := int(s.cfg.HopMs * float64(sampleRate) / 1000)
	frames := audio.Frames(samples, frameLen, hop)
	if len(frames) < 3 {
		return benignResult(s.cfg.MaxEntropy, ThresholdMax, "signal shorter than three analysis frames")
	}

	// Only bins carrying real energy contribute: the phase of a near-empty
	// bin is numerical noise and would swamp the statistic.
	const energyGate = 0.01

	window := audio.Hann(frameLen)
	var prevPhase, prevPower []float64
	counts := make([]int, s.cfg.HistogramBins)
	loBin, hiBin := speechBandBins(frameLen, sampleRate)
	for _, f := range frames {
		spec := audio.FFT(audio.ApplyWindow(f, window))
		half := len(spec)/2 + 1
		phase := make([]float64, half)
		power := make([]float64, half)
		peak := 0.0
		for k := range half {
			re, im := real(spec[k]), imag(spec[k])
			power[k] = re*re + im*im
			phase[k] = math.Atan2(im, re)
			if power[k] > peak {
				peak = power[k]
			}
		}
		if prevPhase != nil && peak > 0 {
			for k := loBin; k < hiBin && k < half && k < len(prevPhase); k++ {
				if power[k] < energyGate*peak || prevPower[k] < energyGate*peak {
					continue
				}
				d := wrapPhase(phase[k] - prevPhase[k])
				// Map (-pi, pi] onto histogram bins.
				bin := int((d + math.Pi) / (2 * math.Pi) * float64(len(counts)))
				if bin >= len(counts) {
					bin = len(counts) - 1
				}
				if bin < 0 {
					bin = 0
				}
				counts[bin]++
			}
		}
		prevPhase, prevPower = phase, power
	}

	entropy := audio.NormalizedEntropy(counts)
	res := NewResult(entropy, s.cfg.MaxEntropy, ThresholdMax, "")
	if !res.Passed {
		res.Detail = fmt.Sprintf("phase entropy %.3f exceeds limit %.3f (unstructured phase evolution)", entropy, s.cfg.MaxEntropy)
	}
	res.Metadata = map[string]any{
		"phase_entropy": entropy,
		"frame_count":   len(frames),
	}
	return res
}

// speechBandBins returns the half-open FFT bin range covering roughly
// 100 Hz - 4 kHz for the given frame length (pre zero-padding).
func speechBandBins(frameLen, sampleRate int) (lo, hi int) {
	nfft := 1
	for nfft < frameLen {
		nfft <<= 1
	}
	binHz := float64(sampleRate) / float64(nfft)
	lo = int(100 / binHz)
	if lo < 1 {
		lo = 1
	}
	hi = int(4000 / binHz)
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// wrapPhase maps an angle onto (-pi, pi].
func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p <= -math.Pi {
		p += 2 * math.Pi
	}
	return p
}
