package sensor

import (
	"fmt"
	"math"

	"github.com/doronpers/sonotheia/pkg/audio"
)

// FormantTrajectoryConfig tunes the [FormantTrajectorySensor].
type FormantTrajectoryConfig struct {
	// MaxJumpFraction is the highest plausible fraction of frame-to-frame
	// formant movements that exceed MaxJumpHz. Articulators move
	// continuously; frequent discontinuities indicate frame-wise synthesis.
	// Default: 0.35.
	MaxJumpFraction float64

	// MaxJumpHz is the largest formant movement between adjacent frames that
	// still counts as continuous articulation. Default: 400.
	MaxJumpHz float64

	// MinSpreadHz is the smallest trajectory standard deviation considered
	// natural. Human speech always wanders; a frozen trajectory over many
	// voiced frames is unnaturally perfect. Default: 5.
	MinSpreadHz float64

	// FrameMs and HopMs size the analysis frames. Defaults: 32 / 16.
	FrameMs float64
	HopMs   float64

	// CepstralCutoffMs is the liftering cutoff separating the spectral
	// envelope from excitation. Default: 2 (500 Hz envelope resolution).
	CepstralCutoffMs float64
}

func (c *FormantTrajectoryConfig) applyDefaults() {
	if c.MaxJumpFraction <= 0 {
		c.MaxJumpFraction = 0.35
	}
	if c.MaxJumpHz <= 0 {
		c.MaxJumpHz = 400
	}
	if c.MinSpreadHz <= 0 {
		c.MinSpreadHz = 5
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 32
	}
	if c.HopMs <= 0 {
		c.HopMs = 16
	}
	if c.CepstralCutoffMs <= 0 {
		c.CepstralCutoffMs = 2
	}
}

// minVoicedFrames is the fewest voiced frames needed before trajectory
// statistics are meaningful.
const minVoicedFrames = 10

// FormantTrajectorySensor tracks the dominant formant peak of the
// cepstrally-smoothed spectral envelope across voiced frames and flags
// trajectories that are either erratic (frequent large jumps) or unnaturally
// perfect (frozen over many frames). The sensor value is the erratic-jump
// fraction, pinned to 1 for a frozen trajectory. Threshold type is max.
type FormantTrajectorySensor struct {
	cfg FormantTrajectoryConfig
}

// NewFormantTrajectory builds the sensor; zero-value config fields take
// defaults.
func NewFormantTrajectory(cfg FormantTrajectoryConfig) *FormantTrajectorySensor {
	cfg.applyDefaults()
	return &FormantTrajectorySensor{cfg: cfg}
}

// Name implements [Sensor].
func (s *FormantTrajectorySensor) Name() string { return "formant_trajectory" }

// Analyze implements [Sensor].
func (s *FormantTrajectorySensor) Analyze(samples []float64, sampleRate int) Result {
	if detail := validateInput(samples, sampleRate); detail != "" {
		return benignResult(s.cfg.MaxJumpFraction, ThresholdMax, detail)
	}
	if audio.DBFS(audio.RMS(samples)) < silenceGateDB {
		return benignResult(s.cfg.MaxJumpFraction, ThresholdMax, "signal below silence gate")
	}

	frameLen := int(s.cfg.FrameMs * float64(sampleRate) / 1000)
	hop := int(s.cfg.HopMs * float64(sampleRate) / 1000)
	frames := audio.Frames(samples, frameLen, hop)

	window := audio.Hann(frameLen)
	var track []float64
	for _, f := range frames {
		if audio.DBFS(audio.RMS(f)) < silenceGateDB {
			continue
		}
		freq := s.dominantFormantHz(audio.ApplyWindow(f, window), sampleRate)
		if freq > 0 {
			track = append(track, freq)
		}
	}
	if len(track) < minVoicedFrames {
		return benignResult(s.cfg.MaxJumpFraction, ThresholdMax,
			fmt.Sprintf("only %d voiced frames (minimum %d)", len(track), minVoicedFrames))
	}

	jumps := 0
	for i := 1; i < len(track); i++ {
		if math.Abs(track[i]-track[i-1]) > s.cfg.MaxJumpHz {
			jumps++
		}
	}
	jumpFraction := float64(jumps) / float64(len(track)-1)
	spread := audio.StdDev(track)

	value := jumpFraction
	detail := ""
	if spread < s.cfg.MinSpreadHz {
		// A biologically impossible trajectory: articulators never hold a
		// resonance perfectly still across this many frames.
		value = 1.0
		detail = fmt.Sprintf("formant trajectory frozen (spread %.1f Hz < %.1f Hz)", spread, s.cfg.MinSpreadHz)
	}

	res := NewResult(value, s.cfg.MaxJumpFraction, ThresholdMax, detail)
	if !res.Passed && res.Detail == "" {
		res.Detail = fmt.Sprintf("erratic formant trajectory: %.0f%% of movements exceed %.0f Hz", jumpFraction*100, s.cfg.MaxJumpHz)
	}
	res.Metadata = map[string]any{
		"voiced_frames":    len(track),
		"jump_fraction":    jumpFraction,
		"trajectory_sd_hz": spread,
		"mean_formant_hz":  audio.Mean(track),
	}
	return res
}

// dominantFormantHz returns the frequency of the strongest peak of the
// cepstrally-smoothed spectral envelope within the speech band, or 0 when no
// peak is found.
func (s *FormantTrajectorySensor) dominantFormantHz(frame []float64, sampleRate int) float64 {
	ceps := audio.RealCepstrum(frame)
	if ceps == nil {
		return 0
	}

	// Lifter: keep only the low-quefrency envelope coefficients.
	cutoff := int(s.cfg.CepstralCutoffMs * float64(sampleRate) / 1000)
	if cutoff >= len(ceps)/2 {
		cutoff = len(ceps)/2 - 1
	}
	liftered := make([]complex128, len(ceps))
	for q := 0; q <= cutoff; q++ {
		liftered[q] = complex(ceps[q], 0)
		if q > 0 {
			liftered[len(ceps)-q] = complex(ceps[q], 0)
		}
	}

	// The FFT of the liftered cepstrum is the smoothed log-magnitude
	// spectrum; its peaks are formant candidates.
	envelope := audio.FFT(realPart(liftered))
	nfft := len(envelope)
	if nfft == 0 {
		return 0
	}
	binHz := float64(sampleRate) / float64(nfft)
	lo := int(200 / binHz)
	hi := int(3500 / binHz)
	if lo < 1 {
		lo = 1
	}
	if hi > nfft/2 {
		hi = nfft / 2
	}
	if hi <= lo {
		return 0
	}

	best := lo
	bestVal := math.Inf(-1)
	for k := lo; k < hi; k++ {
		if v := real(envelope[k]); v > bestVal {
			bestVal = v
			best = k
		}
	}
	return float64(best) * binHz
}

// realPart extracts the real components of a complex slice.
func realPart(c []complex128) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}
