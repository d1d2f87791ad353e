// Package environment derives acoustic-environment context from a signal in
// a single pass: noise floor, peak level, and signal-to-noise ratio.
// Downstream sensors key threshold relaxation off [Metrics.IsNoisy].
package environment

import "github.com/doronpers/sonotheia/pkg/audio"

// Metrics describes the acoustic environment of one call. Values are
// ephemeral and recomputed per invocation.
type Metrics struct {
	// NoiseFloorDB is the 10th percentile of frame levels in dBFS. Speech
	// has pauses, so the low percentiles measure the ambient floor.
	NoiseFloorDB float64 `json:"noise_floor_db"`

	// PeakSignalDB is the 95th percentile of frame levels in dBFS; the top
	// percentiles are trimmed to discard click outliers.
	PeakSignalDB float64 `json:"peak_signal_db"`

	// SNRDB is PeakSignalDB minus NoiseFloorDB.
	SNRDB float64 `json:"snr_db"`

	// IsNoisy reports whether the environment is noisy enough that physics
	// thresholds should be relaxed.
	IsNoisy bool `json:"is_noisy"`
}

// Default frame geometry: 20 ms frames advancing by 10 ms.
const (
	frameMs = 20
	hopMs   = 10
)

// Noisy-environment cutoffs.
const (
	noisyFloorDB = -40
	minCleanSNR  = 10
)

// benignMetrics is the fixed profile returned for degenerate input. Sensors
// rely on IsNoisy=false here, so these exact values are part of the
// contract.
var benignMetrics = Metrics{
	NoiseFloorDB: -90,
	PeakSignalDB: 10,
	SNRDB:        100,
	IsNoisy:      false,
}

// Analyze computes environment metrics from mono PCM samples. Input shorter
// than one frame (or an invalid sample rate) returns the fixed benign
// profile {noise_floor_db: -90, snr_db: 100, is_noisy: false}.
func Analyze(samples []float64, sampleRate int) Metrics {
	if sampleRate <= 0 {
		return benignMetrics
	}
	frameLen := frameMs * sampleRate / 1000
	hop := hopMs * sampleRate / 1000
	frames := audio.Frames(samples, frameLen, hop)
	if frames == nil {
		return benignMetrics
	}

	levels := make([]float64, len(frames))
	for i, f := range frames {
		levels[i] = audio.DBFS(audio.RMS(f))
	}

	floor := audio.Percentile(levels, 10)
	peak := audio.Percentile(levels, 95)
	snr := peak - floor
	return Metrics{
		NoiseFloorDB: floor,
		PeakSignalDB: peak,
		SNRDB:        snr,
		IsNoisy:      floor > noisyFloorDB || snr < minCleanSNR,
	}
}
