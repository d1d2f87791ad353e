package sensor

import (
	"fmt"

	"github.com/doronpers/sonotheia/pkg/audio"
)

// DigitalSilenceConfig tunes the [DigitalSilenceSensor].
type DigitalSilenceConfig struct {
	// FloorDB is the lowest plausible noise floor in dBFS. True acoustic
	// silence always carries residual room and electronic noise; a window
	// measuring below this floor was digitally inserted. Default: -100.
	FloorDB float64

	// WindowMs is the measurement window length. Default: 20.
	WindowMs float64

	// MinRunWindows is how many consecutive sub-floor windows count as a
	// sustained insertion rather than a codec artifact. Default: 3.
	MinRunWindows int
}

func (c *DigitalSilenceConfig) applyDefaults() {
	if c.FloorDB == 0 {
		c.FloorDB = -100
	}
	if c.WindowMs <= 0 {
		c.WindowMs = 20
	}
	if c.MinRunWindows <= 0 {
		c.MinRunWindows = 3
	}
}

// DigitalSilenceSensor measures the per-window noise floor and flags
// sustained runs at or below the quantization floor. Threshold type is min
// on the quietest sustained level observed: exact digital zero reads as
// [audio.SilenceFloorDB] and fails, dithered or room-noise silence passes.
type DigitalSilenceSensor struct {
	cfg DigitalSilenceConfig
}

// NewDigitalSilence builds the sensor; zero-value config fields take
// defaults.
func NewDigitalSilence(cfg DigitalSilenceConfig) *DigitalSilenceSensor {
	cfg.applyDefaults()
	return &DigitalSilenceSensor{cfg: cfg}
}

// Name implements [Sensor].
func (s *DigitalSilenceSensor) Name() string { return "digital_silence" }

// Analyze implements [Sensor].
func (s *DigitalSilenceSensor) Analyze(samples []float64, sampleRate int) Result {
	if detail := validateInput(samples, sampleRate); detail != "" {
		return benignResult(s.cfg.FloorDB, ThresholdMin, detail)
	}

	window := int(s.cfg.WindowMs * float64(sampleRate) / 1000)
	frames := audio.Frames(samples, window, window)
	if frames == nil {
		return benignResult(s.cfg.FloorDB, ThresholdMin, "signal shorter than one window")
	}

	dbs := make([]float64, len(frames))
	subFloorWindows := 0
	longestRun := 0
	run := 0
	for i, f := range frames {
		dbs[i] = audio.DBFS(audio.RMS(f))
		if dbs[i] <= s.cfg.FloorDB {
			subFloorWindows++
			run++
			if run > longestRun {
				longestRun = run
			}
		} else {
			run = 0
		}
	}

	k := s.cfg.MinRunWindows
	if len(dbs) < k {
		return benignResult(s.cfg.FloorDB, ThresholdMin, "too few windows for a sustained run")
	}

	// The reported value is the quietest level held across any run of k
	// consecutive windows, so isolated single-window dropouts are ignored.
	value := dbs[0]
	for i := 0; i+k <= len(dbs); i++ {
		level := dbs[i]
		for j := 1; j < k; j++ {
			if dbs[i+j] > level {
				level = dbs[i+j]
			}
		}
		if i == 0 || level < value {
			value = level
		}
	}

	res := NewResult(value, s.cfg.FloorDB, ThresholdMin, "")
	if !res.Passed {
		res.Detail = fmt.Sprintf("sustained floor %.1f dBFS below quantization limit %.1f dBFS", value, s.cfg.FloorDB)
	}
	res.Metadata = map[string]any{
		"sub_floor_windows": subFloorWindows,
		"longest_run":       longestRun,
		"window_count":      len(frames),
	}
	return res
}
