// Package audio provides the shared signal-processing primitives used by the
// Sonotheia detection sensors: PCM conversion, framing, RMS/dBFS level
// measurement, windowing, FFT, spectra, and cepstral analysis.
//
// All functions operate on mono PCM float64 samples normalised to the range
// [-1.0, 1.0]. Decoding, resampling, and channel down-mixing from container
// formats happen outside this module; only the raw 16-bit PCM helpers below
// are provided for callers that receive wire-format audio.
//
// Every function tolerates degenerate input (nil, empty, shorter than one
// frame) and returns empty or zero results rather than panicking — sensors
// rely on this to implement their own benign-result contracts.
package audio

import "encoding/binary"

// SilenceFloorDB is the dBFS value reported for a frame whose amplitude is
// exactly zero. True acoustic recordings never reach it; only digitally
// inserted silence does.
const SilenceFloorDB = -120.0

// PCM16ToFloat64 converts 16-bit signed little-endian PCM audio to float64
// samples normalised to the range [-1.0, 1.0]. The input length must be even
// (two bytes per sample); any trailing odd byte is silently ignored.
func PCM16ToFloat64(pcm []byte) []float64 {
	n := len(pcm) / 2
	samples := make([]float64, n)
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float64(sample) / 32768.0
	}
	return samples
}

// Float64ToPCM16 converts normalised float64 samples back to 16-bit signed
// little-endian PCM, clamping values outside [-1.0, 1.0].
func Float64ToPCM16(samples []float64) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(pcm[i*2:i*2+2], uint16(int16(s*32767.0)))
	}
	return pcm
}

// Duration returns the length of the signal in seconds. Returns 0 when the
// sample rate is not positive.
func Duration(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(samples)) / float64(sampleRate)
}
