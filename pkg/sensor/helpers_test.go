package sensor_test

import (
	"math"
	"math/rand"
)

const testRate = 16000

// sine generates a constant-amplitude sine at freq Hz.
func sine(freq, amplitude float64, seconds float64) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

// whiteNoise generates gaussian noise with the given RMS amplitude and seed.
func whiteNoise(rms float64, seconds float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	n := int(seconds * testRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = rms * rng.NormFloat64()
	}
	return out
}

// voicedSpeechLike generates a harmonic signal with a slowly wandering
// fundamental and amplitude modulation, a crude stand-in for voiced speech.
func voicedSpeechLike(seconds float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	n := int(seconds * testRate)
	out := make([]float64, n)
	f0 := 120.0
	phase := [4]float64{}
	for i := range out {
		// Slow fundamental drift.
		f0 += 0.0005 * rng.NormFloat64() * testRate / 1000
		if f0 < 90 {
			f0 = 90
		}
		if f0 > 160 {
			f0 = 160
		}
		am := 0.4 + 0.2*math.Sin(2*math.Pi*3*float64(i)/testRate)
		var s float64
		for h := range 4 {
			phase[h] += 2 * math.Pi * f0 * float64(h+1) / testRate
			s += math.Sin(phase[h]) / float64(h+1)
		}
		out[i] = am * s / 2
	}
	return out
}
