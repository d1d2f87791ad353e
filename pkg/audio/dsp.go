package audio

import (
	"math"
	"sort"
)

// Frames splits samples into frames of frameLen samples advancing by hop
// samples. Frames that would extend past the end of the signal are dropped.
// Returns nil when the signal is shorter than one frame or the parameters are
// not positive. The returned slices alias the input; callers must not mutate
// them.
func Frames(samples []float64, frameLen, hop int) [][]float64 {
	if frameLen <= 0 || hop <= 0 || len(samples) < frameLen {
		return nil
	}
	n := (len(samples)-frameLen)/hop + 1
	frames := make([][]float64, 0, n)
	for start := 0; start+frameLen <= len(samples); start += hop {
		frames = append(frames, samples[start:start+frameLen])
	}
	return frames
}

// RMS returns the root-mean-square amplitude of the frame.
// Returns 0 for an empty frame.
func RMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// DBFS converts a linear amplitude in [0,1] to decibels relative to full
// scale. Amplitudes at or below zero map to [SilenceFloorDB] so that exact
// digital silence stays distinguishable from quiet-but-real audio.
func DBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return SilenceFloorDB
	}
	db := 20 * math.Log10(amplitude)
	if db < SilenceFloorDB {
		return SilenceFloorDB
	}
	return db
}

// Percentile returns the p-th percentile (p in [0,100]) of values using
// linear interpolation between closest ranks. Returns 0 for an empty slice.
// The input is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values, or 0 for
// slices with fewer than two elements.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Hann returns an n-point Hann window. Returns nil for n <= 0.
func Hann(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// ApplyWindow multiplies frame element-wise by window into a new slice. The
// shorter of the two lengths bounds the result.
func ApplyWindow(frame, window []float64) []float64 {
	n := min(len(frame), len(window))
	out := make([]float64, n)
	for i := range n {
		out[i] = frame[i] * window[i]
	}
	return out
}

// EnvelopeRMS computes the short-time RMS amplitude envelope of the signal
// using the given frame length and hop (in samples). Returns nil when the
// signal is shorter than one frame.
func EnvelopeRMS(samples []float64, frameLen, hop int) []float64 {
	frames := Frames(samples, frameLen, hop)
	if frames == nil {
		return nil
	}
	env := make([]float64, len(frames))
	for i, f := range frames {
		env[i] = RMS(f)
	}
	return env
}

// SpectralFlatness returns the Wiener entropy of a power spectrum: the ratio
// of the geometric mean to the arithmetic mean of the spectral bins. The
// result is in [0,1]; white noise approaches 1, a pure resonance approaches
// 0. Returns 0 for an empty or all-zero spectrum.
func SpectralFlatness(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}
	const eps = 1e-12
	var logSum, sum float64
	for _, p := range power {
		if p < eps {
			p = eps
		}
		logSum += math.Log(p)
		sum += p
	}
	arith := sum / float64(len(power))
	if arith < eps {
		return 0
	}
	geo := math.Exp(logSum / float64(len(power)))
	return geo / arith
}

// NormalizedEntropy returns the Shannon entropy of a histogram with the given
// bin counts, normalised by the maximum entropy log2(len(counts)) so the
// result lies in [0,1]. Returns 0 when the histogram is empty or holds fewer
// than two bins.
func NormalizedEntropy(counts []int) float64 {
	if len(counts) < 2 {
		return 0
	}
	var total int
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h / math.Log2(float64(len(counts)))
}
