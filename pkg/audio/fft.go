package audio

import (
	"math"
	"math/cmplx"
)

// nextPow2 returns the smallest power of two >= n, minimum 1.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// FFT computes the discrete Fourier transform of frame using an iterative
// radix-2 Cooley-Tukey algorithm. The input is zero-padded to the next power
// of two. Returns nil for an empty frame.
func FFT(frame []float64) []complex128 {
	if len(frame) == 0 {
		return nil
	}
	n := nextPow2(len(frame))
	buf := make([]complex128, n)
	for i, s := range frame {
		buf[i] = complex(s, 0)
	}
	fftInPlace(buf)
	return buf
}

// IFFT computes the inverse discrete Fourier transform of spectrum. The input
// length must be a power of two (as produced by [FFT]); other lengths return
// nil.
func IFFT(spectrum []complex128) []complex128 {
	n := len(spectrum)
	if n == 0 || n&(n-1) != 0 {
		return nil
	}
	buf := make([]complex128, n)
	for i, c := range spectrum {
		buf[i] = cmplx.Conj(c)
	}
	fftInPlace(buf)
	inv := complex(1/float64(n), 0)
	for i := range buf {
		buf[i] = cmplx.Conj(buf[i]) * inv
	}
	return buf
}

// fftInPlace runs an in-place radix-2 DIT FFT. len(buf) must be a power of two.
func fftInPlace(buf []complex128) {
	n := len(buf)

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		angle := -2 * math.Pi / float64(size)
		wStep := cmplx.Rect(1, angle)
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			half := size / 2
			for k := range half {
				even := buf[start+k]
				odd := buf[start+k+half] * w
				buf[start+k] = even + odd
				buf[start+k+half] = even - odd
				w *= wStep
			}
		}
	}
}

// PowerSpectrum returns the one-sided power spectrum of frame: squared
// magnitudes of the first n/2+1 FFT bins. Returns nil for an empty frame.
func PowerSpectrum(frame []float64) []float64 {
	spec := FFT(frame)
	if spec == nil {
		return nil
	}
	half := len(spec)/2 + 1
	power := make([]float64, half)
	for i := range half {
		power[i] = real(spec[i])*real(spec[i]) + imag(spec[i])*imag(spec[i])
	}
	return power
}

// PhaseSpectrum returns the one-sided phase spectrum of frame in radians
// (-pi, pi]. Returns nil for an empty frame.
func PhaseSpectrum(frame []float64) []float64 {
	spec := FFT(frame)
	if spec == nil {
		return nil
	}
	half := len(spec)/2 + 1
	phase := make([]float64, half)
	for i := range half {
		phase[i] = cmplx.Phase(spec[i])
	}
	return phase
}

// RealCepstrum returns the real cepstrum of frame: IFFT of the log magnitude
// spectrum. Low quefrency bins carry the spectral envelope (formant
// structure); higher bins carry excitation. Returns nil for an empty frame.
func RealCepstrum(frame []float64) []float64 {
	spec := FFT(frame)
	if spec == nil {
		return nil
	}
	const eps = 1e-12
	logMag := make([]complex128, len(spec))
	for i, c := range spec {
		m := cmplx.Abs(c)
		if m < eps {
			m = eps
		}
		logMag[i] = complex(math.Log(m), 0)
	}
	ceps := IFFT(logMag)
	out := make([]float64, len(ceps))
	for i, c := range ceps {
		out[i] = real(c)
	}
	return out
}
