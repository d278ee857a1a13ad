// SPDX-License-Identifier: MIT
/*
Package analysis turns raw magnitude spectra and band-filtered audio into the
small set of stable control signals that drive a visual renderer:

- SpectrumSmoother: temporal + spatial conditioning of raw magnitude frames
- Normalizer: noise-gated, pink-compensated, smoothed renderer spectrum
- FrequencyExtractor: 1-2 "parameter frequencies" + complexity per frame
- Energy helpers: stereo RMS, mean bin magnitude, dominant-bin scaling

All per-frame entry points are single-threaded and allocation-free after
construction. Signal degeneracies (silence, empty ranges, division by zero)
never surface as errors; only constructor contract violations do.
*/
package analysis

// MaxMagnitude is the full-scale value of a raw spectrum bin. Raw spectra
// flow through the pipeline as []float64 holding byte-scale values, matching
// the 0-255 range the FFT front end emits.
const MaxMagnitude = 255.0

// SpectrumProvider is the read-side interface of the FFT front end. It
// decouples consumers (band graph, extractor, publishers) from the concrete
// FFT implementation.
type SpectrumProvider interface {
	// GetMagnitudes returns a copy of the latest byte-scale magnitude spectrum.
	GetMagnitudes() []float64
	// GetMagnitudesInto copies the latest spectrum into dst without allocating.
	// dst must have exactly fftSize/2 + 1 elements.
	GetMagnitudesInto(dst []float64) error
	// GetFrequencyForBin returns the center frequency in Hz of a bin index.
	GetFrequencyForBin(binIndex int) float64
	GetFFTSize() int
	GetSampleRate() float64
}

// lerp blends a toward b by t in [0,1].
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampBin limits a bin index to [0, n].
func clampBin(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
