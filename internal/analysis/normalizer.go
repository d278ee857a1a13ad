// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// Hand-tuned conditioning defaults. These carried over from the original
// visual tuning sessions; their only validated property is that the rendered
// output looked balanced, so they are defaults rather than derived values.
const (
	// DefaultNoiseGateKnee is the normalized level below which bins are
	// attenuated quadratically. A soft knee avoids the "popcorn" artifacts a
	// hard cutoff produces at the threshold.
	DefaultNoiseGateKnee = 0.15

	// DefaultPinkBoost is the strength of the high-frequency compensation
	// ramp that counteracts the natural 1/f energy slope of most music.
	DefaultPinkBoost = 2.0

	// DefaultNormalizerSmoothing is the temporal blend toward the incoming
	// conditioned frame.
	DefaultNormalizerSmoothing = 0.25
)

// Normalizer conditions a raw byte-scale spectrum into the stabilized
// floating-point array renderers consume. Per bin it applies, in order: a
// quadratic noise gate, a pink-noise compensation boost rising linearly with
// bin index, and a temporal exponential blend against the previous frame.
//
// Same family as SpectrumSmoother: exclusively owned per-bin state, one
// Update per frame, no allocation after construction.
type Normalizer struct {
	gateKnee  float64
	boost     float64
	smoothing float64

	prev []float64
	out  []float64
}

// NewNormalizer creates a normalizer for spectra of exactly numBins bins
// using the default knee, boost, and smoothing.
func NewNormalizer(numBins int) (*Normalizer, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("normalizer: bin count must be positive, got %d", numBins)
	}
	return &Normalizer{
		gateKnee:  DefaultNoiseGateKnee,
		boost:     DefaultPinkBoost,
		smoothing: DefaultNormalizerSmoothing,
		prev:      make([]float64, numBins),
		out:       make([]float64, numBins),
	}, nil
}

// SetNoiseGateKnee retunes the soft gate knee (normalized, 0 disables).
func (n *Normalizer) SetNoiseGateKnee(knee float64) {
	n.gateKnee = clamp(knee, 0, 1)
}

// SetPinkBoost retunes the high-frequency compensation strength.
func (n *Normalizer) SetPinkBoost(boost float64) {
	if boost < 0 {
		boost = 0
	}
	n.boost = boost
}

// SetSmoothing retunes the temporal blend factor, clamped into (0, 1].
func (n *Normalizer) SetSmoothing(f float64) {
	if f <= 0 {
		f = 1e-3
	}
	if f > 1 {
		f = 1
	}
	n.smoothing = f
}

// Update consumes one raw byte-scale frame and returns the conditioned
// normalized frame. The returned slice is owned by the normalizer and valid
// until the next Update. Missing bins (raw shorter than configured) decay
// toward zero.
func (n *Normalizer) Update(raw []float64) []float64 {
	bins := len(n.prev)
	invBins := 1.0 / float64(bins)
	for i := 0; i < bins; i++ {
		v := 0.0
		if i < len(raw) {
			v = raw[i] / MaxMagnitude
		}

		// Quadratic falloff below the knee suppresses background hiss
		// without a hard cutoff.
		if n.gateKnee > 0 && v < n.gateKnee {
			v *= v / n.gateKnee
		}

		// Pink-noise compensation: linearly rising boost keeps the visual
		// bands balanced despite the low energy of high bins.
		v *= 1 + float64(i)*invBins*n.boost

		n.out[i] = lerp(n.prev[i], v, n.smoothing)
	}
	copy(n.prev, n.out)
	return n.out
}

// NumBins returns the fixed spectrum size of this normalizer.
func (n *Normalizer) NumBins() int {
	return len(n.prev)
}

// Dispose releases the smoothing state. The normalizer must not be used after.
func (n *Normalizer) Dispose() {
	n.prev = nil
	n.out = nil
}
