// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// DefaultTemporalFactor is the blend weight toward the incoming frame.
// Higher values track transients faster at the cost of visible jitter.
const DefaultTemporalFactor = 0.3

// SpectrumSmoother stabilizes raw magnitude frames with a two-stage filter:
// a 3-tap spatial blur over the raw neighbor bins followed by a temporal
// exponential blend against the previous published frame. Output values are
// normalized to [0, 1].
//
// The smoother exclusively owns its history; one instance per spectrum
// stream, one Update call per render frame.
type SpectrumSmoother struct {
	temporalFactor float64
	prev           []float64 // previous published frame, persisted across calls
	out            []float64
}

// NewSpectrumSmoother creates a smoother for spectra of exactly numBins bins.
// temporalFactor outside (0, 1] is a contract violation. The history starts
// at zero, so the first frame fades in rather than snapping.
func NewSpectrumSmoother(numBins int, temporalFactor float64) (*SpectrumSmoother, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("spectrum smoother: bin count must be positive, got %d", numBins)
	}
	if temporalFactor <= 0 || temporalFactor > 1 {
		return nil, fmt.Errorf("spectrum smoother: temporal factor must be in (0,1], got %g", temporalFactor)
	}
	return &SpectrumSmoother{
		temporalFactor: temporalFactor,
		prev:           make([]float64, numBins),
		out:            make([]float64, numBins),
	}, nil
}

// SetTemporalFactor retunes the temporal blend live. Values outside (0, 1]
// are clamped into range; the change applies on the next Update.
func (s *SpectrumSmoother) SetTemporalFactor(f float64) {
	if f <= 0 {
		f = 1e-3
	}
	if f > 1 {
		f = 1
	}
	s.temporalFactor = f
}

// Update consumes one raw byte-scale frame and returns the stabilized
// normalized frame. The returned slice is owned by the smoother and valid
// until the next Update. Runs in O(N) with no allocation.
//
// If raw is shorter than the configured bin count, the remaining bins decay
// toward zero; extra bins are ignored.
func (s *SpectrumSmoother) Update(raw []float64) []float64 {
	n := len(s.prev)
	for i := 0; i < n; i++ {
		spatial := 0.0
		if i < len(raw) {
			// Edge bins clamp to their nearest valid neighbor.
			lo, hi := i-1, i+1
			if lo < 0 {
				lo = 0
			}
			if hi >= len(raw) {
				hi = len(raw) - 1
			}
			spatial = (raw[lo] + raw[i] + raw[hi]) / 3
		}
		s.out[i] = lerp(s.prev[i], spatial/MaxMagnitude, s.temporalFactor)
	}
	copy(s.prev, s.out)
	return s.out
}

// NumBins returns the fixed spectrum size of this smoother.
func (s *SpectrumSmoother) NumBins() int {
	return len(s.prev)
}

// Dispose releases the smoothing state. The smoother must not be used after.
func (s *SpectrumSmoother) Dispose() {
	s.prev = nil
	s.out = nil
}
