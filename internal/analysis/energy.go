// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"slices"
)

// StereoRMS returns the root-mean-square energy across both channels:
// sqrt(sum(l^2 + r^2) / (2n)), where n is the shorter channel length.
// Returns 0 for empty input.
func StereoRMS(left, right []float64) float64 {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += left[i]*left[i] + right[i]*right[i]
	}
	return math.Sqrt(sum / float64(2*n))
}

// MeanMagnitude averages spectrum values over the bin range [start, end).
// The range is clamped to the valid intersection with the array; a range
// that is empty after clamping yields 0 rather than an error, so arbitrary
// UI-edited band boundaries can never crash the pipeline.
func MeanMagnitude(spectrum []float64, start, end int) float64 {
	start = clampBin(start, len(spectrum))
	end = clampBin(end, len(spectrum))
	if start >= end {
		return 0
	}

	var sum float64
	for _, v := range spectrum[start:end] {
		sum += v
	}
	return sum / float64(end-start)
}

// EnergyAggregator owns the scratch storage needed by spectrum-wide energy
// reductions so the per-frame calls stay allocation-free.
type EnergyAggregator struct {
	scratch []float64
}

// NewEnergyAggregator pre-allocates scratch space for spectra of up to
// numBins bins. numBins must be positive.
func NewEnergyAggregator(numBins int) (*EnergyAggregator, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("energy aggregator: bin count must be positive, got %d", numBins)
	}
	return &EnergyAggregator{scratch: make([]float64, numBins)}, nil
}

// DominantBinScale derives a time-domain gain from how much spectral energy
// sits in the loudest 30% of bins. Pitched, melodic content concentrates
// energy in few bins, so the gain rises during melodic passages.
//
// The threshold is the value at the 70th percentile rank of the descending
// sorted spectrum; the gain is 0.5 + 1.5 * mean(normalized bins >= threshold)
// and therefore always lies in [0.5, 2.0]. Silence yields the 0.5 floor.
func (a *EnergyAggregator) DominantBinScale(spectrum []float64) float64 {
	n := len(spectrum)
	if n == 0 {
		return 0.5
	}
	if n > len(a.scratch) {
		// Spectrum larger than constructed for; grow once and keep.
		a.scratch = make([]float64, n)
	}

	sorted := a.scratch[:n]
	copy(sorted, spectrum)
	slices.Sort(sorted)

	// The bin closing the loudest 30%: rank n*30/100 in descending order,
	// mirrored into the ascending sort.
	rank := n - 1 - (n*30)/100
	if rank < 0 {
		rank = 0
	}
	threshold := sorted[rank]

	var sum float64
	var count int
	for _, v := range spectrum {
		if v >= threshold {
			sum += v / MaxMagnitude
			count++
		}
	}
	if count == 0 {
		return 0.5
	}

	scale := 0.5 + 1.5*(sum/float64(count))
	return clamp(scale, 0.5, 2.0)
}
