// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Method selects the frequency-extraction strategy. The strategies share no
// state, only the input/output contract, so they dispatch as a closed enum
// rather than a type hierarchy.
type Method int

const (
	// MethodBandPower maps weighted bass/mid/treble power into the parameter
	// range. Default: smooth weighted averages make it the most stable
	// strategy visually.
	MethodBandPower Method = iota
	// MethodDominantPitch maps the two loudest bins to parameters.
	MethodDominantPitch
	// MethodSpectralCentroid maps the full and upper-half spectral centroids
	// to parameters.
	MethodSpectralCentroid
)

// String returns the config-file name of the method.
func (m Method) String() string {
	switch m {
	case MethodBandPower:
		return "bandpower"
	case MethodDominantPitch:
		return "dominant"
	case MethodSpectralCentroid:
		return "centroid"
	default:
		return "unknown"
	}
}

// ParseMethod converts a string name (case-insensitive) to a Method.
// Returns MethodBandPower and an error if the name is unknown.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "bandpower", "band-power", "band_power":
		return MethodBandPower, nil
	case "dominant", "dominantpitch", "dominant-pitch", "pitch":
		return MethodDominantPitch, nil
	case "centroid", "spectralcentroid", "spectral-centroid":
		return MethodSpectralCentroid, nil
	default:
		return MethodBandPower, fmt.Errorf("unknown frequency extraction method: '%s'", name)
	}
}

// Piano range (A0-C8) used by the logarithmic Hz-to-parameter mapping.
const (
	minMusicalHz = 27.5
	maxMusicalHz = 4186.0
)

// Band-power strategy boundaries in Hz.
const (
	bandPowerBassHz   = 150.0
	bandPowerMidHz    = 2000.0
	bandPowerTrebleHz = 8000.0
)

// Dominant-pitch strategy scans at most this many bins past DC.
const dominantScanLimit = 256

// ExtractorConfig is the immutable per-call configuration of an Analyze
// call. The extractor keeps no config history, only its own smoothing state.
type ExtractorConfig struct {
	Method        Method
	BaseFrequency float64 // fallback / offset parameter value
	Multiplier    float64 // band-power weight scale
	MinFreq       float64 // lower parameter bound
	MaxFreq       float64 // upper parameter bound
	Smoothing     float64 // output blend toward the raw estimate, in (0,1)
}

// DefaultExtractorConfig returns the tuning the renderer ships with.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Method:        MethodBandPower,
		BaseFrequency: 3.0,
		Multiplier:    5.0,
		MinFreq:       0.5,
		MaxFreq:       20.0,
		Smoothing:     0.3,
	}
}

// Result is one frame's extracted parameters. FreqA and FreqB always lie in
// [MinFreq, MaxFreq]; Complexity in [0, 1]. A Result has no identity beyond
// being the smoothing predecessor of the next call.
type Result struct {
	FreqA      float64
	FreqB      float64
	Complexity float64
}

// FrequencyExtractor reduces a magnitude spectrum to two parameter
// frequencies plus a complexity scalar, then smooths its own output across
// frames so reactive visuals feel musical rather than noisy.
//
// The smoothing recurrence out[t] = lerp(out[t-1], raw[t], smoothing) is
// applied independently to FreqA, FreqB, and Complexity. The first call
// seeds the previous output with BaseFrequency (and 0 complexity) to avoid
// an initial snap from zero.
type FrequencyExtractor struct {
	sampleRate float64
	fftSize    int

	seeded         bool
	prevFreqA      float64
	prevFreqB      float64
	prevComplexity float64
}

// NewFrequencyExtractor creates an extractor for spectra produced at the
// given sample rate and FFT size. Both must be positive; fftSize must be a
// power of two (the bin spacing is sampleRate/fftSize).
func NewFrequencyExtractor(fftSize int, sampleRate float64) (*FrequencyExtractor, error) {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("frequency extractor: fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("frequency extractor: sample rate must be positive, got %g", sampleRate)
	}
	return &FrequencyExtractor{
		sampleRate: sampleRate,
		fftSize:    fftSize,
	}, nil
}

// FreqResolution returns the bin spacing in Hz.
func (e *FrequencyExtractor) FreqResolution() float64 {
	return e.sampleRate / float64(e.fftSize)
}

// Reset discards the smoothing state; the next Analyze re-seeds from its
// config's BaseFrequency.
func (e *FrequencyExtractor) Reset() {
	e.seeded = false
	e.prevFreqA = 0
	e.prevFreqB = 0
	e.prevComplexity = 0
}

// Analyze reduces one byte-scale magnitude spectrum to a smoothed Result.
// Every degenerate input (all-zero spectrum, empty ranges, single-bin
// arrays) degrades to BaseFrequency or 0; the result is always finite and
// within the configured bounds.
func (e *FrequencyExtractor) Analyze(spectrum []float64, cfg ExtractorConfig) Result {
	if !e.seeded {
		e.prevFreqA = cfg.BaseFrequency
		e.prevFreqB = cfg.BaseFrequency
		e.prevComplexity = 0
		e.seeded = true
	}

	var raw Result
	switch cfg.Method {
	case MethodDominantPitch:
		raw = e.dominantPitch(spectrum, cfg)
	case MethodSpectralCentroid:
		raw = e.spectralCentroid(spectrum, cfg)
	default:
		raw = e.bandPower(spectrum, cfg)
	}

	t := clamp(cfg.Smoothing, 0, 1)
	out := Result{
		FreqA:      lerp(e.prevFreqA, raw.FreqA, t),
		FreqB:      lerp(e.prevFreqB, raw.FreqB, t),
		Complexity: lerp(e.prevComplexity, raw.Complexity, t),
	}

	// Belt and braces against NaN leaking out of a pathological spectrum:
	// fall back to the previous smoothed value, never propagate.
	out.FreqA = finiteOr(out.FreqA, e.prevFreqA)
	out.FreqB = finiteOr(out.FreqB, e.prevFreqB)
	out.Complexity = finiteOr(out.Complexity, e.prevComplexity)

	out.FreqA = clamp(out.FreqA, cfg.MinFreq, cfg.MaxFreq)
	out.FreqB = clamp(out.FreqB, cfg.MinFreq, cfg.MaxFreq)
	out.Complexity = clamp(out.Complexity, 0, 1)

	e.prevFreqA = out.FreqA
	e.prevFreqB = out.FreqB
	e.prevComplexity = out.Complexity
	return out
}

// dominantPitch tracks the two loudest bins in a single pass (no sort) over
// bins 1..min(256, N), skipping DC, and maps their frequencies into the
// parameter range logarithmically.
func (e *FrequencyExtractor) dominantPitch(spectrum []float64, cfg ExtractorConfig) Result {
	limit := dominantScanLimit
	if limit > len(spectrum)-1 {
		limit = len(spectrum) - 1
	}

	var max1, max2 float64
	max1Index, max2Index := -1, -1
	for i := 1; i <= limit; i++ {
		v := spectrum[i]
		switch {
		case v > max1:
			max2, max2Index = max1, max1Index
			max1, max1Index = v, i
		case v > max2:
			max2, max2Index = v, i
		}
	}

	res := e.FreqResolution()
	hzA, hzB := 0.0, 0.0
	if max1Index >= 0 && max1 > 0 {
		hzA = float64(max1Index) * res
	}
	if max2Index >= 0 && max2 > 0 {
		hzB = float64(max2Index) * res
	}

	return Result{
		FreqA:      logFrequencyToParam(hzA, cfg),
		FreqB:      logFrequencyToParam(hzB, cfg),
		Complexity: math.Max(max1, max2) / MaxMagnitude,
	}
}

// spectralCentroid maps the magnitude-weighted mean frequency of the full
// spectrum (FreqA) and of its upper half (FreqB) into the parameter range.
func (e *FrequencyExtractor) spectralCentroid(spectrum []float64, cfg ExtractorConfig) Result {
	res := e.FreqResolution()

	var weighted, total float64
	for i, v := range spectrum {
		weighted += float64(i) * res * v
		total += v
	}

	centroid := 0.0
	if total > 0 {
		centroid = weighted / total
	}

	var upperWeighted, upperTotal float64
	for i := len(spectrum) / 2; i < len(spectrum); i++ {
		upperWeighted += float64(i) * res * spectrum[i]
		upperTotal += spectrum[i]
	}
	upperCentroid := 0.0
	if upperTotal > 0 {
		upperCentroid = upperWeighted / upperTotal
	}

	mean := 0.0
	if len(spectrum) > 0 {
		mean = total / float64(len(spectrum))
	}

	return Result{
		FreqA:      logFrequencyToParam(centroid, cfg),
		FreqB:      logFrequencyToParam(upperCentroid, cfg),
		Complexity: mean / MaxMagnitude,
	}
}

// bandPower partitions the spectrum into bass (<150 Hz), mid (150-2000 Hz)
// and treble (2000-8000 Hz) sub-ranges and offsets BaseFrequency by weighted
// normalized band power. Sub-range boundaries convert to bins via
// floor(hz/resolution); the ranges are disjoint half-open intervals, each
// boundary bin belonging to the higher range, and clamp to the array, so an
// empty clamped range contributes 0.
func (e *FrequencyExtractor) bandPower(spectrum []float64, cfg ExtractorConfig) Result {
	res := e.FreqResolution()
	bassBin := int(bandPowerBassHz / res)
	midBin := int(bandPowerMidHz / res)
	trebleBin := int(bandPowerTrebleHz / res)

	bass := MeanMagnitude(spectrum, 0, bassBin) / MaxMagnitude
	mid := MeanMagnitude(spectrum, bassBin, midBin) / MaxMagnitude
	treble := MeanMagnitude(spectrum, midBin, trebleBin) / MaxMagnitude

	return Result{
		FreqA:      clamp(cfg.BaseFrequency+(0.6*bass+0.4*mid)*cfg.Multiplier, cfg.MinFreq, cfg.MaxFreq),
		FreqB:      clamp(cfg.BaseFrequency+(0.4*mid+0.6*treble)*cfg.Multiplier, cfg.MinFreq, cfg.MaxFreq),
		Complexity: (bass + mid + treble) / 3,
	}
}

// logFrequencyToParam maps a frequency in Hz into [MinFreq, MaxFreq] on a
// logarithmic scale over the piano range A0-C8. Input <= 0 means silence and
// returns BaseFrequency directly; out-of-range input clamps to the musical
// range first.
func logFrequencyToParam(hz float64, cfg ExtractorConfig) float64 {
	if hz <= 0 {
		return cfg.BaseFrequency
	}
	hz = clamp(hz, minMusicalHz, maxMusicalHz)
	normalized := (math.Log(hz) - math.Log(minMusicalHz)) / (math.Log(maxMusicalHz) - math.Log(minMusicalHz))
	return clamp(cfg.MinFreq+normalized*(cfg.MaxFreq-cfg.MinFreq), cfg.MinFreq, cfg.MaxFreq)
}

// finiteOr returns v unless it is NaN or infinite, in which case it returns
// the fallback.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
