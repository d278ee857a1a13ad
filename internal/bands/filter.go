// SPDX-License-Identifier: MIT
package bands

import (
	"fmt"
	"math"
	"strings"
)

// FilterType selects the response shape of a band's filter stage.
type FilterType int

const (
	// FilterNone passes samples through unchanged (Melody, Full).
	FilterNone FilterType = iota
	FilterLowpass
	FilterBandpass
	FilterHighpass
)

// String returns the config-file name of the filter type.
func (t FilterType) String() string {
	switch t {
	case FilterNone:
		return "none"
	case FilterLowpass:
		return "lowpass"
	case FilterBandpass:
		return "bandpass"
	case FilterHighpass:
		return "highpass"
	default:
		return "unknown"
	}
}

// ParseFilterType converts a string name (case-insensitive) to a FilterType.
func ParseFilterType(name string) (FilterType, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return FilterNone, nil
	case "lowpass", "lp":
		return FilterLowpass, nil
	case "bandpass", "bp":
		return FilterBandpass, nil
	case "highpass", "hp":
		return FilterHighpass, nil
	default:
		return FilterNone, fmt.Errorf("unknown filter type: '%s'", name)
	}
}

// coefficients holds one normalized second-order section (a0 folded in).
type coefficients struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// designCoefficients derives RBJ audio-EQ-cookbook coefficients for the
// given response at cutoff/center freq and quality factor q. The normalized
// frequency is capped just below Nyquist to keep the section stable.
func designCoefficients(typ FilterType, freq, q, sampleRate float64) coefficients {
	if typ == FilterNone {
		// Identity section.
		return coefficients{b0: 1}
	}
	if q <= 0 {
		q = 1
	}

	w0 := 2 * math.Pi * freq / sampleRate
	if w0 >= math.Pi {
		w0 = math.Pi * 0.99
	}
	if w0 <= 0 {
		w0 = 1e-4
	}

	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)

	var c coefficients
	a0 := 1 + alpha
	switch typ {
	case FilterLowpass:
		c.b0 = (1 - cosW0) / 2
		c.b1 = 1 - cosW0
		c.b2 = (1 - cosW0) / 2
	case FilterBandpass:
		c.b0 = alpha
		c.b1 = 0
		c.b2 = -alpha
	case FilterHighpass:
		c.b0 = (1 + cosW0) / 2
		c.b1 = -(1 + cosW0)
		c.b2 = (1 + cosW0) / 2
	}
	c.a1 = -2 * cosW0
	c.a2 = 1 - alpha

	c.b0 /= a0
	c.b1 /= a0
	c.b2 /= a0
	c.a1 /= a0
	c.a2 /= a0
	return c
}

// section is a single biquad with Direct Form II Transposed state.
type section struct {
	coefficients
	d0, d1 float64
}

// processBlock filters buf in place. Zero-alloc.
func (s *section) processBlock(buf []float64) {
	b0, b1, b2 := s.b0, s.b1, s.b2
	a1, a2 := s.a1, s.a2
	d0, d1 := s.d0, s.d1

	for i, x := range buf {
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	s.d0, s.d1 = d0, d1
}

// reset clears the delay line.
func (s *section) reset() {
	s.d0, s.d1 = 0, 0
}

// StereoFilter is a matched pair of biquad sections, one per channel,
// sharing a single set of coefficients so both channels always track the
// same response.
type StereoFilter struct {
	typ        FilterType
	freq       float64
	q          float64
	sampleRate float64

	left  section
	right section
}

// NewStereoFilter creates a stereo filter pair. sampleRate must be positive.
func NewStereoFilter(typ FilterType, freq, q, sampleRate float64) (*StereoFilter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("stereo filter: sample rate must be positive, got %g", sampleRate)
	}
	f := &StereoFilter{typ: typ, freq: freq, q: q, sampleRate: sampleRate}
	f.apply(designCoefficients(typ, freq, q, sampleRate))
	return f, nil
}

func (f *StereoFilter) apply(c coefficients) {
	f.left.coefficients = c
	f.right.coefficients = c
}

// Retune moves the cutoff/center frequency. Both channel sections receive
// the new coefficients before the call returns, so a subsequent Process
// never observes a single-channel desync. Delay-line state is preserved.
func (f *StereoFilter) Retune(freq float64) {
	f.freq = freq
	f.apply(designCoefficients(f.typ, freq, f.q, f.sampleRate))
}

// Frequency returns the current cutoff/center frequency in Hz.
func (f *StereoFilter) Frequency() float64 {
	return f.freq
}

// Process filters both channel buffers in place.
func (f *StereoFilter) Process(left, right []float64) {
	if f.typ == FilterNone {
		return
	}
	f.left.processBlock(left)
	f.right.processBlock(right)
}

// Reset clears both delay lines.
func (f *StereoFilter) Reset() {
	f.left.reset()
	f.right.reset()
}
