// SPDX-License-Identifier: MIT
// Package fft converts mono time-domain frames into the byte-scale
// magnitude spectra the analysis pipeline consumes.
package fft

import (
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/analysis"
	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/pkg/bitint"
)

// WindowFunc selects the analysis window applied before the transform.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
)

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Returns Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// workspace holds the pre-allocated buffers of one processor.
type workspace struct {
	input     []float64    // windowed input frame
	fftOutput []complex128 // complex transform output
	magnitude []float64    // byte-scale magnitudes
	window    []float64    // window coefficients
	mu        sync.RWMutex // guards magnitude for concurrent readers
}

// Processor performs the FFT and publishes byte-scale (0-255) magnitudes.
// Process is called from the frame-driven hot path and allocates nothing;
// readers access results through the analysis.SpectrumProvider methods.
type Processor struct {
	fft        *fourier.FFT
	fftSize    int
	sampleRate float64
	workspace  workspace
}

var _ analysis.SpectrumProvider = (*Processor)(nil)

// NewProcessor creates a processor for frames of fftSize samples. fftSize
// must be a power of two and sampleRate positive.
func NewProcessor(fftSize int, sampleRate float64, windowType WindowFunc) (*Processor, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}

	coeffs := make([]float64, fftSize)
	applyWindow(coeffs, windowType)

	// Real input yields fftSize/2 + 1 complex bins.
	bins := fftSize/2 + 1

	applog.Debugf("fft: initializing processor (size: %d, rate: %.1f Hz)", fftSize, sampleRate)

	return &Processor{
		fft:        fourier.NewFFT(fftSize),
		fftSize:    fftSize,
		sampleRate: sampleRate,
		workspace: workspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, bins),
			magnitude: make([]float64, bins),
			window:    coeffs,
		},
	}, nil
}

// Process transforms one mono frame of samples in [-1, 1]. Frames shorter
// than the FFT size are zero-padded; longer frames are truncated. Bin
// magnitudes are normalized so a full-scale Hann-windowed sine peaks near
// 255, then clamped to the byte range.
func (p *Processor) Process(samples []float64) {
	p.workspace.mu.Lock()

	for i := 0; i < p.fftSize; i++ {
		if i < len(samples) {
			p.workspace.input[i] = samples[i] * p.workspace.window[i]
		} else {
			p.workspace.input[i] = 0
		}
	}

	p.fft.Coefficients(p.workspace.fftOutput, p.workspace.input)

	// A full-scale sine under a Hann window concentrates about fftSize/4 of
	// amplitude in its bin; treat that as full scale.
	scale := analysis.MaxMagnitude / (float64(p.fftSize) / 4)
	for i, c := range p.workspace.fftOutput {
		m := cmplx.Abs(c) * scale
		if m > analysis.MaxMagnitude {
			m = analysis.MaxMagnitude
		}
		p.workspace.magnitude[i] = m
	}

	p.workspace.mu.Unlock()
}

// GetMagnitudes returns a copy of the latest byte-scale magnitudes. The
// copy allocates; hot-path readers should use GetMagnitudesInto.
func (p *Processor) GetMagnitudes() []float64 {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	out := make([]float64, len(p.workspace.magnitude))
	copy(out, p.workspace.magnitude)
	return out
}

// GetMagnitudesInto copies the latest magnitudes into dst without
// allocating. dst must have exactly fftSize/2 + 1 elements.
func (p *Processor) GetMagnitudesInto(dst []float64) error {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	if len(dst) != len(p.workspace.magnitude) {
		return fmt.Errorf("destination length %d does not match bin count %d", len(dst), len(p.workspace.magnitude))
	}
	copy(dst, p.workspace.magnitude)
	return nil
}

// GetFrequencyForBin returns the center frequency in Hz of a bin index, or
// 0 for out-of-range indices.
func (p *Processor) GetFrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.workspace.fftOutput) {
		return 0
	}
	return float64(binIndex) * (p.sampleRate / float64(p.fftSize))
}

// GetFFTSize returns the configured transform size.
func (p *Processor) GetFFTSize() int {
	return p.fftSize
}

// GetSampleRate returns the configured sample rate in Hz.
func (p *Processor) GetSampleRate() float64 {
	return p.sampleRate
}

// applyWindow fills coeffs with the selected window function. Unknown types
// fall back to Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1
	}
	switch windowType {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	default:
		applog.Warnf("fft: unknown window function %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
