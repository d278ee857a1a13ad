// SPDX-License-Identifier: MIT

// Package utils holds shared test helpers: signal generators, synthetic
// spectra and a mock transport.
package utils

import (
	"math"
	"sync"
)

// MockTransport implements the transport.Transport interface for
// testing. It records every payload it is handed.
type MockTransport struct {
	mu    sync.Mutex
	Sends []any
}

// Send stores the payload for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sends = append(m.Sends, data)
	return nil
}

func (m *MockTransport) Close() error { return nil }

// SendCount returns how many payloads have been recorded.
func (m *MockTransport) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sends)
}

// GenerateSineWave returns size samples of a pure tone in [-0.9, 0.9].
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns a 440 Hz fundamental plus two harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
	}
	return buffer
}

// SpectrumWithPeak builds a byte-scale magnitude spectrum of numBins
// bins that is flat at floor with a single peak value at peakBin.
func SpectrumWithPeak(numBins, peakBin int, peak, floor float64) []float64 {
	spectrum := make([]float64, numBins)
	for i := range spectrum {
		spectrum[i] = floor
	}
	if peakBin >= 0 && peakBin < numBins {
		spectrum[peakBin] = peak
	}
	return spectrum
}

// FindPeakBin returns the index of the largest magnitude in
// [startBin, endBin], clamped to the slice bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
