// SPDX-License-Identifier: MIT
// Package transport carries per-frame analysis results to external
// renderers. The core pipeline never blocks on a transport: every
// implementation is non-blocking from the sender's perspective.
package transport

import "sync"

// Transport sends processed analysis data or events. Implementations must
// be safe for concurrent use and must not block the caller.
type Transport interface {
	Send(data any) error
	Close() error
}

// AnalysisFrame is one frame of renderer-facing control signals.
type AnalysisFrame struct {
	Seq        uint32  `json:"seq"`
	FreqA      float64 `json:"freqA"`
	FreqB      float64 `json:"freqB"`
	Complexity float64 `json:"complexity"`

	// Band energies in topology order: bass, mids, highs, melody, full.
	BandEnergy [5]float64 `json:"bandEnergy"`

	// Smoothed normalized spectrum, attached only when configured.
	Spectrum []float64 `json:"spectrum,omitempty"`
}

// FrameProvider exposes the engine's most recent analysis frame to pull
// style publishers. SnapshotInto must copy into dst without retaining it.
type FrameProvider interface {
	SnapshotInto(dst *AnalysisFrame) error
}

// framePool recycles frames (and their spectrum buffers) between the
// producer and the transports so the per-frame publish path stays
// allocation-free.
var framePool = sync.Pool{New: func() any { return new(AnalysisFrame) }}

// AcquireFrame returns a pooled frame for publishing. A frame handed to
// Send as *AnalysisFrame is owned by the transport from that point on;
// the transport releases it once the payload is delivered or dropped.
func AcquireFrame() *AnalysisFrame {
	return framePool.Get().(*AnalysisFrame)
}

// ReleaseFrame returns a frame to the pool. The spectrum buffer rides
// along for reuse by the next snapshot.
func ReleaseFrame(f *AnalysisFrame) {
	framePool.Put(f)
}
