// SPDX-License-Identifier: MIT
/*
Package bands splits a stereo source into named frequency bands, each with
its own filter pair and rolling analysis window, and reduces them to
per-band stereo buffers and RMS energy on demand.

The routing (source -> per-band filter pair -> per-band window) is built
once at construction from a static topology table, so connecting, retuning
and disposal all act on a single source of truth. All per-frame work is
single-threaded and allocation-free.
*/
package bands

import (
	"fmt"
	"strings"

	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/analysis"
	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
)

// Band names one of the fixed frequency bands. Each band owns exactly one
// filter spec and one pair of channel windows for the life of the graph.
type Band int

const (
	Bass Band = iota
	Mids
	Highs
	Melody
	Full

	numBands
)

// String returns the lowercase band name.
func (b Band) String() string {
	switch b {
	case Bass:
		return "bass"
	case Mids:
		return "mids"
	case Highs:
		return "highs"
	case Melody:
		return "melody"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// ParseBand resolves a band name (case-insensitive). ok is false for names
// outside the fixed set; callers get the zeroed fallback from the graph in
// that case rather than an error.
func ParseBand(name string) (Band, bool) {
	switch strings.ToLower(name) {
	case "bass":
		return Bass, true
	case "mids", "mid":
		return Mids, true
	case "highs", "high", "treble":
		return Highs, true
	case "melody":
		return Melody, true
	case "full":
		return Full, true
	default:
		return Band(-1), false
	}
}

// Bands lists all bands in topology order.
func Bands() []Band {
	return []Band{Bass, Mids, Highs, Melody, Full}
}

// FilterSpec is one band's filter configuration.
type FilterSpec struct {
	Type   FilterType
	Cutoff float64 // cutoff or center frequency in Hz
	Q      float64
}

// DefaultTopology returns the fixed default band-to-filter assignment. The
// cutoffs follow where vocal and instrument energy concentrates; they are a
// deliberate tuning, not an artifact.
func DefaultTopology() [5]FilterSpec {
	return [5]FilterSpec{
		Bass:   {Type: FilterLowpass, Cutoff: 250, Q: 1},
		Mids:   {Type: FilterBandpass, Cutoff: 2125, Q: 1},
		Highs:  {Type: FilterHighpass, Cutoff: 4000, Q: 1},
		Melody: {Type: FilterNone},
		Full:   {Type: FilterNone},
	}
}

// BandData is one band's per-frame snapshot: the current analysis window of
// both channels plus the stereo RMS energy. The slices point at storage
// owned by the graph and stay valid until the next GetBandData call for the
// same band; callers that retain a frame must copy it.
type BandData struct {
	Left   []float64
	Right  []float64
	Energy float64
}

// Source identifies a stereo sample source wired into the graph. The graph
// uses interface equality to make Connect idempotent.
type Source interface {
	// SampleRate returns the source's sample rate in Hz.
	SampleRate() float64
}

// bandChain is one row of the topology table: filter pair, rolling windows,
// and snapshot storage for a single band.
type bandChain struct {
	spec   FilterSpec
	filter *StereoFilter

	left  *window
	right *window

	snapL []float64
	snapR []float64
}

// Graph is the multi-band filter/analyzer graph. One Process call per
// frame pushes a stereo block through every band chain; GetBandData reduces
// any band on demand. Not safe for concurrent use; the frame-driven caller
// owns it exclusively.
type Graph struct {
	windowSize int
	sampleRate float64

	source Source
	chains [numBands]*bandChain

	// Optional spectrum source for the Melody band's dominant-bin gain.
	spectrum   analysis.SpectrumProvider
	magScratch []float64
	aggregator *analysis.EnergyAggregator

	fallback BandData
	disposed bool
}

// NewGraph builds the band topology with the given analysis window size
// (samples per channel, e.g. 2048) and sample rate. Specs may override the
// default topology per band; a zero-value spec keeps the default.
func NewGraph(windowSize int, sampleRate float64, overrides map[Band]FilterSpec) (*Graph, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("band graph: window size must be positive, got %d", windowSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("band graph: sample rate must be positive, got %g", sampleRate)
	}

	topology := DefaultTopology()
	for band, spec := range overrides {
		if band < 0 || band >= numBands {
			return nil, fmt.Errorf("band graph: override for unknown band %d", band)
		}
		topology[band] = spec
	}

	g := &Graph{
		windowSize: windowSize,
		sampleRate: sampleRate,
		fallback: BandData{
			Left:  make([]float64, windowSize),
			Right: make([]float64, windowSize),
		},
	}

	for _, band := range Bands() {
		spec := topology[band]
		filter, err := NewStereoFilter(spec.Type, spec.Cutoff, spec.Q, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("band graph: %s: %w", band, err)
		}
		g.chains[band] = &bandChain{
			spec:   spec,
			filter: filter,
			left:   newWindow(windowSize),
			right:  newWindow(windowSize),
			snapL:  make([]float64, windowSize),
			snapR:  make([]float64, windowSize),
		}
	}

	applog.Debugf("bands: graph initialized (window: %d samples, rate: %.0f Hz)", windowSize, sampleRate)
	return g, nil
}

// Connect wires a stereo source into the graph. Connecting the same source
// again is a no-op, so an accidental double-connect can never double a
// signal path. Connecting a different source resets all filter state and
// windows before taking over.
func (g *Graph) Connect(src Source) {
	if g.disposed || src == nil {
		return
	}
	if g.source == src {
		applog.Debugf("bands: source already connected, ignoring")
		return
	}
	if g.source != nil {
		g.resetState()
	}
	g.source = src
	applog.Infof("bands: source connected (rate: %.0f Hz)", src.SampleRate())
}

// ConnectedSource returns the currently wired source, or nil.
func (g *Graph) ConnectedSource() Source {
	return g.source
}

// SetSpectrumProvider wires the magnitude-spectrum source used by the
// Melody band's dominant-bin gain. Without one the Melody band is returned
// unscaled.
func (g *Graph) SetSpectrumProvider(p analysis.SpectrumProvider) error {
	if p == nil {
		g.spectrum = nil
		return nil
	}
	bins := p.GetFFTSize()/2 + 1
	agg, err := analysis.NewEnergyAggregator(bins)
	if err != nil {
		return err
	}
	g.spectrum = p
	g.magScratch = make([]float64, bins)
	g.aggregator = agg
	return nil
}

// Process pushes one stereo block through every band chain. The caller's
// buffers are never mutated; each chain filters a private copy, so analysis
// cannot color the playback path. Left and right must have equal length
// (constructor-grade contract: mismatches are reported once and the block
// is dropped).
func (g *Graph) Process(left, right []float64) {
	if g.disposed {
		return
	}
	if len(left) != len(right) {
		applog.Errorf("bands: dropped block with mismatched channels (%d != %d)", len(left), len(right))
		return
	}

	for _, chain := range g.chains {
		chain.left.push(left)
		chain.right.push(right)
		// Filter the freshly appended region in place inside the window.
		chain.left.filterTail(len(left), &chain.filter.left)
		chain.right.filterTail(len(right), &chain.filter.right)
	}
}

// GetBandData snapshots a band's current analysis window and RMS energy.
// An out-of-range band yields the all-zero fallback (energy 0) so a
// misconfigured caller stays visually alive instead of failing.
//
// The Melody band's samples are additionally scaled by the dominant-bin
// gain (0.5x-2.0x) when a spectrum provider is wired.
func (g *Graph) GetBandData(band Band) BandData {
	if g.disposed || band < 0 || band >= numBands {
		return g.fallback
	}

	chain := g.chains[band]
	chain.left.snapshot(chain.snapL)
	chain.right.snapshot(chain.snapR)

	if band == Melody && g.spectrum != nil {
		if err := g.spectrum.GetMagnitudesInto(g.magScratch); err == nil {
			scale := g.aggregator.DominantBinScale(g.magScratch)
			for i := range chain.snapL {
				chain.snapL[i] *= scale
				chain.snapR[i] *= scale
			}
		}
	}

	return BandData{
		Left:   chain.snapL,
		Right:  chain.snapR,
		Energy: analysis.StereoRMS(chain.snapL, chain.snapR),
	}
}

// GetBandDataByName is GetBandData keyed by band name; unknown names yield
// the zeroed fallback.
func (g *Graph) GetBandDataByName(name string) BandData {
	band, ok := ParseBand(name)
	if !ok {
		return g.fallback
	}
	return g.GetBandData(band)
}

// UpdateFilterFrequency retunes a band's cutoff/center frequency live. Both
// channel filters are retuned before the call returns. Unfiltered and
// unknown bands are no-ops.
func (g *Graph) UpdateFilterFrequency(band Band, hz float64) {
	if g.disposed || band < 0 || band >= numBands {
		return
	}
	chain := g.chains[band]
	if chain.spec.Type == FilterNone {
		return
	}
	chain.filter.Retune(hz)
	applog.Debugf("bands: %s retuned to %.1f Hz", band, hz)
}

// FilterSpecFor returns the band's current filter configuration. Unknown
// bands and disposed graphs report a zero spec.
func (g *Graph) FilterSpecFor(band Band) FilterSpec {
	if g.disposed || band < 0 || band >= numBands {
		return FilterSpec{}
	}
	chain := g.chains[band]
	spec := chain.spec
	spec.Cutoff = chain.filter.Frequency()
	return spec
}

// WindowSize returns the per-channel analysis window length in samples.
func (g *Graph) WindowSize() int {
	return g.windowSize
}

func (g *Graph) resetState() {
	for _, chain := range g.chains {
		chain.filter.Reset()
		chain.left.clear()
		chain.right.clear()
	}
}

// Dispose releases all per-band storage. The graph is not usable afterward;
// further calls return fallback data.
func (g *Graph) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	g.source = nil
	for i := range g.chains {
		g.chains[i] = nil
	}
	applog.Debugf("bands: graph disposed")
}

// window is a fixed-size rolling sample buffer. Pushes overwrite the oldest
// samples; snapshot reads back in time order (oldest first).
type window struct {
	buf  []float64
	head int // next write position
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, size)}
}

// push appends a block, overwriting the oldest samples. Blocks longer than
// the window keep only their newest samples.
func (w *window) push(samples []float64) {
	if len(samples) >= len(w.buf) {
		copy(w.buf, samples[len(samples)-len(w.buf):])
		w.head = 0
		return
	}
	n := copy(w.buf[w.head:], samples)
	if n < len(samples) {
		copy(w.buf, samples[n:])
	}
	w.head = (w.head + len(samples)) % len(w.buf)
}

// filterTail runs a biquad section over the most recently pushed n samples,
// in place, in their push order.
func (w *window) filterTail(n int, s *section) {
	if n > len(w.buf) {
		n = len(w.buf)
	}
	start := w.head - n
	if start >= 0 {
		s.processBlock(w.buf[start:w.head])
		return
	}
	// Tail wraps: older part at the end of buf, newer part at the front.
	s.processBlock(w.buf[len(w.buf)+start:])
	s.processBlock(w.buf[:w.head])
}

// snapshot copies the window contents into dst, oldest sample first. dst
// must be exactly the window length.
func (w *window) snapshot(dst []float64) {
	n := copy(dst, w.buf[w.head:])
	copy(dst[n:], w.buf[:w.head])
}

// clear zeroes the window.
func (w *window) clear() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.head = 0
}
