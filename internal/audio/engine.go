// SPDX-License-Identifier: MIT
/*
Package audio drives the analysis pipeline from a live PortAudio stream or
a WAV file. Per buffer it de-interleaves the input, pushes it through the
band filter graph, runs the FFT front end, conditions the spectrum, and
extracts the renderer-facing control signals.

The capture callback touches only pre-allocated buffers; publishing to
renderers happens through a drop-on-full transport so the hot path never
blocks.
*/
package audio

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/analysis"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/bands"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/config"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/fft"
	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/transport"
)

// Engine owns the full analysis pipeline and its input stream.
type Engine struct {
	config *config.Config

	// Live input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Analysis pipeline.
	graph      *bands.Graph
	fftProc    *fft.Processor
	smoother   *analysis.SpectrumSmoother
	normalizer *analysis.Normalizer
	extractor  *analysis.FrequencyExtractor

	extractorCfg analysis.ExtractorConfig

	// Renderer-facing transport; may be nil.
	transport transport.Transport

	// Pre-allocated hot-path buffers.
	left, right  []float64
	mono         []float64
	rawMag       []float64
	smoothedByte []float64

	// Input gate for skipping analysis of silent buffers.
	gateEnabled   bool
	gateThreshold float64 // peak amplitude, fraction of full scale

	// Latest published frame for pull-style publishers.
	frameMu sync.Mutex
	frame   transport.AnalysisFrame

	// Recording state (recording.go).
	recording recordingState
}

var _ transport.FrameProvider = (*Engine)(nil)
var _ bands.Source = (*Engine)(nil)

// NewEngine constructs the pipeline from the validated configuration. The
// input stream is not opened until StartInputStream or PlayFile.
func NewEngine(cfg *config.Config, t transport.Transport) (*Engine, error) {
	windowType, err := fft.ParseWindowFunc(cfg.Audio.FFTWindow)
	if err != nil {
		applog.Warnf("engine: %v, using Hann", err)
	}

	fftProc, err := fft.NewProcessor(cfg.Audio.FramesPerBuffer, cfg.Audio.SampleRate, windowType)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	bins := fftProc.GetFFTSize()/2 + 1

	graph, err := bands.NewGraph(cfg.Analysis.WindowSize, cfg.Audio.SampleRate, map[bands.Band]bands.FilterSpec{
		bands.Bass:  {Type: bands.FilterLowpass, Cutoff: cfg.Analysis.BassCutoff, Q: 1},
		bands.Mids:  {Type: bands.FilterBandpass, Cutoff: cfg.Analysis.MidsCenter, Q: 1},
		bands.Highs: {Type: bands.FilterHighpass, Cutoff: cfg.Analysis.HighsCutoff, Q: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if err := graph.SetSpectrumProvider(fftProc); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	smoother, err := analysis.NewSpectrumSmoother(bins, cfg.Analysis.TemporalFactor)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	normalizer, err := analysis.NewNormalizer(bins)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	normalizer.SetNoiseGateKnee(cfg.Analysis.NoiseGateKnee)
	normalizer.SetPinkBoost(cfg.Analysis.PinkBoost)

	extractor, err := analysis.NewFrequencyExtractor(cfg.Audio.FramesPerBuffer, cfg.Audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	method, err := analysis.ParseMethod(cfg.Analysis.Method)
	if err != nil {
		applog.Warnf("engine: %v, using band power", err)
	}

	e := &Engine{
		config:     cfg,
		graph:      graph,
		fftProc:    fftProc,
		smoother:   smoother,
		normalizer: normalizer,
		extractor:  extractor,
		extractorCfg: analysis.ExtractorConfig{
			Method:        method,
			BaseFrequency: cfg.Analysis.BaseFrequency,
			Multiplier:    cfg.Analysis.Multiplier,
			MinFreq:       cfg.Analysis.MinFreq,
			MaxFreq:       cfg.Analysis.MaxFreq,
			Smoothing:     cfg.Analysis.Smoothing,
		},
		transport:     t,
		left:          make([]float64, cfg.Audio.FramesPerBuffer),
		right:         make([]float64, cfg.Audio.FramesPerBuffer),
		mono:          make([]float64, cfg.Audio.FramesPerBuffer),
		rawMag:        make([]float64, bins),
		smoothedByte:  make([]float64, bins),
		gateEnabled:   cfg.Audio.GateThreshold > 0,
		gateThreshold: cfg.Audio.GateThreshold,
	}
	if cfg.Transport.IncludeSpectrum {
		e.frame.Spectrum = make([]float64, bins)
	}

	graph.Connect(e)
	return e, nil
}

// SampleRate implements bands.Source.
func (e *Engine) SampleRate() float64 {
	return e.config.Audio.SampleRate
}

// Graph exposes the band filter graph for live retuning.
func (e *Engine) Graph() *bands.Graph {
	return e.graph
}

// SetExtractorConfig swaps the extraction tuning; takes effect on the next
// processed buffer.
func (e *Engine) SetExtractorConfig(cfg analysis.ExtractorConfig) {
	e.frameMu.Lock()
	e.extractorCfg = cfg
	e.frameMu.Unlock()
}

// StartInputStream opens and starts the live PortAudio input stream. The
// stream callback is the start of the real-time hot path.
func (e *Engine) StartInputStream() error {
	device, err := InputDevice(e.config.Audio.InputDevice)
	if err != nil {
		return err
	}
	e.inputDevice = device

	if e.config.Audio.LowLatency {
		e.inputLatency = device.DefaultLowInputLatency
	} else {
		e.inputLatency = device.DefaultHighInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.Channels,
			Device:   device,
			Latency:  e.inputLatency,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		e.inputStream = nil
		return err
	}

	applog.Infof("engine: input stream started (%s, %.0f Hz, %d frames)",
		device.Name, e.config.Audio.SampleRate, e.config.Audio.FramesPerBuffer)
	return nil
}

// StopInputStream stops and closes the live input stream.
func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	return nil
}

// processInputStream is the PortAudio capture callback. Pre-allocated
// buffers only; no allocation on this path.
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.deinterleave(in)
	e.writeRecording(in)

	if e.gateEnabled && peakAmplitude(in) <= float32(e.gateThreshold) {
		return
	}
	e.processBlock()
}

// deinterleave splits the raw callback buffer into the stereo analysis
// buffers. Mono input duplicates into both channels.
func (e *Engine) deinterleave(in []float32) {
	frames := e.config.Audio.FramesPerBuffer
	channels := e.config.Audio.Channels
	for i := 0; i < frames; i++ {
		var l, r float64
		if channels == 1 {
			if i < len(in) {
				l = float64(in[i])
			}
			r = l
		} else {
			if i*channels < len(in) {
				l = float64(in[i*channels])
			}
			if i*channels+1 < len(in) {
				r = float64(in[i*channels+1])
			}
		}
		e.left[i] = l
		e.right[i] = r
	}
}

// processBlock runs one frame of the analysis pipeline over the current
// stereo buffers and refreshes the published frame.
func (e *Engine) processBlock() {
	// Band splitting works on the time domain; the FFT front end on the
	// mono mix of the same block.
	e.graph.Process(e.left, e.right)

	for i := range e.mono {
		e.mono[i] = (e.left[i] + e.right[i]) * 0.5
	}
	e.fftProc.Process(e.mono)

	if err := e.fftProc.GetMagnitudesInto(e.rawMag); err != nil {
		applog.Errorf("engine: magnitude fetch failed: %v", err)
		return
	}

	// Conditioning: the smoother stabilizes the spectrum the extractor
	// sees; the normalizer produces the renderer spectrum.
	smoothed := e.smoother.Update(e.rawMag)
	for i, v := range smoothed {
		e.smoothedByte[i] = v * analysis.MaxMagnitude
	}
	normalized := e.normalizer.Update(e.rawMag)

	e.frameMu.Lock()
	result := e.extractor.Analyze(e.smoothedByte, e.extractorCfg)

	e.frame.Seq++
	e.frame.FreqA = result.FreqA
	e.frame.FreqB = result.FreqB
	e.frame.Complexity = result.Complexity
	for i, band := range bands.Bands() {
		e.frame.BandEnergy[i] = e.graph.GetBandData(band).Energy
	}
	if e.frame.Spectrum != nil {
		copy(e.frame.Spectrum, normalized)
	}
	e.frameMu.Unlock()

	e.publish()
}

// publish hands a pooled copy of the latest frame to the engine's
// transport. The copy keeps the broadcast goroutine off the engine's
// buffers; the transport releases the frame after delivery or drop, so
// steady-state publishing reuses pooled frames instead of allocating.
func (e *Engine) publish() {
	if e.transport == nil {
		return
	}
	frame := transport.AcquireFrame()
	if err := e.SnapshotInto(frame); err != nil {
		transport.ReleaseFrame(frame)
		return
	}
	_ = e.transport.Send(frame)
}

// SnapshotInto implements transport.FrameProvider: it copies the most
// recent analysis frame into dst.
func (e *Engine) SnapshotInto(dst *transport.AnalysisFrame) error {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	spectrum := dst.Spectrum
	*dst = e.frame
	if e.frame.Spectrum != nil {
		if cap(spectrum) < len(e.frame.Spectrum) {
			spectrum = make([]float64, len(e.frame.Spectrum))
		}
		spectrum = spectrum[:len(e.frame.Spectrum)]
		copy(spectrum, e.frame.Spectrum)
	} else {
		spectrum = spectrum[:0]
	}
	dst.Spectrum = spectrum
	return nil
}

// Close stops recording and the input stream, and releases the pipeline.
func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		applog.Errorf("engine: error stopping recording: %v", err)
	}
	if err := e.StopInputStream(); err != nil {
		return err
	}
	e.graph.Dispose()
	e.smoother.Dispose()
	e.normalizer.Dispose()
	return nil
}

// peakAmplitude returns the largest absolute sample value in the buffer.
func peakAmplitude(in []float32) float32 {
	var peak float32
	for _, s := range in {
		a := float32(math.Abs(float64(s)))
		if a > peak {
			peak = a
		}
	}
	return peak
}
