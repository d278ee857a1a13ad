// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/config"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/transport"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/pkg/utils"
)

func newTestEngine(t *testing.T, mutate func(*config.Config)) (*Engine, *utils.MockTransport) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	mock := &utils.MockTransport{}
	e, err := NewEngine(cfg, mock)
	if err != nil {
		t.Fatal(err)
	}
	return e, mock
}

// interleavedSine builds one stereo capture buffer of a pure tone.
func interleavedSine(frames int, sampleRate, freq, amp float64) []float32 {
	buf := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		s := float32(math.Sin(2*math.Pi*freq*float64(i)/sampleRate) * amp)
		buf[i*2] = s
		buf[i*2+1] = s
	}
	return buf
}

func TestNewEngineWiresPipeline(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	if e.SampleRate() != config.DefaultSampleRate {
		t.Errorf("SampleRate = %g", e.SampleRate())
	}
	// The engine connects itself as the graph's source at construction.
	if e.Graph().ConnectedSource() != e {
		t.Error("engine not connected to its band graph")
	}
}

func TestProcessInputStreamPublishesFrames(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	in := interleavedSine(config.DefaultFramesPerBuffer, config.DefaultSampleRate, 440, 0.8)
	for i := 0; i < 4; i++ {
		e.processInputStream(in)
	}

	if mock.SendCount() != 4 {
		t.Fatalf("transport received %d frames, expected 4", mock.SendCount())
	}

	var frame transport.AnalysisFrame
	if err := e.SnapshotInto(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Seq != 4 {
		t.Errorf("Seq = %d, expected 4", frame.Seq)
	}
	if frame.FreqA < config.DefaultMinFreq || frame.FreqA > config.DefaultMaxFreq {
		t.Errorf("FreqA %g outside configured range", frame.FreqA)
	}
	// A 440 Hz tone puts energy in both the full and melody bands.
	if frame.BandEnergy[4] == 0 {
		t.Error("full band energy is zero for a live tone")
	}
}

func TestGateSkipsQuietBuffers(t *testing.T) {
	e, mock := newTestEngine(t, nil)
	e.SetGateThreshold(0.1)

	quiet := interleavedSine(config.DefaultFramesPerBuffer, config.DefaultSampleRate, 440, 0.01)
	e.processInputStream(quiet)
	if mock.SendCount() != 0 {
		t.Fatalf("gated buffer was analyzed (%d sends)", mock.SendCount())
	}

	loud := interleavedSine(config.DefaultFramesPerBuffer, config.DefaultSampleRate, 440, 0.5)
	e.processInputStream(loud)
	if mock.SendCount() != 1 {
		t.Fatalf("loud buffer not analyzed (%d sends)", mock.SendCount())
	}

	e.DisableGate()
	e.processInputStream(quiet)
	if mock.SendCount() != 2 {
		t.Fatal("disabled gate still skipped a buffer")
	}
}

func TestGateThresholdClamps(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.SetGateThreshold(-0.5)
	if e.GetGateThreshold() != 0 {
		t.Errorf("threshold = %g, expected clamp to 0", e.GetGateThreshold())
	}
	e.SetGateThreshold(1.5)
	if e.GetGateThreshold() != 1 {
		t.Errorf("threshold = %g, expected clamp to 1", e.GetGateThreshold())
	}
}

func TestSnapshotIncludesSpectrumWhenConfigured(t *testing.T) {
	e, _ := newTestEngine(t, func(c *config.Config) {
		c.Transport.IncludeSpectrum = true
	})

	in := interleavedSine(config.DefaultFramesPerBuffer, config.DefaultSampleRate, 440, 0.8)
	e.processInputStream(in)

	var frame transport.AnalysisFrame
	if err := e.SnapshotInto(&frame); err != nil {
		t.Fatal(err)
	}
	wantBins := config.DefaultFramesPerBuffer/2 + 1
	if len(frame.Spectrum) != wantBins {
		t.Fatalf("spectrum length %d, expected %d", len(frame.Spectrum), wantBins)
	}

	var total float64
	for _, v := range frame.Spectrum {
		total += v
	}
	if total == 0 {
		t.Error("spectrum all zero for a live tone")
	}

	// Reuse must not reallocate the destination buffer.
	before := &frame.Spectrum[0]
	if err := e.SnapshotInto(&frame); err != nil {
		t.Fatal(err)
	}
	if &frame.Spectrum[0] != before {
		t.Error("SnapshotInto reallocated the spectrum buffer")
	}
}

// releasingTransport returns pooled frames immediately, the way the real
// transports do once a frame is delivered or dropped.
type releasingTransport struct{}

func (releasingTransport) Send(data any) error {
	if f, ok := data.(*transport.AnalysisFrame); ok {
		transport.ReleaseFrame(f)
	}
	return nil
}

func (releasingTransport) Close() error { return nil }

func TestProcessInputStreamDoesNotAllocate(t *testing.T) {
	cfg := config.Default()
	cfg.Transport.IncludeSpectrum = true
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(cfg, releasingTransport{})
	if err != nil {
		t.Fatal(err)
	}

	in := interleavedSine(config.DefaultFramesPerBuffer, config.DefaultSampleRate, 440, 0.8)
	// Warm the frame pool and the snapshot spectrum buffer.
	e.processInputStream(in)

	allocs := testing.AllocsPerRun(50, func() {
		e.processInputStream(in)
	})
	// A GC during the run may refill the frame pool once; a full allocation
	// per run means the publish path itself allocates.
	if allocs >= 1 {
		t.Errorf("capture path allocated %v times per run, expected 0", allocs)
	}
}

func TestMonoCaptureDuplicatesChannels(t *testing.T) {
	e, mock := newTestEngine(t, func(c *config.Config) {
		c.Audio.Channels = 1
	})

	in := make([]float32, config.DefaultFramesPerBuffer)
	for i := range in {
		in[i] = float32(math.Sin(2*math.Pi*440*float64(i)/config.DefaultSampleRate) * 0.8)
	}
	e.processInputStream(in)

	if mock.SendCount() != 1 {
		t.Fatal("mono buffer not analyzed")
	}
	for i := range e.left {
		if e.left[i] != e.right[i] {
			t.Fatalf("sample %d: mono channels diverge (%g != %g)", i, e.left[i], e.right[i])
		}
	}
}

func TestRecordingRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	path := filepath.Join(t.TempDir(), "capture.wav")

	if err := e.StartRecording(path); err != nil {
		t.Fatal(err)
	}
	if err := e.StartRecording(path); err == nil {
		t.Error("second StartRecording should fail")
	}

	in := interleavedSine(config.DefaultFramesPerBuffer, config.DefaultSampleRate, 440, 0.5)
	for i := 0; i < 3; i++ {
		e.processInputStream(in)
	}
	if err := e.StopRecording(); err != nil {
		t.Fatal(err)
	}
	// Stopping again is a no-op.
	if err := e.StopRecording(); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		t.Fatal("recorded file is not a valid WAV")
	}
	if decoder.NumChans != 2 {
		t.Errorf("channels = %d, expected 2", decoder.NumChans)
	}
	if decoder.SampleRate != uint32(config.DefaultSampleRate) {
		t.Errorf("sample rate = %d", decoder.SampleRate)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	wantSamples := 3 * config.DefaultFramesPerBuffer * 2
	if len(buf.Data) != wantSamples {
		t.Errorf("recorded %d samples, expected %d", len(buf.Data), wantSamples)
	}
}

func TestPlayFileDrivesPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeToneWAV(t, path, 4*config.DefaultFramesPerBuffer)

	e, mock := newTestEngine(t, nil)
	if err := e.PlayFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}

	if mock.SendCount() != 4 {
		t.Errorf("published %d frames, expected 4", mock.SendCount())
	}
}

func TestPlayFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.bin")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}

	e, _ := newTestEngine(t, nil)
	if err := e.PlayFile(context.Background(), path); err == nil {
		t.Error("expected error for invalid WAV")
	}
	if err := e.PlayFile(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

// writeToneWAV writes a 16-bit stereo 440 Hz tone of the given frame count.
func writeToneWAV(t *testing.T, path string, frames int) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	enc := wav.NewEncoder(file, int(config.DefaultSampleRate), 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 2,
			SampleRate:  int(config.DefaultSampleRate),
		},
		SourceBitDepth: 16,
		Data:           make([]int, frames*2),
	}
	for i := 0; i < frames; i++ {
		s := int(math.Sin(2*math.Pi*440*float64(i)/config.DefaultSampleRate) * 0.5 * 32767)
		buf.Data[i*2] = s
		buf.Data[i*2+1] = s
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}
