// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
)

// recordingState holds the WAV capture of the raw input stream.
type recordingState struct {
	active     int32 // atomic flag; the capture callback reads it lock-free
	outputFile *os.File
	encoder    *wav.Encoder
	sampleBuf  *goaudio.IntBuffer
}

const recordingBitDepth = 16

// StartRecording begins writing the raw input stream to a WAV file.
func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.recording.active) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	channels := e.config.Audio.Channels
	e.recording.outputFile = file
	e.recording.encoder = wav.NewEncoder(file, int(e.config.Audio.SampleRate),
		recordingBitDepth, channels, 1)
	e.recording.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  int(e.config.Audio.SampleRate),
		},
		SourceBitDepth: recordingBitDepth,
		Data:           make([]int, e.config.Audio.FramesPerBuffer*channels),
	}

	atomic.StoreInt32(&e.recording.active, 1)
	return nil
}

// StopRecording finishes and closes the WAV file. Safe to call when not
// recording.
func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.recording.active) == 0 {
		return nil
	}
	atomic.StoreInt32(&e.recording.active, 0)

	if e.recording.encoder != nil {
		if err := e.recording.encoder.Close(); err != nil {
			return err
		}
		e.recording.encoder = nil
	}
	if e.recording.outputFile != nil {
		if err := e.recording.outputFile.Close(); err != nil {
			return err
		}
		e.recording.outputFile = nil
	}
	return nil
}

// writeRecording appends one raw callback buffer to the open WAV file.
// Called from the capture callback; does nothing when not recording.
func (e *Engine) writeRecording(in []float32) {
	if atomic.LoadInt32(&e.recording.active) == 0 || e.recording.encoder == nil {
		return
	}

	buf := e.recording.sampleBuf
	buf.Data = buf.Data[:cap(buf.Data)]
	n := len(in)
	if n > len(buf.Data) {
		n = len(buf.Data)
	}
	const fullScale = 1 << (recordingBitDepth - 1)
	for i := 0; i < n; i++ {
		s := float64(in[i]) * fullScale
		if s > fullScale-1 {
			s = fullScale - 1
		}
		if s < -fullScale {
			s = -fullScale
		}
		buf.Data[i] = int(math.Round(s))
	}
	buf.Data = buf.Data[:n]

	if err := e.recording.encoder.Write(buf); err != nil {
		// Stop recording on write failure but keep capturing audio.
		atomic.StoreInt32(&e.recording.active, 0)
		applog.Errorf("Recording write failed: %v", err)
	}
}
