// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
)

// PlayFile streams a WAV file through the analysis pipeline at real-time
// pace, one FramesPerBuffer block at a time. It returns when the file is
// exhausted or the context is cancelled.
func (e *Engine) PlayFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return fmt.Errorf("not a valid WAV file: %s", path)
	}

	channels := int(decoder.NumChans)
	fileRate := float64(decoder.SampleRate)
	if fileRate != e.config.Audio.SampleRate {
		applog.Warnf("file: sample rate %.0f Hz differs from configured %.0f Hz, analysis frequencies will be off",
			fileRate, e.config.Audio.SampleRate)
	}

	frames := e.config.Audio.FramesPerBuffer
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  int(fileRate),
		},
		Data: make([]int, frames*channels),
	}
	fullScale := float64(int(1) << (decoder.BitDepth - 1))
	blockDur := time.Duration(float64(frames) / fileRate * float64(time.Second))

	applog.Infof("file: playing %s (%.0f Hz, %d ch, %d-bit)",
		path, fileRate, channels, decoder.BitDepth)

	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()

	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return fmt.Errorf("failed to read PCM data: %w", err)
		}
		if n == 0 {
			applog.Infof("file: playback finished")
			return nil
		}

		nFrames := n / channels
		for i := 0; i < frames; i++ {
			var l, r float64
			if i < nFrames {
				l = float64(buf.Data[i*channels]) / fullScale
				if channels > 1 {
					r = float64(buf.Data[i*channels+1]) / fullScale
				} else {
					r = l
				}
			}
			e.left[i] = l
			e.right[i] = r
		}
		e.processBlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
