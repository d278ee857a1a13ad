// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/cmd"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/audio"
	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/transport"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/transport/udp"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/pkg/build"
)

// main runs in three phases:
//
//  1. Startup (cold path): parse arguments, load configuration,
//     initialize PortAudio and handle one-off commands.
//  2. Concurrent (hot path): the capture callback drives the analysis
//     pipeline while transports publish frames to renderer clients.
//  3. Shutdown (cold path): stop recording, close transports and
//     release the engine.
func main() {
	info := build.GetInfo()

	// One OS thread for the capture callback, one for transports and I/O.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	options, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// One-off commands run without the engine.
	if options.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}
	if options.Config == nil {
		return
	}
	cfg := options.Config

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}
	applog.Infof("%s %s (%s, built %s)", info.Name, info.Version, info.Commit, info.Time)

	// Renderer-facing transport: WebSocket JSON frames, or a logging
	// stand-in when disabled.
	var t transport.Transport
	if cfg.Transport.WSEnabled {
		t = transport.NewWebSocketTransport(cfg.Transport.WSAddr)
	} else {
		t = transport.NewLoggingTransport()
	}

	engine, err := audio.NewEngine(cfg, t)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// Optional binary UDP side channel, paced by its own ticker.
	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTarget)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher, err = udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, engine)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher.Start()
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	if cfg.Recording.Enabled {
		if err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
			applog.Fatalf("%v", err)
		}
		applog.Infof("Recording to %s", cfg.Recording.OutputFile)
	}

	if cfg.Audio.InputFile != "" {
		// File mode: stream the WAV through the pipeline, then exit on
		// EOF or signal.
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-done
			cancel()
		}()
		if err := engine.PlayFile(ctx, cfg.Audio.InputFile); err != nil && err != context.Canceled {
			applog.Errorf("%v", err)
		}
	} else {
		// Live mode: the first StartInputStream call begins the hot path.
		if err := engine.StartInputStream(); err != nil {
			applog.Fatalf("%v", err)
		}
		applog.Infof("Analyzing. Ctrl+C to stop.")
		<-done
	}

	if cfg.Recording.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			applog.Infof("Recording saved to %s", cfg.Recording.OutputFile)
		}
	}
	if publisher != nil {
		if err := publisher.Stop(); err != nil {
			applog.Errorf("Error stopping UDP publisher: %v", err)
		}
	}
	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing engine: %v", err)
	}
	if err := t.Close(); err != nil {
		applog.Errorf("Error closing transport: %v", err)
	}
}
