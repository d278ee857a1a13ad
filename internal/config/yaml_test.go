// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}

	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %g, expected %g", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames = %d, expected %d", cfg.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	}
	if cfg.Analysis.Method != DefaultMethod {
		t.Errorf("method = %q, expected %q", cfg.Analysis.Method, DefaultMethod)
	}
	if cfg.Analysis.BassCutoff != DefaultBassCutoff {
		t.Errorf("bass cutoff = %g, expected %g", cfg.Analysis.BassCutoff, DefaultBassCutoff)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEmptyPathFallsBackToDefaults(t *testing.T) {
	// Run from a directory with no config.yaml.
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatal(err)
		}
	})

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("expected defaults, got sample rate %g", cfg.Audio.SampleRate)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
audio:
  sample_rate: 48000
  frames_per_buffer: 2048
  channels: 1
analysis:
  method: dominant
  base_frequency: 4.5
transport:
  ws_enabled: true
  ws_addr: ":9999"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.FramesPerBuffer != 2048 || cfg.Audio.Channels != 1 {
		t.Errorf("audio not overridden: %+v", cfg.Audio)
	}
	if cfg.Analysis.Method != "dominant" || cfg.Analysis.BaseFrequency != 4.5 {
		t.Errorf("analysis not overridden: %+v", cfg.Analysis)
	}
	if cfg.Transport.WSAddr != ":9999" {
		t.Errorf("ws addr = %q", cfg.Transport.WSAddr)
	}
	// Untouched keys keep their defaults.
	if cfg.Analysis.Multiplier != DefaultMultiplier {
		t.Errorf("multiplier = %g, expected default %g", cfg.Analysis.Multiplier, DefaultMultiplier)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "audio: [not: a map\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 2000 }, true},
		{"sample rate too high", func(c *Config) { c.Audio.SampleRate = 500000 }, true},
		{"frames not power of two", func(c *Config) { c.Audio.FramesPerBuffer = 1000 }, true},
		{"frames too large", func(c *Config) { c.Audio.FramesPerBuffer = 16384 }, true},
		{"three channels", func(c *Config) { c.Audio.Channels = 3 }, true},
		{"zero window", func(c *Config) { c.Analysis.WindowSize = 0 }, true},
		{"inverted freq range", func(c *Config) { c.Analysis.MinFreq = 30; c.Analysis.MaxFreq = 5 }, true},
		{"smoothing too high", func(c *Config) { c.Analysis.Smoothing = 1.5 }, true},
		{"udp without interval", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPSendInterval = 0
		}, true},
		{"mono 48k", func(c *Config) { c.Audio.Channels = 1; c.Audio.SampleRate = 48000 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "log_level: info\n")

	t.Setenv("VIZ_LOG_LEVEL", "error")
	t.Setenv("VIZ_DEBUG", "true")
	t.Setenv("VIZ_WS_ADDR", ":7070")
	t.Setenv("VIZ_UDP_TARGET", "10.0.0.5:9090")
	t.Setenv("VIZ_UDP_SEND_INTERVAL", "33ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "error" || !cfg.Debug {
		t.Errorf("env log settings not applied: level=%q debug=%v", cfg.LogLevel, cfg.Debug)
	}
	if cfg.Transport.WSAddr != ":7070" || !cfg.Transport.WSEnabled {
		t.Errorf("env ws settings not applied: %+v", cfg.Transport)
	}
	if cfg.Transport.UDPTarget != "10.0.0.5:9090" || !cfg.Transport.UDPEnabled {
		t.Errorf("env udp target not applied: %+v", cfg.Transport)
	}
	if cfg.Transport.UDPSendInterval != 33*time.Millisecond {
		t.Errorf("env udp interval = %v", cfg.Transport.UDPSendInterval)
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	path := writeTempConfig(t, "debug: false\n")

	t.Setenv("VIZ_DEBUG", "not-a-bool")
	t.Setenv("VIZ_UDP_SEND_INTERVAL", "not-a-duration")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debug {
		t.Error("garbage VIZ_DEBUG should be ignored")
	}
	interval, _ := time.ParseDuration(DefaultUDPSendInterval)
	if cfg.Transport.UDPSendInterval != interval {
		t.Errorf("garbage interval should keep default, got %v", cfg.Transport.UDPSendInterval)
	}
}
