// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from YAML with
// environment overrides applied on top.
type Config struct {
	Debug    bool   `yaml:"debug"`     // verbose diagnostics
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"

	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds capture and FFT front-end settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index, -1 for default
	SampleRate      float64 `yaml:"sample_rate"`       // Hz (44100 or 48000)
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // also the FFT size; power of 2
	Channels        int     `yaml:"channels"`          // 1 mono, 2 stereo
	LowLatency      bool    `yaml:"low_latency"`       // request low-latency stream settings
	FFTWindow       string  `yaml:"fft_window"`        // window function name, e.g. "hann"
	GateThreshold   float64 `yaml:"gate_threshold"`    // skip analysis below this input level (0-1)
	InputFile       string  `yaml:"input_file"`        // WAV file source; empty means live capture
}

// AnalysisConfig holds the signal-conditioning and extraction tuning.
type AnalysisConfig struct {
	WindowSize int `yaml:"window_size"` // per-band analysis window, samples

	Method        string  `yaml:"method"` // "bandpower", "dominant", "centroid"
	BaseFrequency float64 `yaml:"base_frequency"`
	Multiplier    float64 `yaml:"multiplier"`
	MinFreq       float64 `yaml:"min_freq"`
	MaxFreq       float64 `yaml:"max_freq"`
	Smoothing     float64 `yaml:"smoothing"`

	TemporalFactor float64 `yaml:"temporal_factor"`
	NoiseGateKnee  float64 `yaml:"noise_gate_knee"`
	PinkBoost      float64 `yaml:"pink_boost"`

	BassCutoff  float64 `yaml:"bass_cutoff"`
	MidsCenter  float64 `yaml:"mids_center"`
	HighsCutoff float64 `yaml:"highs_cutoff"`
}

// RecordingConfig holds input-capture recording settings.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // empty generates a timestamped name
}

// TransportConfig holds renderer-facing publishing settings.
type TransportConfig struct {
	WSEnabled       bool          `yaml:"ws_enabled"`
	WSAddr          string        `yaml:"ws_addr"`
	UDPEnabled      bool          `yaml:"udp_enabled"`
	UDPTarget       string        `yaml:"udp_target_address"`
	UDPSendInterval time.Duration `yaml:"udp_send_interval"`
	IncludeSpectrum bool          `yaml:"include_spectrum"` // attach the smoothed spectrum to frames
}

// Default returns the built-in configuration.
func Default() *Config {
	interval, _ := time.ParseDuration(DefaultUDPSendInterval)
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Channels:        DefaultChannels,
			LowLatency:      DefaultLowLatency,
			FFTWindow:       DefaultFFTWindow,
			GateThreshold:   DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			WindowSize:     DefaultAnalysisWindow,
			Method:         DefaultMethod,
			BaseFrequency:  DefaultBaseFrequency,
			Multiplier:     DefaultMultiplier,
			MinFreq:        DefaultMinFreq,
			MaxFreq:        DefaultMaxFreq,
			Smoothing:      DefaultSmoothing,
			TemporalFactor: DefaultTemporalFactor,
			NoiseGateKnee:  DefaultNoiseGateKnee,
			PinkBoost:      DefaultPinkBoost,
			BassCutoff:     DefaultBassCutoff,
			MidsCenter:     DefaultMidsCenter,
			HighsCutoff:    DefaultHighsCutoff,
		},
		Recording: RecordingConfig{
			Enabled: false,
		},
		Transport: TransportConfig{
			WSEnabled:       true,
			WSAddr:          DefaultWSAddr,
			UDPEnabled:      false,
			UDPTarget:       DefaultUDPTarget,
			UDPSendInterval: interval,
		},
	}
}

// Load reads configuration from the YAML file at path. An empty path
// searches "config.yaml" in the working directory and falls back to the
// built-in defaults when no file exists. Environment overrides apply after
// the file, and the final configuration is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot construct from. These
// are caller bugs, not runtime signal conditions, so they fail fast.
func (c *Config) Validate() error {
	a := &c.Audio
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%.0f, %.0f]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames || a.FramesPerBuffer&(a.FramesPerBuffer-1) != 0 {
		return fmt.Errorf("audio.frames_per_buffer must be a power of 2 up to %d, got %d", MaxBufferFrames, a.FramesPerBuffer)
	}
	if a.Channels != 1 && a.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", a.Channels)
	}

	an := &c.Analysis
	if an.WindowSize <= 0 {
		return fmt.Errorf("analysis.window_size must be positive, got %d", an.WindowSize)
	}
	if an.MinFreq > an.MaxFreq {
		return fmt.Errorf("analysis.min_freq %.2f exceeds max_freq %.2f", an.MinFreq, an.MaxFreq)
	}
	if an.Smoothing <= 0 || an.Smoothing >= 1 {
		return fmt.Errorf("analysis.smoothing must be in (0, 1), got %g", an.Smoothing)
	}

	if c.Transport.UDPEnabled && c.Transport.UDPSendInterval <= 0 {
		return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
	}
	return nil
}

// applyEnvOverrides layers VIZ_* environment variables over the loaded
// configuration. Only the knobs that matter for headless deployments are
// exposed this way.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("VIZ_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("VIZ_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("VIZ_WS_ADDR"); ok {
		c.Transport.WSAddr = val
		c.Transport.WSEnabled = true
	}
	if val, ok := os.LookupEnv("VIZ_UDP_TARGET"); ok {
		c.Transport.UDPTarget = val
		c.Transport.UDPEnabled = true
	}
	if val, ok := os.LookupEnv("VIZ_UDP_SEND_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = d
		}
	}
}
