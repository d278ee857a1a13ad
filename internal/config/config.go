// SPDX-License-Identifier: MIT
// Package config holds the runtime configuration of the analysis engine:
// compile-time defaults and limits here, the YAML-backed Config in yaml.go.
package config

// Engine defaults and hardware limits.
const (
	DefaultDeviceID        = MinDeviceID // system default input device
	DefaultChannels        = 2           // stereo capture
	DefaultSampleRate      = 44100.0     // CD-quality audio
	DefaultFramesPerBuffer = 1024        // FFT size; balanced latency/resolution
	DefaultLowLatency      = false
	DefaultFFTWindow       = "hann"
	DefaultGateThreshold   = 0.001 // input gate, fraction of full scale

	MinDeviceID     = -1     // -1 selects the system default device
	MinSampleRate   = 8000.0 // below this, analysis bands collapse
	MaxSampleRate   = 192000.0
	MaxBufferFrames = 8192 // power of 2 cap on frames per buffer
)

// Analysis defaults. The numeric values are carried over from the original
// visual tuning; see the component docs in internal/analysis.
const (
	DefaultAnalysisWindow = 2048 // per-band, per-channel samples

	DefaultMethod        = "bandpower"
	DefaultBaseFrequency = 3.0
	DefaultMultiplier    = 5.0
	DefaultMinFreq       = 0.5
	DefaultMaxFreq       = 20.0
	DefaultSmoothing     = 0.3

	DefaultTemporalFactor = 0.3  // spectrum smoother blend
	DefaultNoiseGateKnee  = 0.15 // normalizer soft gate knee
	DefaultPinkBoost      = 2.0  // normalizer high-bin compensation

	DefaultBassCutoff  = 250.0  // Hz, lowpass
	DefaultMidsCenter  = 2125.0 // Hz, bandpass
	DefaultHighsCutoff = 4000.0 // Hz, highpass
)

// Transport defaults.
const (
	DefaultWSAddr          = ":8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPSendInterval = "16ms" // ~60 Hz
)
