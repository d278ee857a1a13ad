// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/config"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/pkg/build"
)

// Options is the parsed command line: the merged configuration plus the
// one-off command to run instead of the engine (currently only "list").
type Options struct {
	Config  *config.Config
	Command string
}

// ParseArgs loads the YAML configuration and layers command line flags
// over it. Flags win only when explicitly set.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetInfo()
	options := &Options{}

	var (
		configPath string
		deviceID   int
		channels   int
		sampleRate float64
		frames     int
		lowLatency bool
		inputFile  string
		method     string
		record     bool
		outputFile string
		verbose    bool
		wsAddr     string
		udpTarget  string
		udpInt     time.Duration
		spectrum   bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Audio analysis engine for visual renderers",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("device") {
				cfg.Audio.InputDevice = deviceID
			}
			if flags.Changed("channels") {
				cfg.Audio.Channels = channels
			}
			if flags.Changed("sample-rate") {
				cfg.Audio.SampleRate = sampleRate
			}
			if flags.Changed("frames-per-buffer") {
				cfg.Audio.FramesPerBuffer = frames
			}
			if flags.Changed("low-latency") {
				cfg.Audio.LowLatency = lowLatency
			}
			if flags.Changed("file") {
				cfg.Audio.InputFile = inputFile
			}
			if flags.Changed("method") {
				cfg.Analysis.Method = method
			}
			if flags.Changed("record") {
				cfg.Recording.Enabled = record
			}
			if flags.Changed("output") {
				cfg.Recording.OutputFile = outputFile
			}
			if flags.Changed("verbose") {
				cfg.Debug = verbose
				cfg.LogLevel = "debug"
			}
			if flags.Changed("ws-addr") {
				cfg.Transport.WSAddr = wsAddr
				cfg.Transport.WSEnabled = true
			}
			if flags.Changed("udp-target") {
				cfg.Transport.UDPTarget = udpTarget
				cfg.Transport.UDPEnabled = true
			}
			if flags.Changed("udp-interval") {
				cfg.Transport.UDPSendInterval = udpInt
			}
			if flags.Changed("spectrum") {
				cfg.Transport.IncludeSpectrum = spectrum
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Recording.Enabled && cfg.Recording.OutputFile == "" {
				cfg.Recording.OutputFile = "recording-" +
					time.Now().UTC().Format("02-01-2006-150405") + ".wav"
			}

			options.Config = cfg
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	// Audio Device Configuration
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML configuration file. Default searches ./config.yaml")
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&frames, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per buffer and FFT size (power of 2)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "",
		"Analyze a WAV file instead of live capture")

	// Analysis Configuration
	rootCmd.PersistentFlags().StringVarP(&method, "method", "m", config.DefaultMethod,
		"Frequency extraction method: bandpower, dominant, centroid")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record the input stream to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "",
		"Recording file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Transport Configuration
	rootCmd.PersistentFlags().StringVar(&wsAddr, "ws-addr", config.DefaultWSAddr,
		"WebSocket listen address for renderer clients")
	rootCmd.PersistentFlags().StringVar(&udpTarget, "udp-target", config.DefaultUDPTarget,
		"UDP target address for binary frame packets")
	rootCmd.PersistentFlags().DurationVar(&udpInt, "udp-interval", 16*time.Millisecond,
		"Interval between UDP frame packets")
	rootCmd.PersistentFlags().BoolVar(&spectrum, "spectrum", false,
		"Include the normalized spectrum in published frames")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}
