// Package cmd parses the command line into a validated configuration.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"fftplot/internal/config"
	"fftplot/pkg/bitint"
	"fftplot/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected by the command line. An empty command means cobra
// already handled the invocation (help, version) and there is nothing to run.
const (
	RunCommand     = "run"
	ListCommand    = "list"
	AnalyzeCommand = "analyze"
)

// Options is the parsed command line.
type Options struct {
	Command   string
	Config    *config.Config
	InputFile string // WAV played instead of a device, or analyzed offline
	Verbose   bool
}

// flagValues holds the raw flag values. They only override the loaded
// configuration when set on the command line.
type flagValues struct {
	configPath      string
	device          int
	sampleRate      float64
	framesPerBuffer int
	channels        int
	lowLatency      bool
	fftSize         int
	fftOrder        int
	window          string
	smoothing       float64
	mode            string
	record          bool
	output          string
	headless        bool
	logLevel        string
	verbose         bool
	input           string
}

// ParseArgs parses os.Args.
func ParseArgs() (*Options, error) {
	return Parse(os.Args[1:])
}

// Parse parses args, loads the configuration file and applies the flags
// that were set on top of it.
func Parse(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = RunCommand
			options.InputFile = fv.input
			return nil
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = ListCommand
		},
	}
	rootCmd.AddCommand(listCmd)

	// Analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Analyze a WAV file and print the dominant frequency and band levels per frame",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = AnalyzeCommand
			options.InputFile = args[0]
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	defaults := config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&fv.configPath, "config", "",
		"Path to a YAML configuration file (default ./config.yaml when present)")

	// Audio Device Configuration
	flags.IntVarP(&fv.device, "device", "d", defaults.Audio.InputDevice,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.IntVarP(&fv.channels, "channels", "c", defaults.Audio.InputChannels,
		"Number of input channels (1=mono, 2=stereo)")
	flags.Float64VarP(&fv.sampleRate, "sample-rate", "s", defaults.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", defaults.Audio.FramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	flags.BoolVarP(&fv.lowLatency, "low-latency", "l", defaults.Audio.LowLatency,
		"Use low latency mode for real-time processing")
	flags.StringVarP(&fv.input, "input", "i", "",
		"Play a WAV file through the analyzer instead of capturing a device")

	// Analyzer Configuration
	flags.IntVar(&fv.fftSize, "fft-size", defaults.Analyzer.FFTSize,
		"FFT size, a power of 2")
	flags.IntVar(&fv.fftOrder, "fft-order", bitint.Log2(defaults.Analyzer.FFTSize),
		"FFT order, the window is 2^order samples (replaces --fft-size)")
	flags.StringVar(&fv.window, "window", defaults.Analyzer.FFTWindow,
		"FFT window: hann, hamming, blackman, blackmannuttall, bartletthann, nuttall, lanczos")
	flags.Float64Var(&fv.smoothing, "smoothing", defaults.Analyzer.SmoothingTimeMs,
		"Smoothing time in milliseconds (0-500)")
	flags.StringVar(&fv.mode, "mode", defaults.Display.Mode,
		"Frequency axis: log, bins, skewed")

	// Recording Configuration
	flags.BoolVarP(&fv.record, "record", "r", defaults.Recording.Enabled,
		"Record the analyzed input to WAV")
	flags.StringVarP(&fv.output, "output", "o", defaults.Recording.OutputFile,
		"Output file name. Default is recordings/fftplot-YYYYMMDD-HHMMSS.wav")

	// Output Configuration
	flags.BoolVar(&fv.headless, "headless", defaults.Display.Headless,
		"Run without the terminal UI, logging the spectrum instead")

	// Debug Configuration
	flags.StringVar(&fv.logLevel, "log-level", defaults.LogLevel,
		"Log level: debug, info, warn, error")
	flags.BoolVarP(&fv.verbose, "verbose", "v", false,
		"Show verbose output (debug logging)")

	// cobra falls back to os.Args on nil.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if options.Command == "" {
		return options, nil
	}

	cfg, err := config.LoadConfig(fv.configPath)
	if err != nil {
		return nil, err
	}
	fv.apply(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	if flags.Changed("fft-size") && flags.Changed("fft-order") {
		return nil, errors.New("--fft-size and --fft-order are mutually exclusive")
	}
	if options.Command == RunCommand && options.InputFile != "" && flags.Changed("device") {
		return nil, errors.New("--input and --device are mutually exclusive")
	}

	options.Config = cfg
	options.Verbose = fv.verbose
	return options, nil
}

// apply copies every flag set on the command line into cfg.
func (fv *flagValues) apply(cfg *config.Config, flags *pflag.FlagSet) {
	set := flags.Changed
	if set("device") {
		cfg.Audio.InputDevice = fv.device
	}
	if set("channels") {
		cfg.Audio.InputChannels = fv.channels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = fv.framesPerBuffer
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = fv.lowLatency
	}
	if set("fft-size") {
		cfg.Analyzer.FFTSize = fv.fftSize
		cfg.Analyzer.FFTOrder = 0
	}
	if set("fft-order") {
		cfg.Analyzer.FFTOrder = fv.fftOrder
		cfg.Analyzer.FFTSize = bitint.FromOrder(fv.fftOrder)
	}
	if set("window") {
		cfg.Analyzer.FFTWindow = fv.window
	}
	if set("smoothing") {
		cfg.Analyzer.SmoothingTimeMs = fv.smoothing
	}
	if set("mode") {
		cfg.Display.Mode = fv.mode
	}
	if set("record") {
		cfg.Recording.Enabled = fv.record
	}
	if set("output") {
		cfg.Recording.OutputFile = fv.output
	}
	if set("headless") {
		cfg.Display.Headless = fv.headless
	}
	if set("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if fv.verbose {
		cfg.Debug = true
	}
}
