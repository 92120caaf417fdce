package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"fftplot/cmd"
	"fftplot/internal/audio"
	"fftplot/internal/config"
	"fftplot/internal/display"
	"fftplot/internal/log"
	"fftplot/internal/scope"
	"fftplot/internal/spectrum"
	"fftplot/internal/transport"
	"fftplot/internal/transport/udp"
	"fftplot/internal/tui"
	"fftplot/pkg/bitint"
	"fftplot/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
)

// main is the entry point for the spectrum analyzer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load the configuration
//   - Execute one-off commands (list, analyze)
//   - Initialize PortAudio, the analyzer, the recorder and the sinks
//
// 2. Concurrent Phase (Hot Path):
//   - The input callback feeds the analyzer
//   - The scope loop drains frames into the sinks
//   - The TUI, or a signal wait when headless
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the input, then the scope loop and its sinks
//   - Finalise the recording
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("Build: %v, using development defaults", err)
	}

	// One thread for the audio callback, one for the consumer, UI and I/O.
	runtime.GOMAXPROCS(2)

	opts, err := cmd.ParseArgs()
	if err != nil {
		log.Fatal(err)
	}
	if opts.Command == "" {
		return
	}
	log.SetLevel(opts.Config.Level())

	switch opts.Command {
	case cmd.ListCommand:
		err = listDevices(os.Stdout)
	case cmd.AnalyzeCommand:
		err = analyzeFile(os.Stdout, opts.Config, opts.InputFile)
	default:
		err = run(opts)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func listDevices(w io.Writer) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices(w)
}

// analyzeFile prints one line per frame: sequence, time, dominant peak and
// the band levels.
func analyzeFile(w io.Writer, cfg *config.Config, path string) error {
	host, err := audio.LoadWAV(path)
	if err != nil {
		return err
	}
	analyzer, err := spectrum.NewAnalyzer(cfg.Spectrum())
	if err != nil {
		return err
	}

	axis := cfg.Axis(1, 1)
	fmt.Fprintf(w, "# %s: %d ch @ %.0f Hz, %s, fft %d (order %d) %s, smoothing %.0f ms\n",
		filepath.Base(path), host.Channels, host.SampleRate, host.Duration(),
		cfg.Analyzer.FFTSize, bitint.Log2(cfg.Analyzer.FFTSize), cfg.Analyzer.FFTWindow, cfg.Analyzer.SmoothingTimeMs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var writeErr error
	err = host.Analyze(ctx, analyzer, cfg.Audio.FramesPerBuffer, func(f *spectrum.Frame) {
		if writeErr != nil {
			return
		}
		_, freq, db, ok := display.Peak(f, axis.MinFrequency)
		if !ok {
			freq, db = 0, axis.MinDb
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%6d %8.3fs  peak %8.1f Hz %6.1f dB ", f.Window, f.Elapsed().Seconds(), freq, display.ClampDb(db, axis.MinDb, axis.MaxDb))
		for _, b := range axis.Bands(f) {
			fmt.Fprintf(&sb, " %s %6.1f", b.Name, b.Db)
		}
		sb.WriteString("\n")
		_, writeErr = io.WriteString(w, sb.String())
	})
	return errors.Join(err, writeErr)
}

// input is the live source: a device stream or a WAV file played in real time.
type input struct {
	mu       sync.Mutex
	cfg      *config.Config
	analyzer *spectrum.Analyzer
	recorder *audio.Recorder
	engine   *audio.Engine
	file     *audio.FileHost
	cancel   context.CancelFunc
	done     chan struct{} // closed when file playback ends
	playErr  error
}

func (in *input) start(ctx context.Context) error {
	if in.file != nil {
		ctx, in.cancel = context.WithCancel(ctx)
		in.done = make(chan struct{})
		go func() {
			defer close(in.done)
			in.playErr = in.file.Play(ctx, in.analyzer, in.cfg.Audio.FramesPerBuffer, in.recorder)
		}()
		log.Infof("Input: Playing %s (%s)", in.file.Path, in.file.Duration())
		return nil
	}

	engine, err := audio.NewEngine(in.cfg, in.analyzer, in.recorder)
	if err != nil {
		return err
	}
	if err := engine.StartInputStream(); err != nil {
		return err
	}
	in.engine = engine
	return nil
}

// switchDevice reopens the stream on another device. A running recording
// keeps its file, so the sample rate cannot change under it.
func (in *input) switchDevice(id int, sampleRate float64) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.engine == nil {
		return errors.New("switching input is not available")
	}
	if in.recorder != nil && sampleRate != in.engine.SampleRate() {
		return fmt.Errorf("cannot change the sample rate to %.0f Hz while recording", sampleRate)
	}

	next := *in.cfg
	next.Audio.InputDevice = id
	next.Audio.SampleRate = sampleRate

	engine, err := audio.NewEngine(&next, in.analyzer, in.recorder)
	if err != nil {
		return err
	}
	if err := in.engine.StopInputStream(); err != nil {
		return err
	}
	if err := engine.StartInputStream(); err != nil {
		// Fall back to the device that was running.
		if restartErr := in.engine.StartInputStream(); restartErr != nil {
			return errors.Join(err, restartErr)
		}
		return err
	}

	in.engine = engine
	in.cfg = &next
	log.Infof("Input: Switched to %s at %.0f Hz", engine.Device(), engine.SampleRate())
	return nil
}

func (in *input) stop() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	var errs []error
	if in.engine != nil {
		errs = append(errs, in.engine.StopInputStream())
	}
	if in.cancel != nil {
		in.cancel()
		<-in.done
		if !errors.Is(in.playErr, context.Canceled) {
			errs = append(errs, in.playErr)
		}
	}
	if in.recorder != nil {
		errs = append(errs, in.recorder.Close())
		log.Infof("Recorder: Saved %d frames to %s (%d dropped)", in.recorder.Frames(), in.recorder.Path(), in.recorder.Dropped())
	}
	return errors.Join(errs...)
}

func run(opts *cmd.Options) error {
	cfg := opts.Config
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := spectrum.NewAnalyzer(cfg.Spectrum())
	if err != nil {
		return err
	}

	in := &input{cfg: cfg, analyzer: analyzer}
	sampleRate, channels := cfg.Audio.SampleRate, cfg.Audio.InputChannels
	if opts.InputFile != "" {
		if in.file, err = audio.LoadWAV(opts.InputFile); err != nil {
			return err
		}
		sampleRate, channels = in.file.SampleRate, in.file.Channels
	} else {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
	}

	if cfg.Recording.Enabled {
		path := audio.RecordingPath(cfg.Recording.OutputDir, cfg.Recording.OutputFile)
		in.recorder, err = audio.NewRecorder(path, int(sampleRate), channels, cfg.Recording.BitDepth,
			cfg.Audio.FramesPerBuffer*channels)
		if err != nil {
			return err
		}
	}

	sinks, program, logFile, err := newSinks(ctx, cfg, analyzer, in)
	if err != nil {
		in.stop()
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	loop, err := scope.New(cfg.RefreshInterval(), analyzer, sinks...)
	if err != nil {
		in.stop()
		return err
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	// CRITICAL: Start of real-time audio processing
	if err := in.start(ctx); err != nil {
		loop.Close()
		in.stop()
		return err
	}
	loop.Start()

	if program != nil {
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Errorf("TUI: %v", err)
		}
	} else {
		fmt.Printf("%s running headless on %s. Press Ctrl+C to stop.\n", build.GetBuildFlags().Name, in.sourceName(cfg))
		// in.done is nil for devices and blocks until the signal.
		select {
		case <-ctx.Done():
		case <-in.done:
			log.Infof("Input: Finished %s", in.file.Path)
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	inErr := in.stop()
	loopErr := loop.Close()
	if in.recorder != nil {
		fmt.Printf("\nRecording saved to: %s\n", in.recorder.Path())
	}
	return errors.Join(inErr, loopErr)
}

// newSinks builds the frame consumers the configuration asks for. In TUI
// mode the log moves to a file so it does not tear the screen.
func newSinks(ctx context.Context, cfg *config.Config, analyzer *spectrum.Analyzer, in *input) ([]transport.Sink, *tea.Program, *os.File, error) {
	var (
		sinks   []transport.Sink
		program *tea.Program
		logFile *os.File
	)
	fail := func(err error) ([]transport.Sink, *tea.Program, *os.File, error) {
		for _, s := range sinks {
			s.Close()
		}
		if logFile != nil {
			logFile.Close()
		}
		return nil, nil, nil, err
	}

	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketSink(cfg.Transport.WebSocketAddress,
			cfg.Axis(1, 1), cfg.Display.ShowHold, cfg.RefreshInterval())
		ws.Start()
		sinks = append(sinks, ws)
	}

	if cfg.Transport.UDPEnabled {
		pub, err := udp.NewPublisher(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, pub)
	}

	if cfg.Display.Headless {
		sinks = append(sinks, transport.NewLoggingSink(cfg.Transport.LogEvery, cfg.Display.MinFrequency))
		return sinks, nil, nil, nil
	}

	f, err := tea.LogToFile(filepath.Join(os.TempDir(), build.GetBuildFlags().Name+".log"), "")
	if err != nil {
		return fail(fmt.Errorf("failed to open log file: %w", err))
	}
	logFile = f
	log.SetOutput(f)

	var selectDevice func(int, float64) error
	if in.file == nil {
		selectDevice = in.switchDevice
	}
	model := tui.NewModel(tui.Options{
		Axis:         cfg.Axis(1, 1),
		ShowHold:     cfg.Display.ShowHold,
		Source:       in.sourceName(cfg),
		Controller:   analyzer,
		ListDevices:  audio.HostDevices,
		SelectDevice: selectDevice,
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	sinks = append(sinks, tui.NewSink(program))
	return sinks, program, logFile, nil
}

func (in *input) sourceName(cfg *config.Config) string {
	if in.file != nil {
		return filepath.Base(in.file.Path)
	}
	if cfg.Audio.InputDevice < 0 {
		return "default input"
	}
	return fmt.Sprintf("device %d", cfg.Audio.InputDevice)
}
