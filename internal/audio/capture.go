package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/alnah/poddy/internal/ffmpeg"
)

// Capture defaults.
const (
	// DefaultListenTimeout is how long to wait for speech to start.
	DefaultListenTimeout = 5 * time.Second

	// DefaultMaxPhrase caps the length of one utterance.
	DefaultMaxPhrase = 10 * time.Second

	// defaultNoiseDB is the silence threshold. -35dB keeps room tone silent
	// while picking up normal speech at desk distance.
	defaultNoiseDB = -35.0

	// defaultMinSilence is the pause that ends an utterance.
	defaultMinSilence = 800 * time.Millisecond

	// gracefulStopTimeout is the time ffmpeg gets to finalize the file.
	gracefulStopTimeout = 3 * time.Second

	// tickInterval is how often elapsed time is checked against limits.
	tickInterval = 50 * time.Millisecond

	// utteranceFormat is the container written by the capturer.
	utteranceFormat = "ogg"
)

// Utterance is one captured phrase.
type Utterance struct {
	Audio    []byte
	Format   string        // container, e.g. "ogg"
	Duration time.Duration // detected speech span
}

// IsEmpty reports whether the utterance carries no audio.
func (u Utterance) IsEmpty() bool { return len(u.Audio) == 0 }

// CaptureOptions bounds one capture.
type CaptureOptions struct {
	Timeout   time.Duration // wait for speech to start
	MaxPhrase time.Duration // maximum speech length
}

func (o CaptureOptions) withDefaults() CaptureOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultListenTimeout
	}
	if o.MaxPhrase <= 0 {
		o.MaxPhrase = DefaultMaxPhrase
	}
	return o
}

// Capturer records a single utterance from the microphone.
type Capturer interface {
	// Capture blocks until the user finishes one phrase. It returns
	// ErrCaptureTimeout if no speech starts within opts.Timeout.
	Capture(ctx context.Context, opts CaptureOptions) (Utterance, error)
}

var (
	_ Capturer     = (*FFmpegCapturer)(nil)
	_ DeviceLister = (*FFmpegCapturer)(nil)
)

// FFmpegCapturer captures speech with ffmpeg's silencedetect filter and
// encodes it as OGG Opus, 16kHz mono.
type FFmpegCapturer struct {
	ffmpegPath string
	device     *Device // nil means auto-detect on first capture
	noiseDB    float64
	minSilence time.Duration
	goos       string

	ffmpegRunner ffmpegRunner
	pactlRunner  pactlRunner
	start        processStarter
	tempDir      tempDirCreator
	files        fileStore
}

// CapturerOption configures an FFmpegCapturer.
type CapturerOption func(*FFmpegCapturer)

// WithDevice selects the input device by name. Empty means auto-detect.
func WithDevice(name string) CapturerOption {
	return func(c *FFmpegCapturer) {
		if name != "" {
			d := deviceFromName(c.goos, name)
			c.device = &d
		}
	}
}

// WithNoiseDB sets the silence detection threshold in dB.
func WithNoiseDB(db float64) CapturerOption {
	return func(c *FFmpegCapturer) { c.noiseDB = db }
}

// WithMinSilence sets the pause length that ends an utterance.
func WithMinSilence(d time.Duration) CapturerOption {
	return func(c *FFmpegCapturer) {
		if d > 0 {
			c.minSilence = d
		}
	}
}

// WithFFmpegRunner sets the one-shot runner used for device listing.
func WithFFmpegRunner(r ffmpegRunner) CapturerOption {
	return func(c *FFmpegCapturer) { c.ffmpegRunner = r }
}

// WithPactlRunner sets the pactl runner.
func WithPactlRunner(r pactlRunner) CapturerOption {
	return func(c *FFmpegCapturer) { c.pactlRunner = r }
}

// WithProcessStarter sets how capture processes are launched.
func WithProcessStarter(s processStarter) CapturerOption {
	return func(c *FFmpegCapturer) { c.start = s }
}

// WithTempDirCreator sets the temp directory creator.
func WithTempDirCreator(t tempDirCreator) CapturerOption {
	return func(c *FFmpegCapturer) { c.tempDir = t }
}

// WithFileStore sets the file reader/remover.
func WithFileStore(f fileStore) CapturerOption {
	return func(c *FFmpegCapturer) { c.files = f }
}

// withPlatform overrides the OS (for testing). Must precede WithDevice.
func withPlatform(goos string) CapturerOption {
	return func(c *FFmpegCapturer) { c.goos = goos }
}

// NewFFmpegCapturer creates a capturer. ffmpegPath must point to ffmpeg.
func NewFFmpegCapturer(ffmpegPath string, opts ...CapturerOption) (*FFmpegCapturer, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	c := &FFmpegCapturer{
		ffmpegPath:   ffmpegPath,
		noiseDB:      defaultNoiseDB,
		minSilence:   defaultMinSilence,
		goos:         runtime.GOOS,
		ffmpegRunner: defaultFFmpegRunner{},
		pactlRunner:  defaultPactlRunner{},
		start:        startFFmpeg,
		tempDir:      osTempDirCreator{},
		files:        osFileStore{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Capture records one utterance. The temp directory holding the encoded
// audio is removed before Capture returns.
func (c *FFmpegCapturer) Capture(ctx context.Context, opts CaptureOptions) (Utterance, error) {
	opts = opts.withDefaults()

	device, err := c.resolveDevice(ctx)
	if err != nil {
		return Utterance{}, err
	}

	dir, err := c.tempDir.MkdirTemp("", "poddy-capture-*")
	if err != nil {
		return Utterance{}, fmt.Errorf("%w: create temp directory: %v", ErrCaptureFailed, err)
	}
	defer func() { _ = c.files.RemoveAll(dir) }()

	output := filepath.Join(dir, "utterance."+utteranceFormat)
	proc, err := c.start(c.ffmpegPath, c.captureArgs(device, opts, output))
	if err != nil {
		return Utterance{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	det := newUtteranceDetector(c.minSilence, opts)
	watchErr := c.watch(ctx, proc, det)
	stopErr := proc.Stop(gracefulStopTimeout)

	if watchErr != nil {
		return Utterance{}, watchErr
	}
	if det.result == detectTimeout {
		return Utterance{}, ErrCaptureTimeout
	}
	if stopErr != nil {
		return Utterance{}, fmt.Errorf("%w: %v", ErrCaptureFailed, stopErr)
	}

	data, err := c.files.ReadFile(output)
	if err != nil {
		return Utterance{}, fmt.Errorf("%w: read %s: %v", ErrCaptureFailed, filepath.Base(output), err)
	}
	return Utterance{Audio: data, Format: utteranceFormat, Duration: det.speechDuration()}, nil
}

// watch feeds the detector until it decides, the stream ends, or ctx is done.
func (c *FFmpegCapturer) watch(ctx context.Context, proc captureProcess, det *utteranceDetector) error {
	began := time.Now()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	lines := proc.Lines()
	for det.result == detectPending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := proc.Wait(); err != nil && det.state != stateSpeaking {
					return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
				}
				det.finish(time.Since(began))
				return nil
			}
			det.observe(line)
		case <-ticker.C:
			det.tick(time.Since(began))
		}
	}
	return nil
}

// captureArgs builds the ffmpeg command line. The -t cap is a backstop in
// case the detector never fires.
func (c *FFmpegCapturer) captureArgs(d Device, opts CaptureOptions, output string) []string {
	limit := opts.Timeout + opts.MaxPhrase + 2*time.Second
	args := []string{
		"-hide_banner", "-nostats",
		"-loglevel", "info", // silencedetect reports at info level
		"-y",
		"-f", d.Format,
		"-i", d.inputArg(),
		"-t", strconv.FormatFloat(limit.Seconds(), 'f', 1, 64),
		"-af", silenceFilter(c.noiseDB, c.minSilence),
	}
	args = append(args, encodingArgs()...)
	return append(args, output)
}

func silenceFilter(noiseDB float64, minSilence time.Duration) string {
	return fmt.Sprintf("silencedetect=noise=%sdB:d=%s",
		strconv.FormatFloat(noiseDB, 'f', -1, 64),
		strconv.FormatFloat(minSilence.Seconds(), 'f', -1, 64))
}

// encodingArgs returns the OGG Opus settings used for every utterance.
// 16kHz mono at 50kbps is plenty for speech recognition.
func encodingArgs() []string {
	return []string{
		"-c:a", "libopus",
		"-ar", "16000",
		"-ac", "1",
		"-b:a", "50k",
	}
}

// resolveDevice returns the configured device, or detects and caches one.
func (c *FFmpegCapturer) resolveDevice(ctx context.Context) (Device, error) {
	if c.device != nil {
		return *c.device, nil
	}

	devices, err := c.ListDevices(ctx)
	if err != nil {
		return Device{}, &deviceError{
			wrapped: ErrNoAudioDevice,
			help:    "run 'poddy devices' to see available devices, use --device to pick one",
		}
	}
	if len(devices) == 0 {
		return Device{}, &deviceError{
			wrapped: ErrNoAudioDevice,
			help:    "no audio input devices detected, check that a microphone is connected and enabled",
		}
	}
	c.device = &devices[0]
	return devices[0], nil
}

// ListDevices returns input devices, best microphone candidates first.
// On Linux, PulseAudio sources are preferred over ALSA defaults.
func (c *FFmpegCapturer) ListDevices(ctx context.Context) ([]Device, error) {
	format := inputFormatFor(c.goos)

	if format == "alsa" {
		if out, err := c.pactlRunner.ListSources(ctx); err == nil {
			if devices := parsePulseDevices(out); len(devices) > 0 {
				return devices, nil
			}
		}
		return alsaDefaults(), nil
	}

	// -list_devices always exits non-zero; only an empty stderr is a failure.
	stderr, err := c.ffmpegRunner.RunOutput(ctx, c.ffmpegPath, listDevicesArgs(format))
	if err != nil && stderr == "" {
		return nil, err
	}

	if format == "avfoundation" {
		return parseAVFoundationDevices(stderr), nil
	}
	return parseDShowDevices(stderr), nil
}
