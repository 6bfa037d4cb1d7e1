package audio

import "time"

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

var (
	InputFormatFor           = inputFormatFor
	DeviceFromName           = deviceFromName
	ListDevicesArgs          = listDevicesArgs
	EncodingArgs             = encodingArgs
	SilenceFilter            = silenceFilter
	IsVirtualAudioDevice     = isVirtualAudioDevice
	IsMicrophoneDevice       = isMicrophoneDevice
	ParseAVFoundationDevices = parseAVFoundationDevices
	ParseDShowDevices        = parseDShowDevices
	ParsePulseDevices        = parsePulseDevices
	WithPlatform             = withPlatform
)

// InputArg exports Device.inputArg for testing.
func InputArg(d Device) string { return d.inputArg() }

// --- Dependency injection exports ---

type (
	FFmpegRunner   = ffmpegRunner
	PactlRunner    = pactlRunner
	CaptureProcess = captureProcess
	TempDirCreator = tempDirCreator
	FileStore      = fileStore
)

// WithStarter adapts a test starter to the unexported processStarter type.
func WithStarter(fn func(path string, args []string) (CaptureProcess, error)) CapturerOption {
	return WithProcessStarter(fn)
}

// --- Detector harness ---

// DetectorStep is either an ffmpeg stderr line or a clock tick.
type DetectorStep struct {
	Line string
	Tick time.Duration // elapsed time; used when Line is empty
}

// Detector results as strings for readable test tables.
const (
	ResultPending   = "pending"
	ResultUtterance = "utterance"
	ResultTimeout   = "timeout"
)

// RunDetector feeds steps to a fresh detector. finishAt > 0 simulates the
// stream ending at that elapsed time.
func RunDetector(minSilence time.Duration, opts CaptureOptions, steps []DetectorStep, finishAt time.Duration) (string, time.Duration) {
	d := newUtteranceDetector(minSilence, opts)
	for _, s := range steps {
		if s.Line != "" {
			d.observe(s.Line)
		} else {
			d.tick(s.Tick)
		}
	}
	if finishAt > 0 {
		d.finish(finishAt)
	}

	switch d.result {
	case detectUtterance:
		return ResultUtterance, d.speechDuration()
	case detectTimeout:
		return ResultTimeout, 0
	default:
		return ResultPending, 0
	}
}
