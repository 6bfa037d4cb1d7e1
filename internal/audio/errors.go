package audio

import "errors"

// ErrNoAudioDevice indicates no audio input device was found or detected.
var ErrNoAudioDevice = errors.New("no audio input device found")

// ErrCaptureTimeout indicates no speech started within the listen timeout.
var ErrCaptureTimeout = errors.New("no speech detected before timeout")

// ErrCaptureFailed indicates the capture process failed or produced no file.
var ErrCaptureFailed = errors.New("audio capture failed")

// ErrPlayback indicates the audio player failed.
var ErrPlayback = errors.New("audio playback failed")
