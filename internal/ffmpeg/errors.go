package ffmpeg

import "errors"

// ErrNotFound indicates a required binary (ffmpeg or ffplay) is not installed.
var ErrNotFound = errors.New("binary not found")

// ErrTimeout is returned when ffmpeg does not exit within the graceful shutdown timeout.
var ErrTimeout = errors.New("ffmpeg did not exit within timeout")
