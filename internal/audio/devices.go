package audio

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Device is an audio input that ffmpeg can open.
type Device struct {
	ID     string // identifier passed to ffmpeg, e.g. ":1", "hw:0", a PulseAudio source
	Name   string // human-readable label, may be empty
	Format string // ffmpeg input format: avfoundation, dshow, alsa, pulse
}

// String renders the device for listings: "ID\tName", or just ID.
func (d Device) String() string {
	if d.Name == "" || d.Name == d.ID {
		return d.ID
	}
	return d.ID + "\t" + d.Name
}

// inputArg formats the device for ffmpeg's -i argument.
func (d Device) inputArg() string {
	switch d.Format {
	case "avfoundation":
		// Audio-only input uses ":index" or ":name".
		if strings.HasPrefix(d.ID, ":") {
			return d.ID
		}
		return ":" + d.ID
	case "dshow":
		if strings.HasPrefix(d.ID, "audio=") {
			return d.ID
		}
		return "audio=" + d.ID
	default:
		return d.ID
	}
}

// DeviceLister lists available audio input devices.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]Device, error)
}

// deviceError wraps an error with actionable help text.
type deviceError struct {
	wrapped error
	help    string
}

func (e *deviceError) Error() string {
	return fmt.Sprintf("%v: %s", e.wrapped, e.help)
}

func (e *deviceError) Unwrap() error {
	return e.wrapped
}

// inputFormatFor returns the ffmpeg input format for an OS.
func inputFormatFor(goos string) string {
	switch goos {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "alsa"
	}
}

// deviceFromName builds a Device from a user-supplied name.
// On Linux, ALSA names (default, hw:N, plughw:N) use alsa; anything else is
// taken to be a PulseAudio source as printed by `poddy devices`.
func deviceFromName(goos, name string) Device {
	format := inputFormatFor(goos)
	if format == "alsa" && !isALSAName(name) {
		format = "pulse"
	}
	return Device{ID: name, Format: format}
}

func isALSAName(name string) bool {
	return name == "default" || strings.HasPrefix(name, "hw:") ||
		strings.HasPrefix(name, "plughw:") || strings.HasPrefix(name, "sysdefault")
}

// listDevicesArgs returns ffmpeg arguments that print the device list.
func listDevicesArgs(format string) []string {
	switch format {
	case "avfoundation":
		return []string{"-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", ""}
	case "dshow":
		return []string{"-hide_banner", "-f", "dshow", "-list_devices", "true", "-i", "dummy"}
	default:
		return nil
	}
}

// virtualAudioDevices lists loopback and meeting-app devices that are never
// the user's microphone.
var virtualAudioDevices = []string{
	"AirBeamTV", "ZoomAudioDevice", "Microsoft Teams Audio", "BlackHole",
	"Soundflower", "Loopback Audio", "Stereo Mix", "Wave Out Mix", "What U Hear",
	"CABLE Output", "VB-Audio Virtual Cable", "virtual-audio-capturer",
	"VoiceMeeter", ".monitor",
}

func isVirtualAudioDevice(name string) bool {
	lower := strings.ToLower(name)
	for _, v := range virtualAudioDevices {
		if strings.Contains(lower, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

func isMicrophoneDevice(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range []string{"micro", "input", "headset", "webcam", "usb audio", "capture"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return strings.Contains(lower, "analog-stereo") && !strings.Contains(lower, ".monitor")
}

// rankDevices orders microphones first, unknown devices next, virtual devices last.
func rankDevices(devices []Device) []Device {
	var microphones, unknown, virtual []Device
	for _, d := range devices {
		label := d.Name
		if label == "" {
			label = d.ID
		}
		switch {
		case isVirtualAudioDevice(label):
			virtual = append(virtual, d)
		case isMicrophoneDevice(label):
			microphones = append(microphones, d)
		default:
			unknown = append(unknown, d)
		}
	}
	result := append(microphones, unknown...)
	return append(result, virtual...)
}

var (
	avfDeviceRe        = regexp.MustCompile(`\[(\d+)\]\s+(.+)$`)
	dshowQuotedRe      = regexp.MustCompile(`"([^"]+)"`)
	dshowAudioSuffixRe = regexp.MustCompile(`"([^"]+)"\s+\(audio\)`)
)

// parseAVFoundationDevices parses the audio section of macOS device listings:
//
//	[AVFoundation indev @ 0x...] AVFoundation audio devices:
//	[AVFoundation indev @ 0x...] [0] MacBook Pro Microphone
func parseAVFoundationDevices(stderr string) []Device {
	var devices []Device
	inAudio := false
	for _, line := range strings.Split(stderr, "\n") {
		switch {
		case strings.Contains(line, "AVFoundation audio devices:"):
			inAudio = true
		case strings.Contains(line, "AVFoundation video devices:"):
			inAudio = false
		case inAudio:
			if m := avfDeviceRe.FindStringSubmatch(line); m != nil {
				devices = append(devices, Device{ID: ":" + m[1], Name: strings.TrimSpace(m[2]), Format: "avfoundation"})
			}
		}
	}
	return rankDevices(devices)
}

// parseDShowDevices parses Windows listings in either layout: older builds
// group devices under "DirectShow audio devices", newer ones suffix each
// entry with "(audio)".
func parseDShowDevices(stderr string) []Device {
	var names []string
	if strings.Contains(stderr, "DirectShow audio devices") {
		inAudio := false
		for _, line := range strings.Split(stderr, "\n") {
			switch {
			case strings.Contains(line, "DirectShow audio devices"):
				inAudio = true
			case strings.Contains(line, "DirectShow video devices"):
				inAudio = false
			case inAudio && !strings.Contains(line, "Alternative name"):
				if m := dshowQuotedRe.FindStringSubmatch(line); m != nil {
					names = append(names, m[1])
				}
			}
		}
	} else {
		for _, line := range strings.Split(stderr, "\n") {
			if strings.Contains(line, "Alternative name") {
				continue
			}
			if m := dshowAudioSuffixRe.FindStringSubmatch(line); m != nil {
				names = append(names, m[1])
			}
		}
	}

	devices := make([]Device, len(names))
	for i, n := range names {
		devices[i] = Device{ID: n, Name: n, Format: "dshow"}
	}
	return rankDevices(devices)
}

// parsePulseDevices parses `pactl list sources short`:
//
//	1	alsa_input.pci-0000_00_1f.3.analog-stereo	module-alsa-card.c	s16le 2ch 44100Hz	IDLE
func parsePulseDevices(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		if fields := strings.Fields(line); len(fields) >= 2 {
			devices = append(devices, Device{ID: fields[1], Format: "pulse"})
		}
	}
	return rankDevices(devices)
}

// alsaDefaults is returned when PulseAudio is unavailable; ffmpeg has no
// device listing for ALSA.
func alsaDefaults() []Device {
	return []Device{
		{ID: "default", Format: "alsa"},
		{ID: "hw:0", Format: "alsa"},
		{ID: "plughw:0", Format: "alsa"},
	}
}
