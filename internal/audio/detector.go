package audio

import (
	"regexp"
	"strconv"
	"time"
)

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// speechGrace is added to the silencedetect window before concluding that
// the absence of a silence_start means the user spoke from the first frame.
const speechGrace = 300 * time.Millisecond

type detectResult int

const (
	detectPending detectResult = iota
	detectUtterance
	detectTimeout
)

type detectorState int

const (
	stateUndecided detectorState = iota
	stateSilent
	stateSpeaking
)

// utteranceDetector turns silencedetect events and elapsed time into a
// decision: one utterance was spoken, or nobody spoke before the timeout.
// Times are offsets from the start of capture.
type utteranceDetector struct {
	minSilence time.Duration
	timeout    time.Duration
	maxPhrase  time.Duration

	state  detectorState
	start  time.Duration
	end    time.Duration
	result detectResult
}

func newUtteranceDetector(minSilence time.Duration, opts CaptureOptions) *utteranceDetector {
	return &utteranceDetector{
		minSilence: minSilence,
		timeout:    opts.Timeout,
		maxPhrase:  opts.MaxPhrase,
	}
}

// observe feeds one ffmpeg stderr line. Lines without events are ignored.
func (d *utteranceDetector) observe(line string) {
	if at, ok := parseSeconds(silenceStartRe, line); ok {
		d.silenceStart(at)
	}
	if at, ok := parseSeconds(silenceEndRe, line); ok {
		d.silenceEnd(at)
	}
}

func (d *utteranceDetector) silenceStart(at time.Duration) {
	if d.result != detectPending {
		return
	}
	switch d.state {
	case stateUndecided:
		d.state = stateSilent
	case stateSpeaking:
		if at <= d.start {
			// Late report of silence that began before the assumed speech.
			d.state = stateSilent
			return
		}
		d.end = at
		d.result = detectUtterance
	}
}

func (d *utteranceDetector) silenceEnd(at time.Duration) {
	if d.result != detectPending || d.state == stateSpeaking {
		return
	}
	d.state = stateSpeaking
	d.start = max(at, 0)
}

// tick advances the clock.
func (d *utteranceDetector) tick(elapsed time.Duration) {
	if d.result != detectPending {
		return
	}
	if d.state == stateUndecided && elapsed >= d.minSilence+speechGrace {
		d.state = stateSpeaking
		d.start = 0
	}
	switch {
	case d.state == stateSpeaking && d.maxPhrase > 0 && elapsed-d.start >= d.maxPhrase:
		d.end = d.start + d.maxPhrase
		d.result = detectUtterance
	case d.state != stateSpeaking && elapsed >= d.timeout:
		d.result = detectTimeout
	}
}

// finish is called when the audio stream ended on its own.
func (d *utteranceDetector) finish(elapsed time.Duration) {
	if d.result != detectPending {
		return
	}
	if d.state == stateSpeaking {
		d.end = max(elapsed, d.start)
		d.result = detectUtterance
		return
	}
	d.result = detectTimeout
}

func (d *utteranceDetector) speechDuration() time.Duration {
	return d.end - d.start
}

func parseSeconds(re *regexp.Regexp, line string) (time.Duration, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
