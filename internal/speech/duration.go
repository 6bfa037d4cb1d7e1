package speech

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// bytesPerFrame is the size of one decoded go-mp3 frame: 16-bit stereo.
const bytesPerFrame = 4

// EstimateDuration decodes MP3 data and returns its playback length.
// Only the frame headers and samples are decoded; nothing is transcoded.
func EstimateDuration(data []byte) (d time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = 0, fmt.Errorf("decode mp3: %v", r)
		}
	}()

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}
	rate := dec.SampleRate()
	length := dec.Length()
	if rate <= 0 || length <= 0 {
		return 0, errors.New("decode mp3: unknown length")
	}
	frames := length / bytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(rate), nil
}
