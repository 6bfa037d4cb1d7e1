package cli

import (
	"fmt"
	"io"

	"github.com/alnah/poddy/internal/artifact"
	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/format"
	"github.com/alnah/poddy/internal/speech"
)

// progressPrinter returns a synthesis progress callback that writes status
// lines to w.
func progressPrinter(w io.Writer) speech.ProgressFunc {
	return func(stage speech.Stage, size int64) {
		switch stage {
		case speech.StageSynthesizing:
			_, _ = fmt.Fprintln(w, "Synthesizing...")
		case speech.StagePlaying:
			_, _ = fmt.Fprintf(w, "Playing (%s)...\n", format.Size(size))
		}
	}
}

// cleanupWarner reports temp files that could not be removed.
func cleanupWarner(w io.Writer) artifact.WarnFunc {
	return func(path string, err error) {
		_, _ = fmt.Fprintf(w, "Warning: could not remove %s: %v\n", path, err)
	}
}

// newSynthesizer wires a synthesis backend to temp-file playback with
// console progress.
func newSynthesizer(env *Env, source speech.StreamSource, player audio.Player) *speech.Synthesizer {
	store := artifact.NewStore(artifact.WithWarnFunc(cleanupWarner(env.Stderr)))
	return speech.NewSynthesizer(source, store, player, speech.WithProgress(progressPrinter(env.Stderr)))
}
