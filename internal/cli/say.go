package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/poddy/internal/config"
	"github.com/alnah/poddy/internal/ffmpeg"
	"github.com/alnah/poddy/internal/speech"
)

// SayCmd creates the say command: synthesize and play one line.
// Useful to check the voice and speaker setup without a microphone.
func SayCmd(env *Env) *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "say <text>",
		Short: "Speak a line of text",
		Long: `Synthesize text with ElevenLabs and play it.

Requires ELEVENLABS_API_KEY. Uses the configured voice, model and transport.`,
		Example: `  poddy say "Merhaba, nasılsınız?"
  poddy say --voice 21m00Tcm4TlvDq8ikWAM Hello there`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSay(cmd.Context(), env, strings.Join(args, " "), voice)
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "ElevenLabs voice ID")

	return cmd
}

// runSay speaks text once. A Failed outcome becomes an error.
func runSay(ctx context.Context, env *Env, text, voice string) error {
	settings, err := env.ConfigLoader.Load(env.Getenv)
	if err != nil {
		return err
	}
	if voice != "" {
		settings.VoiceID = voice
	}

	key, err := requireKey(env, config.EnvElevenLabsAPIKey)
	if err != nil {
		return err
	}
	ffplayPath, err := env.ToolResolver.Resolve(ffmpeg.FFplay)
	if err != nil {
		return err
	}
	player, err := env.AudioFactory.NewPlayer(ffplayPath)
	if err != nil {
		return err
	}
	source, err := env.SpeechFactory.NewSource(settings.TTSTransport, key)
	if err != nil {
		return err
	}

	out := newSynthesizer(env, source, player).Speak(ctx, text,
		speech.Voice{ID: settings.VoiceID, Model: settings.TTSModel})

	switch out.Kind {
	case speech.Skipped:
		fmt.Fprintln(env.Stderr, "Nothing to say.")
	case speech.Failed:
		if out.Err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSpeechFailed, out.Reason, out.Err)
		}
		return fmt.Errorf("%w: %s", ErrSpeechFailed, out.Reason)
	}
	return nil
}
