package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/config"
	"github.com/alnah/poddy/internal/ffmpeg"
	"github.com/alnah/poddy/internal/interrupt"
	"github.com/alnah/poddy/internal/lang"
	"github.com/alnah/poddy/internal/respond"
	"github.com/alnah/poddy/internal/speech"
	"github.com/alnah/poddy/internal/turn"
)

// RunCmd creates the run command (the spoken conversation loop).
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a spoken conversation",
		Long: `Listen to the microphone, answer each phrase out loud, and repeat
until an exit phrase is heard.

Each turn: record one phrase, transcribe it (OpenAI), generate a reply
(Gemini by default, or OpenAI with --provider openai), synthesize it
(ElevenLabs), and play it (ffplay).

Required environment variables:
  OPENAI_API_KEY       transcription (and replies with --provider openai)
  GOOGLE_API_KEY       replies with the default gemini provider
  ELEVENLABS_API_KEY   speech synthesis

Press Ctrl+C to stop; press it twice within 2 seconds to quit immediately.`,
		Example: `  poddy run
  poddy run --language en-US --exit-phrase goodbye
  poddy run --provider openai --announce-misses
  poddy run --device "MacBook Pro Microphone" --voice 21m00Tcm4TlvDq8ikWAM`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConversation(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.device, "device", "", "Microphone device (default: auto-detect)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Recognition locale, e.g. tr-TR, en-US")
	cmd.Flags().StringVar(&opts.voice, "voice", "", "ElevenLabs voice ID")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Reply generator: gemini, openai")
	cmd.Flags().StringSliceVar(&opts.exitPhrases, "exit-phrase", nil, "Phrase that ends the conversation (repeatable)")
	cmd.Flags().BoolVar(&opts.announceMisses, "announce-misses", false, "Say so when speech could not be understood")
	cmd.Flags().BoolVar(&opts.skipProbe, "skip-probe", false, "Skip the startup service checks")

	return cmd
}

// runOptions holds flag overrides for a single run.
type runOptions struct {
	device         string
	language       string
	voice          string
	provider       string
	exitPhrases    []string
	announceMisses bool
	skipProbe      bool
}

// apply overlays non-empty flags on the loaded settings.
func (o runOptions) apply(s config.Settings) config.Settings {
	if o.device != "" {
		s.Device = o.device
	}
	if o.language != "" {
		s.Language = o.language
	}
	if o.voice != "" {
		s.VoiceID = o.voice
	}
	if o.provider != "" {
		s.LLMProvider = o.provider
	}
	if len(o.exitPhrases) > 0 {
		s.ExitPhrases = o.exitPhrases
	}
	if o.announceMisses {
		s.OnMishear = config.MishearAnnounce
	}
	return s
}

// conversation holds validated values for one run.
// This is separate from Env to hold command-specific resolved values.
type conversation struct {
	settings   config.Settings
	language   lang.Language
	policy     turn.MishearPolicy
	provider   Provider
	openaiKey  string
	replyKey   string
	speechKey  string
	ffmpegPath string
	ffplayPath string
}

// validateConversation performs fail-fast validation before any network I/O.
func validateConversation(ctx context.Context, env *Env, s config.Settings) (*conversation, error) {
	// 1. Settings
	language, err := lang.Parse(s.Language)
	if err != nil {
		return nil, err
	}
	policy, err := turn.ParseMishearPolicy(s.OnMishear)
	if err != nil {
		return nil, err
	}
	provider, err := ParseProvider(s.LLMProvider)
	if err != nil {
		return nil, err
	}

	// 2. Credentials
	openaiKey, err := requireKey(env, config.EnvOpenAIAPIKey)
	if err != nil {
		return nil, err
	}
	replyKey, err := requireKey(env, provider.KeyEnv())
	if err != nil {
		return nil, err
	}
	speechKey, err := requireKey(env, config.EnvElevenLabsAPIKey)
	if err != nil {
		return nil, err
	}

	// 3. Binaries
	ffmpegPath, err := env.ToolResolver.Resolve(ffmpeg.FFmpeg)
	if err != nil {
		return nil, err
	}
	env.ToolResolver.CheckVersion(ctx, ffmpegPath)
	ffplayPath, err := env.ToolResolver.Resolve(ffmpeg.FFplay)
	if err != nil {
		return nil, err
	}

	return &conversation{
		settings:   s,
		language:   language,
		policy:     policy,
		provider:   provider,
		openaiKey:  openaiKey,
		replyKey:   replyKey,
		speechKey:  speechKey,
		ffmpegPath: ffmpegPath,
		ffplayPath: ffplayPath,
	}, nil
}

// runConversation is the main entry point for the run command.
func runConversation(ctx context.Context, env *Env, opts runOptions) error {
	settings, err := env.ConfigLoader.Load(env.Getenv)
	if err != nil {
		return err
	}

	conv, err := validateConversation(ctx, env, opts.apply(settings))
	if err != nil {
		return err
	}
	s := conv.settings

	capturer, err := env.AudioFactory.NewCapturer(conv.ffmpegPath, s.Device)
	if err != nil {
		return err
	}
	player, err := env.AudioFactory.NewPlayer(conv.ffplayPath)
	if err != nil {
		return err
	}

	transcriber := env.TranscriberFactory.NewTranscriber(conv.openaiKey)
	generator, err := env.GeneratorFactory.NewGenerator(conv.provider, conv.replyKey, GeneratorOptions{
		Model:       s.LLMModel,
		Instruction: respond.Instruction(conv.language.DisplayName()),
	})
	if err != nil {
		return err
	}
	source, err := env.SpeechFactory.NewSource(s.TTSTransport, conv.speechKey)
	if err != nil {
		return err
	}

	if !opts.skipProbe {
		err := probeServices(ctx, env.Stderr, []service{
			{"transcription", transcriber},
			{conv.provider.String(), generator},
			{"speech", source},
		})
		if err != nil {
			return err
		}
	}

	// Interrupt handling: first Ctrl+C ends the loop, second exits at once.
	handler, ctx := interrupt.NewHandler(ctx)
	defer handler.Stop()

	ctrl, err := turn.NewController(
		capturer,
		transcriber,
		respond.NewResponder(generator),
		newSynthesizer(env, source, player),
		turn.WithLanguage(conv.language),
		turn.WithVoice(speech.Voice{ID: s.VoiceID, Model: s.TTSModel}),
		turn.WithExitPhrases(s.ExitPhrases),
		turn.WithMishearPolicy(conv.policy),
		turn.WithCaptureOptions(audio.CaptureOptions{Timeout: s.ListenTimeout, MaxPhrase: s.MaxPhrase}),
		turn.WithStopRequested(handler.StopRequested),
		turn.WithOutput(env.Stderr),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Ready (%s, %s). Say %q to quit.\n",
		conv.language.DisplayName(), conv.provider, strings.Join(ctrl.ExitPhrases(), `", "`))

	if err := ctrl.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintln(env.Stderr, "Goodbye.")
	return nil
}

// requireKey reads a credential from the environment.
func requireKey(env *Env, name string) (string, error) {
	key := strings.TrimSpace(env.Getenv(name))
	if key == "" {
		return "", fmt.Errorf("%s: %w (set it with: export %s=...)", name, ErrAPIKeyMissing, name)
	}
	return key, nil
}
