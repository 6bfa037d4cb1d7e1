package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/poddy/internal/ffmpeg"
)

// DevicesCmd creates the devices command.
// Lists available microphones for use with --device.
func DevicesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available microphones",
		Long: `List audio input devices detected by FFmpeg.

Use the device name with --device, or store it with 'poddy config set device'.
Devices are sorted with real microphones first, virtual devices last.`,
		Example: `  poddy devices
  poddy run --device "MacBook Pro Microphone"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListDevices(cmd.Context(), env)
		},
	}
}

// runListDevices resolves FFmpeg and lists available audio devices.
func runListDevices(ctx context.Context, env *Env) error {
	ffmpegPath, err := env.ToolResolver.Resolve(ffmpeg.FFmpeg)
	if err != nil {
		return err
	}

	lister, err := env.AudioFactory.NewDeviceLister(ffmpegPath)
	if err != nil {
		return err
	}

	devices, err := lister.ListDevices(ctx)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Fprintln(env.Stderr, "No audio input devices found.")
		return nil
	}

	for _, d := range devices {
		fmt.Fprintln(env.Stderr, d)
	}
	return nil
}
