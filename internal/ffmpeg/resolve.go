package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// minFFmpegMajorVersion is the minimum supported ffmpeg version.
// Older builds lack silencedetect fixes and libopus defaults poddy relies on.
const minFFmpegMajorVersion = 4

// Tool identifies a binary from the ffmpeg distribution.
type Tool struct {
	Name   string // executable base name
	EnvVar string // explicit path override
}

// Binaries poddy depends on.
var (
	FFmpeg = Tool{Name: "ffmpeg", EnvVar: "FFMPEG_PATH"}
	FFplay = Tool{Name: "ffplay", EnvVar: "FFPLAY_PATH"}
)

// Resolver locates ffmpeg-family binaries.
type Resolver struct {
	reader fileReader
	env    envProvider
	goos   string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileReader sets the file reader (for testing).
func WithFileReader(r fileReader) ResolverOption {
	return func(res *Resolver) { res.reader = r }
}

// WithEnvProvider sets the environment provider (for testing).
func WithEnvProvider(e envProvider) ResolverOption {
	return func(res *Resolver) { res.env = e }
}

// WithPlatform overrides the target OS (for testing).
func WithPlatform(goos string) ResolverOption {
	return func(res *Resolver) { res.goos = goos }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		reader: osFileReader{},
		env:    osEnvProvider{},
		goos:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds tool using the following precedence:
//  1. The tool's environment variable (error if set but invalid)
//  2. System PATH
//  3. Next to the binary named by FFMPEG_PATH (ffplay ships beside ffmpeg)
func (r *Resolver) Resolve(tool Tool) (string, error) {
	if envPath := r.env.Getenv(tool.EnvVar); envPath != "" {
		if _, err := r.reader.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found",
				ErrNotFound, tool.EnvVar, envPath)
		}
		return envPath, nil
	}

	if path, err := r.env.LookPath(tool.Name); err == nil {
		return path, nil
	}

	if tool != FFmpeg {
		if base := r.env.Getenv(FFmpeg.EnvVar); base != "" {
			sibling := filepath.Join(filepath.Dir(base), r.executable(tool.Name))
			if _, err := r.reader.Stat(sibling); err == nil {
				return sibling, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s\n\n%s", ErrNotFound, tool.Name, r.manualInstallInstructions(tool))
}

func (r *Resolver) executable(name string) string {
	if r.goos == "windows" {
		return name + ".exe"
	}
	return name
}

// manualInstallInstructions returns platform-specific instructions.
// Package-manager builds of ffmpeg include ffplay.
func (r *Resolver) manualInstallInstructions(tool Tool) string {
	var b strings.Builder
	b.WriteString("To install FFmpeg (includes ffplay):\n")
	switch r.goos {
	case "darwin":
		b.WriteString("  brew install ffmpeg\n")
	case "linux":
		b.WriteString("  Ubuntu/Debian: sudo apt install ffmpeg\n")
		b.WriteString("  Fedora:        sudo dnf install ffmpeg\n")
		b.WriteString("  Arch:          sudo pacman -S ffmpeg\n")
	case "windows":
		b.WriteString("  winget install ffmpeg\n")
	default:
		b.WriteString("  download from https://ffmpeg.org/download.html\n")
	}
	fmt.Fprintf(&b, "\nOr set %s to your %s binary.", tool.EnvVar, tool.Name)
	return b.String()
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

func getDefaultResolver() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver
}

// Resolve finds tool using the default resolver.
func Resolve(tool Tool) (string, error) {
	return getDefaultResolver().Resolve(tool)
}

// VersionChecker verifies ffmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	stderr   io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running ffmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: getDefaultExecutor(),
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check warns on stderr if ffmpeg is older than the supported minimum.
// Returns the parsed major version, or 0 if it could not be determined.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) int {
	output, err := vc.executor.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return 0
	}
	major := parseMajorVersion(output)
	if major > 0 && major < minFFmpegMajorVersion {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minFFmpegMajorVersion)
	}
	return major
}

// parseMajorVersion reads "ffmpeg version 6.1.1" or "ffmpeg version n6.1.1".
func parseMajorVersion(output string) int {
	first, _, _ := strings.Cut(output, "\n")
	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err == nil {
		return major
	}
	if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err == nil {
		return major
	}
	return 0
}
