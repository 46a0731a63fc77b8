// Package download hands resolved manifests to a youtube-dl compatible
// downloader and waits for it to finish.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jmagar/streamgrab/internal/helpers"
	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/ui"
)

// Dispatcher runs the downloader executable once per video.
// Function fields are injected to keep the dispatcher unit-testable.
type Dispatcher struct {
	Binary    string
	OutputDir string

	validatePath   func(path string) error
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
	runCommand     func(cmd *exec.Cmd) error
	exitCode       func(err error) (int, bool)
}

// NewDispatcher creates a dispatcher for binary writing into outputDir.
func NewDispatcher(binary, outputDir string) *Dispatcher {
	return &Dispatcher{
		Binary:         binary,
		OutputDir:      outputDir,
		validatePath:   helpers.ValidatePath,
		commandContext: exec.CommandContext,
		runCommand:     func(cmd *exec.Cmd) error { return cmd.Run() },
		exitCode:       parseExitCode,
	}
}

func parseExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// IsYoutubeDL reports whether binary is the original youtube-dl, which
// understands --no-call-home. Newer yt-dlp releases reject that flag.
func IsYoutubeDL(binary string) bool {
	base := strings.TrimSuffix(strings.ToLower(filepath.Base(binary)), ".exe")
	return base == "youtube-dl"
}

// Args builds the downloader argument vector for req.
func (d *Dispatcher) Args(req model.DownloadRequest) []string {
	var args []string
	if IsYoutubeDL(d.Binary) {
		args = append(args, "--no-call-home")
	}
	args = append(args, "--no-warnings")
	if req.Format != "" {
		args = append(args, "-f", req.Format)
	}
	args = append(args,
		"--output", helpers.OutputFile(d.OutputDir, req.Title),
		"--add-header", "Cookie:"+req.CookieHeader,
		req.ManifestURL,
	)
	if req.Simulate {
		args = append(args, "-s")
	}
	return args
}

// Dispatch runs the downloader for req with inherited stdio and blocks
// until it exits. A non-zero exit returns an error matching model.ErrDispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.DownloadRequest) error {
	if err := d.validatePath(req.Title); err != nil {
		return fmt.Errorf("%w: invalid title %q: %w", model.ErrDispatch, req.Title, err)
	}

	args := d.Args(req)
	ui.PrintDownload(fmt.Sprintf("Spawning %s with cookie and HLS URL...", filepath.Base(d.Binary)))
	ui.PrintVerbose(fmt.Sprintf("%s %s", d.Binary, strings.Join(redactCookie(args), " ")))

	cmd := d.commandContext(ctx, d.Binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := d.runCommand(cmd)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if code, ok := d.exitCode(err); ok {
		return fmt.Errorf("%w: %s exited with status %d", model.ErrDispatch, filepath.Base(d.Binary), code)
	}
	return fmt.Errorf("%w: failed to execute %s: %w", model.ErrDispatch, d.Binary, err)
}

func redactCookie(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if strings.HasPrefix(a, "Cookie:") {
			out[i] = "Cookie:<redacted>"
		}
	}
	return out
}
