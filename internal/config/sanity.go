package config

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmagar/streamgrab/internal/helpers"
	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/ui"
)

const versionProbeTimeout = 15 * time.Second

// DownloaderCandidates are tried in order when no downloader is configured.
var DownloaderCandidates = []string{"youtube-dl", "yt-dlp"}

// ResolveDownloaderBinary locates the youtube-dl compatible binary.
func ResolveDownloaderBinary(cfg *model.Config) (string, error) {
	preferred := strings.TrimSpace(cfg.DownloaderPath)
	if preferred != "" {
		if resolved, err := exec.LookPath(preferred); err == nil {
			return resolved, nil
		}
		if info, err := os.Stat(preferred); err == nil && !info.IsDir() {
			return preferred, nil
		}
		return "", fmt.Errorf("%w: configured downloader not found: %s", model.ErrDownloaderMissing, preferred)
	}
	for _, name := range DownloaderCandidates {
		if resolved, err := exec.LookPath(name); err == nil {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: you need youtube-dl (or yt-dlp) in $PATH, a release from 2019 or later", model.ErrDownloaderMissing)
}

// ResolveFfmpegBinary locates ffmpeg on PATH.
func ResolveFfmpegBinary() (string, error) {
	return exec.LookPath("ffmpeg")
}

// SanityCheck verifies the environment before the browser is launched and
// returns the downloader binary to use. A missing ffmpeg only warns.
func SanityCheck(ctx context.Context, cfg *model.Config) (string, error) {
	downloader, err := ResolveDownloaderBinary(cfg)
	if err != nil {
		return "", err
	}
	version, err := probeVersion(ctx, downloader, "--version")
	if err != nil {
		return "", fmt.Errorf("%w: %s --version failed: %w", model.ErrDownloaderMissing, downloader, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Using %s version %s", filepath.Base(downloader), version))

	if ffmpeg, err := ResolveFfmpegBinary(); err != nil {
		ui.PrintWarning("FFmpeg is missing. You need a fairly recent release of FFmpeg in $PATH.")
	} else if ffmpegVersion, err := probeVersion(ctx, ffmpeg, "-version"); err != nil {
		ui.PrintWarning(fmt.Sprintf("FFmpeg at %s did not report a version: %v", ffmpeg, err))
	} else {
		ui.PrintSuccess("Using " + ffmpegVersion)
	}

	exists, err := helpers.DirExists(cfg.OutputDirectory)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", model.ErrOutputDir, cfg.OutputDirectory, err)
	}
	if !exists {
		abs, absErr := filepath.Abs(cfg.OutputDirectory)
		if absErr != nil {
			abs = cfg.OutputDirectory
		}
		ui.PrintInfo("Creating output directory: " + abs)
		if err := helpers.MakeDirs(cfg.OutputDirectory); err != nil {
			return "", fmt.Errorf("%w: %s: %w", model.ErrOutputDir, cfg.OutputDirectory, err)
		}
	}
	return downloader, nil
}

// probeVersion runs bin with flag and returns the first line of its output.
func probeVersion(ctx context.Context, bin, flag string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, flag).Output()
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(first), nil
}
