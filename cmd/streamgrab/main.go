package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jmagar/streamgrab/internal/api"
	"github.com/jmagar/streamgrab/internal/browser"
	"github.com/jmagar/streamgrab/internal/config"
	"github.com/jmagar/streamgrab/internal/credential"
	"github.com/jmagar/streamgrab/internal/download"
	"github.com/jmagar/streamgrab/internal/helpers"
	"github.com/jmagar/streamgrab/internal/hls"
	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/session"
	"github.com/jmagar/streamgrab/internal/ui"
)

func init() {
	// Wire the colored help text into model.Args.Description()
	model.ArgsDescriptionFunc = argsDescription
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseCfg()
	if err != nil {
		return fail(err)
	}
	ui.Verbose = cfg.Verbose

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printRunSummary(cfg)

	if home, err := os.UserHomeDir(); err == nil {
		logPath := filepath.Join(home, ".config", "streamgrab", "logs", "api.log")
		if runID, err := api.InitAPILogger(logPath); err != nil {
			ui.PrintWarning(fmt.Sprintf("API log disabled: %v", err))
		} else {
			ui.PrintVerbose(fmt.Sprintf("run %s logging API calls to %s", runID, logPath))
		}
	}

	downloader, err := config.SanityCheck(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	lock, err := helpers.LockOutputDir(cfg.OutputDirectory)
	if err != nil {
		return fail(err)
	}
	defer lock.Release()

	driver := &session.Driver{
		Launch: session.ChromeLauncher(browser.Options{
			ExecPath: cfg.ChromePath,
			Logf:     chromeLogf(cfg.Verbose),
		}),
		Extractor:  credential.NewExtractor(),
		Resolver:   api.NewClient(cfg.APIBaseURL, cfg.Verbose),
		Dispatcher: download.NewDispatcher(downloader, cfg.OutputDirectory),
		Options: session.Options{
			Format:     cfg.Format,
			Simulate:   cfg.Simulate,
			AuthDomain: cfg.AuthDomain,
		},
	}
	if cfg.Verbose || cfg.Simulate {
		driver.Inspector = hls.NewInspector()
	}

	ui.PrintInfo("Launching Chrome to perform the OpenID Connect dance...")
	if err := driver.Run(ctx, cfg.VideoURLs, cfg.Username); err != nil {
		return fail(err)
	}

	ui.PrintSuccess(fmt.Sprintf("Done: %d video(s) handed to %s", len(cfg.VideoURLs), filepath.Base(downloader)))
	if ui.RunWarningCount > 0 {
		ui.PrintInfo(fmt.Sprintf("%d warning(s) during this run", ui.RunWarningCount))
	}
	return model.ExitOK
}

// fail reports err once and maps it to the process exit code.
func fail(err error) int {
	if errors.Is(err, context.Canceled) {
		ui.PrintWarning("Interrupted, browser closed")
	} else {
		ui.PrintError(err.Error())
	}
	return model.ExitCode(err)
}

func printRunSummary(cfg *model.Config) {
	ui.PrintHeader("streamgrab")
	ui.PrintKeyValue("Mode", ui.DescribeSimulate(cfg.Simulate), ui.ColorYellow)
	ui.PrintKeyValue("Video URLs", strings.Join(cfg.VideoURLs, ", "), "")
	ui.PrintKeyValue("Username", cfg.Username, "")
	if !cfg.Simulate {
		ui.PrintKeyValue("Output Directory", cfg.OutputDirectory, "")
	}
	format := cfg.Format
	if format == "" {
		format = "downloader default"
	}
	ui.PrintKeyValue("Video/Audio Quality", format, "")
	if config.LoadedConfigPath != "" {
		ui.PrintKeyValue("Config", config.LoadedConfigPath, "")
	}
	fmt.Println()
}

// chromeLogf forwards chromedp protocol logs only when verbose.
func chromeLogf(verbose bool) func(string, ...any) {
	if !verbose {
		return nil
	}
	return func(format string, args ...any) {
		ui.PrintVerbose("chrome: " + fmt.Sprintf(format, args...))
	}
}
