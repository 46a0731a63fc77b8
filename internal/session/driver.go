// Package session drives one authenticated browser session through the
// login flow and then resolves and dispatches every requested video.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmagar/streamgrab/internal/api"
	"github.com/jmagar/streamgrab/internal/browser"
	"github.com/jmagar/streamgrab/internal/credential"
	"github.com/jmagar/streamgrab/internal/helpers"
	"github.com/jmagar/streamgrab/internal/hls"
	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/ui"
)

// Default waits used when Options leaves a duration at zero.
const (
	DefaultIdleTimeout       = 30 * time.Second
	DefaultLoginFieldTimeout = 60 * time.Second
	DefaultAuthTimeout       = 90 * time.Second
	DefaultTokenTimeout      = 30 * time.Second
)

// Browser is the subset of browser.Session the driver needs.
type Browser interface {
	credential.CookieSource
	NavigateIdle(ctx context.Context, url string, idle time.Duration) error
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	WaitForURL(ctx context.Context, substr string, timeout time.Duration) error
	Query(ctx context.Context, expression string, timeout time.Duration) (string, error)
	Close() error
}

// Launcher starts the browser. The driver owns and closes what it returns.
type Launcher func(ctx context.Context) (Browser, error)

// Extractor reads the signed API cookie pair from a cookie source.
type Extractor interface {
	Extract(ctx context.Context, src credential.CookieSource, host string) (model.Credential, error)
}

// Resolver turns a video ID and bearer token into a manifest.
type Resolver interface {
	Resolve(ctx context.Context, videoID, accessToken string) (*model.Manifest, error)
	Host() string
}

// Dispatcher hands a resolved manifest to the downloader.
type Dispatcher interface {
	Dispatch(ctx context.Context, req model.DownloadRequest) error
}

// Inspector summarises a manifest before dispatch.
type Inspector interface {
	Inspect(ctx context.Context, manifestURL, cookieHeader string) (*hls.Summary, error)
}

// Options tunes a run.
type Options struct {
	Format   string
	Simulate bool
	// AuthDomain is the URL fragment that marks a completed login.
	AuthDomain string

	IdleTimeout       time.Duration
	LoginFieldTimeout time.Duration
	AuthTimeout       time.Duration
	TokenTimeout      time.Duration
}

func (o Options) withDefaults() Options {
	if o.AuthDomain == "" {
		o.AuthDomain = model.DefaultAuthDomain
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.LoginFieldTimeout <= 0 {
		o.LoginFieldTimeout = DefaultLoginFieldTimeout
	}
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = DefaultAuthTimeout
	}
	if o.TokenTimeout <= 0 {
		o.TokenTimeout = DefaultTokenTimeout
	}
	return o
}

// Driver runs the whole pipeline strictly sequentially.
type Driver struct {
	Launch     Launcher
	Extractor  Extractor
	Resolver   Resolver
	Dispatcher Dispatcher
	// Inspector is optional; when set every manifest is summarised first.
	Inspector Inspector
	Options   Options

	state State
	trace func(State)
}

// State reports the state the driver is in (or ended in).
func (d *Driver) State() State {
	return d.state
}

func (d *Driver) transition(s State) {
	d.state = s
	ui.PrintVerbose("state: " + s.String())
	if d.trace != nil {
		d.trace(s)
	}
}

// Run logs in with username on urls[0] and then processes every URL in
// order. The first failure aborts the remaining queue. The browser is
// closed on every return path.
func (d *Driver) Run(ctx context.Context, urls []string, username string) (err error) {
	if len(urls) == 0 {
		return fmt.Errorf("%w: no video urls given", model.ErrMalformedInput)
	}
	opts := d.Options.withDefaults()

	d.transition(StateLaunching)
	b, err := d.Launch(ctx)
	if err != nil {
		return err
	}
	defer func() {
		d.transition(StateClosingSession)
		if cerr := b.Close(); cerr != nil {
			ui.PrintWarning(fmt.Sprintf("Failed to close browser cleanly: %v", cerr))
		}
		if err == nil {
			d.transition(StateDone)
		}
	}()

	if err := d.authenticate(ctx, b, opts, urls[0], username); err != nil {
		return err
	}
	for _, req := range api.BuildRequests(urls) {
		if err := d.process(ctx, b, opts, req); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) authenticate(ctx context.Context, b Browser, opts Options, loginURL, username string) error {
	d.transition(StateAuthenticating)
	ui.PrintAuth("Opening the sign-in page...")
	if err := b.NavigateIdle(ctx, loginURL, opts.IdleTimeout); err != nil {
		if !errors.Is(err, browser.ErrIdleTimeout) {
			return err
		}
		ui.PrintWarning(fmt.Sprintf("Sign-in page still loading after %s, continuing", opts.IdleTimeout))
	}

	if err := b.WaitVisible(ctx, model.EmailSelector, opts.LoginFieldTimeout); err != nil {
		return err
	}
	if err := b.Fill(ctx, model.EmailSelector, username); err != nil {
		return err
	}
	if err := b.Click(ctx, model.SubmitSelector); err != nil {
		return err
	}

	ui.PrintAuth("Finish signing in (and any MFA prompt) in the browser window...")
	if err := b.WaitForURL(ctx, opts.AuthDomain, opts.AuthTimeout); err != nil {
		return err
	}
	ui.PrintSuccess("We are logged in.")
	return nil
}

func (d *Driver) process(ctx context.Context, b Browser, opts Options, req model.VideoRequest) error {
	videoID, err := api.VideoIDFromURL(req.URL)
	if err != nil {
		return err
	}

	d.transition(StateNavigating)
	ui.PrintInfo(fmt.Sprintf("Video %d: %s", req.Index+1, req.URL))
	if err := b.Navigate(ctx, req.URL); err != nil {
		return err
	}

	d.transition(StateExtractingCredential)
	cred, err := d.Extractor.Extract(ctx, b, d.Resolver.Host())
	if err != nil {
		return err
	}
	token, err := b.Query(ctx, model.AccessTokenExpression, opts.TokenTimeout)
	if err != nil {
		return err
	}

	d.transition(StateResolvingManifest)
	manifest, err := d.Resolver.Resolve(ctx, videoID, token)
	if err != nil {
		return err
	}

	dl := model.DownloadRequest{
		Title:        helpers.TitleOrFallback(manifest.Title, req.Index),
		ManifestURL:  manifest.PlaybackURL,
		CookieHeader: cred.Header(),
		Format:       opts.Format,
		Simulate:     opts.Simulate,
	}
	ui.PrintInfo("Video title is: " + dl.Title)
	ui.PrintVerbose("download request: " + dl.String())
	d.inspect(ctx, dl)

	d.transition(StateDispatching)
	return d.Dispatcher.Dispatch(ctx, dl)
}

// inspect prints the manifest summary. Failures only warn.
func (d *Driver) inspect(ctx context.Context, dl model.DownloadRequest) {
	if d.Inspector == nil {
		return
	}
	summary, err := d.Inspector.Inspect(ctx, dl.ManifestURL, dl.CookieHeader)
	if err != nil {
		ui.PrintWarning(fmt.Sprintf("Could not inspect manifest: %v", err))
		return
	}
	ui.PrintList(summary.Lines(), ui.ColorCyan)
}

// ChromeLauncher launches a chromedp browser with opts.
func ChromeLauncher(opts browser.Options) Launcher {
	return func(ctx context.Context) (Browser, error) {
		s, err := browser.Launch(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
