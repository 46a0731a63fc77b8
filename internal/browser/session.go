// Package browser wraps a single chromedp-controlled Chrome tab.
//
// A Session is created once per run and driven sequentially; every method
// borrows the same tab. The caller's context only bounds the individual
// operation, the browser itself lives until Close.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/jmagar/streamgrab/internal/model"
)

const (
	locationProbeTimeout = 5 * time.Second
	pollInterval         = 250 * time.Millisecond
)

// Options configures the launched browser.
type Options struct {
	// Headless must stay false for interactive logins (MFA prompts).
	Headless bool
	ExecPath string
	// Logf receives chromedp protocol logs; nil discards them.
	Logf func(format string, args ...any)
}

// Session is a live browser tab.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	mainFrame   cdp.FrameID

	closeOnce sync.Once
	closeErr  error
}

// AllocatorOptions returns the Chrome flags used for a launch.
func AllocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return allocOpts
}

// Launch starts Chrome and opens the tab every later call operates on.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(opts)...)

	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logf),
		chromedp.WithErrorf(logf),
	)

	// The first Run allocates the browser, so it must use the tab context
	// itself: a derived context would tie Chrome's lifetime to it.
	if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: launch chrome: %w", model.ErrBrowser, err)
	}

	s := &Session{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		s.mainFrame = cdp.FrameID(c.Target.TargetID)
	}
	return s, nil
}

// run executes actions on the tab, cancelling them when ctx is done.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Navigate loads url and returns once the page's load event fired.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return wrapBrowserErr("navigate to "+url, err)
	}
	return nil
}

// NavigateIdle loads url and then waits up to idle for the main frame's
// networkIdle lifecycle event. Returns ErrIdleTimeout if the network never
// settles; the page is still usable in that case.
func (s *Session) NavigateIdle(ctx context.Context, url string, idle time.Duration) error {
	var (
		mu       sync.Mutex
		loaderID cdp.LoaderID
		idleCh   = make(chan struct{}, 1)
	)
	lctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	chromedp.ListenTarget(lctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || (s.mainFrame != "" && e.FrameID != s.mainFrame) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch e.Name {
		case "init":
			// A new document replaced the previous one (redirects included).
			loaderID = e.LoaderID
		case "networkIdle":
			if loaderID != "" && e.LoaderID == loaderID {
				select {
				case idleCh <- struct{}{}:
				default:
				}
			}
		}
	})

	if err := s.Navigate(ctx, url); err != nil {
		return err
	}

	timer := time.NewTimer(idle)
	defer timer.Stop()
	select {
	case <-idleCh:
		return nil
	case <-timer.C:
		return ErrIdleTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrIdleTimeout is returned by NavigateIdle when the network never settles.
var ErrIdleTimeout = errors.New("network did not become idle")

// WaitVisible blocks until selector matches a visible element or timeout expires.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.run(wctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %s not visible after %s", model.ErrBrowser, selector, timeout)
		}
		return wrapBrowserErr("wait for "+selector, err)
	}
	return nil
}

// Fill focuses selector and types text into it.
func (s *Session) Fill(ctx context.Context, selector, text string) error {
	if err := s.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		return wrapBrowserErr("type into "+selector, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return wrapBrowserErr("click "+selector, err)
	}
	return nil
}

// WaitForURL blocks until the main frame has navigated to a URL containing
// substr. On timeout it returns an error matching model.ErrAuthTimeout.
func (s *Session) WaitForURL(ctx context.Context, substr string, timeout time.Duration) error {
	hit := make(chan struct{}, 1)
	signal := func(url string) {
		if strings.Contains(url, substr) {
			select {
			case hit <- struct{}{}:
			default:
			}
		}
	}

	lctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	chromedp.ListenTarget(lctx, func(ev any) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				signal(e.Frame.URL)
			}
		case *page.EventNavigatedWithinDocument:
			if s.mainFrame == "" || e.FrameID == s.mainFrame {
				signal(e.URL)
			}
		}
	})

	// The redirect may already have happened before the listener was attached.
	if current, err := s.Location(ctx); err == nil {
		signal(current)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-hit:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: no navigation to %q within %s", model.ErrAuthTimeout, substr, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Location returns the current URL of the tab.
func (s *Session) Location(ctx context.Context) (string, error) {
	lctx, cancel := context.WithTimeout(ctx, locationProbeTimeout)
	defer cancel()
	var current string
	if err := s.run(lctx, chromedp.Location(&current)); err != nil {
		return "", err
	}
	return current, nil
}

// Cookies returns every browser cookie that would be sent to host.
func (s *Session) Cookies(ctx context.Context, host string) ([]model.Cookie, error) {
	var all []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		all, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, wrapBrowserErr("read cookies", err)
	}
	return FilterCookies(all, host), nil
}

// Query polls a JavaScript expression in the page until it yields a
// non-empty string or timeout expires, and returns that string.
func (s *Session) Query(ctx context.Context, expression string, timeout time.Duration) (string, error) {
	var res string
	err := s.run(ctx, chromedp.Poll(expression, &res,
		chromedp.WithPollingInterval(pollInterval),
		chromedp.WithPollingTimeout(timeout),
	))
	if err != nil {
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return "", fmt.Errorf("%w: %s stayed empty for %s", model.ErrBrowser, expression, timeout)
		}
		return "", wrapBrowserErr("evaluate page state", err)
	}
	if res == "" {
		return "", fmt.Errorf("%w: %s returned an empty value", model.ErrBrowser, expression)
	}
	return res, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelTab()
		s.cancelAlloc()
		if errors.Is(s.closeErr, context.Canceled) {
			s.closeErr = nil
		}
	})
	return s.closeErr
}

// FilterCookies keeps the cookies whose domain matches host and converts them.
func FilterCookies(all []*network.Cookie, host string) []model.Cookie {
	var out []model.Cookie
	for _, c := range all {
		if c == nil || !DomainMatches(c.Domain, host) {
			continue
		}
		out = append(out, model.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain})
	}
	return out
}

// DomainMatches reports whether a cookie set for domain is sent to host.
func DomainMatches(domain, host string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	host = strings.ToLower(strings.TrimPrefix(host, "."))
	if domain == "" || host == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func wrapBrowserErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", model.ErrBrowser, op, err)
}
