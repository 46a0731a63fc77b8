package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmagar/streamgrab/internal/api"
	"github.com/jmagar/streamgrab/internal/browser"
	"github.com/jmagar/streamgrab/internal/credential"
	"github.com/jmagar/streamgrab/internal/hls"
	"github.com/jmagar/streamgrab/internal/model"
)

type fakeBrowser struct {
	cookies    []model.Cookie
	token      string
	idleErr    error
	waitURLErr error

	navigated   []string
	filled      map[string]string
	clicked     []string
	waitedFor   string
	cookieHosts []string
	closed      int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		cookies: []model.Cookie{
			{Name: model.AuthorizationCookie, Value: "a"},
			{Name: model.SignatureCookie, Value: "s"},
		},
		token:  "tok",
		filled: map[string]string{},
	}
}

func (f *fakeBrowser) NavigateIdle(_ context.Context, url string, _ time.Duration) error {
	f.navigated = append(f.navigated, url)
	return f.idleErr
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeBrowser) WaitVisible(context.Context, string, time.Duration) error { return nil }

func (f *fakeBrowser) Fill(_ context.Context, selector, text string) error {
	f.filled[selector] = text
	return nil
}

func (f *fakeBrowser) Click(_ context.Context, selector string) error {
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakeBrowser) WaitForURL(_ context.Context, substr string, _ time.Duration) error {
	f.waitedFor = substr
	return f.waitURLErr
}

func (f *fakeBrowser) Query(context.Context, string, time.Duration) (string, error) {
	return f.token, nil
}

func (f *fakeBrowser) Cookies(_ context.Context, host string) ([]model.Cookie, error) {
	f.cookieHosts = append(f.cookieHosts, host)
	return f.cookies, nil
}

func (f *fakeBrowser) Close() error {
	f.closed++
	return nil
}

type recordingDispatcher struct {
	reqs []model.DownloadRequest
	err  error
}

func (r *recordingDispatcher) Dispatch(_ context.Context, req model.DownloadRequest) error {
	r.reqs = append(r.reqs, req)
	return r.err
}

type countingExtractor struct {
	calls int
	inner *credential.Extractor
}

func (c *countingExtractor) Extract(ctx context.Context, src credential.CookieSource, host string) (model.Credential, error) {
	c.calls++
	return c.inner.Extract(ctx, src, host)
}

type failingInspector struct{ calls int }

func (f *failingInspector) Inspect(context.Context, string, string) (*hls.Summary, error) {
	f.calls++
	return nil, errors.New("playlist unavailable")
}

// apiServer serves the video metadata endpoint; videos listed in forbidden get a 403.
func apiServer(t *testing.T, titles map[string]string, forbidden map[string]bool) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu   sync.Mutex
		auth []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/api/videos/")
		if forbidden[id] {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"playbackUrls":[{"mimeType":"application/dash+xml","playbackUrl":"https://cdn/%s.mpd"},{"mimeType":%q,"playbackUrl":"https://cdn/%s.m3u8"}]}`,
			titles[id], id, model.HLSMimeType, id)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), auth...)
	}
}

func newTestDriver(b *fakeBrowser, baseURL string) (*Driver, *recordingDispatcher, *countingExtractor) {
	disp := &recordingDispatcher{}
	ext := &countingExtractor{inner: &credential.Extractor{RetryDelay: time.Millisecond, MaxAttempts: 2}}
	d := &Driver{
		Launch:     func(context.Context) (Browser, error) { return b, nil },
		Extractor:  ext,
		Resolver:   api.NewClient(baseURL, false),
		Dispatcher: disp,
	}
	return d, disp, ext
}

func TestRunSingleVideoWithEmptyTitle(t *testing.T) {
	srv, auth := apiServer(t, map[string]string{"x": ""}, nil)
	b := newFakeBrowser()
	d, disp, _ := newTestDriver(b, srv.URL)
	d.Options.Format = "best"

	url := "https://web.microsoftstream.com/video/x"
	if err := d.Run(context.Background(), []string{url}, "me@example.com"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := model.DownloadRequest{
		Title:        "Video0",
		ManifestURL:  "https://cdn/x.m3u8",
		CookieHeader: "Authorization=a; Signature=s",
		Format:       "best",
	}
	if len(disp.reqs) != 1 || disp.reqs[0] != want {
		t.Fatalf("dispatched %+v, want [%+v]", disp.reqs, want)
	}
	if got := auth(); !reflect.DeepEqual(got, []string{"Bearer tok"}) {
		t.Fatalf("unexpected Authorization headers: %q", got)
	}
	if b.closed != 1 {
		t.Fatalf("browser closed %d times, want 1", b.closed)
	}
	if d.State() != StateDone {
		t.Fatalf("final state = %s, want Done", d.State())
	}
	if b.filled[model.EmailSelector] != "me@example.com" {
		t.Fatalf("username not typed into the email field: %v", b.filled)
	}
	if !reflect.DeepEqual(b.clicked, []string{model.SubmitSelector}) {
		t.Fatalf("expected a single submit click, got %q", b.clicked)
	}
	if b.waitedFor != model.DefaultAuthDomain {
		t.Fatalf("waited for %q, want %q", b.waitedFor, model.DefaultAuthDomain)
	}
	if !reflect.DeepEqual(b.navigated, []string{url, url}) {
		t.Fatalf("unexpected navigation sequence %q", b.navigated)
	}
	if !reflect.DeepEqual(b.cookieHosts, []string{"127.0.0.1"}) {
		t.Fatalf("cookies read for %q, want the API host", b.cookieHosts)
	}
}

func TestRunStopsAtFirstAPIError(t *testing.T) {
	srv, _ := apiServer(t, map[string]string{"v1": "First talk"}, map[string]bool{"v2": true})
	b := newFakeBrowser()
	d, disp, _ := newTestDriver(b, srv.URL)

	err := d.Run(context.Background(), []string{
		"https://web.microsoftstream.com/video/v1",
		"https://web.microsoftstream.com/video/v2",
		"https://web.microsoftstream.com/video/v3",
	}, "me@example.com")
	if !errors.Is(err, model.ErrAPI) {
		t.Fatalf("expected ErrAPI, got %v", err)
	}
	if code := model.ExitCode(err); code != model.ExitAPIError {
		t.Fatalf("exit code = %d, want %d", code, model.ExitAPIError)
	}
	if len(disp.reqs) != 1 || disp.reqs[0].Title != "First talk" {
		t.Fatalf("expected only the first video dispatched, got %+v", disp.reqs)
	}
	if b.closed != 1 {
		t.Fatalf("browser closed %d times, want 1", b.closed)
	}
	if d.State() != StateClosingSession {
		t.Fatalf("final state = %s, want ClosingSession", d.State())
	}
}

func TestRunMalformedURLNeverExtracts(t *testing.T) {
	srv, _ := apiServer(t, nil, nil)
	b := newFakeBrowser()
	d, disp, ext := newTestDriver(b, srv.URL)

	err := d.Run(context.Background(), []string{"https://web.microsoftstream.com/video/"}, "me@example.com")
	if !errors.Is(err, model.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if code := model.ExitCode(err); code != model.ExitMalformedURL {
		t.Fatalf("exit code = %d, want %d", code, model.ExitMalformedURL)
	}
	if ext.calls != 0 {
		t.Fatalf("extractor called %d times, want 0", ext.calls)
	}
	if len(disp.reqs) != 0 || b.closed != 1 {
		t.Fatalf("dispatched=%d closed=%d", len(disp.reqs), b.closed)
	}
}

func TestRunMissingCookies(t *testing.T) {
	srv, auth := apiServer(t, nil, nil)
	b := newFakeBrowser()
	b.cookies = []model.Cookie{{Name: model.AuthorizationCookie, Value: "a"}}
	d, _, ext := newTestDriver(b, srv.URL)

	err := d.Run(context.Background(), []string{"https://web.microsoftstream.com/video/x"}, "me@example.com")
	if code := model.ExitCode(err); code != model.ExitCredentialFailure {
		t.Fatalf("exit code = %d (%v), want %d", code, err, model.ExitCredentialFailure)
	}
	if ext.inner.Attempts() != 2 {
		t.Fatalf("cookie reads = %d, want 2", ext.inner.Attempts())
	}
	if len(auth()) != 0 {
		t.Fatal("API must not be called without a credential")
	}
	if b.closed != 1 {
		t.Fatalf("browser closed %d times, want 1", b.closed)
	}
}

func TestRunAuthTimeout(t *testing.T) {
	b := newFakeBrowser()
	b.waitURLErr = fmt.Errorf("%w: gave up", model.ErrAuthTimeout)
	d, _, ext := newTestDriver(b, "http://127.0.0.1:1")

	err := d.Run(context.Background(), []string{"https://web.microsoftstream.com/video/x"}, "me@example.com")
	if code := model.ExitCode(err); code != model.ExitAuthTimeout {
		t.Fatalf("exit code = %d, want %d", code, model.ExitAuthTimeout)
	}
	if ext.calls != 0 || len(b.navigated) != 1 {
		t.Fatalf("expected no video processing, got extract=%d navigations=%q", ext.calls, b.navigated)
	}
	if b.closed != 1 {
		t.Fatalf("browser closed %d times, want 1", b.closed)
	}
}

func TestRunIdleTimeoutOnlyWarns(t *testing.T) {
	srv, _ := apiServer(t, map[string]string{"x": "Talk"}, nil)
	b := newFakeBrowser()
	b.idleErr = browser.ErrIdleTimeout
	d, disp, _ := newTestDriver(b, srv.URL)

	if err := d.Run(context.Background(), []string{"https://web.microsoftstream.com/video/x"}, "me@example.com"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(disp.reqs) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(disp.reqs))
	}
}

func TestRunLaunchFailure(t *testing.T) {
	d := &Driver{
		Launch: func(context.Context) (Browser, error) {
			return nil, fmt.Errorf("%w: no chrome", model.ErrBrowser)
		},
	}
	err := d.Run(context.Background(), []string{"https://web.microsoftstream.com/video/x"}, "me@example.com")
	if code := model.ExitCode(err); code != model.ExitBrowser {
		t.Fatalf("exit code = %d, want %d", code, model.ExitBrowser)
	}
}

func TestRunNoURLs(t *testing.T) {
	d := &Driver{Launch: func(context.Context) (Browser, error) {
		t.Fatal("browser must not be launched without urls")
		return nil, nil
	}}
	if err := d.Run(context.Background(), nil, "me@example.com"); !errors.Is(err, model.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestRunInspectorFailureIsNotFatal(t *testing.T) {
	srv, _ := apiServer(t, map[string]string{"x": "Talk"}, nil)
	b := newFakeBrowser()
	d, disp, _ := newTestDriver(b, srv.URL)
	insp := &failingInspector{}
	d.Inspector = insp

	if err := d.Run(context.Background(), []string{"https://web.microsoftstream.com/video/x"}, "me@example.com"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if insp.calls != 1 || len(disp.reqs) != 1 {
		t.Fatalf("inspect=%d dispatch=%d, want 1/1", insp.calls, len(disp.reqs))
	}
}

func TestRunStateSequence(t *testing.T) {
	srv, _ := apiServer(t, map[string]string{"a": "A", "b": "B"}, nil)
	b := newFakeBrowser()
	d, _, _ := newTestDriver(b, srv.URL)
	var seen []State
	d.trace = func(s State) { seen = append(seen, s) }

	err := d.Run(context.Background(), []string{
		"https://web.microsoftstream.com/video/a",
		"https://web.microsoftstream.com/video/b",
	}, "me@example.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	perVideo := []State{StateNavigating, StateExtractingCredential, StateResolvingManifest, StateDispatching}
	want := []State{StateLaunching, StateAuthenticating}
	want = append(want, perVideo...)
	want = append(want, perVideo...)
	want = append(want, StateClosingSession, StateDone)
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("states = %v\nwant     %v", seen, want)
	}
}

func TestStateString(t *testing.T) {
	if StateExtractingCredential.String() != "ExtractingCredential" {
		t.Fatalf("unexpected name %q", StateExtractingCredential.String())
	}
	if State(99).String() != "Unknown" {
		t.Fatalf("unexpected name for out-of-range state %q", State(99).String())
	}
}
