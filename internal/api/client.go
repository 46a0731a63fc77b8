package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/ui"
)

const (
	// videoExpand is the fixed $expand list the web player sends; the
	// playbackUrls field is only populated when it is present.
	videoExpand = "creator,tokens,status,liveEvent,extensions"

	maxErrorBody = 1 << 20
)

// Client resolves video manifests from the streaming metadata API.
type Client struct {
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	// Verbose prints full error bodies and successful responses.
	Verbose bool
}

// NewClient returns a client for baseURL with a 30s request timeout.
func NewClient(baseURL string, verbose bool) *Client {
	if baseURL == "" {
		baseURL = model.DefaultAPIBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIVersion: model.APIVersion,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Verbose:    verbose,
	}
}

// Host returns the API host name, which scopes the signed cookies.
func (c *Client) Host() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// VideoURL builds the metadata endpoint URL for videoID.
func (c *Client) VideoURL(videoID string) string {
	version := c.APIVersion
	if version == "" {
		version = model.APIVersion
	}
	return fmt.Sprintf("%s/api/videos/%s?$expand=%s&api-version=%s",
		c.BaseURL, url.PathEscape(videoID), videoExpand, url.QueryEscape(version))
}

// do is the single gateway for outbound API calls. It issues exactly one
// request and records it in the API log; there is no retry because error
// responses from this API mean the session is unusable.
// Caller is responsible for closing the returned response body.
func (c *Client) do(ctx context.Context, label, videoID string, req *http.Request) (*http.Response, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	start := time.Now()
	resp, err := httpClient.Do(req.WithContext(ctx))
	duration := time.Since(start)
	if err != nil {
		LogRequest(label, videoID, 0, duration, err)
		return nil, err
	}
	var statusErr error
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr = fmt.Errorf("HTTP %s", resp.Status)
	}
	LogRequest(label, videoID, resp.StatusCode, duration, statusErr)
	return resp, nil
}

// Resolve fetches the metadata of videoID with the bearer accessToken and
// returns its title and HLS playback URL.
//
// Errors: *model.APIError (matches model.ErrAPI) for non-2xx responses and
// transport failures, model.ErrManifestNotFound when no HLS entry exists.
func (c *Client) Resolve(ctx context.Context, videoID, accessToken string) (*model.Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.VideoURL(videoID), nil)
	if err != nil {
		return nil, &model.APIError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, "videos", videoID, req)
	if err != nil {
		return nil, &model.APIError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, &model.APIError{StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &model.APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
		ui.PrintError("Error when calling the streaming API: " + resp.Status)
		if c.Verbose {
			fmt.Println(string(body))
		}
		return nil, apiErr
	}

	if c.Verbose {
		var pretty bytes.Buffer
		if json.Indent(&pretty, body, "", "  ") == nil {
			fmt.Println(pretty.String())
		}
	}

	var info model.VideoInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &model.APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			Err:        fmt.Errorf("decode video %s: %w", videoID, err),
		}
	}

	hlsURL, ok := FindHLSURL(info.PlaybackURLs)
	LogManifest(videoID, ok)
	if !ok {
		return nil, fmt.Errorf("%w (video %s, %d playback entries)", model.ErrManifestNotFound, videoID, len(info.PlaybackURLs))
	}
	return &model.Manifest{VideoID: videoID, Title: info.Name, PlaybackURL: hlsURL}, nil
}

// FindHLSURL returns the first playback URL whose mime type marks an HLS manifest.
func FindHLSURL(entries []model.PlaybackURL) (string, bool) {
	for _, e := range entries {
		if e.MimeType == model.HLSMimeType {
			return e.PlaybackURL, true
		}
	}
	return "", false
}

// IsAPIError reports whether err carries a metadata API failure and returns it.
func IsAPIError(err error) (*model.APIError, bool) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
