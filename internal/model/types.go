package model

import (
	"fmt"
	"strings"
)

// Config holds the resolved run configuration: config file values overlaid by CLI args.
type Config struct {
	VideoURLs       []string `json:"-"`
	Username        string   `json:"username,omitempty"`
	OutputDirectory string   `json:"outputDirectory"`
	Format          string   `json:"format,omitempty"`
	Simulate        bool     `json:"-"`
	Verbose         bool     `json:"-"`
	ChromePath      string   `json:"chromePath,omitempty"`
	DownloaderPath  string   `json:"downloaderPath,omitempty"`
	APIBaseURL      string   `json:"apiBaseUrl,omitempty"`
	AuthDomain      string   `json:"authDomain,omitempty"`
}

// ArgsDescriptionFunc is set by package main to provide colored help text.
// If nil, Description() returns an empty string (go-arg will use default help).
var ArgsDescriptionFunc func() string

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	VideoURLs       []string `arg:"--videoUrls,required" placeholder:"URL" help:"One or more video URLs to download."`
	Username        string   `arg:"--username,required" help:"Email address used for the SSO login form."`
	OutputDirectory string   `arg:"--outputDirectory" placeholder:"DIR" help:"Where to download to. Path will be made if it doesn't already exist. (default: videos)"`
	Format          string   `arg:"-f,--format" help:"Passed through as the downloader --format option."`
	Simulate        bool     `arg:"-s,--simulate" help:"Resolve everything but don't download; the downloader only validates its inputs."`
	Verbose         bool     `arg:"-v,--verbose" help:"Print additional information (API responses, manifest variants, state changes)."`
	ChromePath      string   `arg:"--chromePath" placeholder:"PATH" help:"Chrome/Chromium binary to launch instead of the auto-detected one."`
	Downloader      string   `arg:"--downloader" placeholder:"PATH" help:"youtube-dl compatible binary (default: youtube-dl, then yt-dlp)."`
}

// Description provides custom help text for go-arg.
func (Args) Description() string {
	if ArgsDescriptionFunc != nil {
		return ArgsDescriptionFunc()
	}
	return ""
}

// VideoRequest is one input URL and its position in the input sequence.
type VideoRequest struct {
	Index int
	URL   string
}

// Cookie is a browser cookie as reported by the session's cookie jar.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Credential is the signed cookie pair the streaming API expects alongside the
// bearer token. It is only valid for the browser session it was read from.
type Credential struct {
	Authorization string
	Signature     string
}

// Header renders the credential as a Cookie header value.
func (c Credential) Header() string {
	return fmt.Sprintf("Authorization=%s; Signature=%s", c.Authorization, c.Signature)
}

// Manifest is the resolved title and HLS playback URL of one video.
type Manifest struct {
	VideoID     string
	Title       string
	PlaybackURL string
}

// VideoInfo mirrors the subset of the metadata API response we consume.
type VideoInfo struct {
	Name         string        `json:"name"`
	PlaybackURLs []PlaybackURL `json:"playbackUrls"`
}

// PlaybackURL is one entry of VideoInfo.PlaybackURLs.
type PlaybackURL struct {
	MimeType    string `json:"mimeType"`
	PlaybackURL string `json:"playbackUrl"`
}

// DownloadRequest is everything the downloader needs for one video.
type DownloadRequest struct {
	Title        string
	ManifestURL  string
	CookieHeader string
	Format       string
	Simulate     bool
}

// String returns a log-safe description; the cookie value is never printed.
func (r DownloadRequest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "title=%q url=%s", r.Title, r.ManifestURL)
	if r.Format != "" {
		fmt.Fprintf(&b, " format=%s", r.Format)
	}
	if r.Simulate {
		b.WriteString(" simulate")
	}
	return b.String()
}
