package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jmagar/streamgrab/internal/model"
)

// VideoIDFromURL returns the last path segment of a video URL.
// Query and fragment are ignored. A URL whose path ends in "/" or has no
// path at all yields ErrMalformedInput.
func VideoIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", model.ErrMalformedInput, rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w %q: not an absolute url", model.ErrMalformedInput, rawURL)
	}
	p := u.EscapedPath()
	id := p[strings.LastIndex(p, "/")+1:]
	if id == "" {
		return "", fmt.Errorf("%w %q: couldn't split the video id", model.ErrMalformedInput, rawURL)
	}
	unescaped, err := url.PathUnescape(id)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", model.ErrMalformedInput, rawURL, err)
	}
	return unescaped, nil
}

// BuildRequests pairs each URL with its input position.
func BuildRequests(urls []string) []model.VideoRequest {
	reqs := make([]model.VideoRequest, len(urls))
	for i, u := range urls {
		reqs[i] = model.VideoRequest{Index: i, URL: u}
	}
	return reqs
}
