// Package hls fetches and summarises HLS playlists before they are handed
// to the downloader.
package hls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/grafov/m3u8"
)

// Playlist kinds reported in Summary.Kind.
const (
	KindMaster = "master"
	KindMedia  = "media"
)

// Variant is one rendition advertised by a master playlist.
type Variant struct {
	Resolution string
	Bandwidth  uint32
	Codecs     string
	URI        string
}

func (v Variant) String() string {
	res := v.Resolution
	if res == "" {
		res = "audio"
	}
	parts := []string{res, humanize.SI(float64(v.Bandwidth), "bit/s")}
	if v.Codecs != "" {
		parts = append(parts, v.Codecs)
	}
	return strings.Join(parts, "  ")
}

// Summary describes a decoded playlist.
type Summary struct {
	Kind     string
	Variants []Variant // master only, highest bandwidth first
	Segments int       // media only
	Duration time.Duration
	Live     bool
}

// Lines renders the summary for terminal output.
func (s *Summary) Lines() []string {
	switch s.Kind {
	case KindMaster:
		lines := []string{fmt.Sprintf("master playlist, %s variants", humanize.Comma(int64(len(s.Variants))))}
		for _, v := range s.Variants {
			lines = append(lines, v.String())
		}
		return lines
	case KindMedia:
		line := fmt.Sprintf("media playlist, %s segments, %s", humanize.Comma(int64(s.Segments)), s.Duration)
		if s.Live {
			line += " (live)"
		}
		return []string{line}
	}
	return nil
}

// Inspector fetches manifests with the session's API cookie header.
type Inspector struct {
	HTTPClient *http.Client
}

// NewInspector returns an Inspector with a 30s request timeout.
func NewInspector() *Inspector {
	return &Inspector{HTTPClient: &http.Client{Timeout: 30 * time.Second}}
}

// Inspect downloads manifestURL and decodes it.
func (i *Inspector) Inspect(ctx context.Context, manifestURL, cookieHeader string) (*Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, err
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	client := i.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(resp.Status)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	switch listType {
	case m3u8.MASTER:
		return summariseMaster(playlist.(*m3u8.MasterPlaylist)), nil
	case m3u8.MEDIA:
		return summariseMedia(playlist.(*m3u8.MediaPlaylist)), nil
	}
	return nil, fmt.Errorf("unknown playlist type %v", listType)
}

func summariseMaster(master *m3u8.MasterPlaylist) *Summary {
	s := &Summary{Kind: KindMaster}
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		s.Variants = append(s.Variants, Variant{
			Resolution: v.Resolution,
			Bandwidth:  v.Bandwidth,
			Codecs:     v.Codecs,
			URI:        v.URI,
		})
	}
	sort.SliceStable(s.Variants, func(x, y int) bool {
		return s.Variants[x].Bandwidth > s.Variants[y].Bandwidth
	})
	return s
}

func summariseMedia(media *m3u8.MediaPlaylist) *Summary {
	s := &Summary{Kind: KindMedia, Live: !media.Closed}
	var seconds float64
	for _, seg := range media.Segments {
		// Segments is a ring buffer; unused slots are nil.
		if seg == nil {
			break
		}
		s.Segments++
		seconds += seg.Duration
	}
	s.Duration = time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return s
}
