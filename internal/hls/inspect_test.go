package hls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const masterPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360,CODECS="avc1.4d401e,mp4a.40.2"
360.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2"
720.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.0,
seg0.ts
#EXTINF:10.0,
seg1.ts
#EXTINF:4.5,
seg2.ts
#EXT-X-ENDLIST
`

func serve(t *testing.T, body string, gotCookie *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotCookie != nil {
			*gotCookie = r.Header.Get("Cookie")
		}
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInspectMaster(t *testing.T) {
	var cookie string
	srv := serve(t, masterPlaylist, &cookie)

	sum, err := NewInspector().Inspect(context.Background(), srv.URL+"/x.m3u8", "Authorization=a; Signature=s")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if cookie != "Authorization=a; Signature=s" {
		t.Fatalf("cookie header not forwarded, got %q", cookie)
	}
	if sum.Kind != KindMaster || len(sum.Variants) != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Variants[0].Resolution != "1280x720" {
		t.Fatalf("expected highest bandwidth first, got %+v", sum.Variants)
	}
	lines := sum.Lines()
	if len(lines) != 3 || !strings.Contains(lines[1], "2.5 Mbit/s") {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestInspectMedia(t *testing.T) {
	srv := serve(t, mediaPlaylist, nil)

	sum, err := NewInspector().Inspect(context.Background(), srv.URL+"/x.m3u8", "")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if sum.Kind != KindMedia || sum.Segments != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Duration != 25*time.Second {
		t.Fatalf("expected 25s (rounded), got %s", sum.Duration)
	}
	if sum.Live {
		t.Fatal("playlist with ENDLIST should not be live")
	}
}

func TestInspectHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewInspector().Inspect(context.Background(), srv.URL, ""); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestVariantStringAudioOnly(t *testing.T) {
	got := Variant{Bandwidth: 128000}.String()
	if !strings.HasPrefix(got, "audio") {
		t.Fatalf("expected audio label, got %q", got)
	}
}
