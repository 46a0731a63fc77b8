package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"malformed", fmt.Errorf("video 1: %w", ErrMalformedInput), ExitMalformedURL},
		{"credential", fmt.Errorf("extract: %w", ErrCredentialUnavailable), ExitCredentialFailure},
		{"manifest", fmt.Errorf("resolve: %w", ErrManifestNotFound), ExitManifestNotFound},
		{"api status", &APIError{StatusCode: 403, Status: "403 Forbidden"}, ExitAPIError},
		{"api wrapped", fmt.Errorf("video 2: %w", &APIError{StatusCode: 500, Status: "500"}), ExitAPIError},
		{"auth timeout", fmt.Errorf("login: %w", ErrAuthTimeout), ExitAuthTimeout},
		{"browser", fmt.Errorf("launch: %w", ErrBrowser), ExitBrowser},
		{"dispatch", fmt.Errorf("run: %w", ErrDispatch), ExitDispatch},
		{"downloader missing", ErrDownloaderMissing, ExitDownloaderMissing},
		{"output dir", ErrOutputDir, ExitOutputDir},
		{"interrupted", fmt.Errorf("navigate: %w", context.Canceled), ExitInterrupted},
		{"interrupted api call", &APIError{Err: context.Canceled}, ExitInterrupted},
		{"unknown", errors.New("boom"), ExitGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAPIErrorMatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("resolve: %w", &APIError{Err: cause})
	if !errors.Is(err, ErrAPI) {
		t.Fatal("expected ErrAPI to match")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected transport cause to match")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected errors.As to find *APIError")
	}
}

func TestCredentialHeader(t *testing.T) {
	c := Credential{Authorization: "abc", Signature: "xyz"}
	if got, want := c.Header(), "Authorization=abc; Signature=xyz"; got != want {
		t.Fatalf("Header() = %q, want %q", got, want)
	}
}

func TestDownloadRequestStringOmitsCookie(t *testing.T) {
	r := DownloadRequest{Title: "Talk", ManifestURL: "https://cdn/x.m3u8", CookieHeader: "Authorization=secret", Simulate: true}
	s := r.String()
	if want := `title="Talk" url=https://cdn/x.m3u8 simulate`; s != want {
		t.Fatalf("String() = %q, want %q", s, want)
	}
}
