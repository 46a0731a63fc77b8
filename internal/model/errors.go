package model

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the resolution pipeline. Components wrap these with %w;
// ExitCode maps them to process exit codes at the top level.
var (
	// ErrMalformedInput is returned when a video URL has no final path segment.
	ErrMalformedInput = errors.New("malformed video url")
	// ErrCredentialUnavailable is returned when the signed API cookies never appear.
	ErrCredentialUnavailable = errors.New("unable to read API cookies")
	// ErrAPI is returned for non-success responses (or transport failures) from the metadata API.
	ErrAPI = errors.New("metadata API error")
	// ErrManifestNotFound is returned when the API response carries no HLS playback URL.
	ErrManifestNotFound = errors.New("no HLS playback url in API response")
	// ErrAuthTimeout is returned when the login never lands on the streaming domain.
	ErrAuthTimeout = errors.New("authentication did not complete in time")
	// ErrBrowser covers launch and navigation failures of the controlled browser.
	ErrBrowser = errors.New("browser session error")
	// ErrDispatch is returned when the downloader exits unsuccessfully.
	ErrDispatch = errors.New("downloader failed")
	// ErrDownloaderMissing is returned when no youtube-dl compatible binary can be found.
	ErrDownloaderMissing = errors.New("youtube-dl compatible downloader not found")
	// ErrOutputDir is returned when the output directory cannot be created.
	ErrOutputDir = errors.New("cannot create output directory")
)

// APIError carries the failed metadata API response.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", ErrAPI, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrAPI, e.Status)
}

// Unwrap lets errors.Is match both ErrAPI and the transport cause.
func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrAPI, e.Err}
	}
	return []error{ErrAPI}
}

// Process exit codes.
const (
	ExitOK                = 0
	ExitGeneric           = 1
	ExitDownloaderMissing = 22
	ExitOutputDir         = 23
	ExitMalformedURL      = 25
	ExitManifestNotFound  = 27
	ExitAPIError          = 29
	ExitAuthTimeout       = 33
	ExitBrowser           = 34
	ExitDispatch          = 35
	ExitCredentialFailure = 88
	ExitInterrupted       = 130
)

var exitCodes = []struct {
	err  error
	code int
}{
	{context.Canceled, ExitInterrupted},
	{ErrMalformedInput, ExitMalformedURL},
	{ErrCredentialUnavailable, ExitCredentialFailure},
	{ErrManifestNotFound, ExitManifestNotFound},
	{ErrAPI, ExitAPIError},
	{ErrAuthTimeout, ExitAuthTimeout},
	{ErrDispatch, ExitDispatch},
	{ErrDownloaderMissing, ExitDownloaderMissing},
	{ErrOutputDir, ExitOutputDir},
	{ErrBrowser, ExitBrowser},
}

// ExitCode maps an error returned by the pipeline to its process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ExitGeneric
}
