package model

const (
	// APIVersion is the private metadata API contract the playback fields are read from.
	APIVersion = "1.3-private"

	DefaultAPIBaseURL      = "https://api.microsoftstream.com"
	DefaultAuthDomain      = "microsoftstream.com/"
	DefaultOutputDirectory = "videos"

	// HLSMimeType marks the playback entry the downloader can consume.
	HLSMimeType = "application/vnd.apple.mpegurl"

	AuthorizationCookie = "Authorization_Api"
	SignatureCookie     = "Signature_Api"

	EmailSelector  = `input[type="email"]`
	SubmitSelector = `input[type="submit"]`

	// AccessTokenExpression reads the bearer token the web player keeps in page globals.
	AccessTokenExpression = `typeof sessionInfo !== "undefined" && sessionInfo && sessionInfo.AccessToken`
)
