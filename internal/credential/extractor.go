// Package credential reads the signed API cookie pair out of a live browser session.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/ui"
)

const (
	// DefaultRetryDelay is how long cookie-setting scripts get before the second read.
	DefaultRetryDelay = 5 * time.Second
	// DefaultMaxAttempts is the first read plus exactly one retry.
	DefaultMaxAttempts = 2
)

// CookieSource is a borrowed view of a browser session's cookie jar.
type CookieSource interface {
	Cookies(ctx context.Context, host string) ([]model.Cookie, error)
}

// Extractor produces the Credential for an API host from a CookieSource.
type Extractor struct {
	RetryDelay  time.Duration
	MaxAttempts uint

	attempts int
}

// NewExtractor returns an extractor with the default delay and attempt budget.
func NewExtractor() *Extractor {
	return &Extractor{RetryDelay: DefaultRetryDelay, MaxAttempts: DefaultMaxAttempts}
}

// Attempts reports how many cookie reads the last Extract call made.
func (e *Extractor) Attempts() int {
	return e.attempts
}

// Extract reads the Authorization_Api and Signature_Api cookies for host.
// If either is missing it waits RetryDelay and reads once more; if they are
// still missing it returns an error matching model.ErrCredentialUnavailable.
// A failing cookie read counts as a missing cookie.
func (e *Extractor) Extract(ctx context.Context, src CookieSource, host string) (model.Credential, error) {
	delay := e.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	maxAttempts := e.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	e.attempts = 0
	operation := func() (model.Credential, error) {
		e.attempts++
		cookies, err := src.Cookies(ctx, host)
		if err != nil {
			return model.Credential{}, fmt.Errorf("read cookies for %s: %w", host, err)
		}
		return FromCookies(cookies)
	}
	notify := func(err error, wait time.Duration) {
		ui.PrintVerbose(fmt.Sprintf("%v; retrying in %s", err, wait))
	}

	cred, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(maxAttempts),
		backoff.WithNotify(notify),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Credential{}, ctxErr
		}
		return model.Credential{}, fmt.Errorf("%w after %d attempts: %w", model.ErrCredentialUnavailable, e.attempts, err)
	}
	return cred, nil
}

// errMissingCookies lists which of the required cookies are absent.
type errMissingCookies []string

func (m errMissingCookies) Error() string {
	return "missing cookies: " + strings.Join(m, ", ")
}

// FromCookies picks the two signed cookies out of a jar listing.
func FromCookies(cookies []model.Cookie) (model.Credential, error) {
	var cred model.Credential
	for _, c := range cookies {
		switch c.Name {
		case model.AuthorizationCookie:
			if cred.Authorization == "" {
				cred.Authorization = c.Value
			}
		case model.SignatureCookie:
			if cred.Signature == "" {
				cred.Signature = c.Value
			}
		}
	}
	var missing errMissingCookies
	if cred.Authorization == "" {
		missing = append(missing, model.AuthorizationCookie)
	}
	if cred.Signature == "" {
		missing = append(missing, model.SignatureCookie)
	}
	if len(missing) > 0 {
		return model.Credential{}, missing
	}
	return cred, nil
}

// IsMissingCookies reports whether err came from absent cookies rather than a read failure.
func IsMissingCookies(err error) bool {
	var m errMissingCookies
	return errors.As(err, &m)
}
