package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrProviderUnavailable means the adapter could not be initialised and no
// upstream call is attempted.
var ErrProviderUnavailable = errors.New("provider unavailable")

type Kind string

const (
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindSchema    Kind = "schema"
	KindEmpty     Kind = "empty"
	KindTimeout   Kind = "timeout"
	KindUnknown   Kind = "unknown"
)

// UpstreamError wraps a failed provider call. Raw is the upstream message as
// received.
type UpstreamError struct {
	Provider string
	Kind     Kind
	Raw      string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Raw)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Guidance is the user-facing text for the error, meant to be spoken.
func (e *UpstreamError) Guidance() string {
	switch e.Kind {
	case KindAuth:
		return "The AI service rejected the API key. Check the provider credentials."
	case KindRateLimit:
		return "The AI service rate limit or quota was reached. Please wait a moment and try again."
	case KindSchema:
		return "The AI service does not support this model or request format. Check the configured model name."
	case KindEmpty:
		return "The AI service returned an empty answer. Please try again."
	case KindTimeout:
		return "The AI service took too long to answer. Please try again."
	default:
		return e.Raw
	}
}

var substrings = []struct {
	kind    Kind
	needles []string
}{
	{KindRateLimit, append([]string{"rate_limit", "rate limit", "ratelimit", "quota", "resource_exhausted", "too many requests"}, statusNeedles(429)...)},
	{KindAuth, append([]string{"api key", "api_key", "apikey", "unauthorized", "authentication", "permission denied", "permission_denied"}, statusNeedles(401, 403)...)},
	{KindSchema, append([]string{"not found for api version", "unsupported", "invalid_argument", "schema", "does not support", "not a valid model"}, statusNeedles(404)...)},
	{KindTimeout, []string{"deadline exceeded", "timeout", "timed out"}},
}

// statusNeedles are the phrasings SDKs use around an HTTP status. A bare
// number would also match ports and request ids.
func statusNeedles(codes ...int) []string {
	var out []string
	for _, c := range codes {
		out = append(out,
			fmt.Sprintf("status code: %d", c),
			fmt.Sprintf("status code %d", c),
			fmt.Sprintf("status: %d", c),
			fmt.Sprintf("error %d", c),
			fmt.Sprintf("http %d", c),
			fmt.Sprintf("%d %s", c, strings.ToLower(http.StatusText(c))),
		)
	}
	return out
}

// Classify wraps err into an UpstreamError for provider. Errors that already
// are UpstreamErrors pass through.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	raw := err.Error()
	return &UpstreamError{Provider: provider, Kind: kindOf(raw), Raw: raw, Err: err}
}

// ClassifyStatus is Classify for SDKs that expose the HTTP status code.
func ClassifyStatus(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	kind := KindUnknown
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound || status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindSchema
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		kind = KindTimeout
	}
	raw := err.Error()
	if kind == KindUnknown || kind == KindSchema {
		// a 400 body often says more than the status does
		if k := kindOf(raw); k != KindUnknown {
			kind = k
		}
	}
	return &UpstreamError{Provider: provider, Kind: kind, Raw: raw, Err: err}
}

// Empty is the UpstreamError for a reply without any text.
func Empty(provider string) error {
	return &UpstreamError{Provider: provider, Kind: KindEmpty, Raw: "empty response from " + provider}
}

func kindOf(raw string) Kind {
	lower := strings.ToLower(raw)
	for _, s := range substrings {
		for _, n := range s.needles {
			if strings.Contains(lower, n) {
				return s.kind
			}
		}
	}
	return KindUnknown
}
