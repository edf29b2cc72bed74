package errors

import (
	"errors"
	"fmt"
)

// TransportKind distinguishes completion service failures so callers can branch on them.
type TransportKind string

const (
	KindAuthentication TransportKind = "authentication"
	KindRateLimit      TransportKind = "rate_limit"
	KindAPI            TransportKind = "api"
)

// TransportError wraps a completion service failure with its kind and provider.
type TransportError struct {
	Kind       TransportKind
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	var detail string
	if e.Err != nil {
		detail = e.Err.Error()
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.sentinel().Error(), detail)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *TransportError) sentinel() error {
	switch e.Kind {
	case KindAuthentication:
		return ErrAuthentication
	case KindRateLimit:
		return ErrRateLimited
	default:
		return ErrAPI
	}
}

// Transport builds a TransportError for the given provider.
func Transport(kind TransportKind, provider string, statusCode int, err error) error {
	return &TransportError{
		Kind:       kind,
		Provider:   provider,
		StatusCode: statusCode,
		Err:        err,
	}
}

// KindFromStatus classifies an HTTP status code returned by a completion service.
func KindFromStatus(statusCode int) TransportKind {
	switch statusCode {
	case 401, 403:
		return KindAuthentication
	case 429:
		return KindRateLimit
	default:
		return KindAPI
	}
}

// IsTransport reports whether err is a completion service transport failure and returns it.
func IsTransport(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
