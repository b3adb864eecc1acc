package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an authentication failure.
type ErrorKind string

const (
	KindInvalidSessionFormat     ErrorKind = "invalid_session_format"
	KindStoreUnavailable         ErrorKind = "store_unavailable"
	KindSessionNotFoundOrExpired ErrorKind = "session_not_found_or_expired"
	KindNoLinkedAccount          ErrorKind = "no_linked_account"
	KindTokenExpired             ErrorKind = "token_expired"
	KindCorruptRecord            ErrorKind = "corrupt_record"
	KindCustom                   ErrorKind = "custom"
)

// Sentinels for errors.Is. Any *AuthError with the same Kind matches.
var (
	ErrInvalidSessionFormat     = &AuthError{Kind: KindInvalidSessionFormat}
	ErrStoreUnavailable         = &AuthError{Kind: KindStoreUnavailable}
	ErrSessionNotFoundOrExpired = &AuthError{Kind: KindSessionNotFoundOrExpired}
	ErrNoLinkedAccount          = &AuthError{Kind: KindNoLinkedAccount}
	ErrTokenExpired             = &AuthError{Kind: KindTokenExpired}
	ErrCorruptRecord            = &AuthError{Kind: KindCorruptRecord}
)

// AuthError is the error returned by every AuthProvider.
// Reason is for operators and may contain ids, never secret material.
type AuthError struct {
	Kind   ErrorKind
	Code   string // sub-classification for KindCustom, e.g. "insufficient_scope"
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	msg := string(e.Kind)
	if e.Code != "" {
		msg += "(" + e.Code + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches another *AuthError of the same kind. A target with a Code also
// requires the codes to match.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Retryable reports whether the same call may succeed later unchanged.
func (e *AuthError) Retryable() bool {
	return e.Kind == KindStoreUnavailable
}

// UserMessage is the text a caller may show to a client. Malformed, unknown and
// inconsistent credentials share one message so responses cannot be used to
// discover which session ids exist.
func (e *AuthError) UserMessage() string {
	switch e.Kind {
	case KindTokenExpired:
		return "authentication failed: the linked account's access token has expired, re-link the account"
	case KindStoreUnavailable:
		return "authentication is temporarily unavailable, try again"
	case KindCustom:
		if e.Code == CodeInsufficientScope {
			return "authentication failed: the linked account lacks a required scope"
		}
		if e.Code == CodeAuthDisabled {
			return "authentication is disabled"
		}
		return "authentication failed"
	default:
		return "authentication failed"
	}
}

// Codes used with KindCustom by the providers in this module.
const (
	CodeInsufficientScope = "insufficient_scope"
	CodeInvalidAPIKey     = "invalid_api_key"
	CodeInvalidToken      = "invalid_token"
	CodeAuthDisabled      = "auth_disabled"
)

// NewCustomError builds a KindCustom error for AuthProvider implementations
// outside this package.
func NewCustomError(code, reason string, err error) *AuthError {
	return &AuthError{Kind: KindCustom, Code: code, Reason: reason, Err: err}
}

func newAuthError(kind ErrorKind, reason string, err error) *AuthError {
	return &AuthError{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the kind of an AuthError anywhere in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// ErrMalformedSessionID matches every *ValidationError.
var ErrMalformedSessionID = errors.New("malformed session id")

// ValidationError explains why a session id was rejected before any lookup.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedSessionID, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrMalformedSessionID
}
