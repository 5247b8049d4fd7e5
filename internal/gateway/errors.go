package gateway

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthorized: no, expired or rejected token. The stored token has
	// been cleared by the time the caller sees it.
	KindUnauthorized
	// KindRemoteRejected: the remote answered with a domain error. Never
	// falls back.
	KindRemoteRejected
	// KindRemoteUnreachable: transport failure. Triggers the local fallback
	// and only surfaces where no fallback exists.
	KindRemoteUnreachable
	// KindMalformedResponse: unparsable envelope, handled like
	// KindRemoteUnreachable.
	KindMalformedResponse
	// KindNotFound: the local fallback has no such record.
	KindNotFound
	// KindInvalid: rejected before any network call.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindRemoteUnreachable:
		return "remote_unreachable"
	case KindMalformedResponse:
		return "malformed_response"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is the failure branch of every gateway operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int // HTTP status, when the remote answered
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrRemoteRejected    = &Error{Kind: KindRemoteRejected}
	ErrRemoteUnreachable = &Error{Kind: KindRemoteUnreachable}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalid           = &Error{Kind: KindInvalid}
)

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// shouldFallback reports whether err is a transport-level failure.
func shouldFallback(err error) bool {
	switch KindOf(err) {
	case KindRemoteUnreachable, KindMalformedResponse:
		return true
	}
	return false
}
