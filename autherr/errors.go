// Package autherr defines the error kinds surfaced by the authentication core.
//
// Every failure that leaves the public API is one of three kinds:
// Authentication (credentials, tokens, lockout), Validation (policy
// violations caught before a credential check) and NotFound (a subject
// referenced by an already authenticated call is missing). Messages are
// safe to show to end users.
package autherr

import (
	"errors"
	"fmt"
)

// Kind classifies an [Error].
type Kind uint8

const (
	// KindAuthentication covers credential, token and lockout failures.
	KindAuthentication Kind = iota + 1
	// KindValidation covers policy violations such as password reuse.
	KindValidation
	// KindNotFound reports a missing subject for an authenticated operation.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthentication matches any error of KindAuthentication via errors.Is.
	ErrAuthentication = errors.New("authentication error")
	// ErrValidation matches any error of KindValidation via errors.Is.
	ErrValidation = errors.New("validation error")
	// ErrNotFound matches any error of KindNotFound via errors.Is.
	ErrNotFound = errors.New("not found error")
)

// Error is the typed error returned across the authentication API.
type Error struct {
	Kind    Kind
	Message string
	// MinutesRemaining is set on lockout failures and rounded up.
	MinutesRemaining int

	reason error
}

// Error returns the user-facing message.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the internal reason so callers can match package sentinels.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.reason
}

// Is reports kind equality against ErrAuthentication, ErrValidation and ErrNotFound.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// Format prints the message, and with %+v the kind and wrapped reason too.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		if e.reason != nil {
			fmt.Fprintf(s, "%s: %s: %v", e.Kind, e.Message, e.reason)
			return
		}
		fmt.Fprintf(s, "%s: %s", e.Kind, e.Message)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Authentication builds a KindAuthentication error.
func Authentication(message string, reason error) *Error {
	return &Error{Kind: KindAuthentication, Message: message, reason: reason}
}

// Locked builds a KindAuthentication error carrying the minutes left on a lockout.
func Locked(message string, minutesRemaining int, reason error) *Error {
	return &Error{Kind: KindAuthentication, Message: message, MinutesRemaining: minutesRemaining, reason: reason}
}

// Validation builds a KindValidation error.
func Validation(message string, reason error) *Error {
	return &Error{Kind: KindValidation, Message: message, reason: reason}
}

// NotFound builds a KindNotFound error.
func NotFound(message string, reason error) *Error {
	return &Error{Kind: KindNotFound, Message: message, reason: reason}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsAuthentication reports whether err carries KindAuthentication.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }

// IsValidation reports whether err carries KindValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err carries KindNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
